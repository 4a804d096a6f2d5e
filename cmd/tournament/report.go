/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"io"

	"github.com/mike-khor/llm-tournament-widget/agents/tournament/archive"
	"github.com/mike-khor/llm-tournament-widget/agents/tournament/report"
	"github.com/spf13/cobra"
)

func newReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "report <archive>",
		Short:   "Print the leaderboard of an archived tournament",
		Example: "  tournament report runs/latest.yaml\n  tournament report gs://bucket/runs/latest.json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arc, err := archive.New()
			if err != nil {
				return err
			}
			defer arc.Close()

			batch, err := arc.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), report.Leaderboard(batch))
			return err
		},
	}
}
