/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"io"

	"github.com/mike-khor/llm-tournament-widget/agents/providerfactory"
	"github.com/mike-khor/llm-tournament-widget/agents/tournament/report"
	"github.com/spf13/cobra"
)

func newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the supported providers and their default models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rows := make([][]string, 0, len(providerfactory.Names()))
			for _, name := range providerfactory.Names() {
				model, _ := providerfactory.DefaultModel(name)
				rows = append(rows, []string{name, model})
			}
			_, err := io.WriteString(cmd.OutOrStdout(), report.Table([]string{"Provider", "Default model"}, rows))
			return err
		},
	}
}
