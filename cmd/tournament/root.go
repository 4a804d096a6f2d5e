/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
)

// app carries state shared by the subcommands once the root command has
// processed the environment.
type app struct {
	lookuper envconfig.Lookuper
	cfg      config
}

func newRootCommand(lookuper envconfig.Lookuper) *cobra.Command {
	a := &app{lookuper: lookuper}

	root := &cobra.Command{
		Use:   "tournament",
		Short: "Rank system prompts by generating and judging LLM responses",
		Long: `tournament runs every candidate system prompt against a shared test input,
samples several responses per prompt, has an evaluator model grade each
response against weighted criteria, and prints a ranked leaderboard.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), a.lookuper)
			if err != nil {
				return err
			}
			ctx, err := withLogger(cmd.Context(), cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			a.cfg = cfg
			cmd.SetContext(ctx)
			return nil
		},
	}

	root.AddCommand(
		newEvaluateCommand(a),
		newProvidersCommand(),
		newReportCommand(),
		newSchemaCommand(),
	)
	return root
}

// serveMetrics exposes the default Prometheus registry until ctx is done.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			clog.FromContext(ctx).With("addr", addr).With("error", err).Error("Metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
}
