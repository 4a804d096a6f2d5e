/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/fatih/color"
	"github.com/mike-khor/llm-tournament-widget/agents/executor/ratelimit"
	"github.com/mike-khor/llm-tournament-widget/agents/executor/throttled"
	"github.com/mike-khor/llm-tournament-widget/agents/providerfactory"
	"github.com/mike-khor/llm-tournament-widget/agents/tournament"
	"github.com/mike-khor/llm-tournament-widget/agents/tournament/archive"
	"github.com/mike-khor/llm-tournament-widget/agents/tournament/report"
	"github.com/spf13/cobra"
)

type evaluateFlags struct {
	requestFile string
	prompts     []string
	input       string
	expected    string
	generations int
	evaluations int
	output      string
	format      string
}

func newEvaluateCommand(a *app) *cobra.Command {
	var f evaluateFlags

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run a tournament and print the leaderboard",
		Example: `  tournament evaluate --request request.yaml
  tournament evaluate --prompt "Be terse." --prompt "Be thorough." --input "What is DNS?"
  tournament evaluate --request request.yaml --output gs://bucket/runs/latest.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := f.request(cmd)
			if err != nil {
				return err
			}
			req, err = normalize(req, a.cfg.MaxPromptsPerRequest)
			if err != nil {
				return fmt.Errorf("%w: %w", tournament.ErrInvalidRequest, err)
			}
			return a.evaluate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), req, f)
		},
	}

	cmd.Flags().StringVarP(&f.requestFile, "request", "r", "", "YAML or JSON file describing the tournament")
	cmd.Flags().StringArrayVarP(&f.prompts, "prompt", "p", nil, "candidate system prompt (repeatable)")
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "test input sent with every prompt")
	cmd.Flags().StringVar(&f.expected, "expected", "", "optional reference answer shown to the evaluator")
	cmd.Flags().IntVarP(&f.generations, "generations", "k", 0, fmt.Sprintf("responses per prompt (default %d, max %d)", defaultRunCount, maxRunCount))
	cmd.Flags().IntVarP(&f.evaluations, "evaluations", "j", 0, fmt.Sprintf("evaluations per criterion per response (default %d, max %d)", defaultRunCount, maxRunCount))
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "archive the batch to a local path or gs://bucket/object")
	cmd.Flags().StringVar(&f.format, "format", "markdown", "stdout format: markdown or json")
	return cmd
}

// request merges the request file with flag overrides. Flags win.
func (f evaluateFlags) request(cmd *cobra.Command) (tournament.Request, error) {
	var req tournament.Request
	if f.requestFile != "" {
		var err error
		if req, err = loadRequest(f.requestFile); err != nil {
			return req, err
		}
	}
	if len(f.prompts) > 0 {
		req.Prompts = f.prompts
	}
	if cmd.Flags().Changed("input") {
		req.TestInput = f.input
	}
	if cmd.Flags().Changed("expected") {
		req.ExpectedOutput = f.expected
	}
	if f.generations != 0 {
		req.GenerationCount = f.generations
	}
	if f.evaluations != 0 {
		req.EvaluationCount = f.evaluations
	}
	switch f.format {
	case "markdown", "json":
	default:
		return req, fmt.Errorf("unknown format %q (expected markdown or json)", f.format)
	}
	return req, nil
}

func (a *app) evaluate(ctx context.Context, out, status io.Writer, req tournament.Request, f evaluateFlags) error {
	cfg := a.cfg
	log := clog.FromContext(ctx)

	if cfg.MetricsAddr != "" {
		serveMetrics(ctx, cfg.MetricsAddr)
	}

	orch, err := a.orchestrator(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	batch, err := orch.EvaluateMultiplePrompts(ctx, req)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("tournament interrupted: %w", context.Cause(ctx))
	}
	log.With("batch_id", batch.ID).With("elapsed", time.Since(start)).Info("Tournament finished")

	if f.output != "" {
		arc, err := archive.New()
		if err != nil {
			return err
		}
		defer arc.Close()
		if err := arc.Save(ctx, f.output, batch); err != nil {
			return fmt.Errorf("archiving batch: %w", err)
		}
		log.With("destination", f.output).Info("Batch archived")
	}

	printWinner(status, batch)
	if f.format == "json" {
		return archive.Encode(out, batch, archive.JSON)
	}
	_, err = io.WriteString(out, report.Leaderboard(batch))
	return err
}

var (
	winnerStyle = color.New(color.FgGreen, color.Bold)
	mutedStyle  = color.New(color.Faint)
)

// printWinner writes a one-line verdict to the status stream.
func printWinner(w io.Writer, batch *tournament.BatchResult) {
	if len(batch.Results) == 0 {
		return
	}
	best := batch.Results[0]
	_, _ = winnerStyle.Fprintf(w, "Winner: %.3f", best.TotalScore)
	_, _ = mutedStyle.Fprintf(w, " of %d prompts (%s)\n", len(batch.Results), batch.ExecutionTime.Round(time.Millisecond))
}

// orchestrator wires one limiter and executor shared by generation and
// evaluation traffic.
func (a *app) orchestrator(ctx context.Context) (*tournament.Orchestrator, error) {
	cfg := a.cfg

	limiter, err := ratelimit.New(cfg.limits())
	if err != nil {
		return nil, fmt.Errorf("creating rate limiter: %w", err)
	}
	exec, err := throttled.New(limiter, cfg.retry(), throttled.WithCapacityWait(cfg.CapacityWaitTimeout))
	if err != nil {
		return nil, fmt.Errorf("creating executor: %w", err)
	}

	generator, err := providerfactory.New(ctx, cfg.generation(), cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("generation provider: %w", err)
	}
	evaluator := generator
	if cfg.evaluation() != cfg.generation() {
		if evaluator, err = providerfactory.New(ctx, cfg.evaluation(), cfg.Credentials); err != nil {
			return nil, fmt.Errorf("evaluation provider: %w", err)
		}
	}

	clog.FromContext(ctx).
		With("generation_provider", generator.Name()).With("generation_model", generator.Model()).
		With("evaluation_provider", evaluator.Name()).With("evaluation_model", evaluator.Model()).
		Info("Providers configured")

	return tournament.New(exec, generator, evaluator)
}
