/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/mike-khor/llm-tournament-widget/agents/executor/ratelimit"
	"github.com/mike-khor/llm-tournament-widget/agents/executor/retry"
	"github.com/mike-khor/llm-tournament-widget/agents/providerfactory"
	"github.com/sethvargo/go-envconfig"
)

type config struct {
	// Admission control shared by every call of a run.
	InputTokensPerMinute  int `env:"INPUT_TOKENS_PER_MINUTE,default=20000"`
	OutputTokensPerMinute int `env:"OUTPUT_TOKENS_PER_MINUTE,default=8000"`
	MaxConcurrent         int `env:"MAX_CONCURRENT_REQUESTS,default=10"`

	MaxRetries          int           `env:"MAX_RETRIES,default=2"`
	RetryDelay          time.Duration `env:"RETRY_DELAY,default=5s"`
	CapacityWaitTimeout time.Duration `env:"CAPACITY_WAIT_TIMEOUT,default=60s"`

	GenerationProvider string `env:"GENERATION_PROVIDER,default=openai"`
	GenerationModel    string `env:"GENERATION_MODEL"`
	GenerationBaseURL  string `env:"GENERATION_BASE_URL"`
	EvaluationProvider string `env:"EVALUATION_PROVIDER"`
	EvaluationModel    string `env:"EVALUATION_MODEL"`
	EvaluationBaseURL  string `env:"EVALUATION_BASE_URL"`

	Credentials providerfactory.Credentials

	MaxPromptsPerRequest int `env:"MAX_PROMPTS_PER_REQUEST,default=10"`

	MetricsAddr string `env:"METRICS_ADDR"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	LogFormat   string `env:"LOG_FORMAT,default=text"`
}

func loadConfig(ctx context.Context, lookuper envconfig.Lookuper) (config, error) {
	var cfg config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return config{}, fmt.Errorf("processing config: %w", err)
	}
	if cfg.EvaluationProvider == "" {
		cfg.EvaluationProvider = cfg.GenerationProvider
		if cfg.EvaluationModel == "" {
			cfg.EvaluationModel = cfg.GenerationModel
		}
		if cfg.EvaluationBaseURL == "" {
			cfg.EvaluationBaseURL = cfg.GenerationBaseURL
		}
	}
	return cfg, nil
}

func (c config) limits() ratelimit.Config {
	return ratelimit.Config{
		InputTokensPerMinute:  c.InputTokensPerMinute,
		OutputTokensPerMinute: c.OutputTokensPerMinute,
		MaxConcurrent:         c.MaxConcurrent,
	}
}

func (c config) retry() retry.RetryConfig {
	return retry.RetryConfig{
		MaxRetries:  c.MaxRetries,
		BaseBackoff: c.RetryDelay,
	}
}

func (c config) generation() providerfactory.Selection {
	return providerfactory.Selection{Name: c.GenerationProvider, Model: c.GenerationModel, BaseURL: c.GenerationBaseURL}
}

func (c config) evaluation() providerfactory.Selection {
	return providerfactory.Selection{Name: c.EvaluationProvider, Model: c.EvaluationModel, BaseURL: c.EvaluationBaseURL}
}

// withLogger installs a clog logger writing to w on the context.
func withLogger(ctx context.Context, w io.Writer, level, format string) (context.Context, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return ctx, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "text", "":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return ctx, fmt.Errorf("invalid LOG_FORMAT %q (expected text or json)", format)
	}
	return clog.WithLogger(ctx, clog.New(h)), nil
}
