/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-cmp/cmp"
	"github.com/mike-khor/llm-tournament-widget/agents/executor/ratelimit"
	"github.com/mike-khor/llm-tournament-widget/agents/providerfactory"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(context.Background(), envconfig.MapLookuper(nil))
	require.NoError(t, err)

	if diff := cmp.Diff(ratelimit.Config{
		InputTokensPerMinute:  20000,
		OutputTokensPerMinute: 8000,
		MaxConcurrent:         10,
	}, cfg.limits()); diff != "" {
		t.Errorf("limits() mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 2, cfg.retry().MaxRetries)
	require.Equal(t, 5*time.Second, cfg.retry().BaseBackoff)
	require.Equal(t, time.Minute, cfg.CapacityWaitTimeout)
	require.Equal(t, 10, cfg.MaxPromptsPerRequest)
	require.Equal(t, providerfactory.Selection{Name: "openai"}, cfg.generation())
	require.Equal(t, cfg.generation(), cfg.evaluation())
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{
		"GENERATION_PROVIDER":     "openai",
		"GENERATION_MODEL":        "gpt-4o",
		"EVALUATION_PROVIDER":     "claude",
		"MAX_RETRIES":             "4",
		"RETRY_DELAY":             "250ms",
		"MAX_CONCURRENT_REQUESTS": "3",
		"ANTHROPIC_API_KEY":       "sk-ant",
	}))
	require.NoError(t, err)

	require.Equal(t, providerfactory.Selection{Name: "openai", Model: "gpt-4o"}, cfg.generation())
	// An explicit evaluation provider does not inherit the generation model.
	require.Equal(t, providerfactory.Selection{Name: "claude"}, cfg.evaluation())
	require.Equal(t, 4, cfg.retry().MaxRetries)
	require.Equal(t, 250*time.Millisecond, cfg.retry().BaseBackoff)
	require.Equal(t, 3, cfg.limits().MaxConcurrent)
	require.Equal(t, "sk-ant", cfg.Credentials.AnthropicAPIKey)
}

func TestLoadConfigRejectsMalformedValues(t *testing.T) {
	_, err := loadConfig(context.Background(), envconfig.MapLookuper(map[string]string{
		"RETRY_DELAY": "soon",
	}))
	require.ErrorContains(t, err, "processing config")
}

func TestWithLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{name: "text", level: "info", format: "text"},
		{name: "json", level: "debug", format: "json"},
		{name: "upper case level", level: "WARN", format: "text"},
		{name: "bad level", level: "loud", format: "text", wantErr: true},
		{name: "bad format", level: "info", format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ctx, err := withLogger(context.Background(), &buf, tt.level, tt.format)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			clog.FromContext(ctx).Warn("hello")
			require.Contains(t, buf.String(), "hello")
		})
	}
}
