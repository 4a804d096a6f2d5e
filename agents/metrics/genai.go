/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// MeterName is the meter shared by every provider and executor in the tournament.
const MeterName = "llmtournament.agents"

// GenAI provides OpenTelemetry counters for the tokens providers report
// back in their usage blocks.
type GenAI struct {
	promptTokens     metric.Int64Counter
	completionTokens metric.Int64Counter
}

// NewGenAI creates a new GenAI metrics instance with the specified meter name.
// If a counter fails to initialize it logs a warning and falls back to a no-op
// counter instead of failing.
func NewGenAI(meterName string) *GenAI {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))

	promptTokens, err := meter.Int64Counter("genai.token.prompt",
		metric.WithDescription("The number of prompt tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create prompt tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		promptTokens = noop.Int64Counter{}
	}

	completionTokens, err := meter.Int64Counter("genai.token.completion",
		metric.WithDescription("The number of completion tokens used"),
		metric.WithUnit("{tokens}"))
	if err != nil {
		slog.Warn("Failed to create completion tokens counter, metrics will be disabled", "error", err, "meter", meterName)
		completionTokens = noop.Int64Counter{}
	}

	return &GenAI{
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
	}
}

// RecordTokens records prompt and completion token usage for one call.
// provider and model are always attached; operation is "generate" or "judge".
func (m *GenAI) RecordTokens(ctx context.Context, provider, model, operation string, promptTokens, completionTokens int64) {
	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("model", model),
		attribute.String("operation", operation),
	)
	m.promptTokens.Add(ctx, promptTokens, attrs)
	m.completionTokens.Add(ctx, completionTokens, attrs)
}
