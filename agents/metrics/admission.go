/*
Copyright 2026 Chainguard, Inc.
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

// Admission records how outbound calls move through the rate limiter and the
// retry loop.
type Admission struct {
	admitted  metric.Int64Counter
	waits     metric.Int64Counter
	timeouts  metric.Int64Counter
	throttled metric.Int64Counter
	inFlight  metric.Int64UpDownCounter
	estimated metric.Int64Counter
}

// NewAdmission creates the admission instruments on the named meter, degrading
// to no-op instruments when creation fails.
func NewAdmission(meterName string) *Admission {
	meter := otel.Meter(meterName, metric.WithInstrumentationVersion("1.0.0"))
	a := &Admission{}

	var err error
	if a.admitted, err = meter.Int64Counter("ratelimit.admitted",
		metric.WithDescription("Calls admitted by the rate limiter"),
		metric.WithUnit("{calls}")); err != nil {
		slog.Warn("Failed to create admitted counter", "error", err, "meter", meterName)
		a.admitted = noop.Int64Counter{}
	}
	if a.waits, err = meter.Int64Counter("ratelimit.capacity_waits",
		metric.WithDescription("Poll intervals spent waiting for capacity"),
		metric.WithUnit("{polls}")); err != nil {
		slog.Warn("Failed to create capacity wait counter", "error", err, "meter", meterName)
		a.waits = noop.Int64Counter{}
	}
	if a.timeouts, err = meter.Int64Counter("ratelimit.timeouts",
		metric.WithDescription("Calls rejected after the capacity wait timed out"),
		metric.WithUnit("{calls}")); err != nil {
		slog.Warn("Failed to create timeout counter", "error", err, "meter", meterName)
		a.timeouts = noop.Int64Counter{}
	}
	if a.throttled, err = meter.Int64Counter("executor.throttled_responses",
		metric.WithDescription("Provider responses classified as throttling"),
		metric.WithUnit("{responses}")); err != nil {
		slog.Warn("Failed to create throttled counter", "error", err, "meter", meterName)
		a.throttled = noop.Int64Counter{}
	}
	if a.inFlight, err = meter.Int64UpDownCounter("ratelimit.in_flight",
		metric.WithDescription("Calls currently holding a concurrency slot"),
		metric.WithUnit("{calls}")); err != nil {
		slog.Warn("Failed to create in-flight counter", "error", err, "meter", meterName)
		a.inFlight = noop.Int64UpDownCounter{}
	}
	if a.estimated, err = meter.Int64Counter("ratelimit.recorded_tokens",
		metric.WithDescription("Tokens recorded into the sliding window on release"),
		metric.WithUnit("{tokens}")); err != nil {
		slog.Warn("Failed to create recorded tokens counter", "error", err, "meter", meterName)
		a.estimated = noop.Int64Counter{}
	}
	return a
}

// Admitted records a granted concurrency slot.
func (a *Admission) Admitted(ctx context.Context) {
	a.admitted.Add(ctx, 1)
	a.inFlight.Add(ctx, 1)
}

// Released records a returned slot and the token counts charged to the window.
func (a *Admission) Released(ctx context.Context, inputTokens, outputTokens int) {
	a.inFlight.Add(ctx, -1)
	a.estimated.Add(ctx, int64(inputTokens), metric.WithAttributes(attribute.String("direction", "input")))
	a.estimated.Add(ctx, int64(outputTokens), metric.WithAttributes(attribute.String("direction", "output")))
}

// Waited records one poll interval spent waiting for capacity.
func (a *Admission) Waited(ctx context.Context) {
	a.waits.Add(ctx, 1)
}

// TimedOut records a call rejected by the capacity wait timeout.
func (a *Admission) TimedOut(ctx context.Context) {
	a.timeouts.Add(ctx, 1)
}

// Throttled records a provider response classified as throttling.
func (a *Admission) Throttled(ctx context.Context, operation string) {
	a.throttled.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
