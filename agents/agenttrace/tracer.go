/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"github.com/chainguard-dev/clog"
)

// Tracer receives completed traces.
type Tracer interface {
	RecordTrace(*Trace)
}

// ByCode adapts a function to a Tracer.
type ByCode func(*Trace)

// RecordTrace implements Tracer.
func (f ByCode) RecordTrace(t *Trace) { f(t) }

// NewDefaultTracer creates a tracer that logs a summary of each trace.
func NewDefaultTracer(ctx context.Context) Tracer {
	logger := clog.FromContext(ctx)
	return ByCode(func(t *Trace) {
		s := t.Summary()
		logger.With("trace_id", t.ID).
			With("duration_ms", t.Duration().Milliseconds()).
			With("calls", s.Calls).
			With("failed", s.Failed).
			With("retries", s.Retries).
			With("input_tokens", s.InputTokens).
			With("output_tokens", s.OutputTokens).
			Info("Tournament trace completed")
		logger.Debug("Tournament trace", "trace", t.String())
	})
}
