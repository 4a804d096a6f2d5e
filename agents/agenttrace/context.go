/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// ExecutionContext locates a call within a tournament.
type ExecutionContext struct {
	BatchID      string `json:"batch_id,omitempty"`
	PromptIndex  int    `json:"prompt_index"`
	GenerationID string `json:"generation_id,omitempty"`
	Criterion    string `json:"criterion,omitempty"`
}

// Attributes returns the context as span attributes.
func (e ExecutionContext) Attributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if e.BatchID != "" {
		attrs = append(attrs, attribute.String("batch_id", e.BatchID))
	}
	attrs = append(attrs, attribute.Int("prompt_index", e.PromptIndex))
	if e.GenerationID != "" {
		attrs = append(attrs, attribute.String("generation_id", e.GenerationID))
	}
	if e.Criterion != "" {
		attrs = append(attrs, attribute.String("criterion", e.Criterion))
	}
	return attrs
}

type contextKey int

const (
	executionContextKey contextKey = iota
	traceKey
	tracerKey
)

// WithExecutionContext adds execution context to the Go context.
func WithExecutionContext(ctx context.Context, execCtx ExecutionContext) context.Context {
	return context.WithValue(ctx, executionContextKey, execCtx)
}

// GetExecutionContext retrieves execution context from the Go context.
func GetExecutionContext(ctx context.Context) ExecutionContext {
	if execCtx, ok := ctx.Value(executionContextKey).(ExecutionContext); ok {
		return execCtx
	}
	return ExecutionContext{}
}

// WithTracer sets the tracer that receives traces started from ctx.
func WithTracer(ctx context.Context, tracer Tracer) context.Context {
	return context.WithValue(ctx, tracerKey, tracer)
}

// TracerFromContext returns the tracer on ctx, or one logging to clog.
func TracerFromContext(ctx context.Context) Tracer {
	if tracer, ok := ctx.Value(tracerKey).(Tracer); ok && tracer != nil {
		return tracer
	}
	return NewDefaultTracer(ctx)
}

// FromContext returns the trace started on ctx, or nil.
func FromContext(ctx context.Context) *Trace {
	t, _ := ctx.Value(traceKey).(*Trace)
	return t
}
