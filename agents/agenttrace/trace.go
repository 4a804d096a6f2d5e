/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const tracerName = "llmtournament.agents.agenttrace"

func otelTracer() oteltrace.Tracer {
	return otel.Tracer(tracerName, oteltrace.WithInstrumentationVersion("1.0.0"))
}

// Call is one outbound model call. Attempts counts every invocation,
// including retries.
type Call struct {
	Label        string           `json:"label"`
	Exec         ExecutionContext `json:"exec_context"`
	Attempts     int              `json:"attempts"`
	InputTokens  int              `json:"input_tokens"`
	OutputTokens int              `json:"output_tokens"`
	Error        string           `json:"error,omitempty"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`

	trace *Trace
	mu    sync.Mutex
	span  oteltrace.Span
	done  bool
}

// Trace holds every call made for one batch.
type Trace struct {
	ID        string    `json:"id"`
	Calls     []*Call   `json:"calls"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	tracer Tracer
	mu     sync.Mutex
	span   oteltrace.Span
}

// StartTrace begins a trace, recorded by the context's tracer once it
// completes. The returned context carries the trace.
func StartTrace(ctx context.Context, id string) (context.Context, *Trace) {
	ctx, span := otelTracer().Start(ctx, "tournament.trace",
		oteltrace.WithAttributes(attribute.String("trace_id", id)))
	t := &Trace{
		ID:        id,
		Calls:     []*Call{},
		StartTime: time.Now(),
		tracer:    TracerFromContext(ctx),
		span:      span,
	}
	return context.WithValue(ctx, traceKey, t), t
}

// StartCall opens a call under the trace, tagged with ctx's execution context.
func (t *Trace) StartCall(ctx context.Context, label string) (context.Context, *Call) {
	if t == nil {
		return ctx, nil
	}
	exec := GetExecutionContext(ctx)
	ctx, span := otelTracer().Start(ctx, "llm."+label,
		oteltrace.WithAttributes(exec.Attributes()...))
	return ctx, &Call{
		Label:     label,
		Exec:      exec,
		StartTime: time.Now(),
		trace:     t,
		span:      span,
	}
}

// Attempt notes one invocation of the call.
func (c *Call) Attempt() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Attempts++
}

// Complete closes the call and adds it to its trace. Only the first
// completion counts.
func (c *Call) Complete(inputTokens, outputTokens int, err error) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.done = true
	c.InputTokens = inputTokens
	c.OutputTokens = outputTokens
	if err != nil {
		c.Error = err.Error()
	}
	c.EndTime = time.Now()
	attempts := c.Attempts
	c.mu.Unlock()

	c.span.SetAttributes(
		attribute.Int("attempts", attempts),
		attribute.Int("tokens.input", inputTokens),
		attribute.Int("tokens.output", outputTokens),
	)
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
	} else {
		c.span.SetStatus(codes.Ok, "")
	}
	c.span.End()

	c.trace.mu.Lock()
	defer c.trace.mu.Unlock()
	c.trace.Calls = append(c.trace.Calls, c)
}

// Duration returns how long the call took, or has taken so far.
func (c *Call) Duration() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.EndTime.IsZero() {
		return time.Since(c.StartTime)
	}
	return c.EndTime.Sub(c.StartTime)
}

// Complete ends the trace and hands it to the tracer.
func (t *Trace) Complete() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if !t.EndTime.IsZero() {
		t.mu.Unlock()
		return
	}
	t.EndTime = time.Now()
	t.mu.Unlock()

	t.span.End()
	t.tracer.RecordTrace(t)
}

// Duration returns the total duration of the trace.
func (t *Trace) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.EndTime.IsZero() {
		return time.Since(t.StartTime)
	}
	return t.EndTime.Sub(t.StartTime)
}

// Summary totals a trace's completed calls.
type Summary struct {
	Calls        int
	Failed       int
	Retries      int
	InputTokens  int
	OutputTokens int
	ByLabel      map[string]int
}

// Summary totals the calls completed so far.
func (t *Trace) Summary() Summary {
	t.mu.Lock()
	calls := slices.Clone(t.Calls)
	t.mu.Unlock()

	s := Summary{ByLabel: make(map[string]int)}
	for _, c := range calls {
		c.mu.Lock()
		s.Calls++
		if c.Error != "" {
			s.Failed++
		}
		if c.Attempts > 1 {
			s.Retries += c.Attempts - 1
		}
		s.InputTokens += c.InputTokens
		s.OutputTokens += c.OutputTokens
		s.ByLabel[c.Label]++
		c.mu.Unlock()
	}
	return s
}

// String renders the trace for debug logs.
func (t *Trace) String() string {
	s := t.Summary()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Trace %s ===\n", t.ID)
	fmt.Fprintf(&sb, "Duration: %v\n", t.Duration())
	fmt.Fprintf(&sb, "Calls: %d (%d failed, %d retries)\n", s.Calls, s.Failed, s.Retries)
	for _, label := range slices.Sorted(maps.Keys(s.ByLabel)) {
		fmt.Fprintf(&sb, "  %s: %d\n", label, s.ByLabel[label])
	}
	fmt.Fprintf(&sb, "Tokens: %d in, %d out\n", s.InputTokens, s.OutputTokens)

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.Calls {
		if c.Error == "" {
			continue
		}
		fmt.Fprintf(&sb, "  failed %s (prompt %d, criterion %q): %s\n", c.Label, c.Exec.PromptIndex, c.Exec.Criterion, c.Error)
	}
	return sb.String()
}
