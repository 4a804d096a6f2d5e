/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agenttrace_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mike-khor/llm-tournament-widget/agents/agenttrace"
)

func recording(ctx context.Context) (context.Context, *[]*agenttrace.Trace) {
	var got []*agenttrace.Trace
	return agenttrace.WithTracer(ctx, agenttrace.ByCode(func(t *agenttrace.Trace) {
		got = append(got, t)
	})), &got
}

func TestTraceRecordsCalls(t *testing.T) {
	ctx, recorded := recording(context.Background())
	ctx, tr := agenttrace.StartTrace(ctx, "batch-1")

	if agenttrace.FromContext(ctx) != tr {
		t.Fatal("FromContext() did not return the started trace")
	}

	judgeCtx := agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{
		BatchID: "batch-1", PromptIndex: 1, Criterion: "accuracy",
	})
	_, c := tr.StartCall(judgeCtx, "judge")
	c.Attempt()
	c.Attempt()
	c.Complete(100, 20, nil)

	_, g := tr.StartCall(ctx, "generate")
	g.Attempt()
	g.Complete(50, 0, errors.New("boom"))
	g.Complete(1, 1, nil) // ignored

	tr.Complete()
	tr.Complete() // ignored

	if len(*recorded) != 1 {
		t.Fatalf("tracer received %d traces, want 1", len(*recorded))
	}

	want := agenttrace.Summary{
		Calls:        2,
		Failed:       1,
		Retries:      1,
		InputTokens:  150,
		OutputTokens: 20,
		ByLabel:      map[string]int{"judge": 1, "generate": 1},
	}
	if diff := cmp.Diff(want, tr.Summary()); diff != "" {
		t.Errorf("Summary() mismatch (-want +got):\n%s", diff)
	}

	if got := tr.Calls[0].Exec; got.Criterion != "accuracy" || got.PromptIndex != 1 {
		t.Errorf("call execution context = %+v", got)
	}

	s := tr.String()
	for _, want := range []string{"Trace batch-1", "1 failed", "generate: 1", "boom"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}

func TestNilTraceIsNoop(t *testing.T) {
	ctx := context.Background()
	tr := agenttrace.FromContext(ctx)
	if tr != nil {
		t.Fatalf("FromContext() on a bare context = %v, want nil", tr)
	}

	got, c := tr.StartCall(ctx, "generate")
	if got != ctx || c != nil {
		t.Errorf("StartCall() on nil trace = (%v, %v), want (ctx, nil)", got, c)
	}
	c.Attempt()
	c.Complete(1, 1, nil)
	tr.Complete()
}

func TestConcurrentCalls(t *testing.T) {
	ctx, _ := recording(context.Background())
	ctx, tr := agenttrace.StartTrace(ctx, "batch")

	const n = 50
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, c := tr.StartCall(ctx, "judge")
			c.Attempt()
			c.Complete(1, 1, nil)
		}()
	}
	wg.Wait()
	tr.Complete()

	if got := tr.Summary().Calls; got != n {
		t.Errorf("Summary().Calls = %d, want %d", got, n)
	}
}

func TestExecutionContext(t *testing.T) {
	ctx := context.Background()
	if got := agenttrace.GetExecutionContext(ctx); got != (agenttrace.ExecutionContext{}) {
		t.Errorf("GetExecutionContext() on a bare context = %+v", got)
	}

	want := agenttrace.ExecutionContext{BatchID: "b", PromptIndex: 3, GenerationID: "g"}
	ctx = agenttrace.WithExecutionContext(ctx, want)
	if got := agenttrace.GetExecutionContext(ctx); got != want {
		t.Errorf("GetExecutionContext() = %+v, want %+v", got, want)
	}

	// Criterion is omitted when unset; prompt index is always present.
	if got := len(want.Attributes()); got != 3 {
		t.Errorf("Attributes() returned %d attributes, want 3", got)
	}
}

func TestTracerFromContextDefault(t *testing.T) {
	if agenttrace.TracerFromContext(context.Background()) == nil {
		t.Error("TracerFromContext() = nil, want the default tracer")
	}
}
