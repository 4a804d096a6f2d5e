/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package agenttrace records the model calls made on behalf of a tournament.

# Overview

  - ExecutionContext: which batch, prompt, generation and criterion a call serves
  - Trace: every call made for one batch, with attempts, token counts and errors
  - Call: one outbound model call, possibly retried
  - Tracer: receives each Trace once it completes

Every Trace and Call also opens an OpenTelemetry span, so the same
structure is visible in any configured trace exporter.

# Usage

	ctx, tr := agenttrace.StartTrace(ctx, batchID)
	defer tr.Complete()

	ctx = agenttrace.WithExecutionContext(ctx, agenttrace.ExecutionContext{
		BatchID:     batchID,
		PromptIndex: 2,
		Criterion:   "accuracy",
	})
	ctx, call := agenttrace.FromContext(ctx).StartCall(ctx, "judge")
	call.Attempt()
	call.Complete(120, 40, nil)

A nil *Trace and a nil *Call are valid and record nothing, so callers never
need to check whether tracing is enabled.
*/
package agenttrace
