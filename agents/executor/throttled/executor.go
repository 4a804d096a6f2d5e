/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package throttled is the single choke point outbound model calls pass
// through: it estimates token cost, waits for rate limiter capacity, runs the
// call under the retry policy and charges the window with the real cost.
package throttled

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/mike-khor/llm-tournament-widget/agents/agenttrace"
	"github.com/mike-khor/llm-tournament-widget/agents/executor/ratelimit"
	"github.com/mike-khor/llm-tournament-widget/agents/executor/retry"
	"github.com/mike-khor/llm-tournament-widget/agents/metrics"
)

// DefaultCapacityWait is how long a call waits for rate limiter capacity.
const DefaultCapacityWait = 60 * time.Second

// Executor composes a shared rate limiter with a retry policy.
type Executor struct {
	limiter      *ratelimit.Limiter
	retryConfig  retry.RetryConfig
	capacityWait time.Duration
	isRetryable  func(error) bool
	metrics      *metrics.Admission
}

// Option configures an Executor.
type Option func(*Executor) error

// WithCapacityWait overrides how long a call waits for capacity.
func WithCapacityWait(d time.Duration) Option {
	return func(e *Executor) error {
		if d < 0 {
			return fmt.Errorf("capacity wait cannot be negative, got %s", d)
		}
		e.capacityWait = d
		return nil
	}
}

// WithRetryClassifier overrides which errors are retried.
func WithRetryClassifier(isRetryable func(error) bool) Option {
	return func(e *Executor) error {
		if isRetryable == nil {
			return errors.New("retry classifier cannot be nil")
		}
		e.isRetryable = isRetryable
		return nil
	}
}

// WithMetrics records throttled responses on the given instruments.
func WithMetrics(m *metrics.Admission) Option {
	return func(e *Executor) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		e.metrics = m
		return nil
	}
}

// New creates an Executor around a limiter that may be shared with other executors.
func New(limiter *ratelimit.Limiter, cfg retry.RetryConfig, opts ...Option) (*Executor, error) {
	if limiter == nil {
		return nil, errors.New("limiter cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}
	e := &Executor{
		limiter:      limiter,
		retryConfig:  cfg,
		capacityWait: DefaultCapacityWait,
		isRetryable:  retry.IsThrottling,
		metrics:      metrics.NewAdmission(metrics.MeterName),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return e, nil
}

// Limiter returns the limiter calls are admitted through.
func (e *Executor) Limiter() *ratelimit.Limiter {
	return e.limiter
}

// Call describes one outbound unit of work.
type Call[T any] struct {
	// Label names the call in logs and errors.
	Label string
	// InputText is what the call sends; it drives the input token estimate.
	InputText string
	// EstimatedOutputChars drives the output token estimate before the call.
	EstimatedOutputChars int
	// Fn performs the call. It may be invoked several times when throttled.
	Fn func(context.Context) (T, error)
}

// EstimateTokens approximates a token count at four characters per token,
// never returning less than one.
func EstimateTokens(text string) int {
	return max(1, len(text)/4)
}

// Run executes the call through the executor. The concurrency slot taken for
// the call is released exactly once on every exit path: actual output tokens
// are charged on success, none on failure.
func Run[T any](ctx context.Context, e *Executor, call Call[T]) (result T, err error) {
	log := clog.FromContext(ctx).With("operation", call.Label)

	estInput := EstimateTokens(call.InputText)
	estOutput := EstimateTokens(strings.Repeat(" ", call.EstimatedOutputChars))

	ctx, traced := agenttrace.FromContext(ctx).StartCall(ctx, call.Label)

	if err := e.limiter.Reserve(ctx, estInput, estOutput, e.capacityWait); err != nil {
		log.With("error", err).Error("Call was not admitted by the rate limiter")
		err = fmt.Errorf("%s: %w", call.Label, err)
		traced.Complete(0, 0, err)
		return result, err
	}

	actualOutput := 0
	defer func() {
		e.limiter.Release(ctx, estInput, actualOutput)
		traced.Complete(estInput, actualOutput, err)
	}()

	isRetryable := func(err error) bool {
		if e.isRetryable(err) {
			e.metrics.Throttled(ctx, call.Label)
			return true
		}
		return false
	}

	result, err = retry.RetryWithBackoff(ctx, e.retryConfig, call.Label, isRetryable, func() (T, error) {
		traced.Attempt()
		return call.Fn(ctx)
	})
	if err != nil {
		return result, err
	}

	actualOutput = estOutput
	if text, ok := textOf(result); ok {
		actualOutput = EstimateTokens(text)
	}
	return result, nil
}

// textOf returns the textual form of text-like results.
func textOf(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return "", false
	}
}
