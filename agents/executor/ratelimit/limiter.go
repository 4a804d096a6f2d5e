/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chainguard-dev/clog"
	"github.com/mike-khor/llm-tournament-widget/agents/metrics"
)

const (
	// Window is how far back released calls count against the token caps.
	Window = time.Minute

	// DefaultPollInterval is how often a waiting caller re-checks capacity.
	DefaultPollInterval = time.Second

	// estimateBuffer inflates token estimates during admission to absorb
	// estimation error. It is not applied when recording actual usage.
	estimateBuffer = 1.2
)

// Config holds the three simultaneous caps enforced by a Limiter.
type Config struct {
	// InputTokensPerMinute caps input tokens recorded in the trailing window.
	InputTokensPerMinute int
	// OutputTokensPerMinute caps output tokens recorded in the trailing window.
	OutputTokensPerMinute int
	// MaxConcurrent caps calls holding a slot at the same time.
	MaxConcurrent int
}

// DefaultConfig returns conservative caps for a single provider account.
func DefaultConfig() Config {
	return Config{
		InputTokensPerMinute:  20000,
		OutputTokensPerMinute: 8000,
		MaxConcurrent:         10,
	}
}

// Validate checks that every cap is positive.
func (c Config) Validate() error {
	if c.InputTokensPerMinute <= 0 {
		return errors.New("input tokens per minute must be positive")
	}
	if c.OutputTokensPerMinute <= 0 {
		return errors.New("output tokens per minute must be positive")
	}
	if c.MaxConcurrent <= 0 {
		return errors.New("max concurrent must be positive")
	}
	return nil
}

// Usage is a snapshot of the trailing window and the concurrency counter.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	Concurrent   int `json:"concurrent"`
}

// requestRecord is the cost of one released call.
type requestRecord struct {
	timestamp    time.Time
	inputTokens  int
	outputTokens int
}

// ExceededError is returned when capacity did not free up within the wait timeout.
type ExceededError struct {
	Waited time.Duration
	Usage  Usage
	Limits Config
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("rate limiter wait timeout after %s: current usage %d/%d input, %d/%d output, %d/%d concurrent",
		e.Waited,
		e.Usage.InputTokens, e.Limits.InputTokensPerMinute,
		e.Usage.OutputTokens, e.Limits.OutputTokensPerMinute,
		e.Usage.Concurrent, e.Limits.MaxConcurrent)
}

// Limiter is a sliding one-minute token window plus a concurrency counter.
// All methods are safe for concurrent use; a single mutex guards all state.
type Limiter struct {
	cfg          Config
	now          func() time.Time
	pollInterval time.Duration
	metrics      *metrics.Admission

	mu         sync.Mutex
	history    []requestRecord // oldest first
	concurrent int
}

// Option configures a Limiter.
type Option func(*Limiter) error

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		l.now = now
		return nil
	}
}

// WithPollInterval overrides how often waiters re-check capacity.
func WithPollInterval(d time.Duration) Option {
	return func(l *Limiter) error {
		if d <= 0 {
			return fmt.Errorf("poll interval must be positive, got %s", d)
		}
		l.pollInterval = d
		return nil
	}
}

// WithMetrics records admission metrics on the given instruments.
func WithMetrics(m *metrics.Admission) Option {
	return func(l *Limiter) error {
		if m == nil {
			return errors.New("metrics cannot be nil")
		}
		l.metrics = m
		return nil
	}
}

// New creates a Limiter with the given caps.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Limiter{
		cfg:          cfg,
		now:          time.Now,
		pollInterval: DefaultPollInterval,
		metrics:      metrics.NewAdmission(metrics.MeterName),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}
	return l, nil
}

// Config returns the caps the limiter enforces.
func (l *Limiter) Config() Config {
	return l.cfg
}

// purge drops records that fell out of the window. Callers hold l.mu.
func (l *Limiter) purge() {
	cutoff := l.now().Add(-Window)
	i := 0
	for i < len(l.history) && l.history[i].timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		l.history = append(l.history[:0], l.history[i:]...)
	}
}

// usage returns the window totals. Callers hold l.mu.
func (l *Limiter) usage() Usage {
	l.purge()
	u := Usage{Concurrent: l.concurrent}
	for _, r := range l.history {
		u.InputTokens += r.inputTokens
		u.OutputTokens += r.outputTokens
	}
	return u
}

// canProceed applies the admission rule. Callers hold l.mu.
func (l *Limiter) canProceed(estInput, estOutput int) bool {
	u := l.usage()
	if u.Concurrent >= l.cfg.MaxConcurrent {
		return false
	}
	if float64(u.InputTokens)+float64(estInput)*estimateBuffer > float64(l.cfg.InputTokensPerMinute) {
		return false
	}
	if float64(u.OutputTokens)+float64(estOutput)*estimateBuffer > float64(l.cfg.OutputTokensPerMinute) {
		return false
	}
	return true
}

// CurrentUsage purges expired records and returns the window totals.
func (l *Limiter) CurrentUsage() Usage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.usage()
}

// CanProceed reports whether a call with the given token estimates fits under
// all three caps right now. Estimates are inflated by 20% before comparing.
func (l *Limiter) CanProceed(estInput, estOutput int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canProceed(estInput, estOutput)
}

// Acquire takes a concurrency slot. Every Acquire must be paired with exactly
// one Release.
func (l *Limiter) Acquire(ctx context.Context, estInput, estOutput int) {
	l.mu.Lock()
	l.concurrent++
	n := l.concurrent
	l.mu.Unlock()

	l.metrics.Admitted(ctx)
	clog.FromContext(ctx).With("concurrent", n).
		With("max_concurrent", l.cfg.MaxConcurrent).
		With("estimated_input_tokens", estInput).
		With("estimated_output_tokens", estOutput).
		Debug("Acquired slot")
}

// Release returns a concurrency slot and charges the actual token counts to
// the window at the current time.
func (l *Limiter) Release(ctx context.Context, actualInput, actualOutput int) {
	l.mu.Lock()
	l.concurrent = max(0, l.concurrent-1)
	l.history = append(l.history, requestRecord{
		timestamp:    l.now(),
		inputTokens:  actualInput,
		outputTokens: actualOutput,
	})
	n := l.concurrent
	l.mu.Unlock()

	l.metrics.Released(ctx, actualInput, actualOutput)
	clog.FromContext(ctx).With("concurrent", n).
		With("input_tokens", actualInput).
		With("output_tokens", actualOutput).
		Debug("Released slot")
}

// WaitForCapacity polls CanProceed every poll interval until it succeeds or
// maxWait elapses, in which case it returns an *ExceededError. It does not
// take a slot; callers follow it with Acquire.
func (l *Limiter) WaitForCapacity(ctx context.Context, estInput, estOutput int, maxWait time.Duration) error {
	return l.wait(ctx, estInput, estOutput, maxWait, l.canProceed)
}

// Reserve waits for capacity like WaitForCapacity and takes a slot in the same
// critical section as the successful check, so concurrent callers cannot
// overshoot MaxConcurrent between the check and the Acquire.
func (l *Limiter) Reserve(ctx context.Context, estInput, estOutput int, maxWait time.Duration) error {
	err := l.wait(ctx, estInput, estOutput, maxWait, func(in, out int) bool {
		if !l.canProceed(in, out) {
			return false
		}
		l.concurrent++
		return true
	})
	if err != nil {
		return err
	}
	l.metrics.Admitted(ctx)
	return nil
}

func (l *Limiter) wait(ctx context.Context, estInput, estOutput int, maxWait time.Duration, admit func(int, int) bool) error {
	start := l.now()
	for {
		l.mu.Lock()
		ok := admit(estInput, estOutput)
		l.mu.Unlock()
		if ok {
			return nil
		}

		if waited := l.now().Sub(start); waited > maxWait {
			l.metrics.TimedOut(ctx)
			return &ExceededError{
				Waited: waited,
				Usage:  l.CurrentUsage(),
				Limits: l.cfg,
			}
		}

		l.metrics.Waited(ctx)
		clog.FromContext(ctx).With("estimated_input_tokens", estInput).
			With("estimated_output_tokens", estOutput).
			Debug("Waiting for rate limit capacity")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.pollInterval):
		}
	}
}
