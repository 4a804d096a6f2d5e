/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chainguard-dev/clog"
)

// RetryConfig configures retry behavior for outbound model calls.
// Only failures classified as throttling are retried.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt (default: 2).
	// 0 means do not retry at all.
	MaxRetries int
	// BaseBackoff is the delay before the first retry (default: 5s).
	// Attempt n waits BaseBackoff * 2^n.
	BaseBackoff time.Duration
	// MaxBackoff caps a single backoff. 0 leaves the backoff uncapped.
	MaxBackoff time.Duration
	// MaxJitter is the maximum random jitter added to backoff (default: 0).
	MaxJitter time.Duration
}

// Validate checks that the retry configuration has valid values.
func (c RetryConfig) Validate() error {
	if c.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	if c.BaseBackoff < 0 {
		return errors.New("base backoff cannot be negative")
	}
	if c.MaxBackoff < 0 {
		return errors.New("max backoff cannot be negative")
	}
	if c.MaxJitter < 0 {
		return errors.New("max jitter cannot be negative")
	}
	return nil
}

// DefaultRetryConfig returns the retry configuration used when none is supplied:
// two retries starting at five seconds, matching provider per-minute quotas.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:  2,
		BaseBackoff: 5 * time.Second,
	}
}

// backoff returns the delay to wait after the given zero-based attempt.
func (c RetryConfig) backoff(attempt int) time.Duration {
	d := c.BaseBackoff << attempt
	if c.MaxBackoff > 0 {
		d = min(d, c.MaxBackoff)
	}
	if c.MaxJitter > 0 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(c.MaxJitter)))
		if err == nil {
			d += time.Duration(n.Int64())
		}
	}
	return d
}

// RetryWithBackoff executes fn up to cfg.MaxRetries+1 times with exponential backoff.
// It only retries on errors that isRetryable accepts; any other error is returned
// immediately. When retries are exhausted the last error is returned wrapped
// with the operation name.
func RetryWithBackoff[T any](ctx context.Context, cfg RetryConfig, operation string, isRetryable func(error) bool, fn func() (T, error)) (T, error) {
	var result T
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result, lastErr = fn()
		if lastErr == nil {
			return result, nil
		}

		if !isRetryable(lastErr) {
			clog.FromContext(ctx).With("operation", operation).
				With("error", lastErr.Error()).
				Error("Call failed with non-throttling error")
			return result, lastErr
		}

		if attempt >= cfg.MaxRetries {
			break
		}

		backoff := cfg.backoff(attempt)

		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt+1).
			With("max_retries", cfg.MaxRetries).
			With("backoff", backoff).
			With("error", lastErr.Error()).
			Warn("Rate limit hit, retrying")

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(backoff):
		}
	}

	clog.FromContext(ctx).With("operation", operation).
		With("attempts", cfg.MaxRetries+1).
		Error("Call failed after exhausting retries due to rate limiting")

	return result, fmt.Errorf("%s failed after %d retries: %w", operation, cfg.MaxRetries, lastErr)
}
