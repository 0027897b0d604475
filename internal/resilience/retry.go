// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig bounds the retry loop. The delay before attempt n is
// InitialDelay * Multiplier^(n-2), capped at MaxDelay.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool // add up to 25% noise to spread concurrent retries
	OnRetry      func(attempt int, err error)
}

// DefaultRetryConfig returns the standard inference retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
	}
}

// Operation is one attemptable unit of work.
type Operation func(ctx context.Context) error

// Result reports what the retry loop did, success or not.
type Result struct {
	Attempts  int
	Elapsed   time.Duration
	LastClass ErrorClass
}

// Do runs the operation, retrying transient failures with exponential
// backoff. Fatal and unknown errors return after the first attempt with no
// delay. The Result is always populated, also on error.
func Do(ctx context.Context, cfg RetryConfig, op Operation) (Result, error) {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultRetryConfig()
	}
	start := time.Now()
	result := Result{}
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				result.Elapsed = time.Since(start)
				return result, ctx.Err()
			case <-time.After(cfg.delay(attempt)):
			}
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, lastErr)
			}
		}

		result.Attempts = attempt
		err := op(ctx)
		if err == nil {
			result.Elapsed = time.Since(start)
			result.LastClass = ClassUnknown
			return result, nil
		}

		lastErr = err
		classified := Classify(err)
		result.LastClass = classified.Class
		if !classified.Retryable() {
			break
		}
	}

	result.Elapsed = time.Since(start)
	return result, lastErr
}

// DoWithResult is Do for operations returning a value.
func DoWithResult[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, Result, error) {
	var value T
	result, err := Do(ctx, cfg, func(ctx context.Context) error {
		var e error
		value, e = fn(ctx)
		return e
	})
	return value, result, err
}

// DoWithBreaker runs the operation behind a circuit breaker inside the
// retry loop. An open breaker fails the attempt immediately.
func DoWithBreaker(ctx context.Context, cfg RetryConfig, breaker *CircuitBreaker, op Operation) (Result, error) {
	return Do(ctx, cfg, func(ctx context.Context) error {
		return breaker.Execute(ctx, op)
	})
}

func (cfg RetryConfig) delay(attempt int) time.Duration {
	d := float64(cfg.InitialDelay)
	for i := 2; i < attempt; i++ {
		d *= cfg.Multiplier
	}
	if cfg.Jitter {
		d += d * 0.25 * rand.Float64()
	}
	if capped := float64(cfg.MaxDelay); cfg.MaxDelay > 0 && d > capped {
		d = capped
	}
	return time.Duration(d)
}
