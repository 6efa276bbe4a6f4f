// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package provider

import (
	"context"
	"log/slog"
	"time"

	parleyerr "github.com/parley-dev/parley/pkg/errors"
)

// RetryPolicy is a bounded retry for the generation call: a fixed attempt
// cap, a backoff schedule, and a predicate selecting which errors to retry.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Retryable   func(err error) bool
}

// LinearBackoff returns attempt*unit (2s, 4s, 6s... for unit=2s), matching
// a growing wait between generation attempts.
func LinearBackoff(unit time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return unit * time.Duration(attempt)
	}
}

// DefaultRetryPolicy is 3 attempts with linear 2s backoff and the given
// retryable predicate (normally Generator.Retryable).
func DefaultRetryPolicy(retryable func(error) bool) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     LinearBackoff(2 * time.Second),
		Retryable:   retryable,
	}
}

// Do runs fn until it succeeds, exhausts MaxAttempts, hits a non-retryable
// error, or the context is cancelled.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if p.Retryable == nil || !p.Retryable(err) {
			return "", err
		}
		if attempt == attempts {
			break
		}

		wait := time.Duration(0)
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		slog.Warn("generation attempt failed, retrying",
			"attempt", attempt,
			"wait", wait,
			"error", err)

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
		}
	}

	return "", parleyerr.Wrapf(lastErr, parleyerr.CodeProviderRetriesExhausted,
		"generation failed after %d attempts", attempts)
}
