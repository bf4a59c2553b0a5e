package jsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/careerpilot/jobscout/internal/utils"
)

const (
	defaultMaxAttempts    = 3
	defaultRateLimitPause = 5 * time.Second
)

// RetryPolicy formalizes the retry discipline for listing-source requests:
// how many attempts, how long to wait between them, and which errors are
// worth retrying at all.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff returns the delay before the given attempt (attempt starts
	// at 2; the first attempt runs immediately).
	Backoff func(attempt int) time.Duration
	// RateLimitPause is an extra pause applied after a 429, on top of the
	// regular backoff.
	RateLimitPause time.Duration
	Retryable      func(err error) bool
}

// DefaultRetryPolicy mirrors the source's published limits: three attempts,
// backoff growing by a second per attempt, a five second pause after a 429.
// Everything except a forbidden response and context cancellation is retried.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: defaultMaxAttempts,
		Backoff: func(attempt int) time.Duration {
			return 2*time.Second + time.Duration(attempt-2)*time.Second
		},
		RateLimitPause: defaultRateLimitPause,
		Retryable:      DefaultRetryable,
	}
}

// DefaultRetryable retries everything except forbidden responses and context
// cancellation.
func DefaultRetryable(err error) bool {
	if IsForbidden(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

// Do runs op until it succeeds, is not retryable, or attempts are exhausted.
// Waits respect ctx cancellation.
func (p *RetryPolicy) Do(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			if werr := utils.WaitFor(ctx, p.Backoff(attempt)); werr != nil {
				return werr
			}
		}

		err = op()
		if err == nil {
			return nil
		}

		if !p.Retryable(err) {
			return err
		}

		if IsRateLimited(err) {
			if werr := utils.WaitFor(ctx, p.RateLimitPause); werr != nil {
				return werr
			}
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", p.MaxAttempts, err)
}
