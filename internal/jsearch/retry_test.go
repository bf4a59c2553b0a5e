package jsearch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func instantPolicy() *RetryPolicy {
	p := DefaultRetryPolicy()
	p.Backoff = func(int) time.Duration { return 0 }
	p.RateLimitPause = 0
	return p
}

func TestDoStopsOnSuccess(t *testing.T) {
	attempts := 0
	err := instantPolicy().Do(context.Background(), func() error {
		attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	attempts := 0
	err := instantPolicy().Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoDoesNotRetryForbidden(t *testing.T) {
	attempts := 0
	err := instantPolicy().Do(context.Background(), func() error {
		attempts++
		return &StatusError{Code: 403}
	})
	if !IsForbidden(err) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")
	err := instantPolicy().Do(context.Background(), func() error {
		attempts++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped original error, got %v", err)
	}
	if attempts != defaultMaxAttempts {
		t.Fatalf("expected %d attempts, got %d", defaultMaxAttempts, attempts)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := instantPolicy()
	p.Backoff = func(int) time.Duration { return time.Minute }

	attempts := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func() error {
			attempts++
			return errors.New("transient")
		})
	}()

	// Give the first attempt a moment to run, then cancel during backoff.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}

	if attempts != 1 {
		t.Fatalf("expected 1 attempt before cancellation, got %d", attempts)
	}
}
