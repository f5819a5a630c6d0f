package enrich_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/edudata/teacher-enrich-pipeline/internal/enrich"
)

func fastRetry(maxRetries int) enrich.RetryOptions {
	return enrich.RetryOptions{
		MaxRetries:     maxRetries,
		RequestTimeout: time.Second,
		BackoffInitial: time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
	}
}

func TestRetryTransientRetriesTransientErrors(t *testing.T) {
	calls := 0
	got, err := enrich.RetryTransient(context.Background(), fastRetry(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &enrich.TransientError{Err: errors.New("throttled")}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Fatalf("got %q after %d calls", got, calls)
	}
}

func TestRetryTransientStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := enrich.RetryTransient(context.Background(), fastRetry(5), func(context.Context) (string, error) {
		calls++
		return "", errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("permanent error must not be retried, got %d calls", calls)
	}
}

func TestRetryTransientExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := enrich.RetryTransient(context.Background(), fastRetry(2), func(context.Context) (string, error) {
		calls++
		return "", &enrich.TransientError{Err: errors.New("still throttled")}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Fatalf("expected initial call + 2 retries, got %d calls", calls)
	}
}

func TestIsTransient(t *testing.T) {
	if enrich.IsTransient(errors.New("plain")) {
		t.Fatal("plain errors are not transient")
	}
	if !enrich.IsTransient(&enrich.TransientError{Err: errors.New("x")}) {
		t.Fatal("TransientError must be transient")
	}
	if !enrich.IsTransient(errors.Wrap(&enrich.TransientError{Err: errors.New("x")}, "wrapped")) {
		t.Fatal("wrapped TransientError must be transient")
	}
	if !enrich.IsTransient(context.DeadlineExceeded) {
		t.Fatal("deadline exceeded must be transient")
	}
}
