package store

import (
	"context"
	"fmt"
	"log"
	"time"

	"ecopulse-analytics-api/metrics"
)

// RetryPolicy retries an operation a bounded number of times with a fixed
// delay between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	// Retryable reports whether an error is worth another attempt. When nil,
	// every error is retried until ctx is done.
	Retryable func(error) bool
}

var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Delay: 5 * time.Second}

func (p RetryPolicy) retryable(err error) bool {
	return p.Retryable == nil || p.Retryable(err)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the
// attempts are used up.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := max(p.MaxAttempts, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !p.retryable(err) {
			return err
		}
		log.Printf("%s attempt %d/%d failed: %v", op, attempt, attempts, err)
		if attempt == attempts {
			break
		}
		metrics.StoreRetries.WithLabelValues(op).Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, attempts, err)
}
