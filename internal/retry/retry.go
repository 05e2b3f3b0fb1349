package retry

import (
	"context"
	"time"
)

// Policy is a bounded retry schedule shared by external call sites. Retryable
// decides whether an error consumes another attempt; a nil predicate retries
// every error.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
	Retryable   func(error) bool
}

func NewPolicy(maxAttempts int, backoff time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
	}
}

func (p Policy) WithRetryable(retryable func(error) bool) Policy {
	p.Retryable = retryable
	return p
}

// Do invokes fn until it succeeds, the attempt bound is reached, a
// non-retryable error occurs, or the context is done. The last error is
// returned on exhaustion.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt < p.MaxAttempts-1 && p.Backoff > 0 {
			select {
			case <-time.After(p.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
