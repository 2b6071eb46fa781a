package reposync

import (
	"context"
	"time"
)

// DefaultRetryDelays returns the backoff delays for clone retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// RetryFunc is called before each retry with the attempt about to start.
type RetryFunc func(attempt int, delay time.Duration, err error)

// WithRetry calls fn until it succeeds, returns an error retryable rejects,
// or len(delays)+1 attempts are used. It returns the number of attempts made.
func WithRetry(ctx context.Context, delays []time.Duration, retryable func(error) bool, onRetry RetryFunc, fn func(ctx context.Context) error) (int, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return attempt + 1, nil
		}
		lastErr = err

		// Don't retry after the last attempt or on permanent failures
		if attempt >= maxAttempts-1 || !retryable(err) {
			return attempt + 1, err
		}

		// Check context before sleeping
		select {
		case <-ctx.Done():
			return attempt + 1, context.Cause(ctx)
		default:
		}

		if onRetry != nil {
			onRetry(attempt+2, delays[attempt], err)
		}

		// Wait before next attempt
		timer := time.NewTimer(delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt + 1, context.Cause(ctx)
		case <-timer.C:
		}
	}

	return maxAttempts, lastErr
}
