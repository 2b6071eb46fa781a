package reposync_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/repodocs"
	"github.com/fwojciec/repodocs/reposync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysRetry(error) bool { return true }

func TestWithRetry(t *testing.T) {
	t.Parallel()

	delays := []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}

	t.Run("returns after the first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		attempts, err := reposync.WithRetry(context.Background(), delays, alwaysRetry, nil, func(context.Context) error {
			calls++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		t.Parallel()

		var retried []int
		calls := 0
		attempts, err := reposync.WithRetry(context.Background(), delays, alwaysRetry,
			func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) },
			func(context.Context) error {
				calls++
				if calls < 3 {
					return errors.New("transient")
				}
				return nil
			})

		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
		assert.Equal(t, []int{2, 3}, retried)
	})

	t.Run("gives up after all delays are used", func(t *testing.T) {
		t.Parallel()

		attempts, err := reposync.WithRetry(context.Background(), delays, alwaysRetry, nil, func(context.Context) error {
			return errors.New("down")
		})

		require.EqualError(t, err, "down")
		assert.Equal(t, 4, attempts)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		t.Parallel()

		retryable := func(err error) bool { return repodocs.ErrorCode(err) == repodocs.ECLONE }
		attempts, err := reposync.WithRetry(context.Background(), delays, retryable, nil, func(context.Context) error {
			return repodocs.Errorf(repodocs.EBRANCH, "branch not found")
		})

		require.Error(t, err)
		assert.Equal(t, repodocs.EBRANCH, repodocs.ErrorCode(err))
		assert.Equal(t, 1, attempts)
	})

	t.Run("makes a single attempt with no delays", func(t *testing.T) {
		t.Parallel()

		attempts, err := reposync.WithRetry(context.Background(), []time.Duration{}, alwaysRetry, nil, func(context.Context) error {
			return errors.New("down")
		})

		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("stops waiting when the context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		start := time.Now()
		attempts, err := reposync.WithRetry(ctx, []time.Duration{time.Hour}, alwaysRetry,
			func(int, time.Duration, error) { cancel() },
			func(context.Context) error { return errors.New("down") })

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("returns default delays of 1s, 2s, 4s", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, reposync.DefaultRetryDelays())
	})
}
