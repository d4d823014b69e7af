package shared

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryOnConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("returns first success", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(ctx, 2, func(int) error {
			calls++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries conflicts then succeeds", func(t *testing.T) {
		var attempts []int
		err := RetryOnConflict(ctx, 2, func(attempt int) error {
			attempts = append(attempts, attempt)
			if attempt < 2 {
				return fmt.Errorf("save bill: %w", ErrConcurrentModification)
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2}, attempts)
	})

	t.Run("surfaces conflict after retries are exhausted", func(t *testing.T) {
		calls := 0
		err := RetryOnConflict(ctx, 2, func(int) error {
			calls++
			return ErrConcurrentModification
		})
		assert.ErrorIs(t, err, ErrConcurrentModification)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		boom := errors.New("boom")
		calls := 0
		err := RetryOnConflict(ctx, 2, func(int) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when the context is done", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		calls := 0
		err := RetryOnConflict(cctx, 2, func(int) error {
			calls++
			return ErrConcurrentModification
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
