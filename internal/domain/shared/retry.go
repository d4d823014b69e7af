package shared

import (
	"context"
	"errors"
)

// DefaultConflictRetries is how many extra attempts a service makes after
// losing an optimistic-lock race
const DefaultConflictRetries = 2

// RetryOnConflict calls fn and repeats it up to retries more times while it
// fails with ErrConcurrentModification. fn must reload the aggregate it
// mutates on every attempt. The last error is returned when retries run out.
func RetryOnConflict(ctx context.Context, retries int, fn func(attempt int) error) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		err = fn(attempt)
		if !errors.Is(err, ErrConcurrentModification) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}
