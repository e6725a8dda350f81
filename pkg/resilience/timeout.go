package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/errors"
)

// WithTimeout runs fn under a deadline. On expiry it returns without waiting
// for fn, wrapping both ErrTimeout and context.DeadlineExceeded; fn keeps
// running until it observes its context. A non-positive timeout runs fn
// inline.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- fn(tctx)
	}()
	select {
	case err := <-done:
		return err
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s after %v: %w: %w", name, timeout, apperrors.ErrTimeout, context.DeadlineExceeded)
	}
}
