package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// WithTimeout calls fn with a context that expires after timeout and waits
// for it to return. fn must honour ctx; a zero timeout leaves ctx as is.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(attemptCtx)
	if err == nil || ctx.Err() != nil || !errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%s: %w (limit: %v)", name, err, timeout)
}
