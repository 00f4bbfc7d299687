package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rideshare/internal/repository"
)

// withOpTimeout bounds a single store operation. A non-positive timeout only
// inherits the caller's deadline.
func withOpTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// storeError makes sure deadline and cancellation failures surface as
// ErrUnavailable. Other errors pass through unchanged.
func storeError(err error) error {
	if err == nil || errors.Is(err, repository.ErrUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
