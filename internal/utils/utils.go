package utils

import (
	"context"
	"time"
)

// after is swapped in tests.
var after = time.After

// WaitFor blocks for d or until ctx is done.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-after(d):
		return nil
	}
}

// Retry calls fn up to attempts times with delay between calls and returns
// the last error. A done ctx stops it between attempts.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func(attempt int) error) error {
	attempts = max(attempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if waitErr := WaitFor(ctx, delay); waitErr != nil {
				return waitErr
			}
		}
		if err = fn(attempt); err == nil {
			return nil
		}
	}
	return err
}
