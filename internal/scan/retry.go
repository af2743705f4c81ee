package scan

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultRetryAttempts is the number of tries for each persistence call.
	DefaultRetryAttempts = 3

	// DefaultRetryBackoff is the base delay; the n-th retry waits n times as long.
	DefaultRetryBackoff = 200 * time.Millisecond
)

// retryPolicy retries a call with linear backoff.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

// do calls fn until it succeeds, the attempts are used up, or ctx is done.
func (p retryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	attempts := max(p.attempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		timer := time.NewTimer(p.backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
}
