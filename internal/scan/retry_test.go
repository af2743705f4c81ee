package scan

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy(t *testing.T) {
	t.Parallel()

	errFlaky := errors.New("flaky")

	t.Run("succeeds after transient failures", func(t *testing.T) {
		t.Parallel()

		calls := 0
		p := retryPolicy{attempts: 3, backoff: time.Millisecond}
		err := p.do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return errFlaky
			}
			return nil
		})
		if err != nil {
			t.Errorf("do() error = %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		t.Parallel()

		calls := 0
		p := retryPolicy{attempts: 3, backoff: time.Millisecond}
		err := p.do(context.Background(), func(context.Context) error {
			calls++
			return errFlaky
		})
		if !errors.Is(err, errFlaky) {
			t.Errorf("do() error = %v, want errFlaky", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("stops waiting when context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		p := retryPolicy{attempts: 5, backoff: time.Hour}
		err := p.do(ctx, func(context.Context) error {
			calls++
			cancel()
			return errFlaky
		})
		if !errors.Is(err, context.Canceled) || !errors.Is(err, errFlaky) {
			t.Errorf("do() error = %v, want errFlaky and context.Canceled", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("zero attempts still calls once", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_ = retryPolicy{}.do(context.Background(), func(context.Context) error {
			calls++
			return nil
		})
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})
}
