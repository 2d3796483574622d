package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backoff repeats transient failures with a doubling delay capped at maxDelay
type Backoff struct {
	maxRetries   int
	initialDelay time.Duration
	maxDelay     time.Duration

	// Transient classifies errors worth another attempt
	Transient func(error) bool
}

// NewBackoff creates a Backoff that classifies errors with IsTransient
func NewBackoff(maxRetries int, initialDelay, maxDelay time.Duration) *Backoff {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxDelay < initialDelay {
		maxDelay = initialDelay
	}
	return &Backoff{
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		Transient:    IsTransient,
	}
}

// Do runs attempt until it succeeds, fails permanently or retries run out
func (b *Backoff) Do(ctx context.Context, attempt Attempt) error {
	total := b.maxRetries + 1

	var err error
	for n := 1; n <= total; n++ {
		if err = attempt(ctx, n); err == nil {
			if n > 1 {
				slog.Info("Commit succeeded after retry", "attempt", n)
			}
			return nil
		}

		if !b.Transient(err) {
			return err
		}
		if n == total {
			break
		}

		delay := b.delay(n)
		slog.Warn("Commit attempt failed, retrying",
			"attempt", n,
			"max_attempts", total,
			"retry_in", delay,
			"error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", total, err)
}

// delay returns the wait after the n-th failed attempt
func (b *Backoff) delay(n int) time.Duration {
	d := b.initialDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= b.maxDelay {
			return b.maxDelay
		}
	}
	return min(d, b.maxDelay)
}

func (b *Backoff) Name() string {
	return "backoff"
}
