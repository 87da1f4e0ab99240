package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hugin/hugin/internal/schema"
)

// RetryPolicy retries transient backend errors with exponential backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// after is swapped in tests.
	after func(time.Duration) <-chan time.Time
}

// DefaultRetryPolicy is three attempts starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// Backoff returns the pause before retry number attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds, fails with a non-transient error, or the
// attempt budget is spent. Only schema.TransientBackendError is retried.
func (p RetryPolicy) Do(ctx context.Context, provider string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	after := p.after
	if after == nil {
		after = time.After
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || !schema.IsTransient(err) {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("%s: giving up after %d attempts: %w", provider, attempt, err)
		}
		delay := p.Backoff(attempt)
		slog.Warn("transient backend error, retrying",
			"provider", provider, "attempt", attempt, "delay", delay, "err", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-after(delay):
		}
	}
}
