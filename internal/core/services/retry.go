package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/SscSPs/points_ledger/internal/apperrors"
)

// RetryPolicy bounds how often a conflicting commit is re-attempted.
type RetryPolicy struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy allows five attempts starting at 10ms, capped at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, BaseBackoff: 10 * time.Millisecond, MaxBackoff: time.Second}
}

// Backoff is the wait before attempt+1: BaseBackoff doubled per attempt,
// capped at MaxBackoff, with jitter over its upper half.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseBackoff
	for i := 1; i < attempt && d < p.MaxBackoff; i++ {
		d *= 2
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + rand.N(half+1)
}

// Do runs fn until it succeeds, fails with a non-retryable error, or the
// attempts are used up. onRetry is called before each wait.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error, onRetry func(attempt int, wait time.Duration, err error)) error {
	attempts := max(p.MaxAttempts, 1)
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(attempt); err == nil || !apperrors.IsRetryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		wait := p.Backoff(attempt)
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return fmt.Errorf("%w (retry interrupted: %v)", err, serr)
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
