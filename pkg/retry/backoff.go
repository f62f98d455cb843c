package retry

import (
	"context"
	"time"
)

// BackoffStrategy gives the pause before a retry
type BackoffStrategy interface {
	// NextDelay returns the pause before retry number attempt (1-based)
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff waits BaseDelay before the first retry and multiplies
// the wait by Multiplier for every retry after it. MaxDelay, when set, caps
// the wait.
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultExponentialBackoff is 1s, 2s, 4s, ...
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  time.Second,
		Multiplier: 2,
	}
}

// NextDelay implements BackoffStrategy
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := b.BaseDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * b.Multiplier)
		if b.MaxDelay > 0 && delay >= b.MaxDelay {
			return b.MaxDelay
		}
	}
	if b.MaxDelay > 0 && delay > b.MaxDelay {
		return b.MaxDelay
	}
	return delay
}

// ConstantBackoff always waits Delay
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay implements BackoffStrategy
func (b *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return b.Delay
}

// Wait sleeps for delay. It returns early with the context's error when ctx
// is done first.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
