package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request or ctx is done
	Wait(ctx context.Context) error
	// Reset resets the rate limiter state
	Reset()
}

// Strategy names accepted by New
const (
	StrategyFixed   = "fixed"
	StrategySliding = "sliding"
)

// New builds a limiter allowing maxRequests per period
func New(strategy string, maxRequests int, period time.Duration) (Limiter, error) {
	switch strategy {
	case StrategyFixed, "":
		return NewFixedWindow(maxRequests, period), nil
	case StrategySliding:
		return NewSlidingWindow(maxRequests, period), nil
	default:
		return nil, fmt.Errorf("unknown rate limit strategy: %q", strategy)
	}
}

// FixedWindow allows capacity requests per period. The window starts with
// the first request after the previous one expired, and the whole budget
// comes back at once when it ends.
type FixedWindow struct {
	capacity    int
	remaining   int
	period      time.Duration
	windowStart time.Time
	mu          sync.Mutex
}

// NewFixedWindow creates a new fixed window rate limiter
func NewFixedWindow(capacity int, period time.Duration) *FixedWindow {
	return &FixedWindow{
		capacity:  capacity,
		remaining: capacity,
		period:    period,
	}
}

// Allow checks if a request can proceed
func (fw *FixedWindow) Allow() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	now := time.Now()
	fw.roll(now)

	if fw.remaining > 0 {
		if fw.remaining == fw.capacity {
			fw.windowStart = now
		}
		fw.remaining--
		return true
	}
	return false
}

// Wait blocks until a request is allowed
func (fw *FixedWindow) Wait(ctx context.Context) error {
	for !fw.Allow() {
		fw.mu.Lock()
		untilReset := fw.period - time.Since(fw.windowStart)
		fw.mu.Unlock()

		if err := sleep(ctx, untilReset); err != nil {
			return err
		}
	}
	return nil
}

// Reset restores the full budget
func (fw *FixedWindow) Reset() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.remaining = fw.capacity
	fw.windowStart = time.Time{}
}

func (fw *FixedWindow) roll(now time.Time) {
	if !fw.windowStart.IsZero() && now.Sub(fw.windowStart) >= fw.period {
		fw.remaining = fw.capacity
		fw.windowStart = time.Time{}
	}
}

// SlidingWindow implements a sliding window rate limiter
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// Allow checks if a request can proceed
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}

	return false
}

// Wait blocks until a request is allowed
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		sw.mu.Lock()
		var timeToWait time.Duration
		if len(sw.requests) > 0 {
			timeToWait = sw.windowSize - time.Since(sw.requests[0])
		}
		sw.mu.Unlock()

		if err := sleep(ctx, timeToWait); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

// cleanOldRequests removes requests outside the sliding window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}

// sleep waits for d, at least a millisecond to avoid spinning
func sleep(ctx context.Context, d time.Duration) error {
	if d < time.Millisecond {
		d = time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
