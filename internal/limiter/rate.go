package limiter

import (
	"context"
	"sync"
	"time"
)

// RateLimiter allows at most maxRequests calls to Allow within window.
type RateLimiter struct {
	requestTimes []time.Time
	maxRequests  int
	window       time.Duration
	poll         time.Duration
	now          func() time.Time
	mu           sync.Mutex
}

func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	if maxRequests < 1 {
		maxRequests = 1
	}
	return &RateLimiter{
		requestTimes: make([]time.Time, 0, maxRequests),
		maxRequests:  maxRequests,
		window:       window,
		poll:         100 * time.Millisecond,
		now:          time.Now,
	}
}

// Allow records a request if the window still has room.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	windowStart := now.Add(-r.window)

	// Drop requests that fell out of the window
	validTimes := r.requestTimes[:0]
	for _, t := range r.requestTimes {
		if t.After(windowStart) {
			validTimes = append(validTimes, t)
		}
	}
	r.requestTimes = validTimes

	if len(r.requestTimes) < r.maxRequests {
		r.requestTimes = append(r.requestTimes, now)
		return true
	}

	return false
}

// Wait polls Allow until it succeeds or ctx ends.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for !r.Allow() {
		if err := sleepCtx(ctx, r.poll); err != nil {
			return err
		}
	}
	return nil
}

func (r *RateLimiter) Report(bool) {}
