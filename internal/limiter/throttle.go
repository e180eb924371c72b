// Package limiter paces the batches of a sync run. The orchestrator calls
// Wait before every batch and Report after it; the strategy decides how long
// Wait blocks.
package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/thep200/devfolio-sync/cfg"
	"golang.org/x/time/rate"
)

type Throttle interface {
	Wait(ctx context.Context) error
	Report(ok bool)
}

const (
	StrategyFixed   = "fixed"
	StrategyBackoff = "backoff"
	StrategyToken   = "token"
	StrategyWindow  = "window"
	StrategyNone    = "none"
)

// New builds the throttle named by throttle.strategy.
func New(config cfg.Throttle) (Throttle, error) {
	delay := time.Duration(config.DelayMs) * time.Millisecond
	switch config.Strategy {
	case StrategyFixed, "":
		return NewFixed(delay), nil
	case StrategyBackoff:
		return NewBackoff(delay, time.Duration(config.MaxDelayMs)*time.Millisecond), nil
	case StrategyToken:
		return NewToken(delay, config.Burst), nil
	case StrategyWindow:
		return NewRateLimiter(max(config.Burst, 1), delay), nil
	case StrategyNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unsupported throttle strategy: %s", config.Strategy)
	}
}

// Nop never blocks.
type Nop struct{}

func (Nop) Wait(ctx context.Context) error { return ctx.Err() }
func (Nop) Report(bool)                    {}

// Fixed sleeps a constant delay before every batch but the first.
type Fixed struct {
	delay   time.Duration
	started bool
	sleep   func(context.Context, time.Duration) error
}

func NewFixed(delay time.Duration) *Fixed {
	return &Fixed{delay: delay, sleep: sleepCtx}
}

func (f *Fixed) Wait(ctx context.Context) error {
	if !f.started {
		f.started = true
		return ctx.Err()
	}
	return f.sleep(ctx, f.delay)
}

func (f *Fixed) Report(bool) {}

// Backoff doubles the delay after a failed batch, up to maxDelay, and drops
// back to the base delay after a successful one.
type Backoff struct {
	mu       sync.Mutex
	base     time.Duration
	maxDelay time.Duration
	current  time.Duration
	started  bool
	sleep    func(context.Context, time.Duration) error
}

func NewBackoff(base, maxDelay time.Duration) *Backoff {
	if maxDelay < base {
		maxDelay = base
	}
	return &Backoff{base: base, maxDelay: maxDelay, current: base, sleep: sleepCtx}
}

func (b *Backoff) Wait(ctx context.Context) error {
	b.mu.Lock()
	first := !b.started
	b.started = true
	d := b.current
	b.mu.Unlock()

	if first {
		return ctx.Err()
	}
	return b.sleep(ctx, d)
}

func (b *Backoff) Report(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ok {
		b.current = b.base
		return
	}
	next := b.current * 2
	if next == 0 {
		next = time.Second
	}
	b.current = min(next, b.maxDelay)
}

// Delay is the pause the next Wait will apply.
func (b *Backoff) Delay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Token is a token bucket refilled once per interval.
type Token struct {
	limiter *rate.Limiter
}

func NewToken(interval time.Duration, burst int) *Token {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Token{limiter: rate.NewLimiter(limit, burst)}
}

func (t *Token) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

func (t *Token) Report(bool) {}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
