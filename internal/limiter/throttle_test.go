package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thep200/devfolio-sync/cfg"
)

type recorder struct {
	slept []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.slept = append(r.slept, d)
	return nil
}

func TestFixedSkipsFirstWait(t *testing.T) {
	rec := &recorder{}
	f := NewFixed(10 * time.Second)
	f.sleep = rec.sleep

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.Wait(ctx))
	}
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, rec.slept)
}

func TestBackoffGrowsAndResets(t *testing.T) {
	rec := &recorder{}
	b := NewBackoff(time.Second, 5*time.Second)
	b.sleep = rec.sleep
	ctx := context.Background()

	require.NoError(t, b.Wait(ctx))
	b.Report(false)
	require.NoError(t, b.Wait(ctx))
	b.Report(false)
	require.NoError(t, b.Wait(ctx))
	b.Report(false)
	assert.Equal(t, 5*time.Second, b.Delay())
	b.Report(true)
	require.NoError(t, b.Wait(ctx))

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, time.Second}, rec.slept)
}

func TestSleepHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFixed(time.Hour)
	assert.ErrorIs(t, f.Wait(ctx), context.Canceled)
	assert.ErrorIs(t, f.Wait(ctx), context.Canceled)
	assert.ErrorIs(t, Nop{}.Wait(ctx), context.Canceled)
}

func TestTokenFirstWaitIsImmediate(t *testing.T) {
	tok := NewToken(time.Hour, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, tok.Wait(ctx))
	// The bucket is empty now and refills only after an hour.
	assert.Error(t, tok.Wait(ctx))
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRateLimiter(2, time.Second)
	r.now = func() time.Time { return now }

	assert.True(t, r.Allow())
	assert.True(t, r.Allow())
	assert.False(t, r.Allow())

	now = now.Add(1100 * time.Millisecond)
	assert.True(t, r.Allow())
}

func TestNew(t *testing.T) {
	for strategy, want := range map[string]interface{}{
		"fixed":   &Fixed{},
		"":        &Fixed{},
		"backoff": &Backoff{},
		"token":   &Token{},
		"window":  &RateLimiter{},
		"none":    Nop{},
	} {
		th, err := New(cfg.Throttle{Strategy: strategy, DelayMs: 10, MaxDelayMs: 100, Burst: 1})
		require.NoError(t, err, strategy)
		assert.IsType(t, want, th, strategy)
	}

	_, err := New(cfg.Throttle{Strategy: "adaptive"})
	assert.Error(t, err)
}
