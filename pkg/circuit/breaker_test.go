package circuit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDown = errors.New("dependency down")

func fail(context.Context) error { return errDown }
func succeed(context.Context) error { return nil }

func newTestBreaker(cfg Config) (*Breaker, *time.Time) {
	now := time.Unix(1_700_000_000, 0)
	b := NewBreaker("test", cfg, nil)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(Config{Threshold: 3, Cooldown: time.Second, SuccessThreshold: 1, MaxProbes: 1})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, b.Do(ctx, fail), errDown)
	}
	assert.Equal(t, StateClosed, b.State())

	// A success resets the consecutive failure count.
	require.NoError(t, b.Do(ctx, succeed))
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(ctx, fail), errDown)
	}
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Do(ctx, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "an open breaker must not call through")
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b, now := newTestBreaker(Config{Threshold: 1, Cooldown: time.Second, SuccessThreshold: 2, MaxProbes: 1})
	ctx := context.Background()

	assert.ErrorIs(t, b.Do(ctx, fail), errDown)
	require.Equal(t, StateOpen, b.State())

	*now = now.Add(time.Second)
	require.NoError(t, b.Do(ctx, succeed))
	assert.Equal(t, StateHalfOpen, b.State())

	require.NoError(t, b.Do(ctx, succeed))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b, now := newTestBreaker(Config{Threshold: 1, Cooldown: time.Second, SuccessThreshold: 2, MaxProbes: 1})
	ctx := context.Background()

	_ = b.Do(ctx, fail)
	*now = now.Add(time.Second)

	assert.ErrorIs(t, b.Do(ctx, fail), errDown)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Do(ctx, succeed), ErrCircuitOpen, "cooldown restarts")
}

func TestBreaker_LimitsConcurrentProbes(t *testing.T) {
	b, now := newTestBreaker(Config{Threshold: 1, Cooldown: time.Second, SuccessThreshold: 1, MaxProbes: 1})
	ctx := context.Background()

	_ = b.Do(ctx, fail)
	*now = now.Add(time.Second)

	inner := make(chan error, 1)
	err := b.Do(ctx, func(ctx context.Context) error {
		inner <- b.Do(ctx, succeed)
		return nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, <-inner, ErrTooManyRequests)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_CallerCancellationIsNotAFailure(t *testing.T) {
	b, _ := newTestBreaker(Config{Threshold: 1, Cooldown: time.Second, SuccessThreshold: 1, MaxProbes: 1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_Stats(t *testing.T) {
	b := NewBreaker("redis", DefaultConfig(), nil)
	stats := b.Stats()
	assert.Equal(t, "redis", stats["name"])
	assert.Equal(t, "CLOSED", stats["state"])
}

func TestNewBreaker_NormalizesConfig(t *testing.T) {
	b := NewBreaker("x", Config{}, nil)
	assert.Equal(t, 1, b.config.Threshold)
	assert.Equal(t, 1, b.config.SuccessThreshold)
	assert.Equal(t, 1, b.config.MaxProbes)
}
