package ratelimit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_FixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewMemory(2, time.Minute)
	rl.now = func() time.Time { return now }

	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "ip:1").Allowed)
	assert.True(t, rl.Allow(ctx, "ip:1").Allowed)

	d := rl.Allow(ctx, "ip:1")
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)

	// other keys have their own bucket
	assert.True(t, rl.Allow(ctx, "ip:2").Allowed)

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow(ctx, "ip:1").Allowed)
}

func TestMemory_ZeroLimitDisables(t *testing.T) {
	rl := NewMemory(0, time.Minute)

	for i := 0; i < 50; i++ {
		require.True(t, rl.Allow(context.Background(), "k").Allowed)
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return s, client
}

func TestRedis_FixedWindow(t *testing.T) {
	s, client := newRedis(t)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := NewRedis(client, 2, time.Minute, log)

	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "ip:1").Allowed)
	assert.True(t, rl.Allow(ctx, "ip:1").Allowed)

	d := rl.Allow(ctx, "ip:1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 3, d.Count)
	assert.Greater(t, d.RetryAfter, time.Duration(0))

	s.FastForward(61 * time.Second)
	assert.True(t, rl.Allow(ctx, "ip:1").Allowed)
}

func TestRedis_FailsOpen(t *testing.T) {
	s, client := newRedis(t)
	rl := NewRedis(client, 1, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(context.Background(), "ip:1").Allowed)
	}
}

func TestRedis_RestoresMissingExpiry(t *testing.T) {
	s, client := newRedis(t)
	rl := NewRedis(client, 2, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// a counter left over limit with no TTL, as after a failed EXPIRE
	key := "bankly:ratelimit:ip:1"
	require.NoError(t, s.Set(key, "5"))
	require.Equal(t, time.Duration(0), s.TTL(key))

	d := rl.Allow(context.Background(), "ip:1")
	assert.False(t, d.Allowed)
	assert.Equal(t, time.Minute, d.RetryAfter)
	assert.Greater(t, s.TTL(key), time.Duration(0))

	s.FastForward(61 * time.Second)
	assert.True(t, rl.Allow(context.Background(), "ip:1").Allowed)
}

func TestRedis_NewWindowGetsExpiry(t *testing.T) {
	s, client := newRedis(t)
	rl := NewRedis(client, 5, 30*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.True(t, rl.Allow(context.Background(), "ip:9").Allowed)
	assert.Equal(t, 30*time.Second, s.TTL("bankly:ratelimit:ip:9"))
}
