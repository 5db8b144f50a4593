package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, zap.NewNop(), limit, window), mr
}

func TestLimiterBlocksOverLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.True(t, l.Allow(ctx, "10.0.0.1"))
	}
	require.False(t, l.Allow(ctx, "10.0.0.1"))

	// Other clients are unaffected.
	require.True(t, l.Allow(ctx, "10.0.0.2"))
}

func TestLimiterWindowResets(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	ctx := context.Background()

	require.True(t, l.Allow(ctx, "10.0.0.9"))
	require.False(t, l.Allow(ctx, "10.0.0.9"))

	mr.FastForward(2 * time.Minute)
	require.True(t, l.Allow(ctx, "10.0.0.9"))
}

func TestLimiterFailsOpenWhenRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	mr.Close()

	require.True(t, l.Allow(context.Background(), "10.0.0.3"))
}

func TestLimiterDisabledWithZeroLimit(t *testing.T) {
	l, _ := newTestLimiter(t, 0, time.Minute)
	for i := 0; i < 10; i++ {
		require.True(t, l.Allow(context.Background(), "10.0.0.4"))
	}
}
