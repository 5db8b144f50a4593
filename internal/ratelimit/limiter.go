package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Limiter is a fixed-window counter over redis, used to slow anonymous
// probing of the public payment surface. It fails open: if redis is down the
// payer is let through rather than locked out of paying a bill.
type Limiter struct {
	client *redis.Client
	log    *zap.Logger
	limit  int
	window time.Duration
}

func New(client *redis.Client, log *zap.Logger, limit int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		log:    log.Named("ratelimit"),
		limit:  limit,
		window: window,
	}
}

func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l.limit <= 0 {
		return true
	}
	redisKey := "ratelimit:pay:" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		l.log.Warn("rate limit check failed, allowing request", zap.Error(err))
		return true
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			l.log.Warn("rate limit expiry set failed", zap.Error(err))
		}
	}
	return count <= int64(l.limit)
}
