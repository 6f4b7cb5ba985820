// Package ratelimit implements a fixed-window request counter in redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "docqa:ratelimit:"

type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type RedisLimiter struct {
	rdb      redis.UniversalClient
	requests int
	window   time.Duration
	now      func() time.Time
}

func NewRedisLimiter(rdb redis.UniversalClient, requests int, window time.Duration) *RedisLimiter {
	if requests <= 0 {
		requests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{rdb: rdb, requests: requests, window: window, now: time.Now}
}

// Allow counts one request for key in the current window. The counter key
// carries the window start so each window expires on its own.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.now()
	windowStart := now.Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", keyPrefix, key, windowStart.Unix())

	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, l.window)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("rate limit counter: %w", err)
	}

	count := int(incr.Val())
	if count > l.requests {
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: windowStart.Add(l.window).Sub(now),
		}, nil
	}
	return Result{Allowed: true, Remaining: l.requests - count}, nil
}
