package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

type Redis struct {
	client  *redis.Client
	log     *slog.Logger
	prefix  string
	limit   int
	window  time.Duration
	timeout time.Duration
}

// NewRedis shares counters across API instances. Redis errors fail open.
func NewRedis(client *redis.Client, limit int, window time.Duration, log *slog.Logger) *Redis {
	if window <= 0 {
		window = time.Minute
	}
	if log == nil {
		log = slog.Default()
	}

	return &Redis{
		client:  client,
		log:     log,
		prefix:  "bankly:ratelimit:",
		limit:   limit,
		window:  window,
		timeout: 250 * time.Millisecond,
	}
}

func (rl *Redis) Allow(ctx context.Context, key string) Decision {
	if rl.limit <= 0 {
		return Decision{Allowed: true}
	}

	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key

	var incr *redis.IntCmd
	var ttlCmd *redis.DurationCmd

	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttlCmd = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		rl.log.Error("redis rate limiter error", "op", "incr", "err", err)
		return Decision{Allowed: true}
	}

	counter := incr.Val()
	ttl := ttlCmd.Val()

	// a new window, or a key whose expire was lost; either way it needs one
	if ttl < 0 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			rl.log.Error("redis rate limiter error", "op", "expire", "err", err)
		}
		ttl = rl.window
	}

	if int(counter) <= rl.limit {
		return Decision{Allowed: true, Count: int(counter)}
	}

	return Decision{Allowed: false, Count: int(counter), RetryAfter: ttl}
}
