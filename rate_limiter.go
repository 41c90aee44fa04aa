package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	errRateLimited          = errors.New("rate limited")
	errRateRedisUnavailable = errors.New("rate limiter redis unavailable")
)

// attemptLimiter throttles a guarded operation per (operation, client IP,
// identity) triple. The gate is marker presence alone: Allow never writes,
// and MarkUsed is called only after the operation has fully succeeded, so
// a failed attempt does not burn the caller's window.
type attemptLimiter struct {
	redis   *redis.Client
	prefix  string
	window  time.Duration
	enabled bool
}

func newAttemptLimiter(redisClient *redis.Client, cfg RateLimitConfig) *attemptLimiter {
	return &attemptLimiter{
		redis:   redisClient,
		prefix:  cfg.RedisPrefix,
		window:  cfg.Window,
		enabled: cfg.Enabled,
	}
}

func (l *attemptLimiter) key(operation, ip, identity string) string {
	if ip == "" {
		ip = "-"
	}
	return l.prefix + ":" + operation + ":" + ip + ":" + identity
}

// Allow reports whether the triple is outside its cooldown window. It has
// no side effect; the marker's value is never inspected.
func (l *attemptLimiter) Allow(ctx context.Context, operation, ip, identity string) error {
	if !l.enabled {
		return nil
	}

	n, err := l.redis.Exists(ctx, l.key(operation, ip, identity)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errRateRedisUnavailable, err)
	}
	if n > 0 {
		return errRateLimited
	}

	return nil
}

// MarkUsed opens the cooldown window for the triple.
func (l *attemptLimiter) MarkUsed(ctx context.Context, operation, ip, identity string) error {
	if !l.enabled {
		return nil
	}

	if err := l.redis.Set(ctx, l.key(operation, ip, identity), "1", l.window).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRateRedisUnavailable, err)
	}

	return nil
}
