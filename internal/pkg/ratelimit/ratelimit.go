// Package ratelimit throttles logins and submissions with Redis. A nil client disables throttling.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yigit/servicedesk/internal/pkg/logger"
)

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects and pings; it returns nil when Redis is unreachable so callers degrade
// to running without throttling.
func NewRedisClient(ctx context.Context, opts Options) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", opts.Addr).Msg("Redis unavailable, rate limiting disabled")
		_ = client.Close()
		return nil
	}
	return client
}

// Cooldown allows one action per key per interval
type Cooldown struct {
	rdb      *redis.Client
	prefix   string
	interval time.Duration
}

// NewCooldown creates a cooldown under the given key prefix
func NewCooldown(rdb *redis.Client, prefix string, interval time.Duration) *Cooldown {
	return &Cooldown{rdb: rdb, prefix: prefix, interval: interval}
}

func (c *Cooldown) key(id string) string {
	return fmt.Sprintf("rate_limit:%s:%s", c.prefix, id)
}

// Allow claims the slot for id; when it is already taken it reports the remaining wait.
func (c *Cooldown) Allow(ctx context.Context, id string) (bool, time.Duration, error) {
	if c == nil || c.rdb == nil || c.interval <= 0 {
		return true, 0, nil
	}

	wasSet, err := c.rdb.SetNX(ctx, c.key(id), "locked", c.interval).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}
	if wasSet {
		return true, 0, nil
	}

	ttl, err := c.rdb.TTL(ctx, c.key(id)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to read rate limit ttl: %w", err)
	}
	return false, ttl, nil
}

// Release frees the slot, used when the guarded action failed
func (c *Cooldown) Release(ctx context.Context, id string) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, c.key(id)).Err()
}

// Attempts counts failures per key inside a fixed window
type Attempts struct {
	rdb    *redis.Client
	prefix string
	max    int
	window time.Duration
}

// NewAttempts creates a failure counter allowing max failures per window
func NewAttempts(rdb *redis.Client, prefix string, max int, window time.Duration) *Attempts {
	return &Attempts{rdb: rdb, prefix: prefix, max: max, window: window}
}

func (a *Attempts) key(id string) string {
	return fmt.Sprintf("rate_limit:%s:%s", a.prefix, id)
}

// Blocked reports whether id has used up its failures and how long until the window ends
func (a *Attempts) Blocked(ctx context.Context, id string) (bool, time.Duration, error) {
	if a == nil || a.rdb == nil || a.max <= 0 {
		return false, 0, nil
	}

	n, err := a.rdb.Get(ctx, a.key(id)).Int()
	if err == redis.Nil {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, fmt.Errorf("failed to read attempt counter: %w", err)
	}
	if n < a.max {
		return false, 0, nil
	}

	ttl, err := a.rdb.TTL(ctx, a.key(id)).Result()
	if err != nil {
		return true, 0, fmt.Errorf("failed to read attempt ttl: %w", err)
	}
	return true, ttl, nil
}

// Fail records one failure; the window starts at the first failure
func (a *Attempts) Fail(ctx context.Context, id string) error {
	if a == nil || a.rdb == nil || a.max <= 0 {
		return nil
	}

	n, err := a.rdb.Incr(ctx, a.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	if n == 1 {
		if err := a.rdb.Expire(ctx, a.key(id), a.window).Err(); err != nil {
			return fmt.Errorf("failed to set attempt window: %w", err)
		}
	}
	logger.Debug().Str("key", a.key(id)).Int64("attempts", n).Msg("Recorded failed attempt")
	return nil
}

// Reset clears the failures of id
func (a *Attempts) Reset(ctx context.Context, id string) error {
	if a == nil || a.rdb == nil {
		return nil
	}
	return a.rdb.Del(ctx, a.key(id)).Err()
}
