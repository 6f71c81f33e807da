package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig controls redis client behavior for the guest page cache and
// the login throttle.
type RedisConfig struct {
	Addr string

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	PoolSize    int
	PoolTimeout time.Duration

	PingTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	// Cache reads sit on the request path; keep them short.
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 500 * time.Millisecond
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 500 * time.Millisecond
	}
	if out.PoolSize <= 0 {
		out.PoolSize = 10
	}
	if out.PoolTimeout <= 0 {
		out.PoolTimeout = time.Second
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 2 * time.Second
	}
	return out
}

// OpenRedis initializes a Redis client and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		PoolTimeout:  cfg.PoolTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// windowScript counts one hit and reports the window's remaining lifetime.
// The window starts at the first hit; a key that lost its TTL gets it back.
var windowScript = redis.NewScript(`
local hits = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if hits == 1 or ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {hits, ttl}
`)

// WindowCount is the state of a fixed window right after a hit.
type WindowCount struct {
	Hits    int
	ResetIn time.Duration
}

// CountInWindow records one hit against key in a fixed window of the given
// length and returns the running count.
func CountInWindow(ctx context.Context, rdb redis.Scripter, key string, window time.Duration) (WindowCount, error) {
	switch {
	case rdb == nil:
		return WindowCount{}, fmt.Errorf("redis client is nil")
	case key == "":
		return WindowCount{}, fmt.Errorf("key is required")
	case window <= 0:
		return WindowCount{}, fmt.Errorf("window must be > 0")
	}

	vals, err := windowScript.Run(ctx, rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return WindowCount{}, fmt.Errorf("window counter %q: %w", key, err)
	}
	if len(vals) != 2 {
		return WindowCount{}, fmt.Errorf("window counter %q: unexpected reply %v", key, vals)
	}
	return WindowCount{Hits: int(vals[0]), ResetIn: time.Duration(vals[1]) * time.Millisecond}, nil
}
