package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"cms-portal/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Cache stores rendered guest responses. Implementations must be safe for
// concurrent use. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Redis is a Cache over go-redis. Keys are namespaced with prefix.
type Redis struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedis(rdb redis.Cmdable, prefix string) *Redis {
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.rdb.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.prefix+key, val, ttl).Err()
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

type memEntry struct {
	val     []byte
	expires time.Time
}

// Memory is an in-process Cache with per-entry expiry.
type Memory struct {
	mu  sync.Mutex
	m   map[string]memEntry
	now func() time.Time
}

func NewMemory() *Memory { return &Memory{m: map[string]memEntry{}, now: time.Now} }

func (c *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.m, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.val...), true, nil
}

func (c *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memEntry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.m[key] = e
	return nil
}

// Verdict is a Limiter's answer for one hit.
type Verdict struct {
	Allowed bool
	// RetryAfter is how long until the window resets; set when not Allowed.
	RetryAfter time.Duration
}

// Limiter counts hits per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (Verdict, error)
}

// RedisLimiter shares its counters across portal replicas.
type RedisLimiter struct {
	rdb    redis.Scripter
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb redis.Scripter, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Verdict, error) {
	if l.limit <= 0 {
		return Verdict{Allowed: true}, nil
	}
	wc, err := utils.CountInWindow(ctx, l.rdb, l.prefix+key, l.window)
	if err != nil {
		return Verdict{}, err
	}
	if wc.Hits <= l.limit {
		return Verdict{Allowed: true}, nil
	}
	return Verdict{RetryAfter: wc.ResetIn}, nil
}

// MemoryLimiter is the single-process Limiter.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*memWindow
}

type memWindow struct {
	start time.Time
	hits  int
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{limit: limit, window: window, now: time.Now, windows: map[string]*memWindow{}}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Verdict, error) {
	if l.limit <= 0 || l.window <= 0 {
		return Verdict{Allowed: true}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &memWindow{start: now}
		l.windows[key] = w
		l.gc(now)
	}
	w.hits++
	if w.hits <= l.limit {
		return Verdict{Allowed: true}, nil
	}
	return Verdict{RetryAfter: w.start.Add(l.window).Sub(now)}, nil
}

// gc drops expired windows so the map stays bounded by active keys.
func (l *MemoryLimiter) gc(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, k)
		}
	}
}
