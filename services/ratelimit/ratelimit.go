// Package ratelimit limits the login attempts per client, in Redis when configured
// and in memory otherwise.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/docmaster/docmaster/core"
)

// Limiter reports whether one more hit on key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	script *redis.Script
}

var _ Limiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		script: redis.NewScript(rateLimitScript),
	}
}

// Allow fails open: Redis errors never lock users out.
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil || l.limit <= 0 || l.window <= 0 || key == "" {
		return true
	}
	redisKey := key
	if l.prefix != "" {
		redisKey = l.prefix + ":" + key
	}
	ttl := l.window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{redisKey}, ttl, l.limit).Int64()
	if err != nil {
		return true
	}
	return allowed == 1
}

type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time // mockable
}

type bucket struct {
	count     int
	windowEnd time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	if l.limit <= 0 || l.window <= 0 || key == "" {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.windowEnd) {
		l.buckets[key] = &bucket{count: 1, windowEnd: now.Add(l.window)}
		l.sweep(now)
		return true
	}
	if b.count >= l.limit {
		return false
	}
	b.count++
	return true
}

// sweep drops the expired buckets.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.After(b.windowEnd) {
			delete(l.buckets, k)
		}
	}
}

// NewRedisClient connects to the configured Redis, or returns nil when no address is set.
func NewRedisClient(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	if conf.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

// New returns a Redis limiter when a client is given, a memory limiter otherwise.
func New(client *redis.Client, conf *core.Config) Limiter {
	limit, window := conf.Server.LoginRateLimit, conf.Server.LoginRateWindow
	if client != nil {
		return NewRedisLimiter(client, limit, window, "docmaster:login")
	}
	return NewMemoryLimiter(limit, window)
}
