package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docmaster/docmaster/core"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow(ctx, "1.2.3.4"))
	assert.True(t, l.Allow(ctx, "1.2.3.4"))
	assert.False(t, l.Allow(ctx, "1.2.3.4"), "third hit in the window")
	assert.True(t, l.Allow(ctx, "5.6.7.8"), "other keys have their own bucket")

	now = now.Add(61 * time.Second)
	assert.True(t, l.Allow(ctx, "1.2.3.4"), "new window")
	assert.Len(t, l.buckets, 1, "expired buckets are swept")
}

func TestLimiter_FailOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		l    Limiter
		key  string
	}{
		{name: "no key", l: NewMemoryLimiter(1, time.Minute)},
		{name: "no limit", l: NewMemoryLimiter(0, time.Minute), key: "k"},
		{name: "redis without client", l: NewRedisLimiter(nil, 1, time.Minute, "p"), key: "k"},
		{name: "nil redis limiter", l: (*RedisLimiter)(nil), key: "k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				assert.True(t, tt.l.Allow(ctx, tt.key))
			}
		})
	}
}

func TestNew(t *testing.T) {
	conf := &core.Config{Server: core.ServerConfig{LoginRateLimit: 5, LoginRateWindow: time.Minute}}

	client, err := NewRedisClient(context.Background(), conf)
	assert.NoError(t, err)
	assert.Nil(t, client)

	l := New(client, conf)
	assert.IsType(t, &MemoryLimiter{}, l)
}
