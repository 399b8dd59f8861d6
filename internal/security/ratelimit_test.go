package security

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(2, 50*time.Millisecond)
	defer rl.Close()
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, "1.2.3.4"))
	assert.True(t, rl.Allow(ctx, "1.2.3.4"))
	assert.False(t, rl.Allow(ctx, "1.2.3.4"))
	assert.True(t, rl.Allow(ctx, "5.6.7.8"), "keys are limited independently")

	time.Sleep(70 * time.Millisecond)
	assert.True(t, rl.Allow(ctx, "1.2.3.4"), "a new window starts after the old one expires")
}

func TestRateLimiterFixedWindow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	defer rl.Close()
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow(ctx, "login:10.0.0.1"))
	}
	assert.False(t, rl.Allow(ctx, "login:10.0.0.1"))

	now = now.Add(59 * time.Second)
	assert.False(t, rl.Allow(ctx, "login:10.0.0.1"), "window is not sliding")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow(ctx, "login:10.0.0.1"))
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	limiter := NewRedisLimiter(client, 2, time.Minute)
	defer limiter.Close()
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "login:1.2.3.4"))
	assert.True(t, limiter.Allow(ctx, "login:1.2.3.4"))
	assert.False(t, limiter.Allow(ctx, "login:1.2.3.4"))

	ttl := mr.TTL("stuntcheck:rl:login:1.2.3.4")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "window expiry should be set, got %s", ttl)

	mr.FastForward(time.Minute + time.Second)
	assert.True(t, limiter.Allow(ctx, "login:1.2.3.4"))
}

func TestRedisLimiterFallback(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	mr.Close()

	limiter := NewRedisLimiter(client, 1, time.Minute)
	defer limiter.Close()
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "k"))
	assert.False(t, limiter.Allow(ctx, "k"), "fallback limiter should still enforce the rate")
}
