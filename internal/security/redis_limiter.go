package security

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter is a fixed window limiter shared by every gateway replica.
// When Redis cannot be reached it falls back to a process local limiter.
type RedisLimiter struct {
	client   *redis.Client
	rate     int
	window   time.Duration
	prefix   string
	fallback *RateLimiter
}

// NewRedisLimiter creates a limiter allowing rate requests per window
func NewRedisLimiter(client *redis.Client, rate int, window time.Duration) *RedisLimiter {
	if rate <= 0 {
		rate = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		client:   client,
		rate:     rate,
		window:   window,
		prefix:   "stuntcheck:rl:",
		fallback: NewRateLimiter(rate, window),
	}
}

// Allow counts the request against key's window
func (l *RedisLimiter) Allow(ctx context.Context, key string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := fixedWindowScript.Run(ctx, l.client, []string{l.prefix + key}, l.window.Milliseconds()).Int64()
	if err != nil {
		log.Printf("Warning: redis rate limiter unavailable, using in-memory fallback: %v", err)
		return l.fallback.Allow(ctx, key)
	}

	return count <= int64(l.rate)
}

// Close stops the fallback limiter and closes the Redis client
func (l *RedisLimiter) Close() {
	l.fallback.Close()
	if err := l.client.Close(); err != nil {
		log.Printf("Warning: failed to close Redis client: %v", err)
	}
}
