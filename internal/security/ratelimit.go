package security

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether another request for key fits in the current window
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimiter is an in-process fixed window limiter. It counts the same
// way as RedisLimiter so both backends behave alike.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*counter
	rate    int
	window  time.Duration
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

type counter struct {
	count   int
	resetAt time.Time
}

// NewRateLimiter allows rate requests per key in each window
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	if rate <= 0 {
		rate = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	rl := &RateLimiter{
		windows: make(map[string]*counter),
		rate:    rate,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Allow counts a request for key
func (rl *RateLimiter) Allow(_ context.Context, key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, ok := rl.windows[key]
	if !ok || !now.Before(c.resetAt) {
		c = &counter{resetAt: now.Add(rl.window)}
		rl.windows[key] = c
	}

	c.count++
	return c.count <= rl.rate
}

// Close stops the background sweep
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stop) })
}

// sweep drops expired windows so idle keys do not accumulate
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		now := rl.now()
		for key, c := range rl.windows {
			if !now.Before(c.resetAt) {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}
