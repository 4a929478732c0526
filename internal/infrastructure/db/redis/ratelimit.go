package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter provides fixed-window request counting backed by Redis.
// Key format: ratelimit:<route>:<caller>:<window_start_unix>
type RateLimiter struct {
	client *redis.Client
	window time.Duration
}

// NewRateLimiter creates a limiter with the given window size (one minute
// when zero).
func NewRateLimiter(client *redis.Client, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, window: window}
}

// Allow increments the caller's counter for the current window and reports
// whether the request stays within limit. Counter keys expire with the window.
func (l *RateLimiter) Allow(ctx context.Context, route, caller string, limit int) (bool, error) {
	key := l.key(route, caller, time.Now())

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ratelimit incr: %w", err)
	}
	return count.Val() <= int64(limit), nil
}

func (l *RateLimiter) key(route, caller string, now time.Time) string {
	windowStart := now.Truncate(l.window).Unix()
	return fmt.Sprintf("ratelimit:%s:%s:%d", route, caller, windowStart)
}
