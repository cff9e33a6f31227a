package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window rate limiter shared by every server
// instance pointing at the same Redis. Each key may make limit requests per
// window. When Redis is unreachable requests are allowed.
type RedisLimiter struct {
	client  *goredis.Client
	limit   int64
	window  time.Duration
	timeout time.Duration
	now     func() time.Time
}

// NewRedisLimiter connects to the Redis server at url (redis://...) and
// verifies the connection.
func NewRedisLimiter(ctx context.Context, url string, limit int64, window time.Duration) (*RedisLimiter, error) {
	if limit < 1 || window <= 0 {
		return nil, fmt.Errorf("invalid redis limit: limit=%d window=%s", limit, window)
	}

	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return newRedisLimiter(client, limit, window), nil
}

func newRedisLimiter(client *goredis.Client, limit int64, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:  client,
		limit:   limit,
		window:  window,
		timeout: 250 * time.Millisecond,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed in the current window.
func (l *RedisLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	windowKey := l.windowKey(key)

	var incr *goredis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, windowKey)
		pipe.ExpireNX(ctx, windowKey, l.window)
		return nil
	})
	if err != nil {
		slog.Warn("rate limiter unavailable, allowing request", "error", err)
		return true
	}
	return incr.Val() <= l.limit
}

// Close closes the Redis connection.
func (l *RedisLimiter) Close() {
	if err := l.client.Close(); err != nil {
		slog.Warn("close redis client", "error", err)
	}
}

func (l *RedisLimiter) windowKey(key string) string {
	slot := l.now().UnixNano() / int64(l.window)
	return fmt.Sprintf("codilore:ratelimit:%s:%d", key, slot)
}
