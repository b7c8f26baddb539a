// Package redis connects to the Redis server backing the lock, cache,
// idempotency and event adapters.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPingTimeout = 5 * time.Second

// Options tunes the client beyond what the URL carries.
type Options struct {
	// PingTimeout bounds the startup connectivity check.
	PingTimeout time.Duration
	// PoolSize overrides the connection pool size when positive.
	PoolSize int
}

// NewClient creates a Redis client from a redis:// URL and verifies the
// server answers before returning it.
func NewClient(ctx context.Context, redisURL string, opt Options) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if opt.PoolSize > 0 {
		opts.PoolSize = opt.PoolSize
	}

	client := redis.NewClient(opts)

	timeout := opt.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// Ping adapts a client to a readiness probe.
func Ping(client *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
