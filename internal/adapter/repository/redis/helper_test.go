package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"

	redisinfra "github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/redis"
)

// newTestRedisClient starts a miniredis server and connects to it the way
// the server does at startup.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := redisinfra.NewClient(context.Background(), "redis://"+mr.Addr(), redisinfra.Options{
		PingTimeout: time.Second,
		PoolSize:    4,
	})
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}
