package redis

import (
	"context"
	"testing"
	"time"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "total:owner-1", []byte("1250.50"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "total:owner-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if string(val) != "1250.50" {
		t.Fatalf("expected 1250.50, got %s", val)
	}

	if !mr.Exists("cache:total:owner-1") {
		t.Fatalf("expected prefixed key in redis")
	}
}

func TestCacheMissReturnsNil(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	val, err := NewCache(client).Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("expected no error on miss, got %v", err)
	}
	if val != nil {
		t.Fatalf("expected nil value on miss, got %q", val)
	}
}

func TestCacheExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	val, err := cache.Get(ctx, "k")
	if err != nil || val != nil {
		t.Fatalf("expected expired key, got val=%q err=%v", val, err)
	}
}

func TestCacheIncr(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := cache.Incr(ctx, "total-gen:owner-1")
		if err != nil {
			t.Fatalf("incr failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}

	val, err := cache.Get(ctx, "total-gen:owner-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(val) != "3" {
		t.Fatalf("expected counter readable as 3, got %q", val)
	}
	if !mr.Exists("cache:total-gen:owner-1") {
		t.Fatalf("expected prefixed counter key in redis")
	}
}

func TestCacheGetFailsWhenServerDown(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()
	mr.Close()

	if _, err := NewCache(client).Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
}
