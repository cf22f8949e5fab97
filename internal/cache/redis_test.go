package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func setupTestRedis(t *testing.T) *RedisCache {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL environment variable is not set")
	}

	client, err := NewRedisClient(context.Background(), url)
	if err != nil {
		t.Fatalf("Failed to connect to test redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisCache(client, "test:"+uuid.NewString()+":")
}

func TestRedisCache_CounterLifecycle(t *testing.T) {
	c := setupTestRedis(t)
	ctx := context.Background()

	if ok, err := c.Has(ctx, "k"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	added, err := c.Add(ctx, "k", 0, time.Minute)
	if err != nil || !added {
		t.Fatalf("expected add to succeed, got added=%v err=%v", added, err)
	}
	added, _ = c.Add(ctx, "k", 5, time.Minute)
	if added {
		t.Error("expected second add to be rejected")
	}

	for i := 1; i <= 3; i++ {
		v, err := c.Increment(ctx, "k")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if v != int64(i) {
			t.Errorf("got %d, want %d", v, i)
		}
	}

	ttl, err := c.client.TTL(ctx, c.key("k")).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 {
		t.Errorf("expected increment to keep the TTL, got %v", ttl)
	}

	_, _ = c.Increment(ctx, "bare")
	if err := c.EnsureTTL(ctx, "bare", time.Minute); err != nil {
		t.Fatalf("ensure ttl: %v", err)
	}
	if ttl, _ := c.client.TTL(ctx, c.key("bare")).Result(); ttl <= 0 {
		t.Errorf("expected EnsureTTL to set a TTL, got %v", ttl)
	}
	_ = c.Forget(ctx, "bare")

	if err := c.Forget(ctx, "k"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if v, _ := c.Get(ctx, "k"); v != 0 {
		t.Errorf("got %d after forget, want 0", v)
	}
}
