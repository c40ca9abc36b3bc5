package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("creating test redis client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCheckRateLimitCountsWithinWindow(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		allowed, count, ttlMs, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
		if err != nil {
			t.Fatalf("CheckRateLimit() error: %v", err)
		}
		if !allowed {
			t.Fatalf("hit %d: expected allowed", i)
		}
		if count != i {
			t.Fatalf("hit %d: expected count %d, got %d", i, i, count)
		}
		if ttlMs <= 0 || ttlMs > time.Minute.Milliseconds() {
			t.Fatalf("hit %d: unexpected ttl %d", i, ttlMs)
		}
	}

	allowed, count, _, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
	if err != nil {
		t.Fatalf("CheckRateLimit() error: %v", err)
	}
	if allowed {
		t.Fatal("expected fourth hit to be rejected")
	}
	if count != 4 {
		t.Fatalf("expected count 4, got %d", count)
	}
}

func TestCheckRateLimitWindowExpires(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	if allowed, _, _, _ := c.CheckRateLimit(ctx, "rl:exp", 1, time.Second); !allowed {
		t.Fatal("expected first hit to be allowed")
	}
	if allowed, _, _, _ := c.CheckRateLimit(ctx, "rl:exp", 1, time.Second); allowed {
		t.Fatal("expected second hit to be rejected")
	}

	mr.FastForward(2 * time.Second)

	if allowed, count, _, _ := c.CheckRateLimit(ctx, "rl:exp", 1, time.Second); !allowed || count != 1 {
		t.Fatalf("expected a fresh window, got allowed=%v count=%d", allowed, count)
	}
}

func TestCheckRateLimitSeparateKeys(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, _, _, _ = c.CheckRateLimit(ctx, "rl:a", 1, time.Minute)
	allowed, _, _, err := c.CheckRateLimit(ctx, "rl:b", 1, time.Minute)
	if err != nil {
		t.Fatalf("CheckRateLimit() error: %v", err)
	}
	if !allowed {
		t.Fatal("keys must not share a counter")
	}
}

func TestNewClientBadURL(t *testing.T) {
	if _, err := NewClient("not-a-url://"); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}

func TestPing(t *testing.T) {
	c, mr := newTestClient(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error: %v", err)
	}
	mr.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected Ping to fail after server shutdown")
	}
}
