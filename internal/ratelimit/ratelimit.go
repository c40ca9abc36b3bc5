package ratelimit

import (
	"context"
	"time"

	"github.com/jiashuyu/belay/internal/redis"
)

// Result describes the outcome of a single rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	// ResetAfter is how long until the caller gets capacity back.
	ResetAfter time.Duration
}

// Limiter counts hits against a key. Implementations must be safe for
// concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Redis is a fixed-window Limiter shared by every server instance using the
// same Redis.
type Redis struct {
	client *redis.Client
}

// NewRedis creates a Limiter backed by the given client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	allowed, count, ttlMs, err := r.client.CheckRateLimit(ctx, key, limit, window)
	if err != nil {
		return Result{}, err
	}
	remaining := int64(limit) - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:    allowed,
		Remaining:  int(remaining),
		ResetAfter: time.Duration(ttlMs) * time.Millisecond,
	}, nil
}
