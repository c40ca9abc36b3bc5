package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// CleanupOpts controls how idle buckets are evicted.
type CleanupOpts struct {
	TTL      time.Duration
	Interval time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory is a token-bucket Limiter local to one process. It is used when no
// Redis is configured. Buckets refill at limit tokens per window with a burst
// of limit.
type Memory struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	cancel  context.CancelFunc
	done    chan struct{}
	opts    CleanupOpts
}

// NewMemory creates a Memory limiter and starts its cleanup goroutine. Call
// Close to stop it.
func NewMemory(opts CleanupOpts) *Memory {
	if opts.TTL <= 0 {
		opts.TTL = 10 * time.Minute
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Memory{
		buckets: make(map[string]*bucket),
		cancel:  cancel,
		done:    make(chan struct{}),
		opts:    opts,
	}
	go m.cleanup(ctx)
	return m
}

func (m *Memory) cleanup(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.evictIdle(now)
		}
	}
}

func (m *Memory) evictIdle(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, b := range m.buckets {
		if now.Sub(b.lastSeen) > m.opts.TTL {
			delete(m.buckets, key)
		}
	}
}

func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	if limit <= 0 {
		return Result{Allowed: false, ResetAfter: window}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	b, ok := m.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
		m.buckets[key] = b
	}
	b.lastSeen = now

	allowed := b.limiter.AllowN(now, 1)
	tokens := b.limiter.TokensAt(now)

	res := Result{Allowed: allowed, Remaining: int(math.Max(0, math.Floor(tokens)))}
	if tokens < 1 {
		perToken := window / time.Duration(limit)
		res.ResetAfter = time.Duration((1 - tokens) * float64(perToken))
	}
	return res, nil
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

// Close stops the cleanup goroutine and waits for it to exit.
func (m *Memory) Close() {
	m.cancel()
	<-m.done
}
