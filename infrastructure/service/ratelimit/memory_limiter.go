package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/refferq/refferq/application/port/inbound"
)

const sweepEvery = 5 * time.Minute

type bucket struct {
	lim   *rate.Limiter
	burst int
	seen  time.Time
}

// MemoryLimiter keeps one token bucket per key: limit tokens refilled evenly
// over window. Only suitable for a single replica.
type MemoryLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	blocked   map[string]time.Time
	lastSweep time.Time
	now       func() time.Time
}

var _ inbound.RateLimitService = (*MemoryLimiter)(nil)

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		buckets: make(map[string]*bucket),
		blocked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (m *MemoryLimiter) bucketFor(key string, limit int, window time.Duration) *bucket {
	b, ok := m.buckets[key]
	if !ok {
		if limit <= 0 {
			limit = 1
		}
		every := rate.Every(window / time.Duration(limit))
		b = &bucket{lim: rate.NewLimiter(every, limit), burst: limit}
		m.buckets[key] = b
	}
	b.seen = m.now()
	return b
}

func (m *MemoryLimiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bucketFor(key, limit, window)
	return b.lim.TokensAt(m.now()) >= 1, nil
}

// Increment consumes a token. Keys never checked before start with a full
// bucket sized to one request per window.
func (m *MemoryLimiter) Increment(ctx context.Context, key string, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	b, ok := m.buckets[key]
	if !ok {
		b = m.bucketFor(key, 1, window)
	}
	b.seen = now
	b.lim.AllowN(now, 1)
	m.sweep(now)
	return nil
}

func (m *MemoryLimiter) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocked[key] = m.now().Add(duration)
	return nil
}

func (m *MemoryLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.blocked[key]
	if !ok {
		return false, nil
	}
	if !m.now().Before(until) {
		delete(m.blocked, key)
		return false, nil
	}
	return true, nil
}

// GetAttempts is the number of tokens currently spent.
func (m *MemoryLimiter) GetAttempts(ctx context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[key]
	if !ok {
		return 0, nil
	}
	spent := float64(b.burst) - b.lim.TokensAt(m.now())
	if spent < 0 {
		spent = 0
	}
	return int(spent + 0.5), nil
}

// sweep must be called with mu held.
func (m *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepEvery {
		return
	}
	m.lastSweep = now
	for k, b := range m.buckets {
		if now.Sub(b.seen) > sweepEvery && b.lim.TokensAt(now) >= float64(b.burst) {
			delete(m.buckets, k)
		}
	}
	for k, until := range m.blocked {
		if !now.Before(until) {
			delete(m.blocked, k)
		}
	}
}
