package otp

import (
	"context"
	"sync"
	"time"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
)

// MemoryStore is the single-process OTPStore used when Redis is disabled.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]entity.OTPChallenge
	now        func() time.Time
}

var _ outbound.OTPStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		challenges: make(map[string]entity.OTPChallenge),
		now:        time.Now,
	}
}

// WithClock replaces the expiry clock. Tests only.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Save(ctx context.Context, c *entity.OTPChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[entity.NormalizeEmail(c.Email)] = *c
	return nil
}

func (s *MemoryStore) Find(ctx context.Context, email string) (*entity.OTPChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.live(entity.NormalizeEmail(email))
	if !ok {
		return nil, outbound.ErrOTPNotFound
	}
	return &c, nil
}

func (s *MemoryStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := entity.NormalizeEmail(email)
	c, ok := s.live(k)
	if !ok {
		return 0, outbound.ErrOTPNotFound
	}
	c.Attempts++
	s.challenges[k] = c
	return c.Attempts, nil
}

func (s *MemoryStore) Consume(ctx context.Context, email, codeHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := entity.NormalizeEmail(email)
	c, ok := s.live(k)
	if !ok || c.CodeHash != codeHash {
		return false, nil
	}
	delete(s.challenges, k)
	return true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, entity.NormalizeEmail(email))
	return nil
}

// live must be called with mu held. Expired entries are evicted on read.
func (s *MemoryStore) live(k string) (entity.OTPChallenge, bool) {
	c, ok := s.challenges[k]
	if !ok {
		return c, false
	}
	if c.IsExpired(s.now()) {
		delete(s.challenges, k)
		return c, false
	}
	return c, true
}
