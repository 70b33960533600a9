// Package ratelimit implements inbound.RateLimitService on Redis, with an
// in-process token bucket fallback and a no-op for disabled limiting.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

// Config selects the backend. Limits themselves are per call.
type Config struct {
	Enabled  bool
	UseRedis bool
}

// New picks the limiter for cfg. client may be nil when UseRedis is false.
func New(cfg Config, client *redis.Client, log logger.Logger) inbound.RateLimitService {
	switch {
	case !cfg.Enabled:
		log.Info(context.Background(), "Rate limiting disabled", nil)
		return NoopLimiter{}
	case cfg.UseRedis && client != nil:
		return NewRedisLimiter(client, log)
	default:
		return NewMemoryLimiter()
	}
}

type RedisLimiter struct {
	client *redis.Client
	log    logger.Logger
}

var _ inbound.RateLimitService = (*RedisLimiter)(nil)

func NewRedisLimiter(client *redis.Client, log logger.Logger) *RedisLimiter {
	return &RedisLimiter{client: client, log: log}
}

func (s *RedisLimiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	current, err := s.GetAttempts(ctx, key)
	if err != nil {
		return false, err
	}
	return current < limit, nil
}

// Increment sets the expiry on the first hit only, so a window is fixed
// from its first request.
func (s *RedisLimiter) Increment(ctx context.Context, key string, window time.Duration) error {
	n, err := s.client.Incr(ctx, key).Result()
	if err == nil && n == 1 {
		err = s.client.Expire(ctx, key, window).Err()
	}
	if err != nil {
		s.log.Error(ctx, "Failed to increment rate limit counter", err, map[string]interface{}{"key": key})
		return fmt.Errorf("failed to increment rate limit: %w", err)
	}
	return nil
}

func (s *RedisLimiter) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	blockKey := "blocked:" + key

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, blockKey,
		"reason", reason,
		"blocked_at", time.Now().Unix(),
		"correlation_id", logger.CorrelationID(ctx),
	)
	pipe.Expire(ctx, blockKey, duration)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Error(ctx, "Failed to block key", err, map[string]interface{}{"key": key})
		return fmt.Errorf("failed to block key: %w", err)
	}
	return nil
}

func (s *RedisLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	exists, err := s.client.Exists(ctx, "blocked:"+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check block status: %w", err)
	}
	return exists > 0, nil
}

func (s *RedisLimiter) GetAttempts(ctx context.Context, key string) (int, error) {
	count, err := s.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get attempts: %w", err)
	}
	return count, nil
}

type NoopLimiter struct{}

func (NoopLimiter) CheckLimit(context.Context, string, int, time.Duration) (bool, error) {
	return true, nil
}
func (NoopLimiter) Increment(context.Context, string, time.Duration) error { return nil }
func (NoopLimiter) Block(context.Context, string, time.Duration, string) error {
	return nil
}
func (NoopLimiter) IsBlocked(context.Context, string) (bool, error)  { return false, nil }
func (NoopLimiter) GetAttempts(context.Context, string) (int, error) { return 0, nil }
