package otp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
)

const keyPrefix = "otp:challenge:"

// incrementIfPresent never recreates a challenge that expired between calls.
var incrementIfPresent = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
return redis.call('HINCRBY', KEYS[1], 'attempts', 1)
`)

// consumeIfMatches deletes the challenge only while it still holds the hash
// that was verified, so a replaced challenge survives.
var consumeIfMatches = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'code_hash') ~= ARGV[1] then
	return 0
end
return redis.call('DEL', KEYS[1])
`)

// RedisStore keeps one hash per email with a PEXPIREAT matching the
// challenge expiry.
type RedisStore struct {
	client *redis.Client
}

var _ outbound.OTPStore = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(email string) string {
	return keyPrefix + entity.NormalizeEmail(email)
}

func (s *RedisStore) Save(ctx context.Context, c *entity.OTPChallenge) error {
	k := key(c.Email)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k,
			"email", c.Email,
			"code_hash", c.CodeHash,
			"attempts", c.Attempts,
			"issued_at", c.IssuedAt.UnixMilli(),
			"expires_at", c.ExpiresAt.UnixMilli(),
		)
		pipe.PExpireAt(ctx, k, c.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save otp challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, email string) (*entity.OTPChallenge, error) {
	fields, err := s.client.HGetAll(ctx, key(email)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load otp challenge: %w", err)
	}
	if len(fields) == 0 {
		return nil, outbound.ErrOTPNotFound
	}
	return decodeChallenge(fields)
}

func (s *RedisStore) IncrementAttempts(ctx context.Context, email string) (int, error) {
	n, err := incrementIfPresent.Run(ctx, s.client, []string{key(email)}).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to increment otp attempts: %w", err)
	}
	if n < 0 {
		return 0, outbound.ErrOTPNotFound
	}
	return n, nil
}

func (s *RedisStore) Consume(ctx context.Context, email, codeHash string) (bool, error) {
	n, err := consumeIfMatches.Run(ctx, s.client, []string{key(email)}, codeHash).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume otp challenge: %w", err)
	}
	return n == 1, nil
}

func (s *RedisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, key(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp challenge: %w", err)
	}
	return nil
}

func decodeChallenge(fields map[string]string) (*entity.OTPChallenge, error) {
	attempts, err := strconv.Atoi(fields["attempts"])
	if err != nil {
		return nil, fmt.Errorf("corrupt otp challenge attempts: %w", err)
	}
	issued, err := strconv.ParseInt(fields["issued_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt otp challenge issued_at: %w", err)
	}
	expires, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt otp challenge expires_at: %w", err)
	}
	return &entity.OTPChallenge{
		Email:     fields["email"],
		CodeHash:  fields["code_hash"],
		Attempts:  attempts,
		IssuedAt:  time.UnixMilli(issued).UTC(),
		ExpiresAt: time.UnixMilli(expires).UTC(),
	}, nil
}
