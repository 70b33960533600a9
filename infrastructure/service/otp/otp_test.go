package otp

import (
	"context"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
)

func TestCodeGenerator_Generate(t *testing.T) {
	gen := NewCodeGenerator()
	digits := regexp.MustCompile(`^[0-9]{6}$`)

	for i := 0; i < 200; i++ {
		code, err := gen.Generate(6)
		require.NoError(t, err)
		assert.Regexp(t, digits, code)
	}

	_, err := gen.Generate(0)
	assert.Error(t, err)
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, entity.NewOTPChallenge("Ada@Example.com", "hash", now, 5*time.Minute)))

	c, err := store.Find(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", c.CodeHash)
	assert.Equal(t, 0, c.Attempts)

	n, err := store.IncrementAttempts(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	now = now.Add(5 * time.Minute)
	_, err = store.Find(ctx, "ada@example.com")
	assert.ErrorIs(t, err, outbound.ErrOTPNotFound)

	_, err = store.IncrementAttempts(ctx, "ada@example.com")
	assert.ErrorIs(t, err, outbound.ErrOTPNotFound)
}

func TestMemoryStore_SaveReplacesChallenge(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, entity.NewOTPChallenge("ada@example.com", "first", now, time.Minute)))
	_, _ = store.IncrementAttempts(ctx, "ada@example.com")
	require.NoError(t, store.Save(ctx, entity.NewOTPChallenge("ada@example.com", "second", now, time.Minute)))

	c, err := store.Find(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "second", c.CodeHash)
	assert.Equal(t, 0, c.Attempts)

	require.NoError(t, store.Delete(ctx, "ada@example.com"))
	_, err = store.Find(ctx, "ada@example.com")
	assert.ErrorIs(t, err, outbound.ErrOTPNotFound)
}

func TestMemoryStore_ConsumeIsSingleUse(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	ok, err := store.Consume(ctx, "ada@example.com", "hash")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, entity.NewOTPChallenge("ada@example.com", "hash", now, time.Minute)))

	ok, err = store.Consume(ctx, "ada@example.com", "other")
	require.NoError(t, err)
	assert.False(t, ok, "a replaced challenge must survive")

	ok, err = store.Consume(ctx, "Ada@Example.com", "hash")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "ada@example.com", "hash")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ConcurrentConsumeHasOneWinner(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, entity.NewOTPChallenge("ada@example.com", "hash", now, time.Minute)))

	var (
		wg   sync.WaitGroup
		wins int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Consume(ctx, "ada@example.com", "hash"); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestDecodeChallenge(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c, err := decodeChallenge(map[string]string{
		"email":      "ada@example.com",
		"code_hash":  "h",
		"attempts":   "2",
		"issued_at":  "1704110400000",
		"expires_at": "1704110700000",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Attempts)
	assert.True(t, c.IssuedAt.Equal(issued))
	assert.True(t, c.ExpiresAt.Equal(issued.Add(5*time.Minute)))

	_, err = decodeChallenge(map[string]string{"attempts": "x"})
	assert.Error(t, err)
}
