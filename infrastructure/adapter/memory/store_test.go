package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
)

func seedAffiliate(t *testing.T, s *Store, n string, at time.Time) (*entity.User, *entity.Affiliate) {
	t.Helper()
	ctx := context.Background()
	u := entity.NewUser("user-"+n, n+"@example.com", "User "+n, entity.RoleAffiliate, at)
	require.NoError(t, s.Users().Create(ctx, u))
	a := entity.NewAffiliate("aff-"+n, u.ID, "CODE"+n, at)
	require.NoError(t, s.Affiliates().Create(ctx, a))
	return u, a
}

func TestWithinTx_RestoresOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	u, a := seedAffiliate(t, s, "1", time.Now())
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Users().Delete(ctx, u.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.Users().FindByID(ctx, u.ID)
	assert.NoError(t, err)
	_, err = s.Affiliates().FindByID(ctx, a.ID)
	assert.NoError(t, err)
}

func TestWithinTx_RollbackKeepsConcurrentWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now()
	u, _ := seedAffiliate(t, s, "1", now)
	require.NoError(t, s.RefreshTokens().Create(ctx, entity.NewRefreshToken("rt-1", u.ID, "tok", now, now.Add(time.Hour))))

	started := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- s.WithinTx(ctx, func(ctx context.Context) error {
			close(started)
			<-release
			return errors.New("boom")
		})
	}()
	<-started

	revoked := make(chan error, 1)
	go func() { revoked <- s.RefreshTokens().RevokeByUserID(ctx, u.ID) }()

	time.Sleep(20 * time.Millisecond)
	close(release)
	assert.Error(t, <-txDone)
	require.NoError(t, <-revoked)

	tok, err := s.RefreshTokens().FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.True(t, tok.IsRevoked())
}

func TestRefreshTokenRevoke_OnlyOnce(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now()
	u, _ := seedAffiliate(t, s, "1", now)
	require.NoError(t, s.RefreshTokens().Create(ctx, entity.NewRefreshToken("rt-1", u.ID, "tok", now, now.Add(time.Hour))))

	require.NoError(t, s.RefreshTokens().Revoke(ctx, "tok"))
	assert.ErrorIs(t, s.RefreshTokens().Revoke(ctx, "tok"), outbound.ErrRefreshTokenNotFound)
	assert.ErrorIs(t, s.RefreshTokens().Revoke(ctx, "missing"), outbound.ErrRefreshTokenNotFound)
}

func TestUserDelete_Cascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now()
	u, a := seedAffiliate(t, s, "1", now)
	require.NoError(t, s.RefreshTokens().Create(ctx, entity.NewRefreshToken("rt-1", u.ID, "tok", now, now.Add(time.Hour))))

	require.NoError(t, s.Users().Delete(ctx, u.ID))

	_, err := s.Affiliates().FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, outbound.ErrAffiliateNotFound)
	_, err = s.RefreshTokens().FindByToken(ctx, "tok")
	assert.ErrorIs(t, err, outbound.ErrRefreshTokenNotFound)
	assert.ErrorIs(t, s.Users().Delete(ctx, u.ID), outbound.ErrUserNotFound)
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	s := NewStore()
	seedAffiliate(t, s, "1", time.Now())

	dup := entity.NewUser("other", "1@EXAMPLE.com", "Dup", entity.RoleAffiliate, time.Now())
	assert.ErrorIs(t, s.Users().Create(context.Background(), dup), outbound.ErrEmailTaken)
}

func TestFindAll_NewestFirstWithFilter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, n := range []string{"a", "b", "c"} {
		seedAffiliate(t, s, n, base.Add(time.Duration(i)*time.Hour))
	}
	require.NoError(t, s.Users().UpdateStatus(ctx, "user-b", entity.StatusActive, base))

	items, total, err := s.Affiliates().FindAll(ctx, 0, 2, outbound.AffiliateFilters{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "aff-c", items[0].ID)
	assert.Equal(t, "aff-b", items[1].ID)

	items, total, err = s.Affiliates().FindAll(ctx, 0, 10, outbound.AffiliateFilters{Status: "ACTIVE"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "aff-b", items[0].ID)

	items, _, err = s.Affiliates().FindAll(ctx, 10, 10, outbound.AffiliateFilters{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAuditAppend_CopiesPayload(t *testing.T) {
	s := NewStore()
	payload := map[string]interface{}{"oldStatus": "PENDING"}
	log := entity.NewAuditLog("admin-1", entity.AuditActionUpdateAffiliateStatus, entity.AuditObjectAffiliate, "aff-1", payload, time.Now())

	require.NoError(t, s.AuditLogs().Append(context.Background(), log))
	payload["oldStatus"] = "MUTATED"

	entries := s.AuditEntries()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, "PENDING", entries[0].Payload["oldStatus"])
}
