// Package memory is an in-process implementation of the persistence ports.
// It backs DATABASE_DRIVER=memory for local runs and the use case tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	"github.com/refferq/refferq/infrastructure/service/ids"
)

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users      map[string]entity.User
	affiliates map[string]entity.Affiliate
	audits     []entity.AuditLog
	tokens     map[string]entity.RefreshToken
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]entity.User),
		affiliates: make(map[string]entity.Affiliate),
		tokens:     make(map[string]entity.RefreshToken),
	}
}

func (s *Store) Users() *UserRepository                 { return &UserRepository{s: s} }
func (s *Store) Affiliates() *AffiliateRepository       { return &AffiliateRepository{s: s} }
func (s *Store) AuditLogs() *AuditLogRepository         { return &AuditLogRepository{s: s} }
func (s *Store) RefreshTokens() *RefreshTokenRepository { return &RefreshTokenRepository{s: s} }

type txKey struct{}

// WithinTx serializes transactions and restores a snapshot when fn fails.
// Writes outside a transaction wait for it to finish, so a rollback never
// discards them. Reads outside a transaction may observe its intermediate
// writes.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// lockWrite takes the locks a write needs and returns the release func.
func (s *Store) lockWrite(ctx context.Context) func() {
	inTx := ctx.Value(txKey{}) == s
	if !inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.Unlock()
		}
	}
}

type snapshot struct {
	users      map[string]entity.User
	affiliates map[string]entity.Affiliate
	audits     []entity.AuditLog
	tokens     map[string]entity.RefreshToken
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		users:      make(map[string]entity.User, len(s.users)),
		affiliates: make(map[string]entity.Affiliate, len(s.affiliates)),
		audits:     append([]entity.AuditLog(nil), s.audits...),
		tokens:     make(map[string]entity.RefreshToken, len(s.tokens)),
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.affiliates {
		snap.affiliates[k] = v
	}
	for k, v := range s.tokens {
		snap.tokens[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = snap.users
	s.affiliates = snap.affiliates
	s.audits = snap.audits
	s.tokens = snap.tokens
}

// AuditEntries returns a copy of every audit log written so far.
func (s *Store) AuditEntries() []entity.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.AuditLog(nil), s.audits...)
}

type UserRepository struct{ s *Store }

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, outbound.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	email = entity.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, outbound.ErrUserNotFound
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == outbound.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	defer r.s.lockWrite(ctx)()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return outbound.ErrEmailTaken
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status entity.UserStatus, updatedAt time.Time) error {
	defer r.s.lockWrite(ctx)()
	u, ok := r.s.users[id]
	if !ok {
		return outbound.ErrUserNotFound
	}
	u.Status = status
	u.UpdatedAt = updatedAt
	r.s.users[id] = u
	return nil
}

// Delete cascades to the user's affiliate and refresh tokens.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.users[id]; !ok {
		return outbound.ErrUserNotFound
	}
	delete(r.s.users, id)
	for affID, a := range r.s.affiliates {
		if a.UserID == id {
			delete(r.s.affiliates, affID)
		}
	}
	for tok, t := range r.s.tokens {
		if t.UserID == id {
			delete(r.s.tokens, tok)
		}
	}
	return nil
}

type AffiliateRepository struct{ s *Store }

func (r *AffiliateRepository) Create(ctx context.Context, affiliate *entity.Affiliate) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.users[affiliate.UserID]; !ok {
		return outbound.ErrUserNotFound
	}
	for _, a := range r.s.affiliates {
		if a.ReferralCode == affiliate.ReferralCode {
			return outbound.ErrReferralCodeTaken
		}
	}
	r.s.affiliates[affiliate.ID] = *affiliate
	return nil
}

func (r *AffiliateRepository) FindByID(ctx context.Context, id string) (*entity.AffiliateWithOwner, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.affiliates[id]
	if !ok {
		return nil, outbound.ErrAffiliateNotFound
	}
	owner, ok := r.s.users[a.UserID]
	if !ok {
		return nil, outbound.ErrAffiliateNotFound
	}
	return &entity.AffiliateWithOwner{Affiliate: a, User: owner}, nil
}

func (r *AffiliateRepository) FindByUserID(ctx context.Context, userID string) (*entity.Affiliate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.affiliates {
		if a.UserID == userID {
			a := a
			return &a, nil
		}
	}
	return nil, outbound.ErrAffiliateNotFound
}

func (r *AffiliateRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, a := range r.s.affiliates {
		if a.ReferralCode == code {
			return true, nil
		}
	}
	return false, nil
}

// FindAll orders newest first, matching the SQL adapter.
func (r *AffiliateRepository) FindAll(ctx context.Context, offset, limit int, filters outbound.AffiliateFilters) ([]*entity.AffiliateWithOwner, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var all []*entity.AffiliateWithOwner
	for _, a := range r.s.affiliates {
		owner, ok := r.s.users[a.UserID]
		if !ok {
			continue
		}
		if filters.Status != "" && !strings.EqualFold(string(owner.Status), filters.Status) {
			continue
		}
		all = append(all, &entity.AffiliateWithOwner{Affiliate: a, User: owner})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []*entity.AffiliateWithOwner{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

type AuditLogRepository struct{ s *Store }

func (r *AuditLogRepository) Append(ctx context.Context, log *entity.AuditLog) error {
	if log.ID == "" {
		log.ID = ids.New()
	}
	payload := make(map[string]interface{}, len(log.Payload))
	for k, v := range log.Payload {
		payload[k] = v
	}
	entry := *log
	entry.Payload = payload

	defer r.s.lockWrite(ctx)()
	r.s.audits = append(r.s.audits, entry)
	return nil
}

type RefreshTokenRepository struct{ s *Store }

func (r *RefreshTokenRepository) Create(ctx context.Context, token *entity.RefreshToken) error {
	defer r.s.lockWrite(ctx)()
	if _, ok := r.s.tokens[token.Token]; ok {
		return outbound.ErrRefreshTokenAlreadyExists
	}
	r.s.tokens[token.Token] = *token
	return nil
}

func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tokens[token]
	if !ok {
		return nil, outbound.ErrRefreshTokenNotFound
	}
	return &t, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	defer r.s.lockWrite(ctx)()
	t, ok := r.s.tokens[token]
	if !ok || t.IsRevoked() {
		return outbound.ErrRefreshTokenNotFound
	}
	t.Revoke(time.Now().UTC())
	r.s.tokens[token] = t
	return nil
}

func (r *RefreshTokenRepository) RevokeByUserID(ctx context.Context, userID string) error {
	defer r.s.lockWrite(ctx)()
	now := time.Now().UTC()
	for k, t := range r.s.tokens {
		if t.UserID == userID && !t.IsRevoked() {
			t.Revoke(now)
			r.s.tokens[k] = t
		}
	}
	return nil
}
