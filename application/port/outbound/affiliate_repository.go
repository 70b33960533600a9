package outbound

import (
	"context"
	"errors"

	"github.com/refferq/refferq/domain/entity"
)

var (
	ErrAffiliateNotFound = errors.New("affiliate not found")
	ErrReferralCodeTaken = errors.New("referral code already exists")
)

type AffiliateFilters struct {
	Status string
}

type AffiliateRepository interface {
	Create(ctx context.Context, affiliate *entity.Affiliate) error
	FindByID(ctx context.Context, id string) (*entity.AffiliateWithOwner, error)
	FindByUserID(ctx context.Context, userID string) (*entity.Affiliate, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	FindAll(ctx context.Context, offset, limit int, filters AffiliateFilters) ([]*entity.AffiliateWithOwner, int, error)
}

// ReferralCodeGenerator produces candidate referral codes. Uniqueness is
// checked by the caller against the repository.
type ReferralCodeGenerator interface {
	Generate() (string, error)
}
