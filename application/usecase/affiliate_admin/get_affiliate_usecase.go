package affiliate_admin

import (
	"context"
	"errors"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/application/port/outbound"
	apperr "github.com/refferq/refferq/domain/error"
)

type GetAffiliateUseCase struct {
	affiliates outbound.AffiliateRepository
}

func NewGetAffiliateUseCase(affiliates outbound.AffiliateRepository) *GetAffiliateUseCase {
	return &GetAffiliateUseCase{affiliates: affiliates}
}

func (uc *GetAffiliateUseCase) Execute(ctx context.Context, affiliateID string) (*inbound.GetAffiliateResponse, error) {
	affiliate, err := uc.affiliates.FindByID(ctx, affiliateID)
	if errors.Is(err, outbound.ErrAffiliateNotFound) {
		return nil, apperr.ErrAffiliateNotFound(affiliateID)
	}
	if err != nil {
		return nil, apperr.ErrDatabaseError("find affiliate", err)
	}
	return &inbound.GetAffiliateResponse{
		Success:   true,
		Affiliate: toItem(affiliate),
	}, nil
}
