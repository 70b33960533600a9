package affiliate_admin

import (
	"context"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	apperr "github.com/refferq/refferq/domain/error"
)

type ListAffiliatesUseCase struct {
	affiliates outbound.AffiliateRepository
}

func NewListAffiliatesUseCase(affiliates outbound.AffiliateRepository) *ListAffiliatesUseCase {
	return &ListAffiliatesUseCase{affiliates: affiliates}
}

func (uc *ListAffiliatesUseCase) Execute(ctx context.Context, req inbound.ListAffiliatesRequest) (*inbound.ListAffiliatesResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Status != "" {
		if _, ok := entity.ParseUserStatus(req.Status); !ok {
			return nil, apperr.ErrInvalidStatus(entity.UserStatusNames())
		}
	}

	offset := (req.Page - 1) * req.Limit
	rows, total, err := uc.affiliates.FindAll(ctx, offset, req.Limit, outbound.AffiliateFilters{Status: req.Status})
	if err != nil {
		return nil, apperr.ErrDatabaseError("list affiliates", err)
	}

	items := make([]inbound.AffiliateItem, len(rows))
	for i, row := range rows {
		items[i] = toItem(row)
	}

	return &inbound.ListAffiliatesResponse{
		Success:    true,
		Affiliates: items,
		Pagination: inbound.PaginationInfo{
			Page:  req.Page,
			Limit: req.Limit,
			Total: total,
		},
	}, nil
}
