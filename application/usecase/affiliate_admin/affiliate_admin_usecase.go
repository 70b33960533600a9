package affiliate_admin

import (
	"context"
	"time"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

type AffiliateAdminUseCaseImpl struct {
	updateStatusUseCase    *UpdateStatusUseCase
	deleteAffiliateUseCase *DeleteAffiliateUseCase
	listAffiliatesUseCase  *ListAffiliatesUseCase
	getAffiliateUseCase    *GetAffiliateUseCase
}

func NewAffiliateAdminUseCase(
	users outbound.UserRepository,
	affiliates outbound.AffiliateRepository,
	audits outbound.AuditLogRepository,
	tx outbound.Transactor,
	metrics outbound.Metrics,
	log logger.Logger,
) inbound.AffiliateAdminUseCase {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	log = log.WithFields(map[string]interface{}{"component": "affiliate_admin"})
	clock := func() time.Time { return time.Now().UTC() }

	return &AffiliateAdminUseCaseImpl{
		updateStatusUseCase:    NewUpdateStatusUseCase(users, affiliates, audits, tx, metrics, log, clock),
		deleteAffiliateUseCase: NewDeleteAffiliateUseCase(users, affiliates, audits, tx, metrics, log, clock),
		listAffiliatesUseCase:  NewListAffiliatesUseCase(affiliates),
		getAffiliateUseCase:    NewGetAffiliateUseCase(affiliates),
	}
}

func (uc *AffiliateAdminUseCaseImpl) UpdateStatus(ctx context.Context, actor inbound.Actor, affiliateID string, req inbound.UpdateAffiliateStatusRequest) (*inbound.UpdateAffiliateStatusResponse, error) {
	return uc.updateStatusUseCase.Execute(ctx, actor, affiliateID, req)
}

func (uc *AffiliateAdminUseCaseImpl) Delete(ctx context.Context, actor inbound.Actor, affiliateID string) (*inbound.DeleteAffiliateResponse, error) {
	return uc.deleteAffiliateUseCase.Execute(ctx, actor, affiliateID)
}

func (uc *AffiliateAdminUseCaseImpl) List(ctx context.Context, req inbound.ListAffiliatesRequest) (*inbound.ListAffiliatesResponse, error) {
	return uc.listAffiliatesUseCase.Execute(ctx, req)
}

func (uc *AffiliateAdminUseCaseImpl) Get(ctx context.Context, affiliateID string) (*inbound.GetAffiliateResponse, error) {
	return uc.getAffiliateUseCase.Execute(ctx, affiliateID)
}

func toItem(a *entity.AffiliateWithOwner) inbound.AffiliateItem {
	return inbound.AffiliateItem{
		ID:           a.ID,
		UserID:       a.UserID,
		ReferralCode: a.ReferralCode,
		CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
		User: inbound.AffiliateOwner{
			ID:     a.User.ID,
			Name:   a.User.Name,
			Email:  a.User.Email,
			Status: string(a.User.Status),
		},
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
