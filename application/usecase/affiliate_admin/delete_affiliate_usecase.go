package affiliate_admin

import (
	"context"
	"errors"
	"time"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	apperr "github.com/refferq/refferq/domain/error"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

type DeleteAffiliateUseCase struct {
	users      outbound.UserRepository
	affiliates outbound.AffiliateRepository
	audits     outbound.AuditLogRepository
	tx         outbound.Transactor
	metrics    outbound.Metrics
	log        logger.Logger
	now        func() time.Time
}

func NewDeleteAffiliateUseCase(
	users outbound.UserRepository,
	affiliates outbound.AffiliateRepository,
	audits outbound.AuditLogRepository,
	tx outbound.Transactor,
	metrics outbound.Metrics,
	log logger.Logger,
	now func() time.Time,
) *DeleteAffiliateUseCase {
	return &DeleteAffiliateUseCase{
		users:      users,
		affiliates: affiliates,
		audits:     audits,
		tx:         tx,
		metrics:    metrics,
		log:        log,
		now:        now,
	}
}

// Execute deletes the owning user, which removes the affiliate with it. The
// audit payload is captured before the rows disappear.
func (uc *DeleteAffiliateUseCase) Execute(ctx context.Context, actor inbound.Actor, affiliateID string) (*inbound.DeleteAffiliateResponse, error) {
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		affiliate, err := uc.affiliates.FindByID(ctx, affiliateID)
		if errors.Is(err, outbound.ErrAffiliateNotFound) {
			return apperr.ErrAffiliateNotFound(affiliateID)
		}
		if err != nil {
			return apperr.ErrDatabaseError("find affiliate", err)
		}

		payload := map[string]interface{}{
			"affiliateName":  affiliate.User.Name,
			"affiliateEmail": affiliate.User.Email,
			"referralCode":   affiliate.ReferralCode,
		}

		err = uc.users.Delete(ctx, affiliate.UserID)
		if errors.Is(err, outbound.ErrUserNotFound) {
			return apperr.ErrAffiliateNotFound(affiliateID)
		}
		if err != nil {
			return apperr.ErrDatabaseError("delete user", err)
		}

		entry := entity.NewAuditLog(actor.UserID, entity.AuditActionDeleteAffiliate, entity.AuditObjectAffiliate, affiliate.ID, payload, uc.now())
		if err := uc.audits.Append(ctx, entry); err != nil {
			return apperr.ErrDatabaseError("append audit log", err)
		}
		return nil
	})
	uc.metrics.AdminMutation(entity.AuditActionDeleteAffiliate, result(err))
	if err != nil {
		return nil, err
	}

	uc.log.Info(ctx, "Affiliate deleted", map[string]interface{}{
		"actor_id":     actor.UserID,
		"affiliate_id": affiliateID,
	})

	return &inbound.DeleteAffiliateResponse{
		Success: true,
		Message: "Affiliate deleted successfully",
	}, nil
}
