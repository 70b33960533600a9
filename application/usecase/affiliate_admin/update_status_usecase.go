package affiliate_admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	apperr "github.com/refferq/refferq/domain/error"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

type UpdateStatusUseCase struct {
	users      outbound.UserRepository
	affiliates outbound.AffiliateRepository
	audits     outbound.AuditLogRepository
	tx         outbound.Transactor
	metrics    outbound.Metrics
	log        logger.Logger
	now        func() time.Time
}

func NewUpdateStatusUseCase(
	users outbound.UserRepository,
	affiliates outbound.AffiliateRepository,
	audits outbound.AuditLogRepository,
	tx outbound.Transactor,
	metrics outbound.Metrics,
	log logger.Logger,
	now func() time.Time,
) *UpdateStatusUseCase {
	return &UpdateStatusUseCase{
		users:      users,
		affiliates: affiliates,
		audits:     audits,
		tx:         tx,
		metrics:    metrics,
		log:        log,
		now:        now,
	}
}

// Execute changes the owning user's status and appends the audit entry in the
// same transaction.
func (uc *UpdateStatusUseCase) Execute(ctx context.Context, actor inbound.Actor, affiliateID string, req inbound.UpdateAffiliateStatusRequest) (*inbound.UpdateAffiliateStatusResponse, error) {
	if req.Status == "" {
		return nil, apperr.ErrMissingField("Status is required")
	}
	status, ok := entity.ParseUserStatus(req.Status)
	if !ok {
		return nil, apperr.ErrInvalidStatus(entity.UserStatusNames())
	}

	var userID string
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		affiliate, err := uc.affiliates.FindByID(ctx, affiliateID)
		if errors.Is(err, outbound.ErrAffiliateNotFound) {
			return apperr.ErrAffiliateNotFound(affiliateID)
		}
		if err != nil {
			return apperr.ErrDatabaseError("find affiliate", err)
		}
		userID = affiliate.UserID

		now := uc.now()
		err = uc.users.UpdateStatus(ctx, affiliate.UserID, status, now)
		if errors.Is(err, outbound.ErrUserNotFound) {
			return apperr.ErrAffiliateNotFound(affiliateID)
		}
		if err != nil {
			return apperr.ErrDatabaseError("update user status", err)
		}

		var notes interface{}
		if req.Notes != nil {
			notes = *req.Notes
		}
		entry := entity.NewAuditLog(actor.UserID, entity.AuditActionUpdateAffiliateStatus, entity.AuditObjectAffiliate, affiliate.ID,
			map[string]interface{}{
				"oldStatus":      string(affiliate.User.Status),
				"newStatus":      string(status),
				"notes":          notes,
				"affiliateEmail": affiliate.User.Email,
			}, now)
		if err := uc.audits.Append(ctx, entry); err != nil {
			return apperr.ErrDatabaseError("append audit log", err)
		}
		return nil
	})
	uc.metrics.AdminMutation(entity.AuditActionUpdateAffiliateStatus, result(err))
	if err != nil {
		return nil, err
	}

	uc.log.Info(ctx, "Affiliate status updated", map[string]interface{}{
		"actor_id":     actor.UserID,
		"affiliate_id": affiliateID,
		"status":       status,
	})

	return &inbound.UpdateAffiliateStatusResponse{
		Success: true,
		Message: fmt.Sprintf("Affiliate status updated to %s", status),
		Affiliate: inbound.AffiliateStatusView{
			ID:     affiliateID,
			UserID: userID,
			Status: string(status),
		},
	}, nil
}
