package registration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	apperr "github.com/refferq/refferq/domain/error"
	"github.com/refferq/refferq/domain/valueobject"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

// maxReferralAttempts bounds how many generated codes are tried before giving up.
const maxReferralAttempts = 5

type Options struct {
	// AppBaseURL prefixes the login link in the welcome message.
	AppBaseURL string
	// AllowAdminRole lets a request carrying the exact "ADMIN" marker register an admin.
	AllowAdminRole bool
}

type RegisterUseCase struct {
	users      outbound.UserRepository
	affiliates outbound.AffiliateRepository
	tx         outbound.Transactor
	codes      outbound.ReferralCodeGenerator
	notifier   outbound.Notifier
	metrics    outbound.Metrics
	log        logger.Logger
	opts       Options

	now   func() time.Time
	newID func() string
}

func NewRegisterUseCase(
	users outbound.UserRepository,
	affiliates outbound.AffiliateRepository,
	tx outbound.Transactor,
	codes outbound.ReferralCodeGenerator,
	notifier outbound.Notifier,
	metrics outbound.Metrics,
	log logger.Logger,
	opts Options,
) *RegisterUseCase {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &RegisterUseCase{
		users:      users,
		affiliates: affiliates,
		tx:         tx,
		codes:      codes,
		notifier:   notifier,
		metrics:    metrics,
		log:        log.WithFields(map[string]interface{}{"component": "registration"}),
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

func (uc *RegisterUseCase) Register(ctx context.Context, req inbound.RegisterRequest) (*inbound.RegisterResponse, error) {
	if err := inbound.CheckRequest(req); err != nil {
		return nil, err
	}
	email, err := valueobject.NewEmail(req.Email)
	if err != nil {
		return nil, apperr.ErrInvalidEmail(req.Email)
	}

	role := entity.ResolveRequestedRole(req.Role)
	if role == entity.RoleAdmin && !uc.opts.AllowAdminRole {
		role = entity.RoleAffiliate
	}

	now := uc.now()
	user := entity.NewUser(uc.newID(), email.String(), strings.TrimSpace(req.Name), role, now)

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := uc.users.ExistsByEmail(ctx, user.Email)
		if err != nil {
			return apperr.ErrDatabaseError("check email", err)
		}
		if exists {
			return apperr.ErrEmailTaken(user.Email)
		}

		if err := uc.users.Create(ctx, user); err != nil {
			if errors.Is(err, outbound.ErrEmailTaken) {
				return apperr.ErrEmailTaken(user.Email)
			}
			return apperr.ErrDatabaseError("create user", err)
		}

		if role != entity.RoleAffiliate {
			return nil
		}
		code, err := uc.uniqueReferralCode(ctx)
		if err != nil {
			return err
		}
		if err := uc.affiliates.Create(ctx, entity.NewAffiliate(uc.newID(), user.ID, code, now)); err != nil {
			return apperr.ErrDatabaseError("create affiliate", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.RegistrationCompleted(string(user.Role))
	uc.log.Info(ctx, "User registered", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	uc.sendWelcome(ctx, user)

	return &inbound.RegisterResponse{
		Success: true,
		Message: "User registered successfully",
		User: inbound.RegisteredUser{
			ID:     user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Role:   string(user.Role),
			Status: string(user.Status),
		},
	}, nil
}

func (uc *RegisterUseCase) uniqueReferralCode(ctx context.Context) (string, error) {
	for i := 0; i < maxReferralAttempts; i++ {
		code, err := uc.codes.Generate()
		if err != nil {
			return "", apperr.ErrInternalServerError("Registration failed", err)
		}
		taken, err := uc.affiliates.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", apperr.ErrDatabaseError("check referral code", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperr.ErrInternalServerError("Registration failed", outbound.ErrReferralCodeTaken)
}

// sendWelcome never fails the registration.
func (uc *RegisterUseCase) sendWelcome(ctx context.Context, user *entity.User) {
	if uc.notifier == nil {
		return
	}
	msg := outbound.WelcomeMessage{
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		LoginURL: strings.TrimRight(uc.opts.AppBaseURL, "/") + "/login",
	}
	if err := uc.notifier.SendWelcome(ctx, msg); err != nil {
		uc.log.Warn(ctx, "Failed to send welcome email", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}
}
