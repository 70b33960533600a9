package auth

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

const codeSentMessage = "Verification code sent to your email"

// SendCode starts a login. The acknowledgement is identical whether or not
// the address belongs to an account.
func (uc *AuthUseCase) SendCode(ctx context.Context, req inbound.SendCodeRequest) (*inbound.SendCodeResponse, error) {
	if err := inbound.CheckRequest(req); err != nil {
		return nil, err
	}
	if err := uc.checkRecaptcha(ctx, req.RecaptchaToken); err != nil {
		return nil, err
	}

	ack := &inbound.SendCodeResponse{
		Success:   true,
		Message:   codeSentMessage,
		ExpiresIn: int(uc.opts.CodeTTL.Seconds()),
	}

	email := entity.NormalizeEmail(req.Email)
	user, err := uc.users.FindByEmail(ctx, email)
	if errors.Is(err, outbound.ErrUserNotFound) {
		logger.LogAuthEvent(ctx, uc.log, "send_code_unknown_email", "", "", false, nil)
		return ack, nil
	}
	if err != nil {
		return nil, apperr.ErrDatabaseError("find user", err)
	}
	if !user.CanSignIn() {
		logger.LogAuthEvent(ctx, uc.log, "send_code_blocked_account", user.ID, "", false, map[string]interface{}{
			"status": user.Status,
		})
		return ack, nil
	}

	now := uc.now()
	existing, err := uc.otp.Find(ctx, email)
	switch {
	case err == nil:
		if !existing.IsExpired(now) && existing.InCooldown(now, uc.opts.ResendCooldown) {
			wait := existing.IssuedAt.Add(uc.opts.ResendCooldown).Sub(now).Round(time.Second)
			return nil, apperr.ErrOTPCooldown(wait.String())
		}
	case !errors.Is(err, outbound.ErrOTPNotFound):
		return nil, apperr.ErrInternalServerError("Failed to send verification code", err)
	}

	code, err := uc.codes.Generate(uc.opts.CodeLength)
	if err != nil {
		return nil, apperr.ErrInternalServerError("Failed to send verification code", err)
	}
	hash, err := uc.hasher.Hash(code)
	if err != nil {
		return nil, apperr.ErrInternalServerError("Failed to send verification code", err)
	}
	if err := uc.otp.Save(ctx, entity.NewOTPChallenge(email, hash, now, uc.opts.CodeTTL)); err != nil {
		return nil, apperr.ErrInternalServerError("Failed to send verification code", err)
	}

	err = uc.notifier.SendLoginCode(ctx, outbound.LoginCodeMessage{
		Name:      user.Name,
		Email:     user.Email,
		Code:      code,
		ExpiresIn: uc.opts.CodeTTL,
	})
	if err != nil {
		uc.dropChallenge(ctx, email, "delivery failed")
		return nil, apperr.ErrInternalServerError("Failed to send verification code", err)
	}

	uc.metrics.OTPIssued()
	logger.LogAuthEvent(ctx, uc.log, "send_code", user.ID, "", true, nil)
	return ack, nil
}

func (uc *AuthUseCase) checkRecaptcha(ctx context.Context, token string) error {
	if uc.recaptcha == nil || !uc.recaptcha.IsEnabled() {
		return nil
	}
	if token == "" {
		return apperr.ErrRecaptchaFailed(nil)
	}
	ok, err := uc.recaptcha.VerifyToken(ctx, token)
	if err != nil {
		uc.log.Error(ctx, "reCAPTCHA verification error", err, nil)
		return apperr.ErrRecaptchaFailed(err)
	}
	if !ok {
		return apperr.ErrRecaptchaFailed(nil)
	}
	return nil
}
