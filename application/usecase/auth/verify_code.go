package auth

import (
	"context"
	"errors"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	apperr "github.com/refferq/refferq/domain/error"
	"github.com/refferq/refferq/domain/valueobject"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

// VerifyCode checks a code against the stored challenge and, on a match,
// consumes the challenge and issues a session for the stored user.
func (uc *AuthUseCase) VerifyCode(ctx context.Context, req inbound.VerifyCodeRequest) (*valueobject.Session, error) {
	if err := inbound.CheckRequest(req); err != nil {
		return nil, err
	}
	if !isNumericCode(req.Code, uc.opts.CodeLength) {
		return nil, apperr.ErrInvalidOTPCode(uc.opts.CodeLength)
	}

	email := entity.NormalizeEmail(req.Email)
	now := uc.now()

	challenge, err := uc.otp.Find(ctx, email)
	if errors.Is(err, outbound.ErrOTPNotFound) {
		uc.metrics.OTPVerified("missing")
		return nil, apperr.ErrInvalidOTP()
	}
	if err != nil {
		return nil, apperr.ErrInternalServerError("Failed to verify code", err)
	}
	if challenge.IsExpired(now) {
		uc.dropChallenge(ctx, email, "expired")
		uc.metrics.OTPVerified("expired")
		return nil, apperr.ErrInvalidOTP()
	}

	// Reserve the attempt before the comparison so concurrent guesses
	// cannot outrun the cap.
	challenge.Attempts, err = uc.otp.IncrementAttempts(ctx, email)
	if errors.Is(err, outbound.ErrOTPNotFound) {
		uc.metrics.OTPVerified("missing")
		return nil, apperr.ErrInvalidOTP()
	}
	if err != nil {
		return nil, apperr.ErrInternalServerError("Failed to verify code", err)
	}
	if challenge.AttemptsExceeded(uc.opts.MaxAttempts) {
		uc.dropChallenge(ctx, email, "attempts exhausted")
		uc.metrics.OTPVerified("exhausted")
		return nil, apperr.ErrInvalidOTP()
	}

	match, err := uc.hasher.Compare(challenge.CodeHash, req.Code)
	if err != nil {
		return nil, apperr.ErrInternalServerError("Failed to verify code", err)
	}
	if !match {
		if challenge.AttemptsExhausted(uc.opts.MaxAttempts) {
			uc.dropChallenge(ctx, email, "attempts exhausted")
			logger.LogSecurityEvent(ctx, uc.log, "otp_attempts_exhausted", "MEDIUM", map[string]interface{}{
				"attempts": challenge.Attempts,
			})
		}
		uc.metrics.OTPVerified("mismatch")
		return nil, apperr.ErrInvalidOTP()
	}

	// single use: only the caller that removes the challenge gets a session
	consumed, err := uc.otp.Consume(ctx, email, challenge.CodeHash)
	if err != nil {
		return nil, apperr.ErrInternalServerError("Failed to verify code", err)
	}
	if !consumed {
		uc.metrics.OTPVerified("consumed")
		return nil, apperr.ErrInvalidOTP()
	}

	user, err := uc.users.FindByEmail(ctx, email)
	if errors.Is(err, outbound.ErrUserNotFound) {
		uc.metrics.OTPVerified("missing")
		return nil, apperr.ErrInvalidOTP()
	}
	if err != nil {
		return nil, apperr.ErrDatabaseError("find user", err)
	}
	if !user.CanSignIn() {
		uc.metrics.OTPVerified("blocked")
		logger.LogAuthEvent(ctx, uc.log, "verify_code_blocked_account", user.ID, "", false, nil)
		return nil, apperr.ErrAccountBlocked(string(user.Status))
	}

	session, err := uc.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}
	uc.metrics.OTPVerified("success")
	logger.LogAuthEvent(ctx, uc.log, "login", user.ID, "", true, map[string]interface{}{"role": user.Role})
	return session, nil
}

// dropChallenge is best effort. The challenge still expires on its own.
func (uc *AuthUseCase) dropChallenge(ctx context.Context, email, reason string) {
	if err := uc.otp.Delete(ctx, email); err != nil {
		uc.log.Warn(ctx, "Failed to delete otp challenge", map[string]interface{}{
			"reason": reason,
			"error":  err.Error(),
		})
	}
}

func isNumericCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
