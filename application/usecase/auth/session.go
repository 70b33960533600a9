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

func (uc *AuthUseCase) issueSession(ctx context.Context, user *entity.User) (*valueobject.Session, error) {
	now := uc.now()

	accessToken, accessExpiresAt, err := uc.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperr.ErrInternalServerError("Failed to issue session", err)
	}
	refreshToken, err := uc.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, apperr.ErrInternalServerError("Failed to issue session", err)
	}
	rt := entity.NewRefreshToken(uc.newID(), user.ID, refreshToken, now, now.Add(uc.opts.RefreshTTL))
	if err := uc.refreshTokens.Create(ctx, rt); err != nil {
		return nil, apperr.ErrDatabaseError("store refresh token", err)
	}

	profile, err := uc.profile(ctx, user)
	if err != nil {
		return nil, err
	}

	expiresIn := int(accessExpiresAt.Sub(now).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}
	return &valueobject.Session{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        expiresIn,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresIn: int(uc.opts.RefreshTTL.Seconds()),
		User:             *profile,
		RedirectTo:       user.LandingRoute(),
	}, nil
}

func (uc *AuthUseCase) profile(ctx context.Context, user *entity.User) (*valueobject.UserProfile, error) {
	hasAffiliate := false
	if _, err := uc.affiliates.FindByUserID(ctx, user.ID); err == nil {
		hasAffiliate = true
	} else if !errors.Is(err, outbound.ErrAffiliateNotFound) {
		return nil, apperr.ErrDatabaseError("find affiliate", err)
	}
	return &valueobject.UserProfile{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         string(user.Role),
		Status:       string(user.Status),
		HasAffiliate: hasAffiliate,
	}, nil
}

// Refresh rotates a refresh token. Presenting an already revoked token
// revokes every session of its owner.
func (uc *AuthUseCase) Refresh(ctx context.Context, req inbound.RefreshRequest) (*valueobject.Session, error) {
	if err := inbound.CheckRequest(req); err != nil {
		return nil, err
	}

	stored, err := uc.refreshTokens.FindByToken(ctx, req.RefreshToken)
	if errors.Is(err, outbound.ErrRefreshTokenNotFound) {
		return nil, apperr.ErrInvalidRefreshToken()
	}
	if err != nil {
		return nil, apperr.ErrDatabaseError("find refresh token", err)
	}

	if stored.IsRevoked() {
		return nil, uc.refreshReused(ctx, stored.UserID)
	}
	if stored.IsExpired(uc.now()) {
		return nil, apperr.ErrInvalidRefreshToken()
	}

	user, err := uc.users.FindByID(ctx, stored.UserID)
	if errors.Is(err, outbound.ErrUserNotFound) {
		return nil, apperr.ErrInvalidRefreshToken()
	}
	if err != nil {
		return nil, apperr.ErrDatabaseError("find user", err)
	}
	if !user.CanSignIn() {
		return nil, apperr.ErrAccountBlocked(string(user.Status))
	}

	// Losing this race means another request already rotated the token.
	err = uc.refreshTokens.Revoke(ctx, req.RefreshToken)
	if errors.Is(err, outbound.ErrRefreshTokenNotFound) {
		return nil, uc.refreshReused(ctx, stored.UserID)
	}
	if err != nil {
		return nil, apperr.ErrDatabaseError("revoke refresh token", err)
	}
	return uc.issueSession(ctx, user)
}

// refreshReused revokes every session of userID after a rotated token shows
// up again.
func (uc *AuthUseCase) refreshReused(ctx context.Context, userID string) error {
	logger.LogSecurityEvent(ctx, uc.log, "refresh_token_reuse", "HIGH", map[string]interface{}{"user_id": userID})
	if err := uc.refreshTokens.RevokeByUserID(ctx, userID); err != nil {
		uc.log.Error(ctx, "Failed to revoke sessions after token reuse", err, map[string]interface{}{"user_id": userID})
	}
	return apperr.ErrInvalidRefreshToken()
}

// Logout revokes the presented refresh token and, when the caller is known,
// every other session of that user.
func (uc *AuthUseCase) Logout(ctx context.Context, req inbound.LogoutRequest) error {
	if req.RefreshToken != "" {
		err := uc.refreshTokens.Revoke(ctx, req.RefreshToken)
		if err != nil && !errors.Is(err, outbound.ErrRefreshTokenNotFound) {
			return apperr.ErrDatabaseError("revoke refresh token", err)
		}
	}
	if req.UserID != "" {
		if err := uc.refreshTokens.RevokeByUserID(ctx, req.UserID); err != nil {
			return apperr.ErrDatabaseError("revoke refresh tokens", err)
		}
		logger.LogAuthEvent(ctx, uc.log, "logout", req.UserID, "", true, nil)
	}
	return nil
}

func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*valueobject.UserProfile, error) {
	user, err := uc.users.FindByID(ctx, userID)
	if errors.Is(err, outbound.ErrUserNotFound) {
		return nil, apperr.ErrUserNotFound(userID)
	}
	if err != nil {
		return nil, apperr.ErrDatabaseError("find user", err)
	}
	return uc.profile(ctx, user)
}
