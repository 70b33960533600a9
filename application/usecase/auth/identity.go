package auth

import (
	"context"
	"errors"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	apperr "github.com/refferq/refferq/domain/error"
)

// Resolve verifies an identity token and loads the user named by its subject.
// Role and status always come from the store, never from the token.
func (uc *AuthUseCase) Resolve(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, apperr.ErrUnauthenticated("No authentication token")
	}
	claims, err := uc.tokens.Verify(token)
	if err != nil {
		return nil, apperr.ErrInvalidToken(err)
	}
	user, err := uc.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, outbound.ErrUserNotFound) {
		return nil, apperr.ErrUnauthenticated("User not found")
	}
	if err != nil {
		return nil, apperr.ErrDatabaseError("find user", err)
	}
	return user, nil
}
