package outbound

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)
)

type TokenClaims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService is the identity token codec. Verify fails with an error
// matching ErrInvalidToken for bad signatures, malformed input and tokens at
// or past their expiry.
type TokenService interface {
	Issue(subject string) (token string, expiresAt time.Time, err error)
	Verify(token string) (*TokenClaims, error)
	GenerateRefreshToken() (string, error)
}
