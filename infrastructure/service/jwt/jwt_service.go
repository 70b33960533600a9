package jwt

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/refferq/refferq/application/port/outbound"
)

const accessTokenType = "access"

// MinSecretLength is the shortest HMAC secret accepted outside development.
const MinSecretLength = 32

var ErrMissingSecret = errors.New("jwt secret is required")

type Options struct {
	Secret string
	Issuer string
	TTL    time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type accessClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 identity tokens. A token is valid
// while now < exp; at exp it is rejected.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

var _ outbound.TokenService = (*JWTService)(nil)

func NewJWTService(opts Options) (*JWTService, error) {
	if opts.Secret == "" {
		return nil, ErrMissingSecret
	}
	if opts.TTL <= 0 {
		return nil, fmt.Errorf("jwt ttl must be positive, got %s", opts.TTL)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	return &JWTService{
		secret: []byte(opts.Secret),
		issuer: opts.Issuer,
		ttl:    opts.TTL,
		now:    now,
		parser: jwt.NewParser(parserOpts...),
	}, nil
}

func (s *JWTService) Issue(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("subject cannot be empty")
	}
	now := s.now()
	expiresAt := jwt.NewNumericDate(now.Add(s.ttl))

	claims := accessClaims{
		Type: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: expiresAt,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt.Time, nil
}

func (s *JWTService) Verify(tokenString string) (*outbound.TokenClaims, error) {
	claims := &accessClaims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, s.handleValidationError(err)
	}
	if !token.Valid || claims.Type != accessTokenType || claims.Subject == "" {
		return nil, outbound.ErrInvalidToken
	}

	out := &outbound.TokenClaims{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// GenerateRefreshToken returns 32 random bytes, URL-safe encoded. Refresh
// tokens are opaque and live server-side.
func (s *JWTService) GenerateRefreshToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

func (s *JWTService) handleValidationError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return outbound.ErrTokenExpired
	}
	return fmt.Errorf("%w: %v", outbound.ErrInvalidToken, err)
}
