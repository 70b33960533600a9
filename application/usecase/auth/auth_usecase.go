package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

type Options struct {
	CodeLength     int
	CodeTTL        time.Duration
	MaxAttempts    int
	ResendCooldown time.Duration
	RefreshTTL     time.Duration
}

func (o Options) withDefaults() Options {
	if o.CodeLength <= 0 {
		o.CodeLength = 6
	}
	if o.CodeTTL <= 0 {
		o.CodeTTL = 10 * time.Minute
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.RefreshTTL <= 0 {
		o.RefreshTTL = 7 * 24 * time.Hour
	}
	return o
}

type Dependencies struct {
	Users         outbound.UserRepository
	Affiliates    outbound.AffiliateRepository
	RefreshTokens outbound.RefreshTokenRepository
	OTPStore      outbound.OTPStore
	CodeGenerator outbound.CodeGenerator
	CodeHasher    outbound.CodeHasher
	Tokens        outbound.TokenService
	Notifier      outbound.Notifier
	Recaptcha     inbound.RecaptchaService
	Metrics       outbound.Metrics
	Logger        logger.Logger
}

// AuthUseCase implements the email plus one-time-code login and the session
// lifecycle that follows it.
type AuthUseCase struct {
	users         outbound.UserRepository
	affiliates    outbound.AffiliateRepository
	refreshTokens outbound.RefreshTokenRepository
	otp           outbound.OTPStore
	codes         outbound.CodeGenerator
	hasher        outbound.CodeHasher
	tokens        outbound.TokenService
	notifier      outbound.Notifier
	recaptcha     inbound.RecaptchaService
	metrics       outbound.Metrics
	log           logger.Logger
	opts          Options

	now   func() time.Time
	newID func() string
}

var (
	_ inbound.AuthUseCase      = (*AuthUseCase)(nil)
	_ inbound.IdentityResolver = (*AuthUseCase)(nil)
)

func NewAuthUseCase(deps Dependencies, opts Options) *AuthUseCase {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &AuthUseCase{
		users:         deps.Users,
		affiliates:    deps.Affiliates,
		refreshTokens: deps.RefreshTokens,
		otp:           deps.OTPStore,
		codes:         deps.CodeGenerator,
		hasher:        deps.CodeHasher,
		tokens:        deps.Tokens,
		notifier:      deps.Notifier,
		recaptcha:     deps.Recaptcha,
		metrics:       metrics,
		log:           deps.Logger.WithFields(map[string]interface{}{"component": "auth"}),
		opts:          opts.withDefaults(),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         uuid.NewString,
	}
}
