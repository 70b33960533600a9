package inbound

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/refferq/refferq/domain/entity"
	"github.com/refferq/refferq/domain/valueobject"
)

type SendCodeRequest struct {
	Email          string `json:"email"`
	RecaptchaToken string `json:"recaptchaToken,omitempty"`
}

func (r SendCodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("Email is required"), emailRule),
	)
}

type SendCodeResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ExpiresIn int    `json:"expiresIn"`
}

// VerifyCodeRequest carries the code exactly as typed. Length and digit
// checks happen in the use case since the expected length is configurable.
type VerifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (r VerifyCodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required.Error("Email is required"), emailRule),
		validation.Field(&r.Code, validation.Required.Error("Verification code is required")),
	)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required.Error("Refresh token is required")),
	)
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
	UserID       string `json:"-"`
}

type AuthUseCase interface {
	SendCode(ctx context.Context, req SendCodeRequest) (*SendCodeResponse, error)
	VerifyCode(ctx context.Context, req VerifyCodeRequest) (*valueobject.Session, error)
	Refresh(ctx context.Context, req RefreshRequest) (*valueobject.Session, error)
	Logout(ctx context.Context, req LogoutRequest) error
	Me(ctx context.Context, userID string) (*valueobject.UserProfile, error)
}

// IdentityResolver turns a presented identity token into the stored user it
// names. Every failure is Unauthenticated.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*entity.User, error)
}
