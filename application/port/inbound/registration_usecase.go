package inbound

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/refferq/refferq/domain/valueobject"
)

var emailRule = validation.Match(valueobject.EmailPattern).Error("Invalid email format")

type RegisterRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required.Error("Email and name are required"), validation.Length(1, 255)),
		validation.Field(&r.Email, validation.Required.Error("Email and name are required"), validation.Length(3, 320), emailRule),
	)
}

type RegisteredUser struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

type RegisterResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    RegisteredUser `json:"user"`
}

type RegistrationUseCase interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}
