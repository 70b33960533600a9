package outbound

import (
	"context"
	"time"

	"github.com/refferq/refferq/domain/entity"
)

type WelcomeMessage struct {
	Name     string
	Email    string
	Role     entity.Role
	LoginURL string
}

type LoginCodeMessage struct {
	Name      string
	Email     string
	Code      string
	ExpiresIn time.Duration
}

// Notifier delivers outbound user notifications. Callers treat failures as
// non-fatal unless stated otherwise.
type Notifier interface {
	SendWelcome(ctx context.Context, msg WelcomeMessage) error
	SendLoginCode(ctx context.Context, msg LoginCodeMessage) error
}
