package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/refferq/refferq/domain/entity"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already exists")
)

// UserRepository is the credential store. FindByID is the only lookup the
// authorization path relies on.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user *entity.User) error
	UpdateStatus(ctx context.Context, id string, status entity.UserStatus, updatedAt time.Time) error
	// Delete removes the user and, through the ownership cascade, its affiliate.
	Delete(ctx context.Context, id string) error
}
