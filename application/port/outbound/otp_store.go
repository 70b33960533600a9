package outbound

import (
	"context"
	"errors"

	"github.com/refferq/refferq/domain/entity"
)

var ErrOTPNotFound = errors.New("otp challenge not found")

// OTPStore keeps at most one live challenge per email. Entries disappear on
// their own once ExpiresAt passes.
type OTPStore interface {
	Save(ctx context.Context, challenge *entity.OTPChallenge) error
	Find(ctx context.Context, email string) (*entity.OTPChallenge, error)
	// IncrementAttempts reserves one verification attempt and returns the
	// count including it.
	IncrementAttempts(ctx context.Context, email string) (int, error)
	// Consume removes the challenge only if it still carries codeHash and
	// reports whether this call removed it. At most one caller wins.
	Consume(ctx context.Context, email, codeHash string) (bool, error)
	Delete(ctx context.Context, email string) error
}

// CodeGenerator produces numeric one-time codes of the given length.
type CodeGenerator interface {
	Generate(length int) (string, error)
}

// CodeHasher hashes one-time codes at rest.
type CodeHasher interface {
	Hash(code string) (string, error)
	Compare(hash, code string) (bool, error)
}
