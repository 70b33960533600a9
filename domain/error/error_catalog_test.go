package error

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: ErrInvalidEmail("x"), want: http.StatusBadRequest},
		{name: "invalid status", err: ErrInvalidStatus([]string{"A"}), want: http.StatusBadRequest},
		{name: "unauthenticated", err: ErrUnauthenticated("No authentication token"), want: http.StatusUnauthorized},
		{name: "invalid token", err: ErrInvalidToken(nil), want: http.StatusUnauthorized},
		{name: "forbidden", err: ErrAdminRequired(), want: http.StatusForbidden},
		{name: "not found", err: ErrAffiliateNotFound("aff-1"), want: http.StatusNotFound},
		{name: "conflict", err: ErrEmailTaken("a@b.co"), want: http.StatusConflict},
		{name: "too many requests", err: ErrOTPCooldown("30s"), want: http.StatusTooManyRequests},
		{name: "internal", err: ErrDatabaseError("insert", errors.New("boom")), want: http.StatusInternalServerError},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError},
		{name: "wrapped app error", err: fmt.Errorf("context: %w", ErrAdminRequired()), want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatusCode(tt.err))
		})
	}
}

func TestErrInvalidStatus_ListsValidSet(t *testing.T) {
	err := ErrInvalidStatus([]string{"PENDING", "ACTIVE", "INACTIVE", "SUSPENDED"})
	assert.Equal(t, "Invalid status. Must be one of: PENDING, ACTIVE, INACTIVE, SUSPENDED", err.Message)
	assert.True(t, IsKind(err, KindValidation))
}

func TestAppError_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrDatabaseError("find user", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "SERVER_6002")
	assert.Contains(t, err.Error(), "find user")
}

func TestKindOf_NilAndForeignErrors(t *testing.T) {
	assert.False(t, IsKind(nil, KindInternal))
	assert.Equal(t, KindInternal, KindOf(errors.New("x")))
}
