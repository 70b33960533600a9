package inbound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/refferq/refferq/domain/error"
)

func TestRegisterRequestValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr string
	}{
		{name: "valid", req: RegisterRequest{Name: "Ada", Email: "ada@example.com"}},
		{name: "missing email", req: RegisterRequest{Name: "Ada"}, wantErr: "Email and name are required"},
		{name: "missing name", req: RegisterRequest{Email: "ada@example.com"}, wantErr: "Email and name are required"},
		{name: "bad email", req: RegisterRequest{Name: "Ada", Email: "ada@example"}, wantErr: "Invalid email format"},
		{name: "email with space", req: RegisterRequest{Name: "Ada", Email: "a da@example.com"}, wantErr: "Invalid email format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRequest(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Equal(t, tt.wantErr, appErr.Message)
		})
	}
}

func TestVerifyCodeRequestValidation(t *testing.T) {
	err := CheckRequest(VerifyCodeRequest{Email: "ada@example.com"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	assert.NoError(t, CheckRequest(VerifyCodeRequest{Email: "ada@example.com", Code: "123456"}))
}
