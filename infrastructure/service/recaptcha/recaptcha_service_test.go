package recaptcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/refferq/refferq/infrastructure/service/logger"
)

func newServer(t *testing.T, body siteVerifyResponse, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "secret-key", r.PostForm.Get("secret"))
		assert.NotEmpty(t, r.PostForm.Get("response"))
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(url string, minScore float64) *Service {
	return NewService(Config{
		SecretKey: "secret-key",
		VerifyURL: url,
		MinScore:  minScore,
		Enabled:   true,
	}, logger.NewNopLogger()).(*Service)
}

func TestService_VerifyToken(t *testing.T) {
	tests := []struct {
		name     string
		body     siteVerifyResponse
		status   int
		minScore float64
		want     bool
		wantErr  bool
	}{
		{name: "success", body: siteVerifyResponse{Success: true}, status: http.StatusOK, want: true},
		{name: "rejected", body: siteVerifyResponse{Success: false, ErrorCodes: []string{"invalid-input-response"}}, status: http.StatusOK},
		{name: "score too low", body: siteVerifyResponse{Success: true, Score: 0.2}, status: http.StatusOK, minScore: 0.5},
		{name: "score ok", body: siteVerifyResponse{Success: true, Score: 0.9}, status: http.StatusOK, minScore: 0.5, want: true},
		{name: "upstream error", status: http.StatusBadGateway, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.body, tt.status)
			svc := newTestService(srv.URL, tt.minScore)

			got, err := svc.VerifyToken(context.Background(), "token")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_EmptyTokenRejectedWithoutCall(t *testing.T) {
	svc := newTestService("http://127.0.0.1:0", 0)
	ok, err := svc.VerifyToken(context.Background(), "")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestNewService_DisabledIsNoop(t *testing.T) {
	svc := NewService(Config{Enabled: false}, logger.NewNopLogger())
	assert.False(t, svc.IsEnabled())
	ok, err := svc.VerifyToken(context.Background(), "")
	assert.NoError(t, err)
	assert.True(t, ok)

	assert.IsType(t, Noop{}, NewService(Config{Enabled: true, Skip: true}, logger.NewNopLogger()))
}
