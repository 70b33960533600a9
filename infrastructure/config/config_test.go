package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/refferq?sslmode=disable")
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("REFRESH_TOKEN_SALT", "salt")
	t.Setenv("ENV", "production")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, "auth-token", cfg.AuthCookieName)
	assert.Equal(t, "https://app.refferq.com", cfg.AppBaseURL)
	assert.Equal(t, 6, cfg.OTPLength)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 5, cfg.OTPMaxAttempts)
	assert.True(t, cfg.RegistrationAllowAdmin)
	assert.False(t, cfg.SMTPEnabled())
}

func TestLoad_JWTSecretRequired(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_ShortSecretOnlyInDevelopment(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.ErrorIs(t, err, ErrWeakJWTSecret)

	t.Setenv("ENV", "development")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "short", cfg.JWTSecret)
}

func TestLoad_DatabaseDriver(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		url    string
		want   error
	}{
		{name: "pgx", driver: "pgx", url: "postgres://x"},
		{name: "memory needs no url", driver: "memory", url: ""},
		{name: "postgres needs url", driver: "postgres", url: "", want: ErrMissingDatabaseURL},
		{name: "unknown", driver: "sqlite", url: "file:x", want: ErrInvalidDatabaseDriver},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv("DATABASE_DRIVER", tt.driver)
			t.Setenv("DATABASE_URL", tt.url)

			_, err := Load()
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoad_InvalidTTL(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("OTP_TTL", "ten minutes")

	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidTokenTTL)
}

func TestLoad_RecaptchaSecretWhenEnabled(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("RECAPTCHA_ENABLED", "true")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingRecaptchaSecret)

	t.Setenv("RECAPTCHA_SKIP", "true")
	_, err = Load()
	assert.NoError(t, err)
}

func TestParseAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, parseAllowedOrigins(" https://a.com, ,https://b.com"))
	assert.Empty(t, parseAllowedOrigins(""))
}
