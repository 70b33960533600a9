package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMemory   = "memory"

	minJWTSecretLength = 32
)

type Config struct {
	DatabaseURL    string
	DatabaseDriver string

	JWTSecret        string
	JWTIssuer        string
	RefreshTokenSalt string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration

	AppBaseURL             string
	AuthCookieName         string
	RefreshCookieName      string
	AuthCookieSecure       bool
	RegistrationAllowAdmin bool

	OTPLength         int
	OTPTTL            time.Duration
	OTPMaxAttempts    int
	OTPResendCooldown time.Duration

	ServerPort  string
	ServerHost  string
	Environment string

	RecaptchaSecret   string
	RecaptchaEnabled  bool
	RecaptchaSkip     bool
	RecaptchaTimeout  time.Duration
	RecaptchaMinScore float64

	RedisURL     string
	RedisEnabled bool

	RateLimitEnabled       bool
	RateLimitIPAttempts    int
	RateLimitIPWindow      time.Duration
	RateLimitBlockDuration time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	NotifyWorkers   int
	NotifyQueueSize int
	NotifyRetries   int
	NotifyBackoff   time.Duration

	LogLevel               string
	LogFormat              string
	LogCorrelationIDHeader string
	LogEnableRequestLog    bool

	MetricsEnabled bool

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

var (
	ErrMissingDatabaseURL     = errors.New("DATABASE_URL is required")
	ErrInvalidDatabaseDriver  = errors.New("DATABASE_DRIVER must be one of postgres, pgx, memory")
	ErrMissingJWTSecret       = errors.New("JWT_SECRET is required")
	ErrWeakJWTSecret          = fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLength)
	ErrMissingRefreshSalt     = errors.New("REFRESH_TOKEN_SALT is required")
	ErrInvalidTokenTTL        = errors.New("invalid token TTL format")
	ErrInvalidOTPLength       = errors.New("OTP_LENGTH must be between 4 and 10")
	ErrMissingRecaptchaSecret = errors.New("RECAPTCHA_SECRET is required when reCAPTCHA is enabled")
)

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		DatabaseDriver:         getEnvOrDefault("DATABASE_DRIVER", DriverPostgres),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		JWTIssuer:              getEnvOrDefault("JWT_ISSUER", "refferq"),
		RefreshTokenSalt:       os.Getenv("REFRESH_TOKEN_SALT"),
		AppBaseURL:             getEnvOrDefault("APP_BASE_URL", "https://app.refferq.com"),
		AuthCookieName:         getEnvOrDefault("AUTH_COOKIE_NAME", "auth-token"),
		RefreshCookieName:      getEnvOrDefault("REFRESH_COOKIE_NAME", "refresh-token"),
		AuthCookieSecure:       getEnvOrDefaultBool("AUTH_COOKIE_SECURE", true),
		RegistrationAllowAdmin: getEnvOrDefaultBool("REGISTRATION_ALLOW_ADMIN", true),
		OTPLength:              getEnvOrDefaultInt("OTP_LENGTH", 6),
		OTPMaxAttempts:         getEnvOrDefaultInt("OTP_MAX_ATTEMPTS", 5),
		ServerPort:             getEnvOrDefault("SERVER_PORT", "8080"),
		ServerHost:             getEnvOrDefault("SERVER_HOST", "localhost"),
		Environment:            getEnvOrDefault("ENV", "development"),
		RecaptchaSecret:        os.Getenv("RECAPTCHA_SECRET"),
		RecaptchaEnabled:       getEnvOrDefaultBool("RECAPTCHA_ENABLED", false),
		RecaptchaSkip:          getEnvOrDefaultBool("RECAPTCHA_SKIP", false),
		RecaptchaMinScore:      getEnvOrDefaultFloat("RECAPTCHA_MIN_SCORE", 0.5),
		RedisURL:               getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		RedisEnabled:           getEnvOrDefaultBool("REDIS_ENABLED", true),
		RateLimitEnabled:       getEnvOrDefaultBool("RATE_LIMIT_ENABLED", true),
		RateLimitIPAttempts:    getEnvOrDefaultInt("RATE_LIMIT_IP_ATTEMPTS", 10),
		SMTPHost:               os.Getenv("SMTP_HOST"),
		SMTPPort:               getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUsername:           os.Getenv("SMTP_USERNAME"),
		SMTPPassword:           os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:               os.Getenv("SMTP_FROM"),
		NotifyWorkers:          getEnvOrDefaultInt("NOTIFY_WORKERS", 2),
		NotifyQueueSize:        getEnvOrDefaultInt("NOTIFY_QUEUE_SIZE", 256),
		NotifyRetries:          getEnvOrDefaultInt("NOTIFY_RETRIES", 3),
		NotifyBackoff:          getEnvOrDefaultDuration("NOTIFY_BACKOFF", 2*time.Second),
		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:              getEnvOrDefault("LOG_FORMAT", "json"),
		LogCorrelationIDHeader: getEnvOrDefault("LOG_CORRELATION_ID_HEADER", "X-Correlation-ID"),
		LogEnableRequestLog:    getEnvOrDefaultBool("LOG_ENABLE_REQUEST_LOG", true),
		MetricsEnabled:         getEnvOrDefaultBool("METRICS_ENABLED", true),
		CORSEnabled:            getEnvOrDefaultBool("CORS_ENABLED", true),
		CORSAllowCredentials:   getEnvOrDefaultBool("CORS_ALLOW_CREDENTIALS", true),
		CORSAllowedOrigins:     parseAllowedOrigins(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "")),
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverPgx:
		if cfg.DatabaseURL == "" {
			return nil, ErrMissingDatabaseURL
		}
	case DriverMemory:
	default:
		return nil, ErrInvalidDatabaseDriver
	}

	// No fallback secret: a forged admin token must never be one default away.
	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	if len(cfg.JWTSecret) < minJWTSecretLength && !cfg.IsDevelopment() {
		return nil, ErrWeakJWTSecret
	}

	if cfg.RefreshTokenSalt == "" {
		return nil, ErrMissingRefreshSalt
	}

	if cfg.OTPLength < 4 || cfg.OTPLength > 10 {
		return nil, ErrInvalidOTPLength
	}

	var err error
	if cfg.AccessTokenTTL, err = parseTokenTTL(getEnvOrDefault("JWT_ACCESS_TOKEN_TTL", "900")); err != nil {
		return nil, ErrInvalidTokenTTL
	}
	if cfg.RefreshTokenTTL, err = parseTokenTTL(getEnvOrDefault("JWT_REFRESH_TOKEN_TTL", "604800")); err != nil {
		return nil, ErrInvalidTokenTTL
	}
	if cfg.OTPTTL, err = parseTokenTTL(getEnvOrDefault("OTP_TTL", "600")); err != nil {
		return nil, ErrInvalidTokenTTL
	}
	if cfg.OTPResendCooldown, err = parseTokenTTL(getEnvOrDefault("OTP_RESEND_COOLDOWN", "60")); err != nil {
		return nil, ErrInvalidTokenTTL
	}
	if cfg.RecaptchaTimeout, err = parseTokenTTL(getEnvOrDefault("RECAPTCHA_TIMEOUT", "5")); err != nil {
		return nil, ErrInvalidTokenTTL
	}
	if cfg.RateLimitIPWindow, err = parseTokenTTL(getEnvOrDefault("RATE_LIMIT_IP_WINDOW", "900")); err != nil {
		return nil, ErrInvalidTokenTTL
	}
	if cfg.RateLimitBlockDuration, err = parseTokenTTL(getEnvOrDefault("RATE_LIMIT_BLOCK_DURATION", "1800")); err != nil {
		return nil, ErrInvalidTokenTTL
	}

	// Validate reCAPTCHA secret when enabled (and not skipped)
	if cfg.RecaptchaEnabled && !cfg.RecaptchaSkip && cfg.RecaptchaSecret == "" {
		return nil, ErrMissingRecaptchaSecret
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// SMTPEnabled reports whether outbound mail can actually be sent.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvOrDefaultDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		// interpret as seconds if numeric, else parse like Go duration
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return defaultValue
		}
		return d
	}
	return defaultValue
}

func parseTokenTTL(value string) (time.Duration, error) {
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if seconds <= 0 {
		return 0, ErrInvalidTokenTTL
	}
	return time.Duration(seconds) * time.Second, nil
}

func parseAllowedOrigins(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}
