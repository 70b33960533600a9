package recaptcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

type Config struct {
	SecretKey string
	VerifyURL string
	// MinScore applies to v3 tokens. Zero accepts any successful verification.
	MinScore float64
	Enabled  bool
	Skip     bool
	Timeout  time.Duration
}

type Service struct {
	cfg        Config
	logger     logger.Logger
	httpClient *http.Client
}

var _ inbound.RecaptchaService = (*Service)(nil)

// siteVerifyResponse is the body returned by the siteverify endpoint.
type siteVerifyResponse struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score,omitempty"`
	Action      string   `json:"action,omitempty"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

func NewService(cfg Config, log logger.Logger) inbound.RecaptchaService {
	if !cfg.Enabled || cfg.Skip {
		return Noop{}
	}
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultVerifyURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Service{
		cfg:        cfg,
		logger:     log,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// VerifyToken returns (false, nil) when the token is rejected and an error
// only when the verification endpoint could not be consulted.
func (s *Service) VerifyToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", s.cfg.SecretKey)
	form.Set("response", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to create reCAPTCHA request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("reCAPTCHA service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("reCAPTCHA service returned %d", resp.StatusCode)
	}

	var result siteVerifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode reCAPTCHA response: %w", err)
	}

	fields := map[string]interface{}{
		"success":     result.Success,
		"score":       result.Score,
		"action":      result.Action,
		"hostname":    result.Hostname,
		"error_codes": result.ErrorCodes,
	}

	if !result.Success || (s.cfg.MinScore > 0 && result.Score < s.cfg.MinScore) {
		s.logger.Warn(ctx, "reCAPTCHA verification failed", fields)
		return false, nil
	}
	s.logger.Debug(ctx, "reCAPTCHA verification successful", fields)
	return true, nil
}

func (s *Service) IsEnabled() bool {
	return true
}

// Noop is used when reCAPTCHA is disabled. Every token passes.
type Noop struct{}

func (Noop) VerifyToken(context.Context, string) (bool, error) { return true, nil }
func (Noop) IsEnabled() bool                                   { return false }
