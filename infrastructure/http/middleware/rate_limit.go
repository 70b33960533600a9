package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/infrastructure/http/response"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

// RateLimitPolicy bounds requests per client IP per bucket.
type RateLimitPolicy struct {
	Limit         int
	Window        time.Duration
	BlockDuration time.Duration
}

type RateLimitMiddleware struct {
	rateLimitService inbound.RateLimitService
	logger           logger.Logger
	policy           RateLimitPolicy
}

func NewRateLimitMiddleware(rateLimitService inbound.RateLimitService, policy RateLimitPolicy, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		logger:           log,
		policy:           policy,
	}
}

// Limit applies the policy to one named bucket, e.g. "send-otp".
// Limiter backend failures let the request through.
func (m *RateLimitMiddleware) Limit(bucket string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.rateLimitService == nil || m.policy.Limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			clientIP := getClientIP(r)
			key := fmt.Sprintf("%s:ip:%s", bucket, clientIP)
			fields := map[string]interface{}{"ip": clientIP, "key": key, "path": r.URL.Path}

			blocked, err := m.rateLimitService.IsBlocked(ctx, key)
			if err != nil {
				m.logger.Error(ctx, "Failed to check block status", err, fields)
			}
			if blocked {
				logger.LogSecurityEvent(ctx, m.logger, "rate_limit_blocked", "MEDIUM", fields)
				m.reject(w, m.policy.BlockDuration)
				return
			}

			allowed, err := m.rateLimitService.CheckLimit(ctx, key, m.policy.Limit, m.policy.Window)
			if err != nil {
				m.logger.Error(ctx, "Failed to check rate limit", err, fields)
				allowed = true
			}
			if !allowed {
				if err := m.rateLimitService.Block(ctx, key, m.policy.BlockDuration, "Rate limit exceeded"); err != nil {
					m.logger.Error(ctx, "Failed to block IP", err, fields)
				}
				logger.LogSecurityEvent(ctx, m.logger, "rate_limit_exceeded", "HIGH", fields)
				m.reject(w, m.policy.BlockDuration)
				return
			}

			if err := m.rateLimitService.Increment(ctx, key, m.policy.Window); err != nil {
				m.logger.Error(ctx, "Failed to record attempt", err, fields)
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (m *RateLimitMiddleware) reject(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	}
	response.TooManyRequests(w, "Too many requests. Please try again later.")
}

// getClientIP takes the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientIP is exported for handlers that log the caller address.
func ClientIP(r *http.Request) string {
	return getClientIP(r)
}
