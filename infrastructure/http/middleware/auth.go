package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/domain/entity"
	apperr "github.com/refferq/refferq/domain/error"
	"github.com/refferq/refferq/infrastructure/http/response"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

type authUserKey struct{}

// AuthMiddleware resolves the identity token to the stored user on every
// request. Role checks use the stored role, never a token claim.
type AuthMiddleware struct {
	resolver   inbound.IdentityResolver
	cookieName string
	logger     logger.Logger
}

func NewAuthMiddleware(resolver inbound.IdentityResolver, cookieName string, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		resolver:   resolver,
		cookieName: cookieName,
		logger:     log,
	}
}

// RequireAuth reads the identity cookie, falling back to a Bearer header.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolver.Resolve(r.Context(), m.tokenFrom(r))
		if err != nil {
			logger.LogAuthEvent(r.Context(), m.logger, "token_rejected", "", getClientIP(r), false, map[string]interface{}{
				"path": r.URL.Path,
			})
			response.FromError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), authUserKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth binds the user when a valid token is present and otherwise
// proceeds anonymously.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.tokenFrom(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := m.resolver.Resolve(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), authUserKey{}, user)))
	})
}

// RequireRole authenticates and then demands one of roles.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				response.FromError(w, apperr.ErrUnauthenticated("User not authenticated"))
				return
			}
			if !user.HasRole(roles...) {
				logger.LogSecurityEvent(r.Context(), m.logger, "role_denied", "MEDIUM", map[string]interface{}{
					"userId": user.ID,
					"role":   string(user.Role),
					"path":   r.URL.Path,
				})
				response.FromError(w, apperr.ErrAdminRequired())
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireRole(entity.RoleAdmin)(next)
}

func (m *AuthMiddleware) tokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// CurrentUser returns the user bound by RequireAuth, or nil.
func CurrentUser(ctx context.Context) *entity.User {
	user, _ := ctx.Value(authUserKey{}).(*entity.User)
	return user
}
