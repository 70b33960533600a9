package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/application/usecase/affiliate_admin"
	"github.com/refferq/refferq/application/usecase/auth"
	"github.com/refferq/refferq/application/usecase/registration"
	"github.com/refferq/refferq/domain/entity"
	"github.com/refferq/refferq/infrastructure/adapter/memory"
	"github.com/refferq/refferq/infrastructure/http/handler"
	"github.com/refferq/refferq/infrastructure/http/middleware"
	"github.com/refferq/refferq/infrastructure/observability"
	"github.com/refferq/refferq/infrastructure/service/codehash"
	jwtsvc "github.com/refferq/refferq/infrastructure/service/jwt"
	"github.com/refferq/refferq/infrastructure/service/logger"
	"github.com/refferq/refferq/infrastructure/service/otp"
	"github.com/refferq/refferq/infrastructure/service/referral"
)

type captureNotifier struct {
	mu    sync.Mutex
	codes map[string]string
}

func (n *captureNotifier) SendWelcome(ctx context.Context, msg outbound.WelcomeMessage) error {
	return nil
}

func (n *captureNotifier) SendLoginCode(ctx context.Context, msg outbound.LoginCodeMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes[msg.Email] = msg.Code
	return nil
}

func (n *captureNotifier) code(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.codes[email]
}

type server struct {
	t        *testing.T
	store    *memory.Store
	notifier *captureNotifier
	handler  http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()
	log := logger.NewNopLogger()
	store := memory.NewStore()
	notifier := &captureNotifier{codes: map[string]string{}}
	metrics := observability.NewMetrics()

	tokens, err := jwtsvc.NewJWTService(jwtsvc.Options{
		Secret: "0123456789abcdef0123456789abcdef",
		Issuer: "refferq",
		TTL:    15 * time.Minute,
	})
	require.NoError(t, err)

	authUC := auth.NewAuthUseCase(auth.Dependencies{
		Users:         store.Users(),
		Affiliates:    store.Affiliates(),
		RefreshTokens: store.RefreshTokens(),
		OTPStore:      otp.NewMemoryStore(),
		CodeGenerator: otp.NewCodeGenerator(),
		CodeHasher:    codehash.NewBcryptHasher(bcrypt.MinCost),
		Tokens:        tokens,
		Notifier:      notifier,
		Metrics:       metrics,
		Logger:        log,
	}, auth.Options{})
	registerUC := registration.NewRegisterUseCase(store.Users(), store.Affiliates(), store,
		referral.NewGenerator(referral.DefaultLength), notifier, metrics, log,
		registration.Options{AppBaseURL: "https://app.refferq.com", AllowAdminRole: true})
	adminUC := affiliate_admin.NewAffiliateAdminUseCase(store.Users(), store.Affiliates(), store.AuditLogs(), store, metrics, log)

	h := New(Config{}, Deps{
		Auth:    handler.NewAuthHandler(registerUC, authUC, handler.CookieConfig{}),
		Admin:   handler.NewAffiliateAdminHandler(adminUC),
		AuthMW:  middleware.NewAuthMiddleware(authUC, "auth-token", log),
		Metrics: metrics,
		Logger:  log,
	})
	return &server{t: t, store: store, notifier: notifier, handler: h}
}

func (s *server) do(method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// login runs send-otp and verify-otp and returns the identity cookie.
func (s *server) login(email string) (*http.Cookie, map[string]interface{}) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/auth/send-otp", map[string]string{"email": email})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	code := s.notifier.code(email)
	require.Len(s.t, code, 6)

	rec = s.do(http.MethodPost, "/auth/verify-otp", map[string]string{"email": email, "code": code})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth-token" {
			assert.True(s.t, c.HttpOnly)
			return c, decodeBody(s.t, rec)
		}
	}
	s.t.Fatal("auth-token cookie not set")
	return nil, nil
}

func (s *server) addAdmin(email string) *entity.User {
	s.t.Helper()
	admin := entity.NewUser("admin-"+email, email, "Root", entity.RoleAdmin, time.Now())
	admin.Status = entity.StatusActive
	require.NoError(s.t, s.store.Users().Create(context.Background(), admin))
	return admin
}

func TestRegisterThenAdminSuspendsAndDeletes(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodPost, "/auth/register", map[string]string{"name": "Ada", "email": "ADA@Example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decodeBody(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, "ada@example.com", user["email"])
	assert.Equal(t, "AFFILIATE", user["role"])
	assert.Equal(t, "PENDING", user["status"])

	rec = s.do(http.MethodPost, "/auth/register", map[string]string{"name": "Ada", "email": "ada@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	aff, err := s.store.Affiliates().FindByUserID(context.Background(), user["id"].(string))
	require.NoError(t, err)
	path := "/admin/affiliates/" + aff.ID

	rec = s.do(http.MethodPatch, path, map[string]string{"status": "ACTIVE"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	affCookie, affSession := s.login("ada@example.com")
	assert.Equal(t, "/affiliate", affSession["redirectTo"])
	rec = s.do(http.MethodPatch, path, map[string]string{"status": "ACTIVE"}, affCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	s.addAdmin("root@refferq.com")
	adminCookie, adminSession := s.login("root@refferq.com")
	assert.Equal(t, "/admin", adminSession["redirectTo"])

	rec = s.do(http.MethodPatch, path, map[string]string{"status": "BANNED"}, adminCookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PENDING, ACTIVE, INACTIVE, SUSPENDED")

	rec = s.do(http.MethodPatch, path, map[string]string{"status": "SUSPENDED", "notes": "policy violation"}, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "SUSPENDED", body["affiliate"].(map[string]interface{})["status"])

	entries := s.store.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, entity.AuditActionUpdateAffiliateStatus, entries[0].Action)
	assert.Equal(t, "policy violation", entries[0].Payload["notes"])

	rec = s.do(http.MethodGet, "/admin/affiliates?status=SUSPENDED", nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	pagination := decodeBody(t, rec)["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["total"])

	rec = s.do(http.MethodDelete, path, nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Affiliate deleted successfully", decodeBody(t, rec)["message"])

	rec = s.do(http.MethodDelete, path, nil, adminCookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the deleted affiliate's session no longer resolves
	rec = s.do(http.MethodGet, "/auth/me", nil, affCookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeAndLogout(t *testing.T) {
	s := newServer(t)
	s.addAdmin("root@refferq.com")
	cookie, _ := s.login("root@refferq.com")

	rec := s.do(http.MethodGet, "/auth/me", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ADMIN", decodeBody(t, rec)["user"].(map[string]interface{})["role"])

	rec = s.do(http.MethodPost, "/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := 0
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared++
		}
	}
	assert.Equal(t, 2, cleared)
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	s := newServer(t)
	s.addAdmin("root@refferq.com")

	rec := s.do(http.MethodPost, "/auth/send-otp", map[string]string{"email": "root@refferq.com"})
	require.Equal(t, http.StatusOK, rec.Code)

	wrong := "000000"
	if s.notifier.code("root@refferq.com") == wrong {
		wrong = "111111"
	}
	rec = s.do(http.MethodPost, "/auth/verify-otp", map[string]string{"email": "root@refferq.com", "code": wrong})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestMetricsAndUnknownRoute(t *testing.T) {
	s := newServer(t)

	rec := s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
