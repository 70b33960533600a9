package handler

import (
	"net/http"
	"time"

	"github.com/refferq/refferq/application/port/inbound"
	apperr "github.com/refferq/refferq/domain/error"
	"github.com/refferq/refferq/domain/valueobject"
	"github.com/refferq/refferq/infrastructure/http/middleware"
	"github.com/refferq/refferq/infrastructure/http/response"
)

const refreshTokenHeader = "Refresh-Token"

type CookieConfig struct {
	AuthName    string
	RefreshName string
	Secure      bool
}

type AuthHandler struct {
	registration inbound.RegistrationUseCase
	authUseCase  inbound.AuthUseCase
	cookies      CookieConfig
}

func NewAuthHandler(registration inbound.RegistrationUseCase, authUseCase inbound.AuthUseCase, cookies CookieConfig) *AuthHandler {
	if cookies.AuthName == "" {
		cookies.AuthName = "auth-token"
	}
	if cookies.RefreshName == "" {
		cookies.RefreshName = "refresh-token"
	}
	return &AuthHandler{
		registration: registration,
		authUseCase:  authUseCase,
		cookies:      cookies,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req inbound.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	res, err := h.registration.Register(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, res)
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req inbound.SendCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	res, err := h.authUseCase.SendCode(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, res)
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req inbound.VerifyCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.FromError(w, err)
		return
	}

	session, err := h.authUseCase.VerifyCode(r.Context(), req)
	if err != nil {
		response.FromError(w, err)
		return
	}

	h.setSessionCookies(w, session)
	response.Success(w, http.StatusOK, sessionBody(session))
}

// Refresh takes the token from the cookie, the Refresh-Token header or the
// body, in that order.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	req := inbound.RefreshRequest{RefreshToken: h.refreshTokenFrom(r)}
	if req.RefreshToken == "" {
		if err := decodeJSON(w, r, &req); err != nil {
			response.FromError(w, err)
			return
		}
	}

	session, err := h.authUseCase.Refresh(r.Context(), req)
	if err != nil {
		if apperr.IsKind(err, apperr.KindUnauthenticated) {
			h.clearSessionCookies(w)
		}
		response.FromError(w, err)
		return
	}

	h.setSessionCookies(w, session)
	response.Success(w, http.StatusOK, sessionBody(session))
}

// Logout always clears the cookies. A bound user has every refresh token
// revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	req := inbound.LogoutRequest{RefreshToken: h.refreshTokenFrom(r)}
	if user := middleware.CurrentUser(r.Context()); user != nil {
		req.UserID = user.ID
	}

	err := h.authUseCase.Logout(r.Context(), req)
	h.clearSessionCookies(w)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r.Context())
	if user == nil {
		response.FromError(w, apperr.ErrUnauthenticated("User not authenticated"))
		return
	}

	profile, err := h.authUseCase.Me(r.Context(), user.ID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    profile,
	})
}

func (h *AuthHandler) refreshTokenFrom(r *http.Request) string {
	if cookie, err := r.Cookie(h.cookies.RefreshName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.Header.Get(refreshTokenHeader)
}

func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, session *valueobject.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookies.AuthName,
		Value:    session.AccessToken,
		Path:     "/",
		Expires:  session.AccessExpiresAt,
		MaxAge:   session.ExpiresIn,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookies.RefreshName,
		Value:    session.RefreshToken,
		Path:     "/auth",
		MaxAge:   session.RefreshExpiresIn,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, c := range []struct{ name, path string }{
		{h.cookies.AuthName, "/"},
		{h.cookies.RefreshName, "/auth"},
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     c.name,
			Value:    "",
			Path:     c.path,
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.cookies.Secure,
		})
	}
}

type sessionResponse struct {
	Success bool `json:"success"`
	*valueobject.Session
}

func sessionBody(session *valueobject.Session) sessionResponse {
	return sessionResponse{Success: true, Session: session}
}
