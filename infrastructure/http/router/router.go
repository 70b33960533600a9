// Package router assembles the HTTP surface.
package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/refferq/refferq/infrastructure/http/handler"
	"github.com/refferq/refferq/infrastructure/http/middleware"
	"github.com/refferq/refferq/infrastructure/http/response"
	"github.com/refferq/refferq/infrastructure/observability"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

type Config struct {
	CorrelationHeader    string
	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	RequestLog           bool
}

type Deps struct {
	Auth      *handler.AuthHandler
	Admin     *handler.AffiliateAdminHandler
	AuthMW    *middleware.AuthMiddleware
	RateLimit *middleware.RateLimitMiddleware
	// Metrics is optional. When nil neither instrumentation nor /metrics is mounted.
	Metrics *observability.Metrics
	Logger  logger.Logger
}

func New(cfg Config, d Deps) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Use(middleware.Recovery(d.Logger), middleware.Correlation(cfg.CorrelationHeader))
	if cfg.RequestLog {
		r.Use(middleware.RequestLog(d.Logger))
	}
	if d.Metrics != nil {
		r.Use(d.Metrics.Instrument)
		r.Handle("/metrics", d.Metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
	}).Methods(http.MethodGet)

	limit := func(bucket string, h http.HandlerFunc) http.Handler {
		if d.RateLimit == nil {
			return h
		}
		return d.RateLimit.Limit(bucket)(h)
	}

	auth := r.PathPrefix("/auth").Subrouter()
	auth.Handle("/register", limit("register", d.Auth.Register)).Methods(http.MethodPost)
	auth.Handle("/send-otp", limit("send-otp", d.Auth.SendOTP)).Methods(http.MethodPost)
	auth.Handle("/verify-otp", limit("verify-otp", d.Auth.VerifyOTP)).Methods(http.MethodPost)
	auth.Handle("/refresh", limit("refresh", d.Auth.Refresh)).Methods(http.MethodPost)
	auth.Handle("/logout", d.AuthMW.OptionalAuth(http.HandlerFunc(d.Auth.Logout))).Methods(http.MethodPost)
	auth.Handle("/me", d.AuthMW.RequireAuth(http.HandlerFunc(d.Auth.Me))).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(d.AuthMW.RequireAdmin)
	admin.HandleFunc("/affiliates", d.Admin.List).Methods(http.MethodGet)
	admin.HandleFunc("/affiliates/{id}", d.Admin.Get).Methods(http.MethodGet)
	admin.HandleFunc("/affiliates/{id}", d.Admin.UpdateStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/affiliates/{id}", d.Admin.Delete).Methods(http.MethodDelete)

	var h http.Handler = r
	if cfg.CORSEnabled {
		// outside the router so preflights never reach method matching
		h = middleware.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials)(h)
	}
	return h
}
