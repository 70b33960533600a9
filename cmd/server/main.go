package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/application/usecase/affiliate_admin"
	"github.com/refferq/refferq/application/usecase/auth"
	"github.com/refferq/refferq/application/usecase/registration"
	"github.com/refferq/refferq/infrastructure/adapter/memory"
	"github.com/refferq/refferq/infrastructure/adapter/postgres"
	"github.com/refferq/refferq/infrastructure/config"
	"github.com/refferq/refferq/infrastructure/http/handler"
	"github.com/refferq/refferq/infrastructure/http/middleware"
	"github.com/refferq/refferq/infrastructure/http/router"
	"github.com/refferq/refferq/infrastructure/observability"
	"github.com/refferq/refferq/infrastructure/service/codehash"
	jwtsvc "github.com/refferq/refferq/infrastructure/service/jwt"
	"github.com/refferq/refferq/infrastructure/service/logger"
	"github.com/refferq/refferq/infrastructure/service/notification"
	"github.com/refferq/refferq/infrastructure/service/otp"
	"github.com/refferq/refferq/infrastructure/service/ratelimit"
	"github.com/refferq/refferq/infrastructure/service/recaptcha"
	"github.com/refferq/refferq/infrastructure/service/redisclient"
	"github.com/refferq/refferq/infrastructure/service/referral"
)

type stores struct {
	users         outbound.UserRepository
	affiliates    outbound.AffiliateRepository
	audits        outbound.AuditLogRepository
	refreshTokens outbound.RefreshTokenRepository
	tx            outbound.Transactor
	db            *sql.DB
}

func openStores(ctx context.Context, cfg *config.Config, log logger.Logger) (*stores, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		log.Warn(ctx, "Using in-memory store; data is lost on restart", nil)
		s := memory.NewStore()
		return &stores{
			users:         s.Users(),
			affiliates:    s.Affiliates(),
			audits:        s.AuditLogs(),
			refreshTokens: s.RefreshTokens(),
			tx:            s,
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "Database connection established", map[string]interface{}{"driver": cfg.DatabaseDriver})
	return &stores{
		users:         postgres.NewUserRepositoryAdapter(db),
		affiliates:    postgres.NewAffiliateRepositoryAdapter(db),
		audits:        postgres.NewAuditLogRepositoryAdapter(db),
		refreshTokens: postgres.NewRefreshTokenRepositoryAdapter(db, cfg.RefreshTokenSalt),
		tx:            postgres.NewTransactor(db),
		db:            db,
	}, nil
}

// openRedis returns nil when Redis is disabled or unreachable; callers fall
// back to in-process implementations.
func openRedis(ctx context.Context, cfg *config.Config, log logger.Logger) *redis.Client {
	if !cfg.RedisEnabled {
		return nil
	}
	client, err := redisclient.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn(ctx, "Redis unavailable, using in-process OTP store and limiter", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}
	log.Info(ctx, "Redis connection established", nil)
	return client
}

func buildNotifier(cfg *config.Config, log logger.Logger) *notification.AsyncNotifier {
	var next outbound.Notifier
	if cfg.SMTPEnabled() {
		next = notification.NewEmailNotifier(notification.NewSMTPMailer(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}))
	} else {
		// codes reach the log only in development
		next = notification.NewLogNotifier(log, cfg.IsDevelopment())
	}
	return notification.NewAsyncNotifier(next, notification.AsyncConfig{
		Workers:   cfg.NotifyWorkers,
		QueueSize: cfg.NotifyQueueSize,
		Retries:   cfg.NotifyRetries,
		Backoff:   cfg.NotifyBackoff,
	}, log)
}

func main() {
	ctx := context.Background()
	bootLog := logger.NewStructuredLogger(logger.LoggerConfig{Level: "info", Format: "json", ServiceName: "refferq"})

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(ctx, "Failed to load configuration", err, nil)
		os.Exit(1)
	}

	log := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "refferq",
	})
	log.Info(ctx, "Application starting", map[string]interface{}{"env": cfg.Environment})

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "Failed to open store", err, map[string]interface{}{"driver": cfg.DatabaseDriver})
		os.Exit(1)
	}
	if st.db != nil {
		defer st.db.Close()
	}

	redisClient := openRedis(ctx, cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var otpStore outbound.OTPStore = otp.NewMemoryStore()
	if redisClient != nil {
		otpStore = otp.NewRedisStore(redisClient)
	}

	rateLimitService := ratelimit.New(ratelimit.Config{
		Enabled:  cfg.RateLimitEnabled,
		UseRedis: redisClient != nil,
	}, redisClient, log)

	recaptchaService := recaptcha.NewService(recaptcha.Config{
		SecretKey: cfg.RecaptchaSecret,
		MinScore:  cfg.RecaptchaMinScore,
		Enabled:   cfg.RecaptchaEnabled,
		Skip:      cfg.RecaptchaSkip,
		Timeout:   cfg.RecaptchaTimeout,
	}, log)

	tokenService, err := jwtsvc.NewJWTService(jwtsvc.Options{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.AccessTokenTTL,
	})
	if err != nil {
		log.Error(ctx, "Failed to initialize JWT service", err, nil)
		os.Exit(1)
	}

	var metrics *observability.Metrics
	var domainMetrics outbound.Metrics = outbound.NopMetrics{}
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
		domainMetrics = metrics
	}

	notifier := buildNotifier(cfg, log)

	authUseCase := auth.NewAuthUseCase(auth.Dependencies{
		Users:         st.users,
		Affiliates:    st.affiliates,
		RefreshTokens: st.refreshTokens,
		OTPStore:      otpStore,
		CodeGenerator: otp.NewCodeGenerator(),
		CodeHasher:    codehash.NewBcryptHasher(bcrypt.DefaultCost),
		Tokens:        tokenService,
		Notifier:      notifier,
		Recaptcha:     recaptchaService,
		Metrics:       domainMetrics,
		Logger:        log,
	}, auth.Options{
		CodeLength:     cfg.OTPLength,
		CodeTTL:        cfg.OTPTTL,
		MaxAttempts:    cfg.OTPMaxAttempts,
		ResendCooldown: cfg.OTPResendCooldown,
		RefreshTTL:     cfg.RefreshTokenTTL,
	})

	registerUseCase := registration.NewRegisterUseCase(
		st.users,
		st.affiliates,
		st.tx,
		referral.NewGenerator(referral.DefaultLength),
		notifier,
		domainMetrics,
		log,
		registration.Options{
			AppBaseURL:     cfg.AppBaseURL,
			AllowAdminRole: cfg.RegistrationAllowAdmin,
		},
	)

	adminUseCase := affiliate_admin.NewAffiliateAdminUseCase(st.users, st.affiliates, st.audits, st.tx, domainMetrics, log)

	httpHandler := router.New(router.Config{
		CorrelationHeader:    cfg.LogCorrelationIDHeader,
		CORSEnabled:          cfg.CORSEnabled && len(cfg.CORSAllowedOrigins) > 0,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		CORSAllowCredentials: cfg.CORSAllowCredentials,
		RequestLog:           cfg.LogEnableRequestLog,
	}, router.Deps{
		Auth: handler.NewAuthHandler(registerUseCase, authUseCase, handler.CookieConfig{
			AuthName:    cfg.AuthCookieName,
			RefreshName: cfg.RefreshCookieName,
			Secure:      cfg.AuthCookieSecure,
		}),
		Admin:  handler.NewAffiliateAdminHandler(adminUseCase),
		AuthMW: middleware.NewAuthMiddleware(authUseCase, cfg.AuthCookieName, log),
		RateLimit: middleware.NewRateLimitMiddleware(rateLimitService, middleware.RateLimitPolicy{
			Limit:         cfg.RateLimitIPAttempts,
			Window:        cfg.RateLimitIPWindow,
			BlockDuration: cfg.RateLimitBlockDuration,
		}, log),
		Metrics: metrics,
		Logger:  log,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info(ctx, "Starting server", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "Server failed", err, map[string]interface{}{"addr": server.Addr})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "Shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "Server forced to shutdown", err, nil)
	}
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Error(ctx, "Notification queue not drained", err, nil)
	}
	log.Info(ctx, "Server exited", nil)
}
