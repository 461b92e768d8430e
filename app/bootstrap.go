package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"account-dispenser/internal/adminauth"
	"account-dispenser/internal/config"
	"account-dispenser/internal/dispenser"
	"account-dispenser/internal/maintenance"
	"account-dispenser/internal/observability"
	"account-dispenser/internal/store"
)

type Options struct {
	LoadDotEnv bool
	ConfigFile string
}

type Runtime struct {
	Config  *config.Config
	Handler http.Handler
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	cfg, err := config.Load(config.Options{
		LoadDotEnv: options.LoadDotEnv,
		File:       options.ConfigFile,
	})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger()

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Env); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	authorizer, err := newAuthorizer(cfg.Admin)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Options{
		Driver:        store.Driver(cfg.Store.Driver),
		Path:          cfg.Store.Path,
		DatabaseURL:   cfg.Store.DatabaseURL,
		RunMigrations: !cfg.Store.SkipMigrations,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	logger.Info("store_opened", map[string]any{
		"driver": cfg.Store.Driver,
		"path":   cfg.Store.Path,
	})

	service := dispenser.NewService(st, dispenser.CooldownPolicy{
		Free: cfg.Cooldown.Free(),
		Paid: cfg.Cooldown.Paid(),
	})
	dispenserHandler := dispenser.NewHandler(service, authorizer, logger, cfg.TrustProxy)
	cleanupHandler := maintenance.NewCleanupHandler(service, logger, cfg.CronSecret)

	adminLimiter := adminauth.NewRateLimiter(
		cfg.Admin.RateLimitMax,
		cfg.Admin.RateLimitWindow(),
		cfg.TrustProxy,
	)

	mux := http.NewServeMux()
	dispenser.RegisterRoutes(mux, dispenserHandler, adminLimiter)
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(st))

	handler := cors.AllowAll().Handler(mux)
	handler = observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, cfg.TrustProxy, handler))

	return &Runtime{
		Config:  cfg,
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return st.Close()
		},
	}, nil
}

func newAuthorizer(cfg config.AdminConfig) (adminauth.Authorizer, error) {
	switch cfg.AuthMode {
	case config.AuthModeBcrypt:
		authorizer, err := adminauth.NewBcrypt(cfg.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("init admin authorizer: %w", err)
		}
		return authorizer, nil
	case config.AuthModeJWT:
		return adminauth.NewJWT(cfg.JWTSecret), nil
	default:
		return adminauth.NewStatic(cfg.Password), nil
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func healthHandler(st pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := st.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
