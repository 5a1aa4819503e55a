package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/account-console/internal/forms"
	"github.com/noah-isme/account-console/internal/handler"
	"github.com/noah-isme/account-console/internal/models"
	"github.com/noah-isme/account-console/internal/repository"
	"github.com/noah-isme/account-console/internal/service"
	"github.com/noah-isme/account-console/pkg/cache"
	"github.com/noah-isme/account-console/pkg/config"
	"github.com/noah-isme/account-console/pkg/logger"
	"github.com/noah-isme/account-console/pkg/secret"
)

// @title Account Console API
// @version 1.0.0
// @description Read-only JSON endpoints of the account console
// @BasePath /api/v1
// @schemes http https

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  serveRunE,
}

func serveRunE(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	var redisClient *redis.Client
	var store service.SessionStore
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close() //nolint:errcheck
		store = repository.NewRedisSessionRepository(redisClient)
	default:
		memory := repository.NewMemorySessionRepository()
		metrics.RegisterSessionGauge(memory.Count)
		store = memory
	}

	api := repository.NewAccountAPI(cfg.AccountAPI.BaseURL, cfg.AccountAPI.Timeout, metrics, logr)
	validate := validator.New()
	form, err := forms.Load(validate)
	if err != nil {
		return fmt.Errorf("failed to load user form: %w", err)
	}

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	levelsCache := service.NewCacheService(cacheRepo, metrics, cfg.Levels.CacheTTL, logr, cfg.Levels.CacheEnabled && redisClient != nil)
	if cfg.Levels.CacheEnabled && redisClient == nil {
		logr.Warn("levels cache requested without redis session store; caching disabled")
	}

	sessions := service.NewSessionService(store, service.SessionConfig{
		TTL:          cfg.Session.TTL,
		DefaultTheme: models.ParseTheme(cfg.Session.DefaultTheme),
		PageSize:     cfg.Listing.PageSize,
	}, logr)
	box, err := secret.NewBox(cfg.Session.Secret)
	if err != nil {
		return err
	}
	if cfg.Session.Secret == "" && redisClient != nil {
		logr.Warn("SESSION_SECRET unset; pending logins only complete on the instance that started them")
	}
	auth := service.NewAuthService(api, validate, metrics, box, service.AuthConfig{
		PendingTTL: cfg.Session.PendingTTL,
		SessionTTL: cfg.Session.TTL,
	}, logr)
	users := service.NewUserService(api, form, levelsCache, metrics, service.UserServiceConfig{
		PageSize:          cfg.Listing.PageSize,
		LevelsTTL:         cfg.Levels.CacheTTL,
		WriteVerification: cfg.Users.WriteVerification,
		DeactivateMode:    cfg.Users.DeactivateMode,
	}, logr)
	exports := service.NewExportService(users, nil, nil, logr)

	checks := map[string]handler.Pinger{"account_api": api}
	if redisClient != nil {
		checks["redis"] = cacheRepo
	}

	router, err := handler.NewRouter(handler.RouterDeps{
		Config:   cfg,
		Logger:   logr,
		Metrics:  metrics,
		Sessions: sessions,
	}, handler.Handlers{
		Auth:    handler.NewAuthHandler(auth, sessions),
		Users:   handler.NewUserHandler(users, exports, sessions),
		API:     handler.NewAPIHandler(users, sessions),
		Metrics: handler.NewMetricsHandler(metrics, checks),
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("account_api", cfg.AccountAPI.BaseURL),
			zap.String("session_store", cfg.Session.Store),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
