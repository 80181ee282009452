// Package main is the entrypoint for the AgentPulse API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentpulse/agentpulse/internal/alert"
	"github.com/agentpulse/agentpulse/internal/api"
	"github.com/agentpulse/agentpulse/internal/api/handler"
	mw "github.com/agentpulse/agentpulse/internal/api/middleware"
	"github.com/agentpulse/agentpulse/internal/api/response"
	"github.com/agentpulse/agentpulse/internal/cache"
	"github.com/agentpulse/agentpulse/internal/config"
	"github.com/agentpulse/agentpulse/internal/ingest"
	"github.com/agentpulse/agentpulse/internal/store"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Select the storage backend
	var st store.Store
	if cfg.Database.URL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory store; readings will not survive restarts")
		st = store.NewMemoryStore()
	} else {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pool.Close()
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied")

		st = store.NewPostgresStore(pool)
	}

	// 3. Redis is optional: without it, rate limiting and status-page
	// caching are disabled.
	var ca cache.Cache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected")
		ca = redisCache
	} else {
		slog.Warn("REDIS_URL not set, rate limiting and status caching disabled")
	}

	// 4. Wire the ingestion pipeline
	notifier := alert.NewWebhookNotifier(cfg.Alert.WebhookTimeout)
	evaluator := alert.NewEvaluator(st, notifier)
	ingestSvc := ingest.NewService(st, evaluator)

	// 5. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(st),
		UserAuth:  mw.NewUserAuth(cfg.Session.JWTSecret),
		RateLimit: mw.NewRateLimit(ca, 60),

		HealthHandler: healthHandler(st, ca),

		ReportHandler: handler.NewReportHandler(ingestSvc),

		DashboardHandler: handler.NewDashboardHandler(st),
		HistoryHandler:   handler.NewHistoryHandler(st),
		AgentsHandler:    handler.NewAgentsHandler(st),
		StatusHandler:    handler.NewStatusHandler(st, ca),

		CreateWorkspace: handler.NewCreateWorkspaceHandler(st),
		UpdateSettings:  handler.NewUpdateSettingsHandler(st),
		CreateInvite:    handler.NewCreateInviteHandler(st, cfg.Session.InviteTTL),
		ValidateInvite:  handler.NewValidateInviteHandler(st),
		AcceptInvite:    handler.NewAcceptInviteHandler(st),
	}

	router := api.NewRouter(deps)

	// 6. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks store and cache connectivity.
func healthHandler(s store.Store, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"store": "ok",
			"cache": "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["store"] = "degraded"
		}
		if c == nil {
			checks["cache"] = "disabled"
		} else if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		if checks["store"] != "ok" {
			response.Error(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
