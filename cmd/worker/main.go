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

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/crm/pkg/cache"
	"github.com/ghuser/crm/pkg/config"
	"github.com/ghuser/crm/pkg/events"
	"github.com/ghuser/crm/pkg/httpx"
	"github.com/ghuser/crm/pkg/logger"
	"github.com/ghuser/crm/pkg/telemetry"
	customerSubscribers "github.com/ghuser/crm/services/customer/application/subscribers"
)

// The worker consumes customer change events from the SQL bus and keeps the
// Redis customer cache in step. It exposes /health and /metrics only.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg).With("process", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("worker failed", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if cfg.StorageDriver != config.StoragePostgres {
		return fmt.Errorf("the worker consumes the SQL event bus and needs STORAGE_DRIVER=postgres, got %q", cfg.StorageDriver)
	}
	if !cfg.RedisEnabled() {
		return errors.New("the worker maintains the customer cache and needs REDIS_URL")
	}

	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		return fmt.Errorf("setup event bus: %w", err)
	}
	// Close waits up to 30s for in-flight handlers.
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close() //nolint:errcheck
	log.Info("redis connected")

	customers := cache.NewCustomerCache(redisClient, cfg.CustomerCacheTTL)
	if err := customerSubscribers.Register(ctx, eventBus, customers, log); err != nil {
		return fmt.Errorf("register subscribers: %w", err)
	}

	r := chi.NewRouter()
	r.Use(logger.Recovery(log))
	r.Get("/health", httpx.HealthHandler(httpx.HealthChecks{
		Storage:  cfg.StorageDriver,
		Version:  cfg.ServiceVersion,
		Redis:    redisClient,
		EventBus: eventBus,
	}))
	r.Get("/metrics", metricsHandler.ServeHTTP)

	srv := httpx.NewServer(cfg.WorkerHTTPAddr, r, httpx.ServerConfig{RequestTimeout: cfg.RequestTimeout})
	go func() {
		log.Info("worker probes listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("probe server error", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
