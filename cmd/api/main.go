package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/ghuser/crm/docs/swagger"
	"github.com/ghuser/crm/pkg/app"
	"github.com/ghuser/crm/pkg/auth"
	"github.com/ghuser/crm/pkg/cache"
	"github.com/ghuser/crm/pkg/config"
	"github.com/ghuser/crm/pkg/database"
	"github.com/ghuser/crm/pkg/events"
	"github.com/ghuser/crm/pkg/httpx"
	"github.com/ghuser/crm/pkg/logger"
	"github.com/ghuser/crm/pkg/telemetry"
	customerApi "github.com/ghuser/crm/services/customer/application/api"
	customerSubscribers "github.com/ghuser/crm/services/customer/application/subscribers"
)

// @title					Customer Registry API
// @version				1.0
// @description			Customer registry with an append-only audit trail.
// @contact.name			API Support
// @license.name			MIT
// @license.url			https://opensource.org/licenses/MIT
// @host					localhost:8080
// @BasePath				/api
// @schemes				http https
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

	log := logger.New(cfg)

	// Telemetry: OTel tracing + metrics
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	// Crash reporting: Sentry (optional; log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	appConfig := &app.Application{Config: cfg, Logger: log}
	checks := httpx.HealthChecks{Storage: cfg.StorageDriver, Version: cfg.ServiceVersion}

	switch cfg.StorageDriver {
	case config.StoragePostgres:
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1) //nolint:gocritic // intentional: startup failure, deferred flushes are best-effort
		}
		defer pool.Close()
		log.Info("database pool connected")

		// Messages are written to the outbox in the same transaction as the
		// customer row and its audit event; the forwarder relays them.
		eventBus, err := events.NewEventBusWithForwarder(cfg, log)
		if err != nil {
			log.Error("failed to setup event bus", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer eventBus.Close() //nolint:errcheck

		if err := eventBus.StartForwarder(ctx); err != nil {
			log.Error("failed to start event forwarder", "error", err)
			os.Exit(1) //nolint:gocritic
		}

		appConfig.Db = pool
		appConfig.EventBus = eventBus
		checks.Database = pool
		checks.EventBus = eventBus
	default:
		eventBus := events.NewInMemoryEventBus(log, events.WithHandlerRetry(cfg.EventHandlerAttempts, cfg.EventRetryBaseDelay))
		defer eventBus.Close() //nolint:errcheck

		appConfig.EventBus = eventBus
		checks.EventBus = eventBus
		log.Warn("using in-memory storage; customers and history are lost on restart")
	}

	if cfg.RedisEnabled() {
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1) //nolint:gocritic // intentional: startup failure
		}
		defer redisClient.Close() //nolint:errcheck
		log.Info("redis connected")

		appConfig.Redis = redisClient
		checks.Redis = redisClient
	}

	appConfig.SessionStore = newSessionStore(cfg, appConfig.Redis, log)

	// A single process has no worker to keep the cache in step, so the API
	// subscribes to its own in-memory bus.
	if cfg.StorageDriver == config.StorageMemory && appConfig.Redis != nil {
		customers := cache.NewCustomerCache(appConfig.Redis, cfg.CustomerCacheTTL)
		if err := customerSubscribers.Register(ctx, appConfig.EventBus, customers, log); err != nil {
			log.Error("failed to register subscribers", "error", err)
			os.Exit(1) //nolint:gocritic
		}
	}

	serverCfg := httpx.ServerConfig{
		ServiceName:        cfg.ServiceName,
		IsDevelopment:      cfg.Environment == config.EnvDevelopment,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RequestTimeout:     cfg.RequestTimeout,
	}
	r := httpx.NewRouter(serverCfg, httpx.Middlewares{
		Recovery: logger.Recovery(log),
		Sentry:   telemetry.SentryMiddleware(),
		Otel:     otelhttp.NewMiddleware(cfg.ServiceName),
		Logger:   logger.Middleware(log),
	})

	r.Get("/health", httpx.HealthHandler(checks))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.With(httpx.DocsCSP).Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	var routeErr error
	r.Route("/api", func(r chi.Router) {
		if cfg.AuthRequired {
			r.Use(auth.RequireAuth(appConfig.SessionStore, log))
		} else {
			r.Use(auth.LoadPrincipal(appConfig.SessionStore, log))
		}
		routeErr = registerRoutes(r, appConfig)
	})
	if routeErr != nil {
		log.Error("failed to register routes", "error", routeErr)
		os.Exit(1) //nolint:gocritic
	}

	srv := httpx.NewServer(cfg.HTTPAddr, r, serverCfg)

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// newSessionStore prefers Redis-backed sessions and falls back to signed,
// encrypted cookies when Redis is disabled.
func newSessionStore(cfg *config.Config, redisClient *cache.RedisClient, log logger.Logger) sessions.Store {
	var client *redis.Client
	backend := "cookie"
	if redisClient != nil {
		client, backend = redisClient.Client(), "redis"
	}
	log.Info("session store initialized", "backend", backend, "max_age", cfg.SessionMaxAge)
	return auth.NewStore(auth.SessionConfigFrom(cfg), client)
}

// registerRoutes mounts all service routes under /api.
// Add each new service's route function here.
func registerRoutes(r chi.Router, a *app.Application) error {
	return customerApi.CustomerRoutes(r, a)
}
