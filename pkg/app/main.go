package app

import (
	"github.com/gorilla/sessions"

	"github.com/ghuser/crm/pkg/cache"
	"github.com/ghuser/crm/pkg/config"
	"github.com/ghuser/crm/pkg/database"
	"github.com/ghuser/crm/pkg/events"
	"github.com/ghuser/crm/pkg/logger"
)

// Application holds shared infrastructure dependencies for all services.
// Pass it to every service's route registration during server initialization.
//
// Logging: app.Logger is backed by a trace-aware handler; use slog's context
// methods and trace_id, span_id and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "customer created", "customer_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config       *config.Config
	Db           *database.Database // nil with STORAGE_DRIVER=memory
	Logger       logger.Logger
	EventBus     *events.EventBus
	Redis        *cache.RedisClient // nil when REDIS_URL is empty
	SessionStore sessions.Store     // nil in the worker process
}
