package httpx

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const healthProbeTimeout = 2 * time.Second

// Probe results reported per dependency.
const (
	ProbeOK          = "ok"
	ProbeDisabled    = "disabled"
	ProbeUnreachable = "unreachable"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (database pool, RedisClient, EventBus).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks lists the dependencies probed by /health. A nil checker is
// reported as disabled and does not degrade the status, which is how the
// memory storage driver and a blank REDIS_URL show up.
type HealthChecks struct {
	Storage  string
	Version  string
	Database HealthChecker
	Redis    HealthChecker
	EventBus HealthChecker
}

type healthResponse struct {
	Status   string `json:"status"`
	Storage  string `json:"storage,omitempty"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	EventBus string `json:"event_bus"`
}

// HealthHandler probes every configured dependency in parallel and answers
// 503 with status "degraded" when any of them fails.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
		defer cancel()

		resp := healthResponse{Storage: checks.Storage, Version: checks.Version}

		var g errgroup.Group
		g.Go(func() error { resp.Database = probe(ctx, checks.Database); return nil })
		g.Go(func() error { resp.Redis = probe(ctx, checks.Redis); return nil })
		g.Go(func() error { resp.EventBus = probe(ctx, checks.EventBus); return nil })
		_ = g.Wait()

		resp.Status = "ok"
		status := http.StatusOK
		for _, s := range []string{resp.Database, resp.Redis, resp.EventBus} {
			if s == ProbeUnreachable {
				resp.Status, status = "degraded", http.StatusServiceUnavailable
			}
		}
		JSON(w, status, resp)
	}
}

func probe(ctx context.Context, c HealthChecker) string {
	if c == nil {
		return ProbeDisabled
	}
	if err := c.Ping(ctx); err != nil {
		return ProbeUnreachable
	}
	return ProbeOK
}
