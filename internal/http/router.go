// Package http assembles the API router: platform middleware first, then
// every feature handler registers its own routes.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gatepass/internal/http/shared"
	"gatepass/internal/platform/metrics"
	"gatepass/internal/platform/middleware"
)

const requestTimeout = 60 * time.Second

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports the liveness of one backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// NewRouter builds the full route tree. checks maps dependency names to their
// health probes; nil checkers are skipped so memory-backed deployments report
// healthy with no dependencies.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, checks map[string]HealthChecker, handlers ...Registrar) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Latency(m))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/api/health", healthHandler(checks))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		for _, h := range handlers {
			h.Register(r)
		}
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				deps[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "up"
		}

		body := map[string]any{"status": "ok", "dependencies": deps}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		shared.WriteJSON(w, status, body)
	}
}
