// Package http exposes the rating engine over a chi router.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RateCraft/internal/interfaces/http/handlers"
	"github.com/turtacn/RateCraft/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and infrastructure the route tree
// needs.  Nil handlers leave their routes unmounted.
type RouterConfig struct {
	PremiumHandler *handlers.PremiumHandler
	HealthHandler  *handlers.HealthHandler

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	Logging          middleware.LoggingConfig
	MaxBodySize      int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestContext)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogging(cfg.Logger, cfg.Metrics, cfg.Logging))
	r.Use(chimw.Recoverer)

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.MaxBodySize(cfg.MaxBodySize))
		if h := cfg.PremiumHandler; h != nil {
			api.Post("/premiums/calculate", h.Calculate)
			api.Get("/metrics/performance", h.Performance)
			api.Delete("/cache/states/{state}", h.InvalidateState)
		}
	})

	return r
}

//Personal.AI order the ending
