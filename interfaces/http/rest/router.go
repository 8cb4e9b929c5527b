// Package rest assembles the chi router for the engine's operational HTTP
// surface.
package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/interfaces/http/rest/handlers"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/infrastructure/observability"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/middleware"
)

// RouterConfig carries the dependencies of the ops surface.
type RouterConfig struct {
	Health         *handlers.HealthHandler
	Ops            *handlers.OpsHandler
	Metrics        *observability.Collector
	Logger         *zap.Logger
	RequestTimeout time.Duration
}

// NewRouter builds the ops router: health probes, Prometheus metrics and the
// read-only configuration endpoints.
func NewRouter(cfg RouterConfig) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(observability.MetricsMiddleware(cfg.Metrics))
	router.Use(middleware.Timeout(cfg.RequestTimeout, cfg.Logger))

	router.Get("/health/live", cfg.Health.Live)
	router.Get("/health/ready", cfg.Health.Ready)
	router.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/collections", cfg.Ops.Collections)
		r.Get("/config/domains", cfg.Ops.Domains)
	})

	return router
}
