// Package handlers implements the ops endpoints: health probes, the
// collection registry and the domain settings currently in effect.
package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/domain"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/repository"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/api"
)

// Pinger proves the backing store can complete a round trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	pinger   Pinger
	errorLog repository.ErrorLogRepository
	logger   *zap.Logger
}

// NewHealthHandler creates a health handler over the connection manager.
// errorLog may be nil; failed probes are then only logged.
func NewHealthHandler(pinger Pinger, errorLog repository.ErrorLogRepository, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{pinger: pinger, errorLog: errorLog, logger: logger}
}

// Live reports that the process is running. It makes no remote calls, so a
// wedged store never turns liveness restarts into a crash loop.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	api.Success(w, http.StatusOK, api.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}

// Ready reports whether the engine can serve: the store must answer a full
// round trip.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	start := time.Now()
	err := h.pinger.Ping(r.Context())
	elapsed := time.Since(start)

	check := api.HealthCheck{
		Status:      "healthy",
		Duration:    elapsed,
		LastChecked: now,
	}
	status := "healthy"
	code := http.StatusOK

	if err != nil {
		h.logger.Warn("Readiness probe failed", zap.Error(err))
		if h.errorLog != nil {
			h.errorLog.RecordError(r.Context(), domain.NewErrorRecord("health", err))
		}
		check.Status = "unhealthy"
		check.Error = err.Error()
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	api.Success(w, code, api.HealthResponse{
		Status:    status,
		Timestamp: now,
		Checks:    map[string]api.HealthCheck{"firestore": check},
	})
}
