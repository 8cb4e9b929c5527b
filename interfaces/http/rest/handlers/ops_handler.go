package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/config"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/repository"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/api"
)

// DomainsProvider yields the domain settings currently in effect, including
// any hot-reloaded overlay changes.
type DomainsProvider interface {
	Domains() config.Domains
}

// OpsHandler serves the collection registry and domain configuration
// endpoints.
type OpsHandler struct {
	stats   repository.StatsRepository
	domains DomainsProvider
	logger  *zap.Logger
}

// NewOpsHandler creates the ops handler. stats may be nil when the store is
// unavailable; the registry is still served without counts.
func NewOpsHandler(stats repository.StatsRepository, domains DomainsProvider, logger *zap.Logger) *OpsHandler {
	return &OpsHandler{stats: stats, domains: domains, logger: logger}
}

// Collections lists the fixed collection registry with live document counts.
func (h *OpsHandler) Collections(w http.ResponseWriter, r *http.Request) {
	resp := api.CollectionsResponse{Collections: config.AllCollections()}

	if h.stats != nil {
		counts, err := h.stats.CollectionCounts(r.Context(), resp.Collections)
		if err != nil {
			// The registry itself is static configuration; report it even
			// when counting fails.
			h.logger.Warn("Failed to count collections", zap.Error(err))
		} else {
			resp.Counts = counts
		}
	}

	api.Success(w, http.StatusOK, resp)
}

// Domains reports the active domains and relationship weights in effect.
func (h *OpsHandler) Domains(w http.ResponseWriter, _ *http.Request) {
	d := h.domains.Domains()
	api.Success(w, http.StatusOK, api.DomainsResponse{
		ActiveDomains:       d.ActiveDomains,
		RelationshipWeights: d.RelationshipWeights,
	})
}
