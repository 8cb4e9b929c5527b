// Package repository defines the data access contracts for the engine's
// Firestore collections. Interfaces live here so business code depends on
// behavior, not on the Firestore SDK, and tests can substitute fakes.
package repository

import (
	"context"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/domain"
)

// NodeRepository stores and retrieves knowledge nodes.
type NodeRepository interface {
	CreateNode(ctx context.Context, node *domain.KnowledgeNode) error
	FindNodeByID(ctx context.Context, id string) (*domain.KnowledgeNode, error)
	FindNodesByDomain(ctx context.Context, domainName string, limit int) ([]*domain.KnowledgeNode, error)
	DeleteNode(ctx context.Context, id string) error
}

// RelationRepository stores and retrieves directed cross-domain relations.
type RelationRepository interface {
	CreateRelation(ctx context.Context, relation *domain.CrossDomainRelation) error
	FindRelationsBySourceNode(ctx context.Context, nodeID string) ([]*domain.CrossDomainRelation, error)
	FindRelationsByDomainPair(ctx context.Context, sourceDomain, targetDomain string) ([]*domain.CrossDomainRelation, error)
}

// SourceRepository manages the monitored sources feeding each domain.
type SourceRepository interface {
	UpsertSource(ctx context.Context, source *domain.DomainSource) error
	ListActiveSources(ctx context.Context, domainName string) ([]*domain.DomainSource, error)
}

// HistoryRepository records completed update cycles.
type HistoryRepository interface {
	RecordIntegration(ctx context.Context, record *domain.IntegrationRecord) error
	LatestIntegration(ctx context.Context) (*domain.IntegrationRecord, error)
}

// ErrorLogRepository persists component failures. Implementations must never
// fail the calling operation: recording an error about an error is best
// effort.
type ErrorLogRepository interface {
	RecordError(ctx context.Context, record *domain.ErrorRecord)
}

// MetricsRepository stores evolution measurements per domain.
type MetricsRepository interface {
	RecordMetric(ctx context.Context, metric *domain.EvolutionMetric) error
	FindMetricsByDomain(ctx context.Context, domainName string, limit int) ([]*domain.EvolutionMetric, error)
}

// StatsRepository reports per-collection document counts for the ops surface.
type StatsRepository interface {
	CollectionCounts(ctx context.Context, collections []string) (map[string]int64, error)
}
