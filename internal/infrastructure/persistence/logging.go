package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/domain"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/repository"
)

// slowThreshold marks store calls worth a warning even when they succeed.
const slowThreshold = time.Second

// LoggingNodeRepository wraps a NodeRepository so every operation is logged
// with its outcome and duration.
type LoggingNodeRepository struct {
	inner  repository.NodeRepository
	logger *zap.Logger
}

// NewLoggingNodeRepository wraps inner with operation logging.
func NewLoggingNodeRepository(inner repository.NodeRepository, logger *zap.Logger) repository.NodeRepository {
	return &LoggingNodeRepository{
		inner:  inner,
		logger: logger.Named("node_repository"),
	}
}

func (r *LoggingNodeRepository) CreateNode(ctx context.Context, node *domain.KnowledgeNode) error {
	start := time.Now()
	err := r.inner.CreateNode(ctx, node)
	r.log("CreateNode", start, err,
		zap.String("node_id", node.ID),
		zap.String("domain", node.Domain),
	)
	return err
}

func (r *LoggingNodeRepository) FindNodeByID(ctx context.Context, id string) (*domain.KnowledgeNode, error) {
	start := time.Now()
	node, err := r.inner.FindNodeByID(ctx, id)
	r.log("FindNodeByID", start, err, zap.String("node_id", id))
	return node, err
}

func (r *LoggingNodeRepository) FindNodesByDomain(ctx context.Context, domainName string, limit int) ([]*domain.KnowledgeNode, error) {
	start := time.Now()
	nodes, err := r.inner.FindNodesByDomain(ctx, domainName, limit)
	r.log("FindNodesByDomain", start, err,
		zap.String("domain", domainName),
		zap.Int("results", len(nodes)),
	)
	return nodes, err
}

func (r *LoggingNodeRepository) DeleteNode(ctx context.Context, id string) error {
	start := time.Now()
	err := r.inner.DeleteNode(ctx, id)
	r.log("DeleteNode", start, err, zap.String("node_id", id))
	return err
}

func (r *LoggingNodeRepository) log(operation string, start time.Time, err error, fields ...zap.Field) {
	elapsed := time.Since(start)
	fields = append(fields,
		zap.String("operation", operation),
		zap.Duration("duration", elapsed),
	)

	switch {
	case err != nil:
		r.logger.Warn("Store operation failed", append(fields, zap.Error(err))...)
	case elapsed > slowThreshold:
		r.logger.Warn("Slow store operation", fields...)
	default:
		r.logger.Debug("Store operation completed", fields...)
	}
}
