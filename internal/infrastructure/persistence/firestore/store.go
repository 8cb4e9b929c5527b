// Package firestore implements the repository contracts on top of a shared
// Firestore client. Every operation is bounded by the configured request
// timeout and reported to the metrics collector.
package firestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"go.uber.org/zap"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/config"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/domain"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/infrastructure/observability"
	appErrors "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/errors"
)

// Store implements every repository contract against Firestore. One store
// serves all collections; the shared client is owned by the connection
// manager, not the store.
type Store struct {
	client  *firestore.Client
	cfg     config.Collection
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewStore creates a store over an established client.
func NewStore(client *firestore.Client, cfg config.Collection, logger *zap.Logger, metrics *observability.Collector) *Store {
	return &Store{
		client:  client,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
}

// observe times op against collection and reports it. Returned for use with
// defer: stop := s.observe(...); defer func() { stop(err) }().
func (s *Store) observe(operation, collection string) func(error) {
	start := time.Now()
	return func(err error) {
		if s.metrics != nil {
			s.metrics.ObserveFirestoreOperation(operation, collection, time.Since(start), err)
		}
	}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.RequestTimeout)
}

// CreateNode stores a knowledge node under its own identity.
func (s *Store) CreateNode(ctx context.Context, node *domain.KnowledgeNode) (err error) {
	stop := s.observe("create", config.CollectionKnowledgeNodes)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.client.Collection(config.CollectionKnowledgeNodes).Doc(node.ID).Set(ctx, node)
	if err != nil {
		return appErrors.Wrap(err, fmt.Sprintf("failed to store knowledge node %s", node.ID))
	}
	return nil
}

// FindNodeByID retrieves one knowledge node.
func (s *Store) FindNodeByID(ctx context.Context, id string) (node *domain.KnowledgeNode, err error) {
	stop := s.observe("get", config.CollectionKnowledgeNodes)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	snap, err := s.client.Collection(config.CollectionKnowledgeNodes).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, appErrors.NewNotFound(fmt.Sprintf("knowledge node %s not found", id))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, fmt.Sprintf("failed to load knowledge node %s", id))
	}

	var out domain.KnowledgeNode
	if err := snap.DataTo(&out); err != nil {
		return nil, appErrors.Wrap(err, fmt.Sprintf("failed to decode knowledge node %s", id))
	}
	return &out, nil
}

// FindNodesByDomain lists the most recent nodes attributed to a domain.
func (s *Store) FindNodesByDomain(ctx context.Context, domainName string, limit int) (nodes []*domain.KnowledgeNode, err error) {
	stop := s.observe("query", config.CollectionKnowledgeNodes)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	iter := s.client.Collection(config.CollectionKnowledgeNodes).
		Where("domain", "==", domainName).
		OrderBy("created_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	for {
		snap, iterErr := iter.Next()
		if iterErr == iterator.Done {
			break
		}
		if iterErr != nil {
			return nil, appErrors.Wrap(iterErr, fmt.Sprintf("failed to query nodes for domain %s", domainName))
		}

		var node domain.KnowledgeNode
		if decodeErr := snap.DataTo(&node); decodeErr != nil {
			return nil, appErrors.Wrap(decodeErr, "failed to decode knowledge node")
		}
		nodes = append(nodes, &node)
	}
	return nodes, nil
}

// DeleteNode removes a knowledge node. Deleting an absent node is not an
// error.
func (s *Store) DeleteNode(ctx context.Context, id string) (err error) {
	stop := s.observe("delete", config.CollectionKnowledgeNodes)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.client.Collection(config.CollectionKnowledgeNodes).Doc(id).Delete(ctx)
	if err != nil {
		return appErrors.Wrap(err, fmt.Sprintf("failed to delete knowledge node %s", id))
	}
	return nil
}

// CreateRelation stores a directed cross-domain relation.
func (s *Store) CreateRelation(ctx context.Context, relation *domain.CrossDomainRelation) (err error) {
	stop := s.observe("create", config.CollectionCrossDomainRelations)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.client.Collection(config.CollectionCrossDomainRelations).Doc(relation.ID).Set(ctx, relation)
	if err != nil {
		return appErrors.Wrap(err, fmt.Sprintf("failed to store relation %s", relation.ID))
	}
	return nil
}

// FindRelationsBySourceNode lists relations originating at a node.
func (s *Store) FindRelationsBySourceNode(ctx context.Context, nodeID string) ([]*domain.CrossDomainRelation, error) {
	return s.queryRelations(ctx, func(c *firestore.CollectionRef) firestore.Query {
		return c.Where("source_node_id", "==", nodeID)
	})
}

// FindRelationsByDomainPair lists relations along one directed domain pair.
func (s *Store) FindRelationsByDomainPair(ctx context.Context, sourceDomain, targetDomain string) ([]*domain.CrossDomainRelation, error) {
	return s.queryRelations(ctx, func(c *firestore.CollectionRef) firestore.Query {
		return c.Where("source_domain", "==", sourceDomain).Where("target_domain", "==", targetDomain)
	})
}

func (s *Store) queryRelations(ctx context.Context, build func(*firestore.CollectionRef) firestore.Query) (relations []*domain.CrossDomainRelation, err error) {
	stop := s.observe("query", config.CollectionCrossDomainRelations)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	iter := build(s.client.Collection(config.CollectionCrossDomainRelations)).Documents(ctx)
	defer iter.Stop()

	for {
		snap, iterErr := iter.Next()
		if iterErr == iterator.Done {
			break
		}
		if iterErr != nil {
			return nil, appErrors.Wrap(iterErr, "failed to query cross-domain relations")
		}

		var relation domain.CrossDomainRelation
		if decodeErr := snap.DataTo(&relation); decodeErr != nil {
			return nil, appErrors.Wrap(decodeErr, "failed to decode cross-domain relation")
		}
		relations = append(relations, &relation)
	}
	return relations, nil
}

// UpsertSource creates or replaces a monitored source.
func (s *Store) UpsertSource(ctx context.Context, source *domain.DomainSource) (err error) {
	stop := s.observe("set", config.CollectionDomainSources)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.client.Collection(config.CollectionDomainSources).Doc(source.ID).Set(ctx, source)
	if err != nil {
		return appErrors.Wrap(err, fmt.Sprintf("failed to upsert source %s", source.ID))
	}
	return nil
}

// ListActiveSources lists the active sources for a domain.
func (s *Store) ListActiveSources(ctx context.Context, domainName string) (sources []*domain.DomainSource, err error) {
	stop := s.observe("query", config.CollectionDomainSources)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	iter := s.client.Collection(config.CollectionDomainSources).
		Where("domain", "==", domainName).
		Where("active", "==", true).
		Documents(ctx)
	defer iter.Stop()

	for {
		snap, iterErr := iter.Next()
		if iterErr == iterator.Done {
			break
		}
		if iterErr != nil {
			return nil, appErrors.Wrap(iterErr, fmt.Sprintf("failed to query sources for domain %s", domainName))
		}

		var source domain.DomainSource
		if decodeErr := snap.DataTo(&source); decodeErr != nil {
			return nil, appErrors.Wrap(decodeErr, "failed to decode domain source")
		}
		sources = append(sources, &source)
	}
	return sources, nil
}

// RecordIntegration stores the summary of a completed update cycle.
func (s *Store) RecordIntegration(ctx context.Context, record *domain.IntegrationRecord) (err error) {
	stop := s.observe("create", config.CollectionIntegrationHistory)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.client.Collection(config.CollectionIntegrationHistory).Doc(record.ID).Set(ctx, record)
	if err != nil {
		return appErrors.Wrap(err, "failed to store integration record")
	}
	return nil
}

// LatestIntegration returns the most recently started cycle, or NotFound when
// no cycle has run yet.
func (s *Store) LatestIntegration(ctx context.Context) (record *domain.IntegrationRecord, err error) {
	stop := s.observe("query", config.CollectionIntegrationHistory)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	iter := s.client.Collection(config.CollectionIntegrationHistory).
		OrderBy("started_at", firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, appErrors.NewNotFound("no integration cycles recorded")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to query integration history")
	}

	var out domain.IntegrationRecord
	if err := snap.DataTo(&out); err != nil {
		return nil, appErrors.Wrap(err, "failed to decode integration record")
	}
	return &out, nil
}

// RecordError persists a component failure. Failures here are logged and
// swallowed so an unreachable error log never masks the original problem.
func (s *Store) RecordError(ctx context.Context, record *domain.ErrorRecord) {
	var err error
	stop := s.observe("create", config.CollectionErrorLogs)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.client.Collection(config.CollectionErrorLogs).Doc(record.ID).Set(ctx, record)
	if err != nil {
		s.logger.Warn("Failed to persist error record",
			zap.String("component", record.Component),
			zap.String("kind", record.Kind),
			zap.Error(err),
		)
		return
	}

	if s.metrics != nil {
		s.metrics.ObserveErrorRecorded(record.Component, record.Kind)
	}
}

// RecordMetric stores one evolution measurement.
func (s *Store) RecordMetric(ctx context.Context, metric *domain.EvolutionMetric) (err error) {
	stop := s.observe("create", config.CollectionEvolutionMetrics)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err = s.client.Collection(config.CollectionEvolutionMetrics).Doc(metric.ID).Set(ctx, metric)
	if err != nil {
		return appErrors.Wrap(err, "failed to store evolution metric")
	}
	return nil
}

// FindMetricsByDomain lists recent measurements for a domain.
func (s *Store) FindMetricsByDomain(ctx context.Context, domainName string, limit int) (metrics []*domain.EvolutionMetric, err error) {
	stop := s.observe("query", config.CollectionEvolutionMetrics)
	defer func() { stop(err) }()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	iter := s.client.Collection(config.CollectionEvolutionMetrics).
		Where("domain", "==", domainName).
		OrderBy("recorded_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	for {
		snap, iterErr := iter.Next()
		if iterErr == iterator.Done {
			break
		}
		if iterErr != nil {
			return nil, appErrors.Wrap(iterErr, fmt.Sprintf("failed to query metrics for domain %s", domainName))
		}

		var metric domain.EvolutionMetric
		if decodeErr := snap.DataTo(&metric); decodeErr != nil {
			return nil, appErrors.Wrap(decodeErr, "failed to decode evolution metric")
		}
		metrics = append(metrics, &metric)
	}
	return metrics, nil
}

// CollectionCounts runs count aggregations for the given collections in
// parallel and returns the totals keyed by collection name.
func (s *Store) CollectionCounts(ctx context.Context, collections []string) (map[string]int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var mu sync.Mutex
	counts := make(map[string]int64, len(collections))

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range collections {
		name := name
		g.Go(func() (err error) {
			stop := s.observe("count", name)
			defer func() { stop(err) }()

			result, err := s.client.Collection(name).
				NewAggregationQuery().
				WithCount("count").
				Get(ctx)
			if err != nil {
				return appErrors.Wrap(err, fmt.Sprintf("failed to count collection %s", name))
			}

			value, ok := result["count"].(*firestorepb.Value)
			if !ok {
				return appErrors.NewInternal(fmt.Sprintf("unexpected count result for collection %s", name), nil)
			}

			mu.Lock()
			counts[name] = value.GetIntegerValue()
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
