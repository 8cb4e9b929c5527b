package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/domain"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/repository"
	appErrors "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/errors"
)

// BreakerConfig configures the circuit breaker around the store.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns settings tuned for a remote document store:
// slow to trip, quick enough to recover.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// BreakerNodeRepository wraps a NodeRepository with a circuit breaker so a
// persistently failing store sheds requests instead of queueing them.
type BreakerNodeRepository struct {
	inner   repository.NodeRepository
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewBreakerNodeRepository wraps inner with circuit breaking.
func NewBreakerNodeRepository(inner repository.NodeRepository, config BreakerConfig, logger *zap.Logger) repository.NodeRepository {
	log := logger.Named("breaker")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < config.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Definitive outcomes are not store failures.
			return err == nil || appErrors.IsValidation(err) || appErrors.IsNotFound(err)
		},
	})

	return &BreakerNodeRepository{inner: inner, breaker: cb, logger: log}
}

func (r *BreakerNodeRepository) CreateNode(ctx context.Context, node *domain.KnowledgeNode) error {
	_, err := r.breaker.Execute(func() (any, error) {
		return nil, r.inner.CreateNode(ctx, node)
	})
	return r.mapBreakerError(err)
}

func (r *BreakerNodeRepository) FindNodeByID(ctx context.Context, id string) (*domain.KnowledgeNode, error) {
	result, err := r.breaker.Execute(func() (any, error) {
		return r.inner.FindNodeByID(ctx, id)
	})
	if err != nil {
		return nil, r.mapBreakerError(err)
	}
	return result.(*domain.KnowledgeNode), nil
}

func (r *BreakerNodeRepository) FindNodesByDomain(ctx context.Context, domainName string, limit int) ([]*domain.KnowledgeNode, error) {
	result, err := r.breaker.Execute(func() (any, error) {
		return r.inner.FindNodesByDomain(ctx, domainName, limit)
	})
	if err != nil {
		return nil, r.mapBreakerError(err)
	}
	return result.([]*domain.KnowledgeNode), nil
}

func (r *BreakerNodeRepository) DeleteNode(ctx context.Context, id string) error {
	_, err := r.breaker.Execute(func() (any, error) {
		return nil, r.inner.DeleteNode(ctx, id)
	})
	return r.mapBreakerError(err)
}

// mapBreakerError translates breaker rejections into the internal error
// taxonomy; other errors pass through unchanged.
func (r *BreakerNodeRepository) mapBreakerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState):
		return appErrors.NewInternal("store temporarily unavailable, circuit open", err)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return appErrors.NewInternal("store temporarily unavailable, recovery in progress", err)
	default:
		return err
	}
}
