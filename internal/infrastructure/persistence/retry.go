// Package persistence provides resilience decorators layered over the
// Firestore repositories: bounded retries with exponential backoff and a
// circuit breaker that sheds load when the store is persistently failing.
package persistence

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/domain"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/repository"
	appErrors "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/errors"
)

// RetryConfig configures retry behavior for repository operations.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterFactor  float64
}

// DefaultRetryConfig returns the retry defaults, with the attempt count
// taken from the collection settings.
func DefaultRetryConfig(maxRetries int) RetryConfig {
	return RetryConfig{
		MaxRetries:    maxRetries,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// RetryNodeRepository adds retry logic to NodeRepository operations. Reads
// and deletes are idempotent and retried up to the configured limit; creates
// are retried at most once.
type RetryNodeRepository struct {
	inner  repository.NodeRepository
	config RetryConfig
	logger *zap.Logger
	rand   *rand.Rand
}

// NewRetryNodeRepository wraps inner with retry behavior.
func NewRetryNodeRepository(inner repository.NodeRepository, config RetryConfig, logger *zap.Logger) repository.NodeRepository {
	return &RetryNodeRepository{
		inner:  inner,
		config: config,
		logger: logger.Named("retry"),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *RetryNodeRepository) CreateNode(ctx context.Context, node *domain.KnowledgeNode) error {
	// Creates use the node's own identity as the document key, so a replay
	// overwrites rather than duplicates. Still kept to a single retry.
	return r.executeWithRetry(ctx, "CreateNode", func() error {
		return r.inner.CreateNode(ctx, node)
	}, false)
}

func (r *RetryNodeRepository) FindNodeByID(ctx context.Context, id string) (*domain.KnowledgeNode, error) {
	var result *domain.KnowledgeNode
	err := r.executeWithRetry(ctx, "FindNodeByID", func() error {
		var err error
		result, err = r.inner.FindNodeByID(ctx, id)
		return err
	}, true)
	return result, err
}

func (r *RetryNodeRepository) FindNodesByDomain(ctx context.Context, domainName string, limit int) ([]*domain.KnowledgeNode, error) {
	var result []*domain.KnowledgeNode
	err := r.executeWithRetry(ctx, "FindNodesByDomain", func() error {
		var err error
		result, err = r.inner.FindNodesByDomain(ctx, domainName, limit)
		return err
	}, true)
	return result, err
}

func (r *RetryNodeRepository) DeleteNode(ctx context.Context, id string) error {
	return r.executeWithRetry(ctx, "DeleteNode", func() error {
		return r.inner.DeleteNode(ctx, id)
	}, true)
}

// executeWithRetry implements the core retry loop with exponential backoff.
func (r *RetryNodeRepository) executeWithRetry(ctx context.Context, operation string, fn func() error, idempotent bool) error {
	maxRetries := r.config.MaxRetries
	if !idempotent && maxRetries > 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled before attempt %d: %w", attempt+1, err)
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				r.logger.Info("Operation succeeded after retry",
					zap.String("operation", operation),
					zap.Int("attempt", attempt+1),
				)
			}
			return nil
		}
		lastErr = err

		if attempt >= maxRetries || !isRetryable(err) {
			break
		}

		delay := r.calculateDelay(attempt)
		r.logger.Warn("Retrying operation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry delay: %w", ctx.Err())
		}
	}
	return lastErr
}

// isRetryable reports whether an error may be transient. Validation and
// not-found outcomes are definitive and never retried.
func isRetryable(err error) bool {
	return !appErrors.IsValidation(err) && !appErrors.IsNotFound(err)
}

// calculateDelay computes exponential backoff with jitter for an attempt.
func (r *RetryNodeRepository) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	jitter := delay * r.config.JitterFactor * (2*r.rand.Float64() - 1)
	return time.Duration(delay + jitter)
}
