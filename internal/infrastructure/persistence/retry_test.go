package persistence_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/domain"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/infrastructure/persistence"
	appErrors "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/errors"
)

// fakeNodeRepository counts calls and fails until failures is exhausted.
type fakeNodeRepository struct {
	calls    atomic.Int32
	failures int32
	err      error
}

func (f *fakeNodeRepository) do() error {
	if f.calls.Add(1) <= f.failures {
		return f.err
	}
	return nil
}

func (f *fakeNodeRepository) CreateNode(context.Context, *domain.KnowledgeNode) error {
	return f.do()
}

func (f *fakeNodeRepository) FindNodeByID(context.Context, string) (*domain.KnowledgeNode, error) {
	if err := f.do(); err != nil {
		return nil, err
	}
	return &domain.KnowledgeNode{ID: "node-1"}, nil
}

func (f *fakeNodeRepository) FindNodesByDomain(context.Context, string, int) ([]*domain.KnowledgeNode, error) {
	if err := f.do(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *fakeNodeRepository) DeleteNode(context.Context, string) error {
	return f.do()
}

func fastRetryConfig(maxRetries int) persistence.RetryConfig {
	return persistence.RetryConfig{
		MaxRetries:    maxRetries,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	inner := &fakeNodeRepository{failures: 2, err: appErrors.NewInternal("unavailable", nil)}
	repo := persistence.NewRetryNodeRepository(inner, fastRetryConfig(3), zaptest.NewLogger(t))

	node, err := repo.FindNodeByID(context.Background(), "node-1")
	require.NoError(t, err)
	assert.Equal(t, "node-1", node.ID)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestRetryGivesUpAfterLimit(t *testing.T) {
	inner := &fakeNodeRepository{failures: 100, err: appErrors.NewInternal("unavailable", nil)}
	repo := persistence.NewRetryNodeRepository(inner, fastRetryConfig(2), zaptest.NewLogger(t))

	_, err := repo.FindNodeByID(context.Background(), "node-1")
	require.Error(t, err)
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestRetryStopsOnNotFound(t *testing.T) {
	inner := &fakeNodeRepository{failures: 100, err: appErrors.NewNotFound("node missing")}
	repo := persistence.NewRetryNodeRepository(inner, fastRetryConfig(3), zaptest.NewLogger(t))

	_, err := repo.FindNodeByID(context.Background(), "node-1")
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestRetryCreateIsConservative(t *testing.T) {
	inner := &fakeNodeRepository{failures: 100, err: appErrors.NewInternal("unavailable", nil)}
	repo := persistence.NewRetryNodeRepository(inner, fastRetryConfig(5), zaptest.NewLogger(t))

	node, err := domain.NewKnowledgeNode("scientific_research", "t", "c", 0.5)
	require.NoError(t, err)

	require.Error(t, repo.CreateNode(context.Background(), node))
	// One attempt plus at most one retry, regardless of the configured limit.
	assert.Equal(t, int32(2), inner.calls.Load())
}
