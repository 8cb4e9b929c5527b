package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/infrastructure/persistence"
	appErrors "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/errors"
)

func testBreakerConfig() persistence.BreakerConfig {
	return persistence.BreakerConfig{
		Name:             "test",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.5,
		MinRequests:      3,
	}
}

func TestBreakerOpensOnPersistentFailure(t *testing.T) {
	inner := &fakeNodeRepository{failures: 1000, err: appErrors.NewInternal("unavailable", nil)}
	repo := persistence.NewBreakerNodeRepository(inner, testBreakerConfig(), zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		_, err := repo.FindNodeByID(context.Background(), "node-1")
		require.Error(t, err)
	}
	callsWhenTripped := inner.calls.Load()

	// The circuit is now open: requests are rejected without reaching the
	// store.
	_, err := repo.FindNodeByID(context.Background(), "node-1")
	require.Error(t, err)
	assert.True(t, appErrors.IsInternal(err))
	assert.Equal(t, callsWhenTripped, inner.calls.Load())
}

func TestBreakerIgnoresDefinitiveOutcomes(t *testing.T) {
	inner := &fakeNodeRepository{failures: 1000, err: appErrors.NewNotFound("node missing")}
	repo := persistence.NewBreakerNodeRepository(inner, testBreakerConfig(), zaptest.NewLogger(t))

	// Not-found responses are answers, not store failures: the circuit
	// stays closed no matter how many arrive.
	for i := 0; i < 10; i++ {
		_, err := repo.FindNodeByID(context.Background(), "node-1")
		require.Error(t, err)
		assert.True(t, appErrors.IsNotFound(err))
	}
	assert.Equal(t, int32(10), inner.calls.Load())
}
