package firebase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/config"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/firebase"
	appErrors "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/errors"
)

func testCollectionConfig() config.Collection {
	return config.Collection{
		RequestTimeout: time.Second,
		MaxRetries:     2,
	}
}

func countingFactory(calls *atomic.Int32) firebase.ClientFactory {
	return func(context.Context, config.Firebase) (*firestore.Client, error) {
		calls.Add(1)
		return nil, nil
	}
}

func TestConnectInitializesOnce(t *testing.T) {
	var factoryCalls atomic.Int32

	m := firebase.NewManager(
		config.Firebase{CredentialsPath: writeAccountFile(t, validAccountFields())},
		testCollectionConfig(),
		zaptest.NewLogger(t),
		firebase.WithClientFactory(countingFactory(&factoryCalls)),
		firebase.WithSelfTest(func(context.Context, *firestore.Client) error { return nil }),
	)

	// A concurrent cold start must collapse into a single initialization.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Connect(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), factoryCalls.Load())
}

func TestConnectCachesFailure(t *testing.T) {
	var factoryCalls, selfTestCalls atomic.Int32

	m := firebase.NewManager(
		config.Firebase{CredentialsPath: writeAccountFile(t, validAccountFields())},
		testCollectionConfig(),
		zaptest.NewLogger(t),
		firebase.WithClientFactory(countingFactory(&factoryCalls)),
		firebase.WithSelfTest(func(context.Context, *firestore.Client) error {
			selfTestCalls.Add(1)
			return errors.New("unavailable")
		}),
	)

	_, err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.IsRemoteInit(err))

	// One initial attempt plus the configured retries.
	assert.Equal(t, int32(3), selfTestCalls.Load())

	// The failure is terminal: later calls return the cached error without
	// touching the factory or the store again.
	_, again := m.Connect(context.Background())
	assert.Equal(t, err, again)
	assert.Equal(t, int32(1), factoryCalls.Load())
	assert.Equal(t, int32(3), selfTestCalls.Load())
}

func TestConnectMissingCredentialsNeverDialsOut(t *testing.T) {
	var factoryCalls atomic.Int32

	m := firebase.NewManager(
		config.Firebase{CredentialsPath: t.TempDir() + "/absent.json"},
		testCollectionConfig(),
		zaptest.NewLogger(t),
		firebase.WithClientFactory(countingFactory(&factoryCalls)),
	)

	_, err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.IsMissingCredentials(err))
	assert.Equal(t, int32(0), factoryCalls.Load())
}

func TestConnectMalformedCredentialsNeverDialsOut(t *testing.T) {
	var factoryCalls atomic.Int32

	fields := validAccountFields()
	fields["private_key"] = ""

	m := firebase.NewManager(
		config.Firebase{CredentialsPath: writeAccountFile(t, fields)},
		testCollectionConfig(),
		zaptest.NewLogger(t),
		firebase.WithClientFactory(countingFactory(&factoryCalls)),
	)

	_, err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.IsMalformedCredentials(err))
	assert.Equal(t, int32(0), factoryCalls.Load())
}

func TestConnectRetriesTransientSelfTestFailure(t *testing.T) {
	var factoryCalls, selfTestCalls atomic.Int32

	m := firebase.NewManager(
		config.Firebase{CredentialsPath: writeAccountFile(t, validAccountFields())},
		testCollectionConfig(),
		zaptest.NewLogger(t),
		firebase.WithClientFactory(countingFactory(&factoryCalls)),
		firebase.WithSelfTest(func(context.Context, *firestore.Client) error {
			if selfTestCalls.Add(1) < 3 {
				return errors.New("unavailable")
			}
			return nil
		}),
	)

	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), selfTestCalls.Load())
	assert.Equal(t, int32(1), factoryCalls.Load())
}

func TestPingBeforeConnect(t *testing.T) {
	m := firebase.NewManager(
		config.Firebase{CredentialsPath: "firebase-credentials.json"},
		testCollectionConfig(),
		zaptest.NewLogger(t),
	)

	err := m.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.IsRemoteInit(err))
}

func TestPingReflectsStoreHealth(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)

	m := firebase.NewManager(
		config.Firebase{CredentialsPath: writeAccountFile(t, validAccountFields())},
		testCollectionConfig(),
		zaptest.NewLogger(t),
		firebase.WithClientFactory(countingFactory(&atomic.Int32{})),
		firebase.WithSelfTest(func(context.Context, *firestore.Client) error {
			if healthy.Load() {
				return nil
			}
			return errors.New("unavailable")
		}),
	)

	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.NoError(t, m.Ping(context.Background()))

	healthy.Store(false)
	err = m.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.IsRemoteInit(err))
}
