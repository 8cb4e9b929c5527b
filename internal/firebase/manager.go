package firebase

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/config"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/infrastructure/observability"
	appErrors "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/errors"
)

// selfTestDocument is the fixed document the connectivity self-test writes
// and removes. Keeping the path constant means leaked documents from crashed
// runs are overwritten rather than accumulated.
const selfTestDocument = "connectivity"

// ClientFactory builds a Firestore client after the credentials file has
// passed local checks. Tests substitute this to avoid real network I/O.
type ClientFactory func(ctx context.Context, cfg config.Firebase) (*firestore.Client, error)

// SelfTestFunc proves a client can complete a round trip against the store.
type SelfTestFunc func(ctx context.Context, client *firestore.Client) error

// Manager owns the engine's single Firestore connection. Initialization is
// performed at most once: concurrent and repeated Connect calls share one
// attempt, and its outcome, success or failure, is cached for the lifetime
// of the manager. A failed manager never retries on later calls; the process
// is expected to treat that as fatal.
type Manager struct {
	firebaseCfg   config.Firebase
	collectionCfg config.Collection
	logger        *zap.Logger
	metrics       *observability.Collector

	factory  ClientFactory
	selfTest SelfTestFunc
	rand     *rand.Rand

	once      sync.Once
	connected bool
	client    *firestore.Client
	err       error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClientFactory replaces the SDK-backed client constructor.
func WithClientFactory(factory ClientFactory) Option {
	return func(m *Manager) { m.factory = factory }
}

// WithSelfTest replaces the connectivity self-test.
func WithSelfTest(selfTest SelfTestFunc) Option {
	return func(m *Manager) { m.selfTest = selfTest }
}

// WithMetrics wires connection metrics into the given collector.
func WithMetrics(collector *observability.Collector) Option {
	return func(m *Manager) { m.metrics = collector }
}

// NewManager creates a manager. No I/O happens until Connect.
func NewManager(firebaseCfg config.Firebase, collectionCfg config.Collection, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		firebaseCfg:   firebaseCfg,
		collectionCfg: collectionCfg,
		logger:        logger,
		rand:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	m.factory = m.defaultFactory
	m.selfTest = m.defaultSelfTest

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect returns the shared Firestore client, initializing it on first use.
// Every caller observes the same outcome as the first: a cached client on
// success, the original error on failure.
func (m *Manager) Connect(ctx context.Context) (*firestore.Client, error) {
	m.once.Do(func() {
		m.client, m.err = m.connect(ctx)
		m.connected = m.err == nil
		if m.metrics != nil {
			m.metrics.ObserveConnectAttempt(m.err == nil)
		}
	})
	return m.client, m.err
}

// Ping runs one connectivity round trip against the established client,
// bounded by the configured request timeout. It never triggers
// initialization.
func (m *Manager) Ping(ctx context.Context) error {
	if !m.connected {
		if m.err != nil {
			return m.err
		}
		return appErrors.NewRemoteInit("connection has not been established", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, m.collectionCfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	err := m.selfTest(ctx, m.client)
	if m.metrics != nil {
		m.metrics.ObserveSelfTest(time.Since(start))
	}
	if err != nil {
		return appErrors.NewRemoteInit("connectivity check failed", err)
	}
	return nil
}

// Close releases the client if one was established.
func (m *Manager) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

func (m *Manager) connect(ctx context.Context) (*firestore.Client, error) {
	// Credential problems are diagnosed locally before any network I/O, so
	// a missing or corrupt file fails fast and is never retried.
	account, err := LoadServiceAccount(m.firebaseCfg.CredentialsPath)
	if err != nil {
		m.logger.Error("Credential check failed",
			zap.String("path", m.firebaseCfg.CredentialsPath),
			zap.Error(err),
		)
		return nil, err
	}

	projectID := m.firebaseCfg.ProjectID
	if projectID == "" {
		projectID = account.ProjectID
	}

	client, err := m.factory(ctx, m.firebaseCfg)
	if err != nil {
		m.logger.Error("Firestore client initialization failed", zap.Error(err))
		return nil, appErrors.NewRemoteInit("failed to initialize Firestore client", err)
	}

	if err := m.verifyConnectivity(ctx, client); err != nil {
		if client != nil {
			client.Close()
		}
		return nil, err
	}

	m.logger.Info("Firestore connection established",
		zap.String("project_id", projectID),
		zap.String("client_email", account.ClientEmail),
	)
	return client, nil
}

// verifyConnectivity runs the self-test with bounded exponential backoff.
// Only this remote step is retried; the configured retry count does not
// apply to local credential checks.
func (m *Manager) verifyConnectivity(ctx context.Context, client *firestore.Client) error {
	var lastErr error

	for attempt := 0; attempt <= m.collectionCfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return appErrors.NewRemoteInit("connection attempt cancelled", err)
		}

		attemptCtx, cancel := context.WithTimeout(ctx, m.collectionCfg.RequestTimeout)
		start := time.Now()
		err := m.selfTest(attemptCtx, client)
		cancel()

		if m.metrics != nil {
			m.metrics.ObserveSelfTest(time.Since(start))
		}

		if err == nil {
			if attempt > 0 {
				m.logger.Info("Connectivity self-test succeeded after retry",
					zap.Int("attempt", attempt+1))
			}
			return nil
		}
		lastErr = err

		if attempt >= m.collectionCfg.MaxRetries {
			break
		}

		delay := m.backoffDelay(attempt)
		m.logger.Warn("Connectivity self-test failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return appErrors.NewRemoteInit("connection attempt cancelled", ctx.Err())
		}
	}

	return appErrors.NewRemoteInit("connectivity self-test failed", lastErr)
}

// backoffDelay computes the exponential backoff with jitter for a retry.
func (m *Manager) backoffDelay(attempt int) time.Duration {
	const (
		initialDelay  = 500 * time.Millisecond
		maxDelay      = 10 * time.Second
		backoffFactor = 2.0
		jitterFactor  = 0.1
	)

	delay := float64(initialDelay) * math.Pow(backoffFactor, float64(attempt))
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}
	jitter := delay * jitterFactor * (2*m.rand.Float64() - 1)
	return time.Duration(delay + jitter)
}

// defaultFactory initializes the Firebase app with the credentials file and
// opens its Firestore client.
func (m *Manager) defaultFactory(ctx context.Context, cfg config.Firebase) (*firestore.Client, error) {
	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, err
	}
	return app.Firestore(ctx)
}

// defaultSelfTest writes and removes a probe document, proving both reads of
// SDK state and a full write round trip against the live store.
func (m *Manager) defaultSelfTest(ctx context.Context, client *firestore.Client) error {
	doc := client.Collection(config.CollectionConnectionTest).Doc(selfTestDocument)

	if _, err := doc.Set(ctx, map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"status":    "ok",
	}); err != nil {
		return err
	}

	_, err := doc.Delete(ctx)
	return err
}
