// Package di wires the engine together: configuration, logging, the
// Firestore connection, repositories with their resilience decorators, the
// overlay watcher and the operational HTTP surface.
package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/interfaces/http/rest"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/interfaces/http/rest/handlers"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/config"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/firebase"
	firestorepersist "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/infrastructure/persistence/firestore"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/infrastructure/observability"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/infrastructure/tracing"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/repository"
)

// serviceName identifies the engine in traces and logs.
const serviceName = "knowledge-engine"

// Container holds all initialized components. Construction is fail-fast: if
// the Firestore connection cannot be established and verified, NewContainer
// returns the error and nothing else is built.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Collector

	Manager *firebase.Manager
	Store   *firestorepersist.Store

	Nodes     repository.NodeRepository
	Relations repository.RelationRepository
	Sources   repository.SourceRepository
	History   repository.HistoryRepository
	ErrorLog  repository.ErrorLogRepository
	Evolution repository.MetricsRepository
	Stats     repository.StatsRepository

	Watcher *config.Watcher
	Router  chi.Router
	Server  *http.Server

	shutdownFunctions []func(context.Context) error
}

// NewContainer builds the full dependency graph.
func NewContainer(ctx context.Context) (*Container, error) {
	c := &Container{}

	cfg, err := provideConfig()
	if err != nil {
		return nil, err
	}
	c.Config = cfg

	logger, err := provideLogger(cfg)
	if err != nil {
		return nil, err
	}
	c.Logger = logger
	c.addShutdownFunction(func(context.Context) error {
		// Sync errors on stdout are expected and harmless.
		_ = logger.Sync()
		return nil
	})

	c.Metrics = provideMetrics()

	if err := c.initializeConnection(ctx); err != nil {
		return nil, err
	}
	c.initializeRepositories()
	if err := c.initializeTracing(); err != nil {
		return nil, err
	}
	if err := c.initializeWatcher(); err != nil {
		return nil, err
	}
	c.initializeRouter()

	logger.Info("Container initialized",
		zap.String("environment", cfg.Environment),
		zap.String("addr", cfg.Server.Addr),
	)
	return c, nil
}

// initializeConnection establishes and verifies the Firestore connection.
// Failure here aborts startup; there is no degraded mode without a store.
func (c *Container) initializeConnection(ctx context.Context) error {
	c.Manager = provideManager(c.Config, c.Logger, c.Metrics)

	client, err := c.Manager.Connect(ctx)
	if err != nil {
		c.Logger.Error("Failed to establish Firestore connection", zap.Error(err))
		return err
	}
	c.addShutdownFunction(func(context.Context) error {
		return c.Manager.Close()
	})

	c.Store = firestorepersist.NewStore(client, c.Config.Collection, c.Logger.Named("store"), c.Metrics)
	return nil
}

// initializeRepositories layers decorators over the raw store. The node
// repository carries the full resilience stack; the remaining contracts use
// the store directly.
func (c *Container) initializeRepositories() {
	c.Nodes = provideNodeRepository(c.Store, c.Config, c.Logger)
	c.Relations = c.Store
	c.Sources = c.Store
	c.History = c.Store
	c.ErrorLog = c.Store
	c.Evolution = c.Store
	c.Stats = c.Store
}

// initializeTracing sets up OTLP tracing when an endpoint is configured and
// wraps the node repository so store operations emit spans.
func (c *Container) initializeTracing() error {
	endpoint := c.Config.Server.TracingEndpoint
	if endpoint == "" {
		c.Logger.Info("Tracing disabled, no endpoint configured")
		return nil
	}

	tp, err := tracing.InitTracing(serviceName, c.Config.Environment, endpoint)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	c.addShutdownFunction(tp.Shutdown)

	c.Nodes = tracing.TraceNodeRepository(c.Nodes, tp.Tracer())
	c.Logger.Info("Tracing initialized", zap.String("endpoint", endpoint))
	return nil
}

// initializeWatcher starts hot reloading of the domain settings from the
// overlay file. A missing overlay directory is not fatal; the engine then
// runs with the settings loaded at startup.
func (c *Container) initializeWatcher() error {
	path := config.OverlayPath()

	watcher, err := config.NewWatcher(path, c.Config.Domains, c.Logger.Named("config"))
	if err != nil {
		c.Logger.Warn("Config hot reload unavailable",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil
	}

	metrics := c.Metrics
	watcher.OnChange(func(config.Domains) {
		metrics.ObserveConfigReload(true)
	})
	watcher.Start()

	c.Watcher = watcher
	c.addShutdownFunction(func(context.Context) error {
		watcher.Stop()
		return nil
	})
	return nil
}

// staticDomains serves the startup domain settings when hot reload is
// unavailable.
type staticDomains struct {
	domains config.Domains
}

func (s staticDomains) Domains() config.Domains { return s.domains }

// initializeRouter assembles the ops HTTP surface.
func (c *Container) initializeRouter() {
	var domains handlers.DomainsProvider = staticDomains{domains: c.Config.Domains}
	if c.Watcher != nil {
		domains = c.Watcher
	}

	health := handlers.NewHealthHandler(c.Manager, c.ErrorLog, c.Logger.Named("health"))
	ops := handlers.NewOpsHandler(c.Stats, domains, c.Logger.Named("ops"))

	c.Router = rest.NewRouter(rest.RouterConfig{
		Health:         health,
		Ops:            ops,
		Metrics:        c.Metrics,
		Logger:         c.Logger.Named("http"),
		RequestTimeout: c.Config.Collection.RequestTimeout,
	})

	c.Server = &http.Server{
		Addr:    c.Config.Server.Addr,
		Handler: c.Router,
	}
}

// addShutdownFunction registers a cleanup step, run in reverse order.
func (c *Container) addShutdownFunction(fn func(context.Context) error) {
	c.shutdownFunctions = append(c.shutdownFunctions, fn)
}

// Shutdown releases all container resources in reverse initialization
// order. The first error is returned but later steps still run.
func (c *Container) Shutdown(ctx context.Context) error {
	var firstErr error
	for i := len(c.shutdownFunctions) - 1; i >= 0; i-- {
		if err := c.shutdownFunctions[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
