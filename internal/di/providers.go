package di

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/config"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/firebase"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/infrastructure/observability"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/infrastructure/persistence"
	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/repository"
)

// provideConfig loads and validates the configuration.
func provideConfig() (*config.Config, error) {
	return config.Load()
}

// provideLogger builds the zap logger from the logging settings. The file
// sink is added alongside stdout when a path is configured.
func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	var zapCfg zap.Config
	if cfg.Logging.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	zapCfg.OutputPaths = []string{"stdout"}
	if cfg.Logging.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, cfg.Logging.FilePath)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// provideMetrics creates the engine's metrics collector.
func provideMetrics() *observability.Collector {
	return observability.NewCollector("engine")
}

// provideManager creates the connection manager. No I/O happens here;
// the container connects explicitly so startup can fail fast.
func provideManager(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector) *firebase.Manager {
	return firebase.NewManager(
		cfg.Firebase,
		cfg.Collection,
		logger.Named("firebase"),
		firebase.WithMetrics(metrics),
	)
}

// provideNodeRepository layers the decorators over the raw store: logging
// innermost so every attempt is visible, then retries, then the circuit
// breaker outermost so rejected requests never consume retry budget.
func provideNodeRepository(store repository.NodeRepository, cfg *config.Config, logger *zap.Logger) repository.NodeRepository {
	repo := persistence.NewLoggingNodeRepository(store, logger)
	repo = persistence.NewRetryNodeRepository(
		repo,
		persistence.DefaultRetryConfig(cfg.Collection.MaxRetries),
		logger,
	)
	return persistence.NewBreakerNodeRepository(
		repo,
		persistence.DefaultBreakerConfig("firestore-nodes"),
		logger,
	)
}
