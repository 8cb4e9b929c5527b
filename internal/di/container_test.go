package di

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/config"
)

func TestProvideLogger(t *testing.T) {
	cfg := &config.Config{}
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"

	logger, err := provideLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Debug("logger works")
}

func TestProvideLoggerRejectsUnknownLevel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "json"

	_, err := provideLogger(cfg)
	require.Error(t, err)
}

func TestShutdownRunsInReverseOrder(t *testing.T) {
	c := &Container{}

	var order []string
	c.addShutdownFunction(func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	c.addShutdownFunction(func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, c.Shutdown(context.Background()))
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestStaticDomainsProvider(t *testing.T) {
	d := config.Domains{ActiveDomains: []string{"scientific_research"}}
	assert.Equal(t, d, staticDomains{domains: d}.Domains())
}
