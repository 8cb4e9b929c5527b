package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/config"
	appErrors "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/errors"
)

// clearEnv removes every engine variable so defaults are actually exercised.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "FIREBASE_CREDENTIALS_PATH", "FIREBASE_PROJECT_ID",
		"KNOWLEDGE_UPDATE_INTERVAL_HOURS", "MAX_DOMAINS_PER_CYCLE",
		"MIN_CONFIDENCE_THRESHOLD", "REQUEST_TIMEOUT_SECONDS", "MAX_RETRIES",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_FILE_PATH", "SERVER_ADDR",
		"ACTIVE_DOMAINS", "TRACING_ENDPOINT",
	} {
		os.Unsetenv(key)
	}
	// Point the overlay at a path that does not exist.
	t.Setenv("ENGINE_CONFIG_FILE", filepath.Join(t.TempDir(), "engine.yaml"))
}

// TestLoadDefaults verifies the documented defaults load exactly when no
// environment overrides are present.
func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "firebase-credentials.json", cfg.Firebase.CredentialsPath)
	assert.Equal(t, "", cfg.Firebase.ProjectID)

	assert.Equal(t, 6*time.Hour, cfg.Engine.UpdateInterval)
	assert.Equal(t, 5, cfg.Engine.MaxDomainsPerCycle)
	assert.Equal(t, 0.7, cfg.Engine.MinConfidenceThreshold)

	assert.Equal(t, 30*time.Second, cfg.Collection.RequestTimeout)
	assert.Equal(t, 3, cfg.Collection.MaxRetries)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "logs/knowledge_engine.log", cfg.Logging.FilePath)

	assert.Equal(t, []string{
		"scientific_research",
		"technology_news",
		"academic_papers",
		"industry_reports",
	}, cfg.Domains.ActiveDomains)

	assert.Equal(t, map[string]float64{
		"scientific_research->technology_news": 0.8,
		"academic_papers->industry_reports":    0.9,
		"technology_news->scientific_research": 0.7,
	}, cfg.Domains.RelationshipWeights)
}

// TestLoadEnvironmentOverrides verifies environment variables take precedence
// over defaults.
func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FIREBASE_PROJECT_ID", "knowledge-engine-prod")
	t.Setenv("FIREBASE_CREDENTIALS_PATH", "/etc/engine/creds.json")
	t.Setenv("KNOWLEDGE_UPDATE_INTERVAL_HOURS", "12")
	t.Setenv("MIN_CONFIDENCE_THRESHOLD", "0.85")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("MAX_RETRIES", "0")
	t.Setenv("ACTIVE_DOMAINS", "patents, preprints")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "knowledge-engine-prod", cfg.Firebase.ProjectID)
	assert.Equal(t, "/etc/engine/creds.json", cfg.Firebase.CredentialsPath)
	assert.Equal(t, 12*time.Hour, cfg.Engine.UpdateInterval)
	assert.Equal(t, 0.85, cfg.Engine.MinConfidenceThreshold)
	assert.Equal(t, 5*time.Second, cfg.Collection.RequestTimeout)
	assert.Equal(t, 0, cfg.Collection.MaxRetries)
	assert.Equal(t, []string{"patents", "preprints"}, cfg.Domains.ActiveDomains)
}

// TestLoadRejectsOutOfRangeValues verifies out-of-range settings fail at load
// time instead of being accepted silently.
func TestLoadRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"confidence above one", "MIN_CONFIDENCE_THRESHOLD", "1.5"},
		{"confidence negative", "MIN_CONFIDENCE_THRESHOLD", "-0.1"},
		{"negative retries", "MAX_RETRIES", "-2"},
		{"bad log level", "LOG_LEVEL", "loud"},
		{"zero domains per cycle", "MAX_DOMAINS_PER_CYCLE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			require.Error(t, err)
			assert.True(t, appErrors.IsValidation(err), "expected validation error, got %v", err)
		})
	}
}

// TestLoadOverlayFile verifies the YAML overlay overrides defaults but yields
// to environment variables.
func TestLoadOverlayFile(t *testing.T) {
	clearEnv(t)

	overlay := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(overlay, []byte(`
active_domains:
  - clinical_trials
  - patents
relationship_weights:
  clinical_trials->patents: 0.6
min_confidence_threshold: 0.5
`), 0o644))
	t.Setenv("ENGINE_CONFIG_FILE", overlay)
	t.Setenv("MIN_CONFIDENCE_THRESHOLD", "0.9")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"clinical_trials", "patents"}, cfg.Domains.ActiveDomains)
	assert.Equal(t, map[string]float64{"clinical_trials->patents": 0.6}, cfg.Domains.RelationshipWeights)
	// Environment beats the overlay file.
	assert.Equal(t, 0.9, cfg.Engine.MinConfidenceThreshold)
}

// TestLoadRejectsMalformedWeightKey verifies weight keys must name a directed
// domain pair.
func TestLoadRejectsMalformedWeightKey(t *testing.T) {
	clearEnv(t)

	overlay := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(overlay, []byte(`
relationship_weights:
  not_a_pair: 0.4
`), 0o644))
	t.Setenv("ENGINE_CONFIG_FILE", overlay)

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

// TestLoadRejectsOutOfRangeWeight verifies every relationship weight is
// range-checked, not just the scalar thresholds.
func TestLoadRejectsOutOfRangeWeight(t *testing.T) {
	clearEnv(t)

	overlay := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(overlay, []byte(`
relationship_weights:
  scientific_research->technology_news: 1.2
`), 0o644))
	t.Setenv("ENGINE_CONFIG_FILE", overlay)

	_, err := config.Load()
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

// TestAllCollections verifies the fixed registry contents and order.
func TestAllCollections(t *testing.T) {
	collections := config.AllCollections()

	require.Len(t, collections, 6)
	assert.Equal(t, []string{
		"knowledge_nodes",
		"domain_sources",
		"cross_domain_relations",
		"integration_history",
		"error_logs",
		"evolution_metrics",
	}, collections)

	// Stable order across calls.
	assert.Equal(t, collections, config.AllCollections())
}
