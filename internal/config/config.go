// Package config centralizes all engine configuration.
// Configuration is loaded from (lowest to highest priority):
//  1. Default values (in code)
//  2. An optional dotenv file (.env)
//  3. An optional YAML overlay file (primarily for domains and weights,
//     which are awkward to express as environment variables)
//  4. Environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	appErrors "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/errors"
)

// Config holds all engine configuration.
type Config struct {
	// Environment names the deployment environment, used for log and trace
	// attribution.
	Environment string `validate:"oneof=development staging production"`

	Firebase   Firebase
	Engine     Engine
	Collection Collection
	Logging    Logging
	Server     Server
	Domains    Domains
}

// Firebase identifies the Firestore project and its service-account credentials.
type Firebase struct {
	// CredentialsPath points at the service account JSON file.
	CredentialsPath string `validate:"required"`
	ProjectID       string
}

// Engine controls the knowledge update cycle.
type Engine struct {
	// UpdateInterval is the time between knowledge update cycles.
	UpdateInterval time.Duration `validate:"gt=0"`
	// MaxDomainsPerCycle caps how many domains one cycle may process.
	MaxDomainsPerCycle int `validate:"gte=1"`
	// MinConfidenceThreshold gates knowledge integration decisions.
	MinConfidenceThreshold float64 `validate:"gte=0,lte=1"`
}

// Collection controls robustness of external data collection calls.
type Collection struct {
	RequestTimeout time.Duration `validate:"gt=0"`
	MaxRetries     int           `validate:"gte=0"`
}

// Logging configures the structured logger.
type Logging struct {
	Level    string `validate:"oneof=debug info warn error"`
	Format   string `validate:"oneof=json console"`
	FilePath string
}

// Server configures the operational HTTP surface (health, metrics).
type Server struct {
	Addr            string `validate:"required"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	// TracingEndpoint is the optional OTLP gRPC endpoint; tracing is
	// disabled when empty.
	TracingEndpoint string
}

// Domains holds the active domain list and the directed cross-domain
// relationship weights keyed by "source->target".
type Domains struct {
	ActiveDomains       []string           `validate:"min=1,dive,required"`
	RelationshipWeights map[string]float64 `validate:"dive,gte=0,lte=1"`
}

// Load builds the configuration from defaults, optional files and the
// environment, then validates it. Out-of-range values are rejected here
// rather than surfacing later as silent misbehavior.
func Load() (*Config, error) {
	// Missing dotenv files are fine; explicit settings win anyway.
	_ = godotenv.Load()

	cfg := defaultConfig()

	if err := applyOverlayFile(cfg, OverlayPath()); err != nil {
		return nil, appErrors.Wrap(err, "failed to load config overlay")
	}

	loadEnvironment(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns the documented defaults. The engine must always be
// constructible without any external configuration present.
func defaultConfig() *Config {
	return &Config{
		Environment: "development",
		Firebase: Firebase{
			CredentialsPath: "firebase-credentials.json",
			ProjectID:       "",
		},
		Engine: Engine{
			UpdateInterval:         6 * time.Hour,
			MaxDomainsPerCycle:     5,
			MinConfidenceThreshold: 0.7,
		},
		Collection: Collection{
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
		},
		Logging: Logging{
			Level:    "info",
			Format:   "json",
			FilePath: "logs/knowledge_engine.log",
		},
		Server: Server{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Domains: Domains{
			ActiveDomains: []string{
				"scientific_research",
				"technology_news",
				"academic_papers",
				"industry_reports",
			},
			RelationshipWeights: map[string]float64{
				"scientific_research->technology_news":  0.8,
				"academic_papers->industry_reports":     0.9,
				"technology_news->scientific_research":  0.7,
			},
		},
	}
}

// loadEnvironment overlays environment variables on the configuration.
// This is the highest priority configuration source.
func loadEnvironment(cfg *Config) {
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", cfg.Environment))

	cfg.Firebase.CredentialsPath = getEnv("FIREBASE_CREDENTIALS_PATH", cfg.Firebase.CredentialsPath)
	cfg.Firebase.ProjectID = getEnv("FIREBASE_PROJECT_ID", cfg.Firebase.ProjectID)

	if hours := getEnvInt("KNOWLEDGE_UPDATE_INTERVAL_HOURS", 0); hours > 0 {
		cfg.Engine.UpdateInterval = time.Duration(hours) * time.Hour
	}
	cfg.Engine.MaxDomainsPerCycle = getEnvInt("MAX_DOMAINS_PER_CYCLE", cfg.Engine.MaxDomainsPerCycle)
	cfg.Engine.MinConfidenceThreshold = getEnvFloat("MIN_CONFIDENCE_THRESHOLD", cfg.Engine.MinConfidenceThreshold)

	if secs := getEnvInt("REQUEST_TIMEOUT_SECONDS", 0); secs > 0 {
		cfg.Collection.RequestTimeout = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Collection.MaxRetries = n
		}
	}

	cfg.Logging.Level = strings.ToLower(getEnv("LOG_LEVEL", cfg.Logging.Level))
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.FilePath = getEnv("LOG_FILE_PATH", cfg.Logging.FilePath)

	cfg.Server.Addr = getEnv("SERVER_ADDR", cfg.Server.Addr)
	cfg.Server.TracingEndpoint = getEnv("TRACING_ENDPOINT", cfg.Server.TracingEndpoint)

	if v := os.Getenv("ACTIVE_DOMAINS"); v != "" {
		domains := strings.Split(v, ",")
		out := domains[:0]
		for _, d := range domains {
			if d = strings.TrimSpace(d); d != "" {
				out = append(out, d)
			}
		}
		cfg.Domains.ActiveDomains = out
	}
}

// Validate checks that all configured values are in range.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return appErrors.NewValidation(fmt.Sprintf("invalid configuration: %v", err))
	}

	// Weight keys must name a directed domain pair.
	for key := range c.Domains.RelationshipWeights {
		from, to, ok := strings.Cut(key, "->")
		if !ok || from == "" || to == "" {
			return appErrors.NewValidation(
				fmt.Sprintf("relationship weight key %q is not of the form source->target", key))
		}
	}

	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
