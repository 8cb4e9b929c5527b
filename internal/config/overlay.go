package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Overlay is the YAML-file shape for runtime-tunable settings. Only the
// fields present in the file override the in-code defaults.
type Overlay struct {
	ActiveDomains       []string           `yaml:"active_domains"`
	RelationshipWeights map[string]float64 `yaml:"relationship_weights"`
	MinConfidence       *float64           `yaml:"min_confidence_threshold"`
}

// OverlayPath returns the configured overlay file location.
func OverlayPath() string {
	return getEnv("ENGINE_CONFIG_FILE", "config/engine.yaml")
}

// applyOverlayFile merges the overlay file at path into cfg. A missing file
// is not an error; a present but unparseable file is.
func applyOverlayFile(cfg *Config, path string) error {
	overlay, err := readOverlay(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	overlay.apply(cfg)
	return nil
}

// readOverlay parses the overlay file at path.
func readOverlay(path string) (*Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var overlay Overlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &overlay, nil
}

func (o *Overlay) apply(cfg *Config) {
	if len(o.ActiveDomains) > 0 {
		cfg.Domains.ActiveDomains = o.ActiveDomains
	}
	if len(o.RelationshipWeights) > 0 {
		cfg.Domains.RelationshipWeights = o.RelationshipWeights
	}
	if o.MinConfidence != nil {
		cfg.Engine.MinConfidenceThreshold = *o.MinConfidence
	}
}
