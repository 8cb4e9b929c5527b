// Package api defines the contracts for the operational HTTP surface.
// It decouples the response structures from the internal domain models.
package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// Success sends a standardized successful HTTP response with optional JSON data.
func Success(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error sends a standardized error response with consistent JSON format.
func Error(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// HealthResponse is the body returned by the liveness and readiness endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]HealthCheck `json:"checks,omitempty"`
}

// HealthCheck describes the outcome of a single dependency probe.
type HealthCheck struct {
	Status      string        `json:"status"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
	LastChecked time.Time     `json:"last_checked"`
}

// CollectionsResponse lists the fixed Firestore collection registry, with
// document counts when the store could report them.
type CollectionsResponse struct {
	Collections []string         `json:"collections"`
	Counts      map[string]int64 `json:"counts,omitempty"`
}

// DomainsResponse exposes the active domain list and the directed
// relationship weights currently in effect.
type DomainsResponse struct {
	ActiveDomains       []string           `json:"active_domains"`
	RelationshipWeights map[string]float64 `json:"relationship_weights"`
}
