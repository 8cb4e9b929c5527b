// Package domain defines the records stored in the engine's Firestore
// collections. These are deliberately thin: the integration algorithms that
// produce them live outside this repository.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/pkg/errors"
)

// KnowledgeNode is a unit of integrated knowledge attributed to one domain.
type KnowledgeNode struct {
	ID         string    `firestore:"id"`
	Domain     string    `firestore:"domain"`
	Title      string    `firestore:"title"`
	Content    string    `firestore:"content"`
	Confidence float64   `firestore:"confidence"`
	CreatedAt  time.Time `firestore:"created_at"`
	UpdatedAt  time.Time `firestore:"updated_at"`
}

// NewKnowledgeNode creates a node with a fresh identity.
func NewKnowledgeNode(domain, title, content string, confidence float64) (*KnowledgeNode, error) {
	if domain == "" {
		return nil, appErrors.NewValidation("knowledge node domain cannot be empty")
	}
	if confidence < 0 || confidence > 1 {
		return nil, appErrors.NewValidation(
			fmt.Sprintf("knowledge node confidence %v outside [0,1]", confidence))
	}

	now := time.Now().UTC()
	return &KnowledgeNode{
		ID:         uuid.New().String(),
		Domain:     domain,
		Title:      title,
		Content:    content,
		Confidence: confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// DomainSource describes one monitored source feeding a knowledge domain.
type DomainSource struct {
	ID           string    `firestore:"id"`
	Domain       string    `firestore:"domain"`
	Name         string    `firestore:"name"`
	URL          string    `firestore:"url"`
	Active       bool      `firestore:"active"`
	LastPolledAt time.Time `firestore:"last_polled_at"`
}

// CrossDomainRelation is a directed, weighted link between two knowledge
// nodes in different domains.
type CrossDomainRelation struct {
	ID           string    `firestore:"id"`
	SourceNodeID string    `firestore:"source_node_id"`
	TargetNodeID string    `firestore:"target_node_id"`
	SourceDomain string    `firestore:"source_domain"`
	TargetDomain string    `firestore:"target_domain"`
	Weight       float64   `firestore:"weight"`
	Confidence   float64   `firestore:"confidence"`
	CreatedAt    time.Time `firestore:"created_at"`
}

// PairKey returns the directed weight key for this relation's domains.
func (r *CrossDomainRelation) PairKey() string {
	return DomainPairKey(r.SourceDomain, r.TargetDomain)
}

// IntegrationRecord summarizes one completed update cycle.
type IntegrationRecord struct {
	ID               string    `firestore:"id"`
	StartedAt        time.Time `firestore:"started_at"`
	FinishedAt       time.Time `firestore:"finished_at"`
	DomainsProcessed []string  `firestore:"domains_processed"`
	NodesIntegrated  int       `firestore:"nodes_integrated"`
	RelationsCreated int       `firestore:"relations_created"`
}

// ErrorRecord is a persisted component failure, mirroring what is logged.
type ErrorRecord struct {
	ID         string    `firestore:"id"`
	Component  string    `firestore:"component"`
	Kind       string    `firestore:"kind"`
	Message    string    `firestore:"message"`
	OccurredAt time.Time `firestore:"occurred_at"`
}

// NewErrorRecord captures err as a persistable record.
func NewErrorRecord(component string, err error) *ErrorRecord {
	return &ErrorRecord{
		ID:         uuid.New().String(),
		Component:  component,
		Kind:       string(appErrors.TypeOf(err)),
		Message:    err.Error(),
		OccurredAt: time.Now().UTC(),
	}
}

// EvolutionMetric is a named measurement of how a domain's knowledge changes
// over time.
type EvolutionMetric struct {
	ID         string    `firestore:"id"`
	Domain     string    `firestore:"domain"`
	Name       string    `firestore:"name"`
	Value      float64   `firestore:"value"`
	RecordedAt time.Time `firestore:"recorded_at"`
}

// pairSeparator joins the two halves of a directed domain-pair key.
const pairSeparator = "->"

// DomainPairKey builds the ordered key under which the weight of the
// directed relationship from one domain to another is configured. The
// ordering matters: a->b and b->a carry independent weights.
func DomainPairKey(from, to string) string {
	return from + pairSeparator + to
}

// ParseDomainPairKey splits a directed pair key into its domains.
func ParseDomainPairKey(key string) (from, to string, err error) {
	from, to, ok := strings.Cut(key, pairSeparator)
	if !ok || from == "" || to == "" {
		return "", "", appErrors.NewValidation(
			fmt.Sprintf("%q is not a directed domain pair key", key))
	}
	return from, to, nil
}
