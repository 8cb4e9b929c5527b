package config

// Centralized collection names for Firestore. The set is fixed at compile
// time; downstream components must not register collections dynamically.
const (
	CollectionKnowledgeNodes       = "knowledge_nodes"
	CollectionDomainSources        = "domain_sources"
	CollectionCrossDomainRelations = "cross_domain_relations"
	CollectionIntegrationHistory   = "integration_history"
	CollectionErrorLogs            = "error_logs"
	CollectionEvolutionMetrics     = "evolution_metrics"

	// CollectionConnectionTest is reserved for the connectivity self-test
	// performed during client initialization.
	CollectionConnectionTest = "connection_test"
)

// AllCollections returns the six data collection names in declaration order.
// The connection_test collection is excluded; it holds no durable data.
func AllCollections() []string {
	return []string{
		CollectionKnowledgeNodes,
		CollectionDomainSources,
		CollectionCrossDomainRelations,
		CollectionIntegrationHistory,
		CollectionErrorLogs,
		CollectionEvolutionMetrics,
	}
}
