// Package observability provides the Prometheus metrics surface for the
// engine: connection lifecycle, Firestore operations, configuration reloads
// and the HTTP ops endpoints.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the engine. Each collector owns
// its own registry so tests can build isolated instances without duplicate
// registration panics.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Connection lifecycle metrics
	ConnectAttempts  *prometheus.CounterVec
	SelfTestDuration prometheus.Histogram

	// Firestore operation metrics
	FirestoreOperations *prometheus.CounterVec
	FirestoreDuration   *prometheus.HistogramVec

	// Configuration metrics
	ConfigReloads *prometheus.CounterVec

	// Error sink metrics
	ErrorsRecorded *prometheus.CounterVec
}

// NewCollector creates a metrics collector under the given namespace.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	connectAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "firestore_connect_attempts_total",
			Help:      "Connection attempts against Firestore by outcome",
		},
		[]string{"status"},
	)

	selfTestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "firestore_self_test_duration_seconds",
			Help:      "Duration of the connectivity self-test round trip",
			Buckets:   prometheus.DefBuckets,
		},
	)

	firestoreOperations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "firestore_operations_total",
			Help:      "Total number of Firestore document operations",
		},
		[]string{"operation", "collection", "status"},
	)

	firestoreDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "firestore_operation_duration_seconds",
			Help:      "Firestore operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	configReloads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help:      "Configuration overlay reloads by outcome",
		},
		[]string{"status"},
	)

	errorsRecorded := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_recorded_total",
			Help:      "Errors persisted to the error log by component and kind",
		},
		[]string{"component", "kind"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		connectAttempts,
		selfTestDuration,
		firestoreOperations,
		firestoreDuration,
		configReloads,
		errorsRecorded,
	)

	return &Collector{
		registry:            registry,
		HTTPRequests:        httpRequests,
		HTTPDuration:        httpDuration,
		ConnectAttempts:     connectAttempts,
		SelfTestDuration:    selfTestDuration,
		FirestoreOperations: firestoreOperations,
		FirestoreDuration:   firestoreDuration,
		ConfigReloads:       configReloads,
		ErrorsRecorded:      errorsRecorded,
	}
}

// ObserveConnectAttempt records one connection attempt outcome.
func (c *Collector) ObserveConnectAttempt(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	c.ConnectAttempts.WithLabelValues(status).Inc()
}

// ObserveSelfTest records the duration of one connectivity round trip.
func (c *Collector) ObserveSelfTest(duration time.Duration) {
	c.SelfTestDuration.Observe(duration.Seconds())
}

// ObserveFirestoreOperation records one document operation.
func (c *Collector) ObserveFirestoreOperation(operation, collection string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.FirestoreOperations.WithLabelValues(operation, collection, status).Inc()
	c.FirestoreDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
}

// ObserveConfigReload records one overlay reload outcome.
func (c *Collector) ObserveConfigReload(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	c.ConfigReloads.WithLabelValues(status).Inc()
}

// ObserveErrorRecorded counts one error persisted to the error log.
func (c *Collector) ObserveErrorRecorded(component, kind string) {
	c.ErrorsRecorded.WithLabelValues(component, kind).Inc()
}

// Handler exposes this collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
