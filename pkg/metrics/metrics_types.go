package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// DAO Metrics
	DAOOperationsTotal   *prometheus.CounterVec
	DAOOperationDuration *prometheus.HistogramVec

	// Access Metrics
	AccessChecksTotal *prometheus.CounterVec

	// Store Metrics
	StoreVertices prometheus.Gauge
	StoreEdges    prometheus.Gauge

	// Event Metrics
	EventsPublishedTotal *prometheus.CounterVec
	EventsFailedTotal    *prometheus.CounterVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initDAOMetrics()
	r.initAccessMetrics()
	r.initStoreMetrics()
	r.initEventMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
