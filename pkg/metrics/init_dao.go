package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initDAOMetrics() {
	r.DAOOperationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivegraph_dao_operations_total",
			Help: "Total number of DAO operations",
		},
		[]string{"entity", "operation", "status"},
	)

	r.DAOOperationDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hivegraph_dao_operation_duration_seconds",
			Help:    "DAO operation duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"entity", "operation"},
	)
}
