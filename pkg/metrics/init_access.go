package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAccessMetrics() {
	r.AccessChecksTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivegraph_access_checks_total",
			Help: "Total number of access decisions by kind and result",
		},
		[]string{"kind", "result"},
	)
}
