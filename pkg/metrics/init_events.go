package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEventMetrics() {
	r.EventsPublishedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivegraph_events_published_total",
			Help: "Total number of domain events published",
		},
		[]string{"entity", "op"},
	)

	r.EventsFailedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "hivegraph_events_failed_total",
			Help: "Total number of domain events a listener failed to deliver",
		},
		[]string{"listener"},
	)
}
