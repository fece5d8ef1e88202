package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreVertices = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "hivegraph_store_vertices",
			Help: "Number of vertices in the graph store",
		},
	)

	r.StoreEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "hivegraph_store_edges",
			Help: "Number of edges in the graph store",
		},
	)
}
