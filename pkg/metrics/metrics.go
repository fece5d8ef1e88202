package metrics

import (
	"runtime"
	"sort"
	"time"
)

// RecordDAOOperation records a DAO call with its outcome ("success", "not_found", "error", ...)
func (r *Registry) RecordDAOOperation(entity, operation, status string, duration time.Duration) {
	r.DAOOperationsTotal.WithLabelValues(entity, operation, status).Inc()
	r.DAOOperationDuration.WithLabelValues(entity, operation).Observe(duration.Seconds())
}

// RecordAccessCheck records an access decision; kind is "network" or "device"
func (r *Registry) RecordAccessCheck(kind string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	r.AccessChecksTotal.WithLabelValues(kind, result).Inc()
}

// UpdateStoreSize sets the store size gauges
func (r *Registry) UpdateStoreSize(vertices, edges int) {
	r.StoreVertices.Set(float64(vertices))
	r.StoreEdges.Set(float64(edges))
}

// RecordEventPublished counts a domain event handed to listeners
func (r *Registry) RecordEventPublished(entity, op string) {
	r.EventsPublishedTotal.WithLabelValues(entity, op).Inc()
}

// RecordEventFailed counts a listener delivery failure
func (r *Registry) RecordEventFailed(listener string) {
	r.EventsFailedTotal.WithLabelValues(listener).Inc()
}

// UpdateSystemMetrics refreshes the process gauges
func (r *Registry) UpdateSystemMetrics(startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(startTime).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}

// Sample is one flattened series value
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// Snapshot gathers every counter and gauge series, sorted by name.
// Histograms report their sample count.
func (r *Registry) Snapshot() ([]Sample, error) {
	families, err := r.registry.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, family := range families {
		for _, m := range family.GetMetric() {
			s := Sample{Name: family.GetName(), Labels: make(map[string]string)}
			for _, lp := range m.GetLabel() {
				s.Labels[lp.GetName()] = lp.GetValue()
			}
			switch {
			case m.Counter != nil:
				s.Value = m.GetCounter().GetValue()
			case m.Gauge != nil:
				s.Value = m.GetGauge().GetValue()
			case m.Histogram != nil:
				s.Value = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			samples = append(samples, s)
		}
	}

	sort.SliceStable(samples, func(i, j int) bool { return samples[i].Name < samples[j].Name })
	return samples, nil
}
