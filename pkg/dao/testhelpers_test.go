package dao

import (
	"sync"
	"testing"

	"github.com/dd0wney/hivegraph/pkg/events"
	"github.com/dd0wney/hivegraph/pkg/graph"
	"github.com/dd0wney/hivegraph/pkg/metrics"
	"github.com/dd0wney/hivegraph/pkg/schema"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// recorder captures published events synchronously
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) ops(kind events.Kind) []events.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Op
	for _, ev := range r.events {
		if ev.Entity == kind {
			out = append(out, ev.Op)
		}
	}
	return out
}

type testEnv struct {
	gs       *storage.GraphStorage
	g        *graph.Source
	users    *UserDAO
	networks *NetworkDAO
	devices  *DeviceDAO
	events   *recorder
	metrics  *metrics.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gs, err := storage.NewGraphStorage("")
	if err != nil {
		t.Fatalf("Failed to create GraphStorage: %v", err)
	}
	t.Cleanup(func() { gs.Close() })
	if err := schema.EnsureIndexes(gs); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	rec := &recorder{}
	reg := metrics.NewRegistry()
	opts := Options{Metrics: reg, Events: rec}
	g := graph.NewSource(gs)

	return &testEnv{
		gs:       gs,
		g:        g,
		users:    NewUserDAO(g, opts),
		networks: NewNetworkDAO(g, opts),
		devices:  NewDeviceDAO(g, opts),
		events:   rec,
		metrics:  reg,
	}
}
