package storage

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/hivegraph/pkg/metrics"
)

const (
	// File and directory permissions
	dirPermissions  = 0755 // rwxr-xr-x: Owner can read/write/execute, others can read/execute
	filePermissions = 0644 // rw-r--r--: Owner can read/write, others can read
)

// GraphStorage is an in-memory property graph with optional snapshot persistence.
// Every read runs under the shared lock and every write under the exclusive lock,
// so a single View or Update call is atomic with respect to all other calls.
type GraphStorage struct {
	// Core data structures
	vertices map[uint64]*Vertex
	edges    map[uint64]*Edge

	// Indexes for fast lookups
	verticesByLabel map[string]map[uint64]struct{} // label -> vertex IDs
	edgesByLabel    map[string]map[uint64]struct{} // edge label -> edge IDs
	outgoingEdges   map[uint64]map[uint64]struct{} // vertex ID -> outgoing edge IDs
	incomingEdges   map[uint64]map[uint64]struct{} // vertex ID -> incoming edge IDs
	propertyIndexes map[indexKey]*PropertyIndex    // (label, key) -> index

	// ID generators
	nextVertexID uint64
	nextEdgeID   uint64

	// Named counters handed out to callers (per-label entity ids)
	sequences map[string]uint64

	// Concurrency control
	mu     sync.RWMutex
	closed bool

	// Persistence
	config       StorageConfig
	lastSnapshot time.Time

	// Statistics (atomic)
	commits   uint64
	rollbacks uint64

	// Metrics
	metricsRegistry *metrics.Registry
}

// StorageConfig holds configuration for GraphStorage
type StorageConfig struct {
	// DataDir is where snapshots live; empty means memory only.
	DataDir           string
	CompressSnapshots bool
	SnapshotOnClose   bool
}

// Statistics tracks database statistics
type Statistics struct {
	VertexCount  uint64
	EdgeCount    uint64
	Commits      uint64
	Rollbacks    uint64
	LastSnapshot time.Time
}

// NewGraphStorage creates a graph storage engine. An empty dataDir keeps everything
// in memory; otherwise an existing snapshot in dataDir is loaded.
func NewGraphStorage(dataDir string) (*GraphStorage, error) {
	return NewGraphStorageWithConfig(StorageConfig{
		DataDir:           dataDir,
		CompressSnapshots: true,
		SnapshotOnClose:   dataDir != "",
	})
}

// NewGraphStorageWithConfig creates a graph storage engine with custom config
func NewGraphStorageWithConfig(config StorageConfig) (*GraphStorage, error) {
	gs := &GraphStorage{
		vertices:        make(map[uint64]*Vertex),
		edges:           make(map[uint64]*Edge),
		verticesByLabel: make(map[string]map[uint64]struct{}),
		edgesByLabel:    make(map[string]map[uint64]struct{}),
		outgoingEdges:   make(map[uint64]map[uint64]struct{}),
		incomingEdges:   make(map[uint64]map[uint64]struct{}),
		propertyIndexes: make(map[indexKey]*PropertyIndex),
		sequences:       make(map[string]uint64),
		nextVertexID:    1,
		nextEdgeID:      1,
		config:          config,
	}

	if config.DataDir == "" {
		return gs, nil
	}

	if err := os.MkdirAll(config.DataDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := gs.loadFromDisk(); err != nil {
		// No snapshot yet means a fresh database
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load from disk: %w", err)
		}
	}

	return gs, nil
}

// SetMetrics attaches a metrics registry; store size gauges are refreshed after each commit.
func (gs *GraphStorage) SetMetrics(reg *metrics.Registry) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.metricsRegistry = reg
	gs.publishSizeLocked()
}

// GetStatistics returns current statistics
func (gs *GraphStorage) GetStatistics() Statistics {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	return Statistics{
		VertexCount:  uint64(len(gs.vertices)),
		EdgeCount:    uint64(len(gs.edges)),
		Commits:      atomic.LoadUint64(&gs.commits),
		Rollbacks:    atomic.LoadUint64(&gs.rollbacks),
		LastSnapshot: gs.lastSnapshot,
	}
}

// Close snapshots (when configured) and rejects every later call with ErrStorageClosed.
func (gs *GraphStorage) Close() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.closed {
		return nil
	}

	var err error
	if gs.config.DataDir != "" && gs.config.SnapshotOnClose {
		err = gs.snapshotLocked()
	}
	gs.closed = true
	return err
}

// CreatePropertyIndex indexes key on vertices carrying label. Creating an existing
// index is a no-op.
func (gs *GraphStorage) CreatePropertyIndex(label, key string) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.closed {
		return ErrStorageClosed
	}

	k := indexKey{Label: label, Key: key}
	if _, exists := gs.propertyIndexes[k]; exists {
		return nil
	}

	idx := NewPropertyIndex(label, key)
	for id := range gs.verticesByLabel[label] {
		if val, ok := gs.vertices[id].Properties[key]; ok {
			idx.Insert(id, val)
		}
	}
	gs.propertyIndexes[k] = idx
	return nil
}

// HasPropertyIndex reports whether (label, key) is indexed
func (gs *GraphStorage) HasPropertyIndex(label, key string) bool {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	_, ok := gs.propertyIndexes[indexKey{Label: label, Key: key}]
	return ok
}

func (gs *GraphStorage) publishSizeLocked() {
	if gs.metricsRegistry == nil {
		return
	}
	gs.metricsRegistry.UpdateStoreSize(len(gs.vertices), len(gs.edges))
}

// sortedIDs returns the members of set in ascending order so every read is deterministic.
func sortedIDs(set map[uint64]struct{}) []uint64 {
	ids := make([]uint64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func addToSet[K comparable](m map[K]map[uint64]struct{}, key K, id uint64) {
	set, ok := m[key]
	if !ok {
		set = make(map[uint64]struct{})
		m[key] = set
	}
	set[id] = struct{}{}
}

func removeFromSet[K comparable](m map[K]map[uint64]struct{}, key K, id uint64) {
	if set, ok := m[key]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(m, key)
		}
	}
}
