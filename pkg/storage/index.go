package storage

import (
	"sync"
)

type indexKey struct {
	Label string
	Key   string
}

// PropertyIndex maps the values of one property on one label to vertex IDs
type PropertyIndex struct {
	label       string
	propertyKey string

	// value key (type-prefixed) -> vertex IDs
	index map[string]map[uint64]struct{}

	mu sync.RWMutex
}

// IndexStatistics describes an index
type IndexStatistics struct {
	Label          string
	PropertyKey    string
	DistinctValues int
	TotalEntries   int
}

// NewPropertyIndex creates a new property index
func NewPropertyIndex(label, propertyKey string) *PropertyIndex {
	return &PropertyIndex{
		label:       label,
		propertyKey: propertyKey,
		index:       make(map[string]map[uint64]struct{}),
	}
}

// Insert adds a vertex to the index
func (idx *PropertyIndex) Insert(vertexID uint64, value Value) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	addToSet(idx.index, valueKey(value), vertexID)
}

// Remove removes a vertex from the index
func (idx *PropertyIndex) Remove(vertexID uint64, value Value) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	removeFromSet(idx.index, valueKey(value), vertexID)
}

// Lookup returns the vertex IDs holding value, in ascending order
func (idx *PropertyIndex) Lookup(value Value) []uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return sortedIDs(idx.index[valueKey(value)])
}

// GetStatistics returns index statistics
func (idx *PropertyIndex) GetStatistics() IndexStatistics {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	total := 0
	for _, ids := range idx.index {
		total += len(ids)
	}
	return IndexStatistics{
		Label:          idx.label,
		PropertyKey:    idx.propertyKey,
		DistinctValues: len(idx.index),
		TotalEntries:   total,
	}
}

// valueKey keeps values of different types apart ("1" the string vs 1 the int).
func valueKey(v Value) string {
	return v.Type.String() + ":" + string(v.Data)
}
