package storage

import (
	"sync/atomic"
)

// Transaction is a unit of work that holds the storage lock for its whole lifetime.
// Write transactions record an undo entry per mutation; if the callback passed to
// Update returns an error (or panics) every recorded mutation is reverted in
// reverse order, so the graph is left exactly as it was before Update began.
type Transaction struct {
	gs       *GraphStorage
	writable bool
	done     bool
	undo     []func()
}

// View runs fn in a read-only transaction.
func (gs *GraphStorage) View(fn func(tx *Transaction) error) error {
	gs.mu.RLock()
	defer gs.mu.RUnlock()

	if gs.closed {
		return ErrStorageClosed
	}

	tx := &Transaction{gs: gs}
	defer func() { tx.done = true }()
	return fn(tx)
}

// Update runs fn in a read-write transaction and commits when fn returns nil.
func (gs *GraphStorage) Update(fn func(tx *Transaction) error) (err error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.closed {
		return ErrStorageClosed
	}

	tx := &Transaction{gs: gs, writable: true}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			panic(r)
		}
	}()

	if err = fn(tx); err != nil {
		tx.rollback()
		return err
	}

	tx.done = true
	atomic.AddUint64(&gs.commits, 1)
	gs.publishSizeLocked()
	return nil
}

func (tx *Transaction) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
	tx.done = true
	atomic.AddUint64(&tx.gs.rollbacks, 1)
}

func (tx *Transaction) checkRead() error {
	if tx.done {
		return ErrTxDone
	}
	return nil
}

func (tx *Transaction) checkWrite() error {
	if tx.done {
		return ErrTxDone
	}
	if !tx.writable {
		return ErrReadOnly
	}
	return nil
}

// Writable reports whether the transaction accepts mutations
func (tx *Transaction) Writable() bool {
	return tx.writable
}

// Read operations

// GetVertex retrieves a vertex by ID
func (tx *Transaction) GetVertex(id uint64) (*Vertex, error) {
	if err := tx.checkRead(); err != nil {
		return nil, err
	}
	vertex, exists := tx.gs.vertices[id]
	if !exists {
		return nil, VertexNotFoundError("GetVertex", id)
	}
	return vertex.Clone(), nil
}

// VerticesByLabel returns all vertices carrying label, ordered by ID
func (tx *Transaction) VerticesByLabel(label string) ([]*Vertex, error) {
	if err := tx.checkRead(); err != nil {
		return nil, err
	}
	return tx.gs.buildVertexList(sortedIDs(tx.gs.verticesByLabel[label])), nil
}

// VerticesByProperty returns vertices of label whose key equals value. An index on
// (label, key) is used when present, otherwise the label is scanned.
func (tx *Transaction) VerticesByProperty(label, key string, value Value) ([]*Vertex, error) {
	if err := tx.checkRead(); err != nil {
		return nil, err
	}

	if idx, ok := tx.gs.propertyIndexes[indexKey{Label: label, Key: key}]; ok {
		return tx.gs.buildVertexList(idx.Lookup(value)), nil
	}

	var result []*Vertex
	for _, id := range sortedIDs(tx.gs.verticesByLabel[label]) {
		vertex := tx.gs.vertices[id]
		if v, ok := vertex.Properties[key]; ok && v.Equal(value) {
			result = append(result, vertex.Clone())
		}
	}
	return result, nil
}

// AllVertices returns every vertex ordered by ID
func (tx *Transaction) AllVertices() ([]*Vertex, error) {
	if err := tx.checkRead(); err != nil {
		return nil, err
	}
	ids := make(map[uint64]struct{}, len(tx.gs.vertices))
	for id := range tx.gs.vertices {
		ids[id] = struct{}{}
	}
	return tx.gs.buildVertexList(sortedIDs(ids)), nil
}

// CountByLabel returns the number of vertices carrying label
func (tx *Transaction) CountByLabel(label string) (int, error) {
	if err := tx.checkRead(); err != nil {
		return 0, err
	}
	return len(tx.gs.verticesByLabel[label]), nil
}

// AllLabels returns every vertex label in use, sorted
func (tx *Transaction) AllLabels() []string {
	return tx.gs.allLabelsLocked()
}

// GetEdge retrieves an edge by ID
func (tx *Transaction) GetEdge(id uint64) (*Edge, error) {
	if err := tx.checkRead(); err != nil {
		return nil, err
	}
	edge, exists := tx.gs.edges[id]
	if !exists {
		return nil, EdgeNotFoundError("GetEdge", id)
	}
	return edge.Clone(), nil
}

// EdgesOf returns the edges incident to a vertex in direction dir, optionally
// restricted to the given labels.
func (tx *Transaction) EdgesOf(vertexID uint64, dir Direction, labels ...string) ([]*Edge, error) {
	if err := tx.checkRead(); err != nil {
		return nil, err
	}
	if _, exists := tx.gs.vertices[vertexID]; !exists {
		return nil, VertexNotFoundError("EdgesOf", vertexID)
	}

	var result []*Edge
	for _, id := range tx.gs.edgeIDsOfLocked(vertexID, dir) {
		edge := tx.gs.edges[id]
		if len(labels) > 0 && !containsString(labels, edge.Label) {
			continue
		}
		result = append(result, edge.Clone())
	}
	return result, nil
}

// EdgesByLabel returns all edges with label, ordered by ID
func (tx *Transaction) EdgesByLabel(label string) ([]*Edge, error) {
	if err := tx.checkRead(); err != nil {
		return nil, err
	}
	ids := sortedIDs(tx.gs.edgesByLabel[label])
	result := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		result = append(result, tx.gs.edges[id].Clone())
	}
	return result, nil
}

// Write operations

// CreateVertex creates a new vertex
func (tx *Transaction) CreateVertex(label string, properties map[string]Value) (*Vertex, error) {
	if err := tx.checkWrite(); err != nil {
		return nil, err
	}
	vertex, err := tx.gs.createVertexLocked(label, properties)
	if err != nil {
		return nil, err
	}
	tx.undo = append(tx.undo, func() { tx.gs.removeVertexLocked(vertex.ID) })
	return vertex.Clone(), nil
}

// SetVertexProperties merges properties into a vertex
func (tx *Transaction) SetVertexProperties(id uint64, properties map[string]Value) error {
	return tx.setProperties(id, properties, false)
}

// ReplaceVertexProperties overwrites the full property set of a vertex
func (tx *Transaction) ReplaceVertexProperties(id uint64, properties map[string]Value) error {
	return tx.setProperties(id, properties, true)
}

func (tx *Transaction) setProperties(id uint64, properties map[string]Value, replace bool) error {
	if err := tx.checkWrite(); err != nil {
		return err
	}
	old, err := tx.gs.setPropertiesLocked(id, properties, replace)
	if err != nil {
		return err
	}
	tx.undo = append(tx.undo, func() { tx.gs.setPropertiesLocked(id, old, true) })
	return nil
}

// DeleteVertex deletes a vertex and all its edges
func (tx *Transaction) DeleteVertex(id uint64) error {
	if err := tx.checkWrite(); err != nil {
		return err
	}
	vertex, edges, err := tx.gs.removeVertexLocked(id)
	if err != nil {
		return err
	}
	tx.undo = append(tx.undo, func() {
		tx.gs.insertVertexLocked(vertex)
		for _, edge := range edges {
			tx.gs.insertEdgeLocked(edge)
		}
	})
	return nil
}

// CreateEdge creates a directed edge fromID -> toID
func (tx *Transaction) CreateEdge(label string, fromID, toID uint64, properties map[string]Value) (*Edge, error) {
	if err := tx.checkWrite(); err != nil {
		return nil, err
	}
	edge, err := tx.gs.createEdgeLocked(label, fromID, toID, properties)
	if err != nil {
		return nil, err
	}
	tx.undo = append(tx.undo, func() { tx.gs.removeEdgeLocked(edge.ID) })
	return edge.Clone(), nil
}

// DeleteEdge deletes an edge by ID
func (tx *Transaction) DeleteEdge(id uint64) error {
	if err := tx.checkWrite(); err != nil {
		return err
	}
	edge := tx.gs.removeEdgeLocked(id)
	if edge == nil {
		return EdgeNotFoundError("DeleteEdge", id)
	}
	tx.undo = append(tx.undo, func() { tx.gs.insertEdgeLocked(edge) })
	return nil
}

// NextSequence returns the current value of the named counter and advances it.
// Counters start at zero and never hand out the same value twice once committed.
func (tx *Transaction) NextSequence(name string) (uint64, error) {
	if err := tx.checkWrite(); err != nil {
		return 0, err
	}
	previous, existed := tx.gs.sequences[name]
	value, err := tx.gs.nextSequenceLocked(name)
	if err != nil {
		return 0, err
	}
	tx.undo = append(tx.undo, func() { tx.gs.restoreSequenceLocked(name, previous, existed) })
	return value, nil
}

// AdvanceSequence moves the named counter forward so its next value is at least atLeast.
func (tx *Transaction) AdvanceSequence(name string, atLeast uint64) error {
	if err := tx.checkWrite(); err != nil {
		return err
	}
	previous, existed := tx.gs.sequences[name]
	if previous >= atLeast {
		return nil
	}
	tx.gs.sequences[name] = atLeast
	tx.undo = append(tx.undo, func() { tx.gs.restoreSequenceLocked(name, previous, existed) })
	return nil
}

func (gs *GraphStorage) restoreSequenceLocked(name string, value uint64, existed bool) {
	if !existed {
		delete(gs.sequences, name)
		return
	}
	gs.sequences[name] = value
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
