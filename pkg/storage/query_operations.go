package storage

import (
	"sort"
)

// GraphStorage implements Graph by running every call in its own transaction.
var (
	_ Graph = (*GraphStorage)(nil)
	_ Graph = (*Transaction)(nil)
)

func (gs *GraphStorage) buildVertexList(ids []uint64) []*Vertex {
	vertices := make([]*Vertex, 0, len(ids))
	for _, id := range ids {
		if vertex, exists := gs.vertices[id]; exists {
			vertices = append(vertices, vertex.Clone())
		}
	}
	return vertices
}

func (gs *GraphStorage) allLabelsLocked() []string {
	labels := make([]string, 0, len(gs.verticesByLabel))
	for label := range gs.verticesByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// GetVertex retrieves a vertex by ID
func (gs *GraphStorage) GetVertex(id uint64) (*Vertex, error) {
	var vertex *Vertex
	err := gs.View(func(tx *Transaction) error {
		var err error
		vertex, err = tx.GetVertex(id)
		return err
	})
	return vertex, err
}

// VerticesByLabel returns all vertices carrying label
func (gs *GraphStorage) VerticesByLabel(label string) ([]*Vertex, error) {
	var vertices []*Vertex
	err := gs.View(func(tx *Transaction) error {
		var err error
		vertices, err = tx.VerticesByLabel(label)
		return err
	})
	return vertices, err
}

// VerticesByProperty returns vertices of label whose key equals value
func (gs *GraphStorage) VerticesByProperty(label, key string, value Value) ([]*Vertex, error) {
	var vertices []*Vertex
	err := gs.View(func(tx *Transaction) error {
		var err error
		vertices, err = tx.VerticesByProperty(label, key, value)
		return err
	})
	return vertices, err
}

// AllVertices returns every vertex
func (gs *GraphStorage) AllVertices() ([]*Vertex, error) {
	var vertices []*Vertex
	err := gs.View(func(tx *Transaction) error {
		var err error
		vertices, err = tx.AllVertices()
		return err
	})
	return vertices, err
}

// CountByLabel returns the number of vertices carrying label
func (gs *GraphStorage) CountByLabel(label string) (int, error) {
	var count int
	err := gs.View(func(tx *Transaction) error {
		var err error
		count, err = tx.CountByLabel(label)
		return err
	})
	return count, err
}

// AllLabels returns every vertex label in use
func (gs *GraphStorage) AllLabels() []string {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.allLabelsLocked()
}

// GetEdge retrieves an edge by ID
func (gs *GraphStorage) GetEdge(id uint64) (*Edge, error) {
	var edge *Edge
	err := gs.View(func(tx *Transaction) error {
		var err error
		edge, err = tx.GetEdge(id)
		return err
	})
	return edge, err
}

// EdgesOf returns the edges incident to a vertex
func (gs *GraphStorage) EdgesOf(vertexID uint64, dir Direction, labels ...string) ([]*Edge, error) {
	var edges []*Edge
	err := gs.View(func(tx *Transaction) error {
		var err error
		edges, err = tx.EdgesOf(vertexID, dir, labels...)
		return err
	})
	return edges, err
}

// EdgesByLabel returns all edges with label
func (gs *GraphStorage) EdgesByLabel(label string) ([]*Edge, error) {
	var edges []*Edge
	err := gs.View(func(tx *Transaction) error {
		var err error
		edges, err = tx.EdgesByLabel(label)
		return err
	})
	return edges, err
}

// CreateVertex creates a new vertex
func (gs *GraphStorage) CreateVertex(label string, properties map[string]Value) (*Vertex, error) {
	var vertex *Vertex
	err := gs.Update(func(tx *Transaction) error {
		var err error
		vertex, err = tx.CreateVertex(label, properties)
		return err
	})
	return vertex, err
}

// SetVertexProperties merges properties into a vertex
func (gs *GraphStorage) SetVertexProperties(id uint64, properties map[string]Value) error {
	return gs.Update(func(tx *Transaction) error {
		return tx.SetVertexProperties(id, properties)
	})
}

// ReplaceVertexProperties overwrites the full property set of a vertex
func (gs *GraphStorage) ReplaceVertexProperties(id uint64, properties map[string]Value) error {
	return gs.Update(func(tx *Transaction) error {
		return tx.ReplaceVertexProperties(id, properties)
	})
}

// DeleteVertex deletes a vertex and all its edges
func (gs *GraphStorage) DeleteVertex(id uint64) error {
	return gs.Update(func(tx *Transaction) error {
		return tx.DeleteVertex(id)
	})
}

// CreateEdge creates a directed edge
func (gs *GraphStorage) CreateEdge(label string, fromID, toID uint64, properties map[string]Value) (*Edge, error) {
	var edge *Edge
	err := gs.Update(func(tx *Transaction) error {
		var err error
		edge, err = tx.CreateEdge(label, fromID, toID, properties)
		return err
	})
	return edge, err
}

// DeleteEdge deletes an edge by ID
func (gs *GraphStorage) DeleteEdge(id uint64) error {
	return gs.Update(func(tx *Transaction) error {
		return tx.DeleteEdge(id)
	})
}

// NextSequence returns and advances the named counter
func (gs *GraphStorage) NextSequence(name string) (uint64, error) {
	var value uint64
	err := gs.Update(func(tx *Transaction) error {
		var err error
		value, err = tx.NextSequence(name)
		return err
	})
	return value, err
}

// AdvanceSequence moves the named counter forward to at least atLeast
func (gs *GraphStorage) AdvanceSequence(name string, atLeast uint64) error {
	return gs.Update(func(tx *Transaction) error {
		return tx.AdvanceSequence(name, atLeast)
	})
}
