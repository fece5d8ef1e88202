package storage

import (
	"time"
)

// The *Locked helpers assume gs.mu is held for writing by the caller (a Transaction).

func (gs *GraphStorage) createVertexLocked(label string, properties map[string]Value) (*Vertex, error) {
	// Check for ID space exhaustion
	if gs.nextVertexID == ^uint64(0) {
		return nil, NewError("CreateVertex").Context(label).Cause(ErrIDSpaceExhausted).Err()
	}

	vertexID := gs.nextVertexID
	gs.nextVertexID++

	now := time.Now().UnixMilli()
	vertex := &Vertex{
		ID:         vertexID,
		Label:      label,
		Properties: cloneProperties(properties),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	gs.insertVertexLocked(vertex)
	return vertex, nil
}

func (gs *GraphStorage) insertVertexLocked(vertex *Vertex) {
	gs.vertices[vertex.ID] = vertex
	addToSet(gs.verticesByLabel, vertex.Label, vertex.ID)
	gs.indexVertexLocked(vertex, vertex.Properties)
}

// removeVertexLocked deletes a vertex together with every incident edge and returns
// what was removed so the caller can restore it.
func (gs *GraphStorage) removeVertexLocked(vertexID uint64) (*Vertex, []*Edge, error) {
	vertex, exists := gs.vertices[vertexID]
	if !exists {
		return nil, nil, VertexNotFoundError("DeleteVertex", vertexID)
	}

	var removed []*Edge

	// Cascade delete all outgoing edges
	for _, edgeID := range sortedIDs(gs.outgoingEdges[vertexID]) {
		if edge := gs.removeEdgeLocked(edgeID); edge != nil {
			removed = append(removed, edge)
		}
	}

	// Cascade delete all incoming edges (self loops are already gone)
	for _, edgeID := range sortedIDs(gs.incomingEdges[vertexID]) {
		if edge := gs.removeEdgeLocked(edgeID); edge != nil {
			removed = append(removed, edge)
		}
	}

	gs.unindexVertexLocked(vertex, vertex.Properties)
	removeFromSet(gs.verticesByLabel, vertex.Label, vertexID)

	delete(gs.vertices, vertexID)
	delete(gs.outgoingEdges, vertexID)
	delete(gs.incomingEdges, vertexID)

	return vertex, removed, nil
}

// setPropertiesLocked merges (or with replace, overwrites) a vertex's properties and
// returns the previous property set.
func (gs *GraphStorage) setPropertiesLocked(vertexID uint64, properties map[string]Value, replace bool) (map[string]Value, error) {
	vertex, exists := gs.vertices[vertexID]
	if !exists {
		return nil, VertexNotFoundError("SetVertexProperties", vertexID)
	}

	old := cloneProperties(vertex.Properties)

	gs.unindexVertexLocked(vertex, vertex.Properties)
	if replace {
		vertex.Properties = cloneProperties(properties)
	} else {
		for k, v := range properties {
			vertex.Properties[k] = v
		}
	}
	gs.indexVertexLocked(vertex, vertex.Properties)
	vertex.UpdatedAt = time.Now().UnixMilli()

	return old, nil
}

// Property index helper methods

func (gs *GraphStorage) indexVertexLocked(vertex *Vertex, properties map[string]Value) {
	for key, value := range properties {
		if idx, exists := gs.propertyIndexes[indexKey{Label: vertex.Label, Key: key}]; exists {
			idx.Insert(vertex.ID, value)
		}
	}
}

func (gs *GraphStorage) unindexVertexLocked(vertex *Vertex, properties map[string]Value) {
	for key, value := range properties {
		if idx, exists := gs.propertyIndexes[indexKey{Label: vertex.Label, Key: key}]; exists {
			idx.Remove(vertex.ID, value)
		}
	}
}

// Sequences

func (gs *GraphStorage) nextSequenceLocked(name string) (uint64, error) {
	current := gs.sequences[name]
	if current == ^uint64(0) {
		return 0, NewError("NextSequence").Sequence(name).Cause(ErrIDSpaceExhausted).Err()
	}
	gs.sequences[name] = current + 1
	return current, nil
}

func cloneProperties(properties map[string]Value) map[string]Value {
	clone := make(map[string]Value, len(properties))
	for k, v := range properties {
		clone[k] = v
	}
	return clone
}
