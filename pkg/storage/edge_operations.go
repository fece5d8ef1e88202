package storage

import (
	"time"
)

func (gs *GraphStorage) createEdgeLocked(label string, fromID, toID uint64, properties map[string]Value) (*Edge, error) {
	// Verify vertices exist
	if _, ok := gs.vertices[fromID]; !ok {
		return nil, NewError("CreateEdge").Vertex(fromID).Context("source").Cause(ErrVertexNotFound).Err()
	}
	if _, ok := gs.vertices[toID]; !ok {
		return nil, NewError("CreateEdge").Vertex(toID).Context("target").Cause(ErrVertexNotFound).Err()
	}

	// Check for ID space exhaustion
	if gs.nextEdgeID == ^uint64(0) {
		return nil, NewError("CreateEdge").Context(label).Cause(ErrIDSpaceExhausted).Err()
	}

	edgeID := gs.nextEdgeID
	gs.nextEdgeID++

	edge := &Edge{
		ID:         edgeID,
		Label:      label,
		FromID:     fromID,
		ToID:       toID,
		Properties: cloneProperties(properties),
		CreatedAt:  time.Now().UnixMilli(),
	}

	gs.insertEdgeLocked(edge)
	return edge, nil
}

func (gs *GraphStorage) insertEdgeLocked(edge *Edge) {
	gs.edges[edge.ID] = edge
	addToSet(gs.edgesByLabel, edge.Label, edge.ID)
	addToSet(gs.outgoingEdges, edge.FromID, edge.ID)
	addToSet(gs.incomingEdges, edge.ToID, edge.ID)
}

// removeEdgeLocked returns nil when the edge does not exist.
func (gs *GraphStorage) removeEdgeLocked(edgeID uint64) *Edge {
	edge, exists := gs.edges[edgeID]
	if !exists {
		return nil
	}

	delete(gs.edges, edgeID)
	removeFromSet(gs.edgesByLabel, edge.Label, edgeID)
	removeFromSet(gs.outgoingEdges, edge.FromID, edgeID)
	removeFromSet(gs.incomingEdges, edge.ToID, edgeID)

	return edge
}

// edgeIDsOfLocked collects the IDs of edges incident to vertexID in the given direction.
func (gs *GraphStorage) edgeIDsOfLocked(vertexID uint64, dir Direction) []uint64 {
	switch dir {
	case Outgoing:
		return sortedIDs(gs.outgoingEdges[vertexID])
	case Incoming:
		return sortedIDs(gs.incomingEdges[vertexID])
	default:
		merged := make(map[uint64]struct{}, len(gs.outgoingEdges[vertexID])+len(gs.incomingEdges[vertexID]))
		for id := range gs.outgoingEdges[vertexID] {
			merged[id] = struct{}{}
		}
		for id := range gs.incomingEdges[vertexID] {
			merged[id] = struct{}{}
		}
		return sortedIDs(merged)
	}
}
