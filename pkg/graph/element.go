package graph

import (
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// Direction is the edge direction a navigation step follows
type Direction = storage.Direction

const (
	Out  = storage.Outgoing
	In   = storage.Incoming
	Both = storage.Both
)

// Element is one traverser: either a vertex or an edge. An edge remembers the
// vertex it was reached from so OtherV can step to the far endpoint.
type Element struct {
	Vertex *storage.Vertex
	Edge   *storage.Edge

	via uint64
}

func vertexElement(v *storage.Vertex) Element {
	return Element{Vertex: v}
}

func edgeElement(e *storage.Edge, via uint64) Element {
	return Element{Edge: e, via: via}
}

// IsVertex reports whether the element is a vertex
func (e Element) IsVertex() bool {
	return e.Vertex != nil
}

// ID returns the store id of the vertex or edge
func (e Element) ID() uint64 {
	if e.Vertex != nil {
		return e.Vertex.ID
	}
	return e.Edge.ID
}

// Label returns the vertex or edge label
func (e Element) Label() string {
	if e.Vertex != nil {
		return e.Vertex.Label
	}
	return e.Edge.Label
}

// Property returns a property of the underlying vertex or edge
func (e Element) Property(key string) (storage.Value, bool) {
	if e.Vertex != nil {
		return e.Vertex.GetProperty(key)
	}
	return e.Edge.GetProperty(key)
}

type elementKey struct {
	edge bool
	id   uint64
}

func (e Element) key() elementKey {
	return elementKey{edge: !e.IsVertex(), id: e.ID()}
}
