package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/dd0wney/hivegraph/pkg/storage"
)

// Traversal is an immutable chain of steps. Every builder method returns a new
// Traversal, so a partially built traversal can be shared and extended freely.
// Errors from building (such as an unsupported Has value) surface at the terminal step.
type Traversal struct {
	source *Source
	steps  []Step
	err    error
}

// Anon starts an anonymous traversal. It has no source of its own and runs against
// the elements handed to it by the enclosing step (Where, Not, Or, AddE, Then).
func Anon() *Traversal {
	return &Traversal{}
}

func (t *Traversal) add(step Step) *Traversal {
	next := &Traversal{source: t.source, err: t.err, steps: make([]Step, len(t.steps), len(t.steps)+1)}
	copy(next.steps, t.steps)
	next.steps = append(next.steps, step)
	return next
}

func (t *Traversal) fail(err error) *Traversal {
	next := t.add(noopStep{})
	if next.err == nil {
		next.err = err
	}
	return next
}

// Mutates reports whether executing the traversal writes to the graph
func (t *Traversal) Mutates() bool {
	for _, s := range t.steps {
		if s.Mutates() {
			return true
		}
	}
	return false
}

// String renders the traversal as a dotted step chain for logs
func (t *Traversal) String() string {
	parts := make([]string, 0, len(t.steps))
	for _, s := range t.steps {
		if _, ok := s.(noopStep); ok {
			continue
		}
		parts = append(parts, s.String())
	}
	prefix := "g."
	if t.source == nil {
		prefix = "__."
	}
	return prefix + strings.Join(parts, ".")
}

// Filters

// HasLabel keeps elements whose label is one of labels
func (t *Traversal) HasLabel(labels ...string) *Traversal {
	return t.add(&hasLabelStep{labels: labels})
}

// Has keeps elements whose key property equals value
func (t *Traversal) Has(key string, value any) *Traversal {
	v, err := ToValue(value)
	if err != nil {
		return t.fail(fmt.Errorf("has(%s): %w", key, err))
	}
	return t.add(&hasStep{key: key, pred: Eq(v), eq: &v})
}

// HasP keeps elements whose key property satisfies pred
func (t *Traversal) HasP(key string, pred P) *Traversal {
	return t.add(&hasStep{key: key, pred: pred})
}

// HasKey keeps elements that carry key
func (t *Traversal) HasKey(key string) *Traversal {
	return t.add(&hasKeyStep{key: key, present: true})
}

// HasNot keeps elements that do not carry key
func (t *Traversal) HasNot(key string) *Traversal {
	return t.add(&hasKeyStep{key: key, present: false})
}

// HasID keeps elements with one of the given store ids
func (t *Traversal) HasID(ids ...uint64) *Traversal {
	return t.add(&hasIDStep{ids: ids})
}

// Where keeps elements for which sub yields at least one result
func (t *Traversal) Where(sub *Traversal) *Traversal {
	return t.add(&whereStep{sub: sub, keep: true})
}

// Not keeps elements for which sub yields nothing
func (t *Traversal) Not(sub *Traversal) *Traversal {
	return t.add(&whereStep{sub: sub, keep: false})
}

// Or keeps elements for which any of subs yields a result
func (t *Traversal) Or(subs ...*Traversal) *Traversal {
	return t.add(&orStep{subs: subs})
}

// Navigation

// Out moves to vertices adjacent through outgoing edges with one of labels (any label when empty)
func (t *Traversal) Out(labels ...string) *Traversal {
	return t.add(&vertexStep{dir: Out, labels: labels})
}

// In moves to vertices adjacent through incoming edges
func (t *Traversal) In(labels ...string) *Traversal {
	return t.add(&vertexStep{dir: In, labels: labels})
}

// Both moves to vertices adjacent in either direction
func (t *Traversal) Both(labels ...string) *Traversal {
	return t.add(&vertexStep{dir: Both, labels: labels})
}

// ToE moves to incident edges in the given direction
func (t *Traversal) ToE(dir Direction, labels ...string) *Traversal {
	return t.add(&vertexStep{dir: dir, labels: labels, edges: true})
}

// ToV moves to adjacent vertices in the given direction
func (t *Traversal) ToV(dir Direction, labels ...string) *Traversal {
	return t.add(&vertexStep{dir: dir, labels: labels})
}

// OutE moves to outgoing edges
func (t *Traversal) OutE(labels ...string) *Traversal {
	return t.ToE(Out, labels...)
}

// InE moves to incoming edges
func (t *Traversal) InE(labels ...string) *Traversal {
	return t.ToE(In, labels...)
}

// BothE moves to incident edges in either direction
func (t *Traversal) BothE(labels ...string) *Traversal {
	return t.ToE(Both, labels...)
}

// OutV moves from an edge to its source vertex
func (t *Traversal) OutV() *Traversal {
	return t.add(&edgeVertexStep{which: "outV"})
}

// InV moves from an edge to its target vertex
func (t *Traversal) InV() *Traversal {
	return t.add(&edgeVertexStep{which: "inV"})
}

// OtherV moves from an edge to the endpoint it was not reached from
func (t *Traversal) OtherV() *Traversal {
	return t.add(&edgeVertexStep{which: "otherV"})
}

// Then appends the steps of an anonymous traversal
func (t *Traversal) Then(sub *Traversal) *Traversal {
	next := &Traversal{source: t.source, err: t.err, steps: make([]Step, 0, len(t.steps)+len(sub.steps))}
	next.steps = append(next.steps, t.steps...)
	next.steps = append(next.steps, sub.steps...)
	if next.err == nil {
		next.err = sub.err
	}
	return next
}

// Ordering and paging

// Dedup removes repeated elements, keeping the first occurrence
func (t *Traversal) Dedup() *Traversal {
	return t.add(dedupStep{})
}

// Order sorts by the key property. Elements without the property sort first;
// ties keep store id order.
func (t *Traversal) Order(key string, asc bool) *Traversal {
	return t.add(&orderStep{key: key, asc: asc})
}

// Range keeps results [low, high); high < 0 means no upper bound
func (t *Traversal) Range(low, high int) *Traversal {
	return t.add(&rangeStep{low: low, high: high})
}

// Skip drops the first n results
func (t *Traversal) Skip(n int) *Traversal {
	return t.Range(n, -1)
}

// Limit keeps at most n results
func (t *Traversal) Limit(n int) *Traversal {
	return t.Range(0, n)
}

// Mutations

// Property sets one property on every vertex
func (t *Traversal) Property(key string, value any) *Traversal {
	v, err := ToValue(value)
	if err != nil {
		return t.fail(fmt.Errorf("property(%s): %w", key, err))
	}
	return t.add(&propertyStep{props: map[string]storage.Value{key: v}})
}

// PropertyMap merges props into every vertex
func (t *Traversal) PropertyMap(props map[string]storage.Value) *Traversal {
	return t.add(&propertyStep{props: props})
}

// ReplaceProperties overwrites the full property set of every vertex
func (t *Traversal) ReplaceProperties(props map[string]storage.Value) *Traversal {
	return t.add(&propertyStep{props: props, replace: true})
}

// AddE creates an edge with label from every vertex to each vertex that to yields.
// to may be anonymous (run from the current vertex) or start with V.
func (t *Traversal) AddE(label string, to *Traversal) *Traversal {
	return t.AddEChecked(label, to, nil)
}

// AddEChecked is AddE that first asks allows whether the endpoint labels may be joined.
// The step fails with ErrEndpointLabel before writing anything for that pair.
func (t *Traversal) AddEChecked(label string, to *Traversal, allows func(fromLabel, toLabel string) bool) *Traversal {
	next := t.add(&addEdgeStep{label: label, to: to, allows: allows})
	if next.err == nil {
		next.err = to.err
	}
	return next
}

// Terminals

// ToList executes the traversal and returns every result
func (t *Traversal) ToList(ctx context.Context) ([]Element, error) {
	return t.source.execute(ctx, t)
}

// Iterate executes the traversal for its side effects
func (t *Traversal) Iterate(ctx context.Context) error {
	_, err := t.ToList(ctx)
	return err
}

// Vertices executes the traversal and returns the resulting vertices
func (t *Traversal) Vertices(ctx context.Context) ([]*storage.Vertex, error) {
	elements, err := t.ToList(ctx)
	if err != nil {
		return nil, err
	}
	vertices := make([]*storage.Vertex, 0, len(elements))
	for _, e := range elements {
		if !e.IsVertex() {
			return nil, fmt.Errorf("%w: expected vertex, got edge %d", ErrElementKind, e.ID())
		}
		vertices = append(vertices, e.Vertex)
	}
	return vertices, nil
}

// Edges executes the traversal and returns the resulting edges
func (t *Traversal) Edges(ctx context.Context) ([]*storage.Edge, error) {
	elements, err := t.ToList(ctx)
	if err != nil {
		return nil, err
	}
	edges := make([]*storage.Edge, 0, len(elements))
	for _, e := range elements {
		if e.IsVertex() {
			return nil, fmt.Errorf("%w: expected edge, got vertex %d", ErrElementKind, e.ID())
		}
		edges = append(edges, e.Edge)
	}
	return edges, nil
}

// Next returns the first result, if any
func (t *Traversal) Next(ctx context.Context) (Element, bool, error) {
	elements, err := t.Limit(1).ToList(ctx)
	if err != nil || len(elements) == 0 {
		return Element{}, false, err
	}
	return elements[0], true, nil
}

// NextVertex returns the first resulting vertex, or nil when there is none
func (t *Traversal) NextVertex(ctx context.Context) (*storage.Vertex, error) {
	vertices, err := t.Limit(1).Vertices(ctx)
	if err != nil || len(vertices) == 0 {
		return nil, err
	}
	return vertices[0], nil
}

// HasNext reports whether the traversal yields anything
func (t *Traversal) HasNext(ctx context.Context) (bool, error) {
	_, ok, err := t.Next(ctx)
	return ok, err
}

// Count returns the number of results
func (t *Traversal) Count(ctx context.Context) (int64, error) {
	elements, err := t.ToList(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(elements)), nil
}

// Values returns the key property of every result that carries it
func (t *Traversal) Values(ctx context.Context, key string) ([]storage.Value, error) {
	elements, err := t.ToList(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]storage.Value, 0, len(elements))
	for _, e := range elements {
		if v, ok := e.Property(key); ok {
			values = append(values, v)
		}
	}
	return values, nil
}

// Drop removes every result from the graph. Dropping a vertex drops its edges.
func (t *Traversal) Drop(ctx context.Context) error {
	return t.add(dropStep{}).Iterate(ctx)
}
