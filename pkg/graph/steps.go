package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dd0wney/hivegraph/pkg/storage"
)

func joinIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}

func quoteAll(labels []string) string {
	return strings.Join(labels, ",")
}

// Start steps

type vertexStartStep struct {
	ids []uint64
}

func (s *vertexStartStep) Execute(ec *ExecutionContext) error {
	if len(s.ids) == 0 {
		vertices, err := ec.graph.AllVertices()
		if err != nil {
			return err
		}
		ec.results = toElements(vertices)
		return nil
	}

	ec.results = make([]Element, 0, len(s.ids))
	for _, id := range s.ids {
		v, err := ec.graph.GetVertex(id)
		if storage.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		ec.results = append(ec.results, vertexElement(v))
	}
	return nil
}

func (s *vertexStartStep) Mutates() bool  { return false }
func (s *vertexStartStep) String() string { return "V(" + joinIDs(s.ids) + ")" }

type labelScanStep struct {
	label string
}

func (s *labelScanStep) Execute(ec *ExecutionContext) error {
	vertices, err := ec.graph.VerticesByLabel(s.label)
	if err != nil {
		return err
	}
	ec.results = toElements(vertices)
	return nil
}

func (s *labelScanStep) Mutates() bool  { return false }
func (s *labelScanStep) String() string { return "V().hasLabel(" + s.label + ")" }

type propertyLookupStep struct {
	label string
	key   string
	value storage.Value
}

func (s *propertyLookupStep) Execute(ec *ExecutionContext) error {
	vertices, err := ec.graph.VerticesByProperty(s.label, s.key, s.value)
	if err != nil {
		return err
	}
	ec.results = toElements(vertices)
	return nil
}

func (s *propertyLookupStep) Mutates() bool { return false }
func (s *propertyLookupStep) String() string {
	return fmt.Sprintf("V().hasLabel(%s).has(%s,%s)", s.label, s.key, s.value)
}

type edgeStartStep struct {
	ids []uint64
}

func (s *edgeStartStep) Execute(ec *ExecutionContext) error {
	ec.results = nil
	if len(s.ids) > 0 {
		for _, id := range s.ids {
			e, err := ec.graph.GetEdge(id)
			if storage.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			ec.results = append(ec.results, edgeElement(e, e.FromID))
		}
		return nil
	}

	vertices, err := ec.graph.AllVertices()
	if err != nil {
		return err
	}
	for _, v := range vertices {
		edges, err := ec.graph.EdgesOf(v.ID, storage.Outgoing)
		if err != nil {
			return err
		}
		for _, e := range edges {
			ec.results = append(ec.results, edgeElement(e, e.FromID))
		}
	}
	return nil
}

func (s *edgeStartStep) Mutates() bool  { return false }
func (s *edgeStartStep) String() string { return "E(" + joinIDs(s.ids) + ")" }

type addVertexStep struct {
	label string
}

func (s *addVertexStep) Execute(ec *ExecutionContext) error {
	v, err := ec.graph.CreateVertex(s.label, nil)
	if err != nil {
		return err
	}
	ec.results = []Element{vertexElement(v)}
	return nil
}

func (s *addVertexStep) Mutates() bool  { return true }
func (s *addVertexStep) String() string { return "addV(" + s.label + ")" }

// Filter steps

func filter(ec *ExecutionContext, keep func(Element) (bool, error)) error {
	out := ec.results[:0:0]
	for _, e := range ec.results {
		ok, err := keep(e)
		if err != nil {
			return err
		}
		if ok {
			out = append(out, e)
		}
	}
	ec.results = out
	return nil
}

type hasLabelStep struct {
	labels []string
}

func (s *hasLabelStep) Execute(ec *ExecutionContext) error {
	return filter(ec, func(e Element) (bool, error) {
		for _, l := range s.labels {
			if e.Label() == l {
				return true, nil
			}
		}
		return false, nil
	})
}

func (s *hasLabelStep) Mutates() bool  { return false }
func (s *hasLabelStep) String() string { return "hasLabel(" + quoteAll(s.labels) + ")" }

type hasStep struct {
	key  string
	pred P
	// eq is set for plain equality so the optimizer can turn it into an index lookup
	eq *storage.Value
}

func (s *hasStep) Execute(ec *ExecutionContext) error {
	return filter(ec, func(e Element) (bool, error) {
		v, ok := e.Property(s.key)
		return ok && s.pred.Test(v), nil
	})
}

func (s *hasStep) Mutates() bool  { return false }
func (s *hasStep) String() string { return fmt.Sprintf("has(%s,%s)", s.key, s.pred) }

type hasKeyStep struct {
	key     string
	present bool
}

func (s *hasKeyStep) Execute(ec *ExecutionContext) error {
	return filter(ec, func(e Element) (bool, error) {
		_, ok := e.Property(s.key)
		return ok == s.present, nil
	})
}

func (s *hasKeyStep) Mutates() bool { return false }
func (s *hasKeyStep) String() string {
	if s.present {
		return "has(" + s.key + ")"
	}
	return "hasNot(" + s.key + ")"
}

type hasIDStep struct {
	ids []uint64
}

func (s *hasIDStep) Execute(ec *ExecutionContext) error {
	return filter(ec, func(e Element) (bool, error) {
		for _, id := range s.ids {
			if e.ID() == id {
				return true, nil
			}
		}
		return false, nil
	})
}

func (s *hasIDStep) Mutates() bool  { return false }
func (s *hasIDStep) String() string { return "hasId(" + joinIDs(s.ids) + ")" }

type whereStep struct {
	sub  *Traversal
	keep bool
}

func (s *whereStep) Execute(ec *ExecutionContext) error {
	return filter(ec, func(e Element) (bool, error) {
		found, err := ec.sub(s.sub, e)
		if err != nil {
			return false, err
		}
		return (len(found) > 0) == s.keep, nil
	})
}

func (s *whereStep) Mutates() bool { return s.sub.Mutates() }
func (s *whereStep) String() string {
	if s.keep {
		return "where(" + s.sub.String() + ")"
	}
	return "not(" + s.sub.String() + ")"
}

type orStep struct {
	subs []*Traversal
}

func (s *orStep) Execute(ec *ExecutionContext) error {
	return filter(ec, func(e Element) (bool, error) {
		for _, sub := range s.subs {
			found, err := ec.sub(sub, e)
			if err != nil {
				return false, err
			}
			if len(found) > 0 {
				return true, nil
			}
		}
		return false, nil
	})
}

func (s *orStep) Mutates() bool {
	for _, sub := range s.subs {
		if sub.Mutates() {
			return true
		}
	}
	return false
}

func (s *orStep) String() string {
	parts := make([]string, len(s.subs))
	for i, sub := range s.subs {
		parts[i] = sub.String()
	}
	return "or(" + strings.Join(parts, ",") + ")"
}

// Navigation steps

type vertexStep struct {
	dir    Direction
	labels []string
	edges  bool
}

func (s *vertexStep) Execute(ec *ExecutionContext) error {
	var out []Element
	for _, e := range ec.results {
		v, err := ec.vertexOf(e, s.String())
		if err != nil {
			return err
		}
		incident, err := ec.graph.EdgesOf(v.ID, s.dir, s.labels...)
		if storage.IsNotFound(err) {
			continue
		}
		if err != nil {
			return err
		}
		for _, edge := range incident {
			if s.edges {
				out = append(out, edgeElement(edge, v.ID))
				continue
			}
			neighbor, err := ec.graph.GetVertex(edge.Other(v.ID))
			if err != nil {
				return err
			}
			out = append(out, vertexElement(neighbor))
		}
	}
	ec.results = out
	return nil
}

func (s *vertexStep) Mutates() bool { return false }
func (s *vertexStep) String() string {
	name := s.dir.String()
	if s.edges {
		name += "E"
	}
	return name + "(" + quoteAll(s.labels) + ")"
}

type edgeVertexStep struct {
	which string
}

func (s *edgeVertexStep) Execute(ec *ExecutionContext) error {
	out := make([]Element, 0, len(ec.results))
	for _, e := range ec.results {
		edge, err := ec.edgeOf(e, s.which)
		if err != nil {
			return err
		}
		var id uint64
		switch s.which {
		case "outV":
			id = edge.FromID
		case "inV":
			id = edge.ToID
		default:
			id = edge.Other(e.via)
		}
		v, err := ec.graph.GetVertex(id)
		if err != nil {
			return err
		}
		out = append(out, vertexElement(v))
	}
	ec.results = out
	return nil
}

func (s *edgeVertexStep) Mutates() bool  { return false }
func (s *edgeVertexStep) String() string { return s.which + "()" }

// Ordering and paging steps

type dedupStep struct{}

func (dedupStep) Execute(ec *ExecutionContext) error {
	seen := make(map[elementKey]struct{}, len(ec.results))
	return filter(ec, func(e Element) (bool, error) {
		k := e.key()
		if _, dup := seen[k]; dup {
			return false, nil
		}
		seen[k] = struct{}{}
		return true, nil
	})
}

func (dedupStep) Mutates() bool  { return false }
func (dedupStep) String() string { return "dedup()" }

type orderStep struct {
	key string
	asc bool
}

func (s *orderStep) Execute(ec *ExecutionContext) error {
	sort.SliceStable(ec.results, func(i, j int) bool {
		a, aok := ec.results[i].Property(s.key)
		b, bok := ec.results[j].Property(s.key)
		var c int
		switch {
		case !aok && !bok:
			c = 0
		case !aok:
			c = -1
		case !bok:
			c = 1
		default:
			c = a.Compare(b)
		}
		if !s.asc {
			c = -c
		}
		if c == 0 {
			return ec.results[i].ID() < ec.results[j].ID()
		}
		return c < 0
	})
	return nil
}

func (s *orderStep) Mutates() bool { return false }
func (s *orderStep) String() string {
	dir := "desc"
	if s.asc {
		dir = "asc"
	}
	return fmt.Sprintf("order().by(%s,%s)", s.key, dir)
}

type rangeStep struct {
	low, high int
}

func (s *rangeStep) Execute(ec *ExecutionContext) error {
	n := len(ec.results)
	low := s.low
	if low < 0 {
		low = 0
	}
	if low > n {
		low = n
	}
	high := n
	if s.high >= 0 && s.high < n {
		high = s.high
	}
	if high < low {
		high = low
	}
	ec.results = ec.results[low:high]
	return nil
}

func (s *rangeStep) Mutates() bool  { return false }
func (s *rangeStep) String() string { return fmt.Sprintf("range(%d,%d)", s.low, s.high) }

// Mutation steps

type propertyStep struct {
	props   map[string]storage.Value
	replace bool
}

func (s *propertyStep) Execute(ec *ExecutionContext) error {
	for i, e := range ec.results {
		v, err := ec.vertexOf(e, s.String())
		if err != nil {
			return err
		}
		if s.replace {
			err = ec.graph.ReplaceVertexProperties(v.ID, s.props)
		} else {
			err = ec.graph.SetVertexProperties(v.ID, s.props)
		}
		if err != nil {
			return err
		}
		updated, err := ec.graph.GetVertex(v.ID)
		if err != nil {
			return err
		}
		ec.results[i] = vertexElement(updated)
	}
	return nil
}

func (s *propertyStep) Mutates() bool { return true }
func (s *propertyStep) String() string {
	keys := make([]string, 0, len(s.props))
	for k := range s.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if s.replace {
		return "replaceProperties(" + strings.Join(keys, ",") + ")"
	}
	return "property(" + strings.Join(keys, ",") + ")"
}

type addEdgeStep struct {
	label  string
	to     *Traversal
	allows func(fromLabel, toLabel string) bool
}

func (s *addEdgeStep) Execute(ec *ExecutionContext) error {
	var out []Element
	for _, e := range ec.results {
		from, err := ec.vertexOf(e, s.String())
		if err != nil {
			return err
		}
		targets, err := ec.sub(s.to, e)
		if err != nil {
			return err
		}
		for _, target := range targets {
			to, err := ec.vertexOf(target, s.String())
			if err != nil {
				return err
			}
			if s.allows != nil && !s.allows(from.Label, to.Label) {
				return fmt.Errorf("%w: %s %s->%s", ErrEndpointLabel, s.label, from.Label, to.Label)
			}
			edge, err := ec.graph.CreateEdge(s.label, from.ID, to.ID, nil)
			if err != nil {
				return err
			}
			out = append(out, edgeElement(edge, from.ID))
		}
	}
	ec.results = out
	return nil
}

func (s *addEdgeStep) Mutates() bool  { return true }
func (s *addEdgeStep) String() string { return "addE(" + s.label + ").to(" + s.to.String() + ")" }

type dropStep struct{}

func (dropStep) Execute(ec *ExecutionContext) error {
	for _, e := range ec.results {
		var err error
		if e.IsVertex() {
			err = ec.graph.DeleteVertex(e.ID())
		} else {
			err = ec.graph.DeleteEdge(e.ID())
		}
		// Already gone through an earlier cascade
		if err != nil && !storage.IsNotFound(err) {
			return err
		}
	}
	ec.results = nil
	return nil
}

func (dropStep) Mutates() bool  { return true }
func (dropStep) String() string { return "drop()" }

type noopStep struct{}

func (noopStep) Execute(*ExecutionContext) error { return nil }
func (noopStep) Mutates() bool                   { return false }
func (noopStep) String() string                  { return "" }

func toElements(vertices []*storage.Vertex) []Element {
	out := make([]Element, len(vertices))
	for i, v := range vertices {
		out[i] = vertexElement(v)
	}
	return out
}
