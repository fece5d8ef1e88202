package dao

import (
	"github.com/dd0wney/hivegraph/pkg/graph"
	"github.com/dd0wney/hivegraph/pkg/model"
	"github.com/dd0wney/hivegraph/pkg/schema"
)

// listSpec declares how one entity answers model.ListFilter
type listSpec struct {
	label string
	// nameKey is the property Name and NamePattern match
	nameKey string
	// sortable maps accepted SortField values to property keys
	sortable map[string]string

	status    bool
	role      bool
	networkID bool
}

// build turns filter into a traversal. ok is false when the filter cannot match
// anything, so callers return an empty result without touching the store.
func (s listSpec) build(g *graph.Source, f model.ListFilter) (tr *graph.Traversal, ok bool) {
	if f.Name != "" && f.NamePattern != "" {
		return nil, false
	}
	if f.Take < 0 || f.Skip < 0 {
		return nil, false
	}
	if (f.Status != nil && !s.status) || (f.Role != nil && !s.role) || (f.NetworkID != nil && !s.networkID) {
		return nil, false
	}

	sortKey := ""
	if f.SortField != "" {
		if sortKey, ok = s.sortable[f.SortField]; !ok {
			return nil, false
		}
	}

	pattern, ok := f.Pattern()
	if !ok {
		return nil, false
	}

	tr = g.V().HasLabel(s.label)
	if f.Name != "" {
		tr = tr.Has(s.nameKey, f.Name)
	}
	if f.NamePattern != "" {
		tr = tr.HasP(s.nameKey, graph.Containing(pattern))
	}
	if f.Status != nil {
		tr = tr.Has(schema.PropUserStatus, int64(*f.Status))
	}
	if f.Role != nil {
		tr = tr.Has(schema.PropUserRole, f.Role.Ordinal())
	}
	if f.NetworkID != nil {
		tr = tr.Where(schema.DeviceNetwork().Has(schema.PropID, *f.NetworkID))
	}

	if sortKey != "" {
		tr = tr.Order(sortKey, f.SortAsc)
	}
	switch {
	case f.Take > 0:
		tr = tr.Range(f.Skip, f.Skip+f.Take)
	case f.Skip > 0:
		tr = tr.Skip(f.Skip)
	}
	return tr, true
}
