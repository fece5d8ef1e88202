package constraints

import (
	"fmt"
	"sort"
)

// UniquePropertyConstraint ensures a property value is unique among the vertices of a label.
// Vertices without the property are ignored.
type UniquePropertyConstraint struct {
	Label    string
	Property string
}

// Name returns a human-readable name for this constraint
func (c *UniquePropertyConstraint) Name() string {
	return fmt.Sprintf("Unique(%s.%s)", c.Label, c.Property)
}

// Validate reports every vertex after the first (lowest store id) that repeats a value
func (c *UniquePropertyConstraint) Validate(graph GraphReader) ([]Violation, error) {
	vertices, err := graph.VerticesByLabel(c.Label)
	if err != nil {
		return nil, fmt.Errorf("failed to query vertices with label '%s': %w", c.Label, err)
	}

	seen := make(map[string][]uint64)
	var order []string
	for _, v := range vertices {
		prop, exists := v.Properties[c.Property]
		if !exists {
			continue
		}
		key := prop.Type.String() + ":" + prop.String()
		if _, ok := seen[key]; !ok {
			order = append(order, key)
		}
		seen[key] = append(seen[key], v.ID)
	}

	var violations []Violation
	for _, key := range order {
		ids := seen[key]
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids[1:] {
			vertexID := id
			violations = append(violations, Violation{
				Type:       UniquenessViolation,
				Severity:   Error,
				VertexID:   &vertexID,
				Constraint: c.Name(),
				Message: fmt.Sprintf("Duplicate value for property '%s' within label '%s' (also exists on vertex %d)",
					c.Property, c.Label, ids[0]),
				Details: map[string]any{
					"property":       c.Property,
					"label":          c.Label,
					"duplicate_of":   ids[0],
					"all_duplicates": ids,
				},
			})
		}
	}

	return violations, nil
}

// UniqueEdgeConstraint ensures only one edge of a label exists between two vertices.
// Direction is ignored, so a->b and b->a count as the same pair.
type UniqueEdgeConstraint struct {
	EdgeLabel string
}

// Name returns a human-readable name for this constraint
func (c *UniqueEdgeConstraint) Name() string {
	return fmt.Sprintf("UniqueEdge(%s)", c.EdgeLabel)
}

// Validate checks that no duplicate edges exist between vertex pairs
func (c *UniqueEdgeConstraint) Validate(graph GraphReader) ([]Violation, error) {
	edges, err := graph.EdgesByLabel(c.EdgeLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}

	pairs := make(map[[2]uint64]uint64)
	var violations []Violation
	for _, edge := range edges {
		pair := [2]uint64{edge.FromID, edge.ToID}
		if pair[0] > pair[1] {
			pair[0], pair[1] = pair[1], pair[0]
		}
		first, dup := pairs[pair]
		if !dup {
			pairs[pair] = edge.ID
			continue
		}
		edgeID := edge.ID
		violations = append(violations, Violation{
			Type:       UniquenessViolation,
			Severity:   Warning,
			EdgeID:     &edgeID,
			Constraint: c.Name(),
			Message: fmt.Sprintf("Duplicate edge '%s' between vertices %d and %d (edge %d already exists)",
				c.EdgeLabel, pair[0], pair[1], first),
			Details: map[string]any{
				"edge_label":   c.EdgeLabel,
				"duplicate_of": first,
			},
		})
	}

	return violations, nil
}
