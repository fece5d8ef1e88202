package constraints

import (
	"fmt"

	"github.com/dd0wney/hivegraph/pkg/storage"
)

// CardinalityConstraint validates the number of edges a vertex has
type CardinalityConstraint struct {
	Label     string            // Label to apply constraint to
	EdgeLabel string            // Label of edge (empty = any)
	Direction storage.Direction // Direction of edges to count
	Min       int               // Minimum number of edges (0 = optional)
	Max       int               // Maximum number of edges (0 = unlimited)
}

// Name returns the constraint name
func (cc *CardinalityConstraint) Name() string {
	edgeLabel := cc.EdgeLabel
	if edgeLabel == "" {
		edgeLabel = "*"
	}
	return fmt.Sprintf("CardinalityConstraint(%s,%s,%s,[%d,%d])",
		cc.Label, edgeLabel, cc.Direction, cc.Min, cc.Max)
}

// Validate checks the cardinality constraint against all vertices with the target label
func (cc *CardinalityConstraint) Validate(graph GraphReader) ([]Violation, error) {
	vertices, err := graph.VerticesByLabel(cc.Label)
	if err != nil {
		return nil, fmt.Errorf("failed to find vertices with label %s: %w", cc.Label, err)
	}

	violations := make([]Violation, 0)
	for _, v := range vertices {
		edges, err := cc.edges(graph, v.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count edges for vertex %d: %w", v.ID, err)
		}
		count := len(edges)

		var bound string
		var limit int
		switch {
		case cc.Min > 0 && count < cc.Min:
			bound, limit = "min", cc.Min
		case cc.Max > 0 && count > cc.Max:
			bound, limit = "max", cc.Max
		default:
			continue
		}

		vertexID := v.ID
		violations = append(violations, Violation{
			Type:       CardinalityViolation,
			Severity:   Error,
			VertexID:   &vertexID,
			Constraint: cc.Name(),
			Message: fmt.Sprintf("Vertex %d has %d %s edge(s) labelled '%s', %s is %d",
				v.ID, count, cc.Direction, cc.EdgeLabel, bound, limit),
			Details: map[string]any{
				"label":      cc.Label,
				"edge_label": cc.EdgeLabel,
				"direction":  cc.Direction.String(),
				"count":      count,
				bound:        limit,
			},
		})
	}

	return violations, nil
}

func (cc *CardinalityConstraint) edges(graph GraphReader, vertexID uint64) ([]*storage.Edge, error) {
	if cc.EdgeLabel == "" {
		return graph.EdgesOf(vertexID, cc.Direction)
	}
	return graph.EdgesOf(vertexID, cc.Direction, cc.EdgeLabel)
}
