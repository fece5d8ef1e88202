package constraints

import (
	"fmt"

	"github.com/dd0wney/hivegraph/pkg/schema"
)

// EndpointConstraint checks that every edge of a relationship runs between the
// endpoint labels the relationship declares
type EndpointConstraint struct {
	Relationship schema.Relationship
}

// Name returns the constraint name
func (ec *EndpointConstraint) Name() string {
	return fmt.Sprintf("Endpoint(%s)", ec.Relationship)
}

// Validate reports edges whose endpoints have the wrong labels or no longer exist
func (ec *EndpointConstraint) Validate(graph GraphReader) ([]Violation, error) {
	edges, err := graph.EdgesByLabel(ec.Relationship.Label)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}

	violations := make([]Violation, 0)
	for _, e := range edges {
		from, errFrom := graph.GetVertex(e.FromID)
		to, errTo := graph.GetVertex(e.ToID)
		if errFrom == nil && errTo == nil && ec.Relationship.Allows(from.Label, to.Label) {
			continue
		}

		details := map[string]any{
			"edge_label": e.Label,
			"from_id":    e.FromID,
			"to_id":      e.ToID,
		}
		if from != nil {
			details["from_label"] = from.Label
		}
		if to != nil {
			details["to_label"] = to.Label
		}

		edgeID := e.ID
		violations = append(violations, Violation{
			Type:       ForbiddenEdge,
			Severity:   Error,
			EdgeID:     &edgeID,
			Constraint: ec.Name(),
			Message:    fmt.Sprintf("Edge %d (%d -> %d) does not match %s", e.ID, e.FromID, e.ToID, ec.Relationship),
			Details:    details,
		})
	}

	return violations, nil
}
