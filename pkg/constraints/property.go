package constraints

import (
	"fmt"

	"github.com/dd0wney/hivegraph/pkg/storage"
)

// PropertyConstraint checks that vertices of a label carry a property of the right type
type PropertyConstraint struct {
	Label    string
	Property string
	Type     storage.ValueType
	Required bool
}

// Name returns the constraint name
func (pc *PropertyConstraint) Name() string {
	return fmt.Sprintf("PropertyConstraint(%s.%s:%s)", pc.Label, pc.Property, pc.Type)
}

// Validate checks the property constraint against all vertices with the target label
func (pc *PropertyConstraint) Validate(graph GraphReader) ([]Violation, error) {
	vertices, err := graph.VerticesByLabel(pc.Label)
	if err != nil {
		return nil, fmt.Errorf("failed to find vertices with label %s: %w", pc.Label, err)
	}

	violations := make([]Violation, 0)
	for _, v := range vertices {
		vertexID := v.ID
		value, exists := v.GetProperty(pc.Property)
		if !exists {
			if pc.Required {
				violations = append(violations, Violation{
					Type:       MissingProperty,
					Severity:   Error,
					VertexID:   &vertexID,
					Constraint: pc.Name(),
					Message:    fmt.Sprintf("Vertex %d missing required property '%s'", v.ID, pc.Property),
					Details: map[string]any{
						"label":    pc.Label,
						"property": pc.Property,
					},
				})
			}
			continue
		}

		if value.Type != pc.Type {
			violations = append(violations, Violation{
				Type:       InvalidType,
				Severity:   Error,
				VertexID:   &vertexID,
				Constraint: pc.Name(),
				Message:    fmt.Sprintf("Vertex %d property '%s' is %s, expected %s", v.ID, pc.Property, value.Type, pc.Type),
				Details: map[string]any{
					"label":         pc.Label,
					"property":      pc.Property,
					"actual_type":   value.Type.String(),
					"expected_type": pc.Type.String(),
				},
			})
		}
	}

	return violations, nil
}
