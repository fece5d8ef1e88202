package constraints

import (
	"fmt"
	"sort"
	"time"

	"github.com/dd0wney/hivegraph/pkg/schema"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// ValidationResult contains the results of validating a graph against constraints
type ValidationResult struct {
	Valid      bool        // True if no violations found
	Violations []Violation // List of all violations
	CheckedAt  time.Time   // When validation was performed
}

// GetViolationsBySeverity returns violations filtered by severity level
func (vr *ValidationResult) GetViolationsBySeverity(severity Severity) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Severity == severity {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// GetViolationsByType returns violations filtered by type
func (vr *ValidationResult) GetViolationsByType(violationType ViolationType) []Violation {
	filtered := make([]Violation, 0)
	for _, v := range vr.Violations {
		if v.Type == violationType {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Store runs read and write transactions; *storage.GraphStorage implements it
type Store interface {
	View(fn func(tx *storage.Transaction) error) error
	Update(fn func(tx *storage.Transaction) error) error
}

// Validator manages a set of constraints and validates graphs against them
type Validator struct {
	constraints []Constraint
}

// NewValidator creates a new empty validator
func NewValidator() *Validator {
	return &Validator{
		constraints: make([]Constraint, 0),
	}
}

// NewSchemaValidator creates a validator with the invariants of the user/network/device
// schema: required typed properties, unique logins, network names and device guids, at most
// one owning network per device, no duplicate memberships and correct edge endpoints.
func NewSchemaValidator() *Validator {
	v := NewValidator()
	for _, label := range []string{schema.LabelUser, schema.LabelNetwork, schema.LabelDevice} {
		v.AddConstraint(&PropertyConstraint{Label: label, Property: schema.PropID, Type: storage.TypeInt, Required: true})
	}
	v.AddConstraints([]Constraint{
		&PropertyConstraint{Label: schema.LabelUser, Property: schema.PropUserLogin, Type: storage.TypeString, Required: true},
		&PropertyConstraint{Label: schema.LabelNetwork, Property: schema.PropNetworkName, Type: storage.TypeString, Required: true},
		&PropertyConstraint{Label: schema.LabelDevice, Property: schema.PropDeviceGUID, Type: storage.TypeString, Required: true},
		&UniquePropertyConstraint{Label: schema.LabelUser, Property: schema.PropID},
		&UniquePropertyConstraint{Label: schema.LabelNetwork, Property: schema.PropID},
		&UniquePropertyConstraint{Label: schema.LabelDevice, Property: schema.PropID},
		&UniquePropertyConstraint{Label: schema.LabelUser, Property: schema.PropUserLogin},
		&UniquePropertyConstraint{Label: schema.LabelNetwork, Property: schema.PropNetworkName},
		&UniquePropertyConstraint{Label: schema.LabelDevice, Property: schema.PropDeviceGUID},
		DeviceOwnership(),
		&UniqueEdgeConstraint{EdgeLabel: schema.EdgeIsMemberOf},
	})
	for _, rel := range schema.Relationships {
		v.AddConstraint(&EndpointConstraint{Relationship: rel})
	}
	return v
}

// DeviceOwnership is the at-most-one owning network rule for devices
func DeviceOwnership() *CardinalityConstraint {
	return &CardinalityConstraint{
		Label:     schema.LabelDevice,
		EdgeLabel: schema.EdgeBelongsTo,
		Direction: storage.Outgoing,
		Max:       1,
	}
}

// AddConstraint adds a constraint to the validator
func (v *Validator) AddConstraint(constraint Constraint) {
	v.constraints = append(v.constraints, constraint)
}

// AddConstraints adds multiple constraints to the validator
func (v *Validator) AddConstraints(constraints []Constraint) {
	v.constraints = append(v.constraints, constraints...)
}

// Validate runs all constraints against the graph and returns the results
func (v *Validator) Validate(graph GraphReader) (*ValidationResult, error) {
	result := &ValidationResult{
		Valid:      true,
		Violations: make([]Violation, 0),
		CheckedAt:  time.Now(),
	}

	for _, constraint := range v.constraints {
		violations, err := constraint.Validate(graph)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", constraint.Name(), err)
		}

		if len(violations) > 0 {
			result.Valid = false
			result.Violations = append(result.Violations, violations...)
		}
	}

	return result, nil
}

// ValidateAll runs every constraint inside one read transaction, so the result
// describes a single consistent state of the store
func (v *Validator) ValidateAll(store Store) (*ValidationResult, error) {
	var result *ValidationResult
	err := store.View(func(tx *storage.Transaction) error {
		var err error
		result, err = v.Validate(tx)
		return err
	})
	return result, err
}

// GetConstraints returns all constraints in the validator
func (v *Validator) GetConstraints() []Constraint {
	return v.constraints
}

// ClearConstraints removes all constraints from the validator
func (v *Validator) ClearConstraints() {
	v.constraints = make([]Constraint, 0)
}

// RepairCardinality enforces cc.Max by keeping the newest edges of every offending
// vertex and deleting the rest. Newest means latest CreatedAt, then highest edge id.
// It returns the ids of the deleted edges. A constraint without Max repairs nothing.
func RepairCardinality(store Store, cc *CardinalityConstraint) ([]uint64, error) {
	if cc.Max <= 0 {
		return nil, nil
	}

	var removed []uint64
	err := store.Update(func(tx *storage.Transaction) error {
		removed = nil
		vertices, err := tx.VerticesByLabel(cc.Label)
		if err != nil {
			return err
		}

		for _, v := range vertices {
			edges, err := cc.edges(tx, v.ID)
			if err != nil {
				return err
			}
			if len(edges) <= cc.Max {
				continue
			}

			sort.Slice(edges, func(i, j int) bool {
				if edges[i].CreatedAt != edges[j].CreatedAt {
					return edges[i].CreatedAt > edges[j].CreatedAt
				}
				return edges[i].ID > edges[j].ID
			})
			for _, e := range edges[cc.Max:] {
				if err := tx.DeleteEdge(e.ID); err != nil {
					return err
				}
				removed = append(removed, e.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
