package constraints

import (
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// GraphReader defines the read-only operations needed for constraint validation.
// Both *storage.GraphStorage and *storage.Transaction satisfy it, so a whole
// validation pass can run inside one read transaction.
type GraphReader = storage.Reader

// Severity indicates the importance of a violation
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// ViolationType categorizes the type of constraint violation
type ViolationType int

const (
	MissingProperty ViolationType = iota
	InvalidType
	CardinalityViolation
	ForbiddenEdge
	UniquenessViolation
)

func (vt ViolationType) String() string {
	switch vt {
	case MissingProperty:
		return "MissingProperty"
	case InvalidType:
		return "InvalidType"
	case CardinalityViolation:
		return "CardinalityViolation"
	case ForbiddenEdge:
		return "ForbiddenEdge"
	case UniquenessViolation:
		return "UniquenessViolation"
	default:
		return "Unknown"
	}
}

// Violation represents a constraint violation
type Violation struct {
	Type       ViolationType
	Severity   Severity
	VertexID   *uint64
	EdgeID     *uint64
	Constraint string
	Message    string
	Details    map[string]any
}

// Constraint is the interface that all constraint types must implement.
type Constraint interface {
	// Validate checks the constraint against the graph
	// Returns a list of violations (empty if valid)
	Validate(graph GraphReader) ([]Violation, error)

	// Name returns a human-readable name for the constraint
	Name() string
}
