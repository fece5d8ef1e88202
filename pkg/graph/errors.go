package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSource is returned when a terminal step runs on an anonymous traversal
	ErrNoSource = errors.New("traversal has no source")
	// ErrElementKind is returned when a step receives an edge where it needs a vertex or vice versa
	ErrElementKind = errors.New("unexpected element kind")
	// ErrUnsupportedValue is returned when a Go value cannot become a property value
	ErrUnsupportedValue = errors.New("unsupported property value")
	// ErrEndpointLabel is returned when a checked AddE would join vertices of the wrong labels
	ErrEndpointLabel = errors.New("edge endpoints not allowed")
)

// StepError identifies the step of a traversal that failed
type StepError struct {
	Step  string
	Index int
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index, e.Step, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}
