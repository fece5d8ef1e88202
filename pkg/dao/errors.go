package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/dd0wney/hivegraph/pkg/graph"
	"github.com/dd0wney/hivegraph/pkg/schema"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// Error kinds. Every error returned by a DAO satisfies errors.Is for exactly one of
// these, except context cancellation which is passed through unchanged.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidInput     = errors.New("invalid input")
	ErrCorruptEntity    = errors.New("corrupt entity")
	ErrAccessDenied     = errors.New("access denied")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Error describes a failed DAO operation
type Error struct {
	Op     string
	Entity string
	ID     *int64
	Kind   error
	Cause  error
}

func (e *Error) Error() string {
	msg := e.Entity + " " + e.Op
	if e.ID != nil {
		msg += fmt.Sprintf(" (id=%d)", *e.ID)
	}
	msg += ": " + e.Kind.Error()
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// Is matches the kind
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func newError(kind error, op, entity string, id *int64, cause error) *Error {
	return &Error{Op: op, Entity: entity, ID: id, Kind: kind, Cause: cause}
}

// Classify maps an error from the graph or the store onto the taxonomy, for layers
// that traverse the graph without going through a DAO
func Classify(op, entity string, err error) error {
	return classify(op, entity, nil, err)
}

// classify maps a lower layer error onto the taxonomy
func classify(op, entity string, id *int64, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var daoErr *Error
	if errors.As(err, &daoErr) {
		return daoErr
	}

	var corrupt *schema.CorruptEntityError
	switch {
	case errors.As(err, &corrupt):
		return newError(ErrCorruptEntity, op, entity, id, err)
	case storage.IsClosed(err), errors.Is(err, storage.ErrTxDone):
		return newError(ErrStoreUnavailable, op, entity, id, err)
	case storage.IsNotFound(err):
		return newError(ErrNotFound, op, entity, id, err)
	case errors.Is(err, graph.ErrEndpointLabel):
		return newError(ErrInvalidInput, op, entity, id, err)
	default:
		return newError(ErrStoreUnavailable, op, entity, id, err)
	}
}

// status is the metrics label for an operation outcome
func status(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, ErrCorruptEntity):
		return "corrupt"
	case errors.Is(err, ErrAccessDenied):
		return "denied"
	default:
		return "error"
	}
}
