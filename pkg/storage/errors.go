package storage

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrVertexNotFound   = errors.New("vertex not found")
	ErrEdgeNotFound     = errors.New("edge not found")
	ErrStorageClosed    = errors.New("storage is closed")
	ErrReadOnly         = errors.New("write attempted in read-only transaction")
	ErrTxDone           = errors.New("transaction has already ended")
	ErrIDSpaceExhausted = errors.New("ID space exhausted")
	ErrSnapshotCorrupt  = errors.New("snapshot is corrupt")
)

// StorageError provides structured error information for storage operations.
type StorageError struct {
	Op      string // Operation that failed (e.g., "CreateVertex", "DeleteEdge")
	Entity  string // Entity type (e.g., "vertex", "edge", "sequence")
	ID      uint64 // Entity ID (if applicable)
	Field   string // Field name (for property operations)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	if e.ID != 0 {
		if e.Field != "" {
			return fmt.Sprintf("%s %s %d (field %s): %v", e.Op, e.Entity, e.ID, e.Field, e.Cause)
		}
		return fmt.Sprintf("%s %s %d: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s %s (field %s): %v", e.Op, e.Entity, e.Field, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Entity, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for building StorageErrors.
type ErrorBuilder struct {
	err StorageError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: StorageError{Op: op}}
}

// Vertex sets the entity to "vertex" with the given ID.
func (b *ErrorBuilder) Vertex(id uint64) *ErrorBuilder {
	b.err.Entity = "vertex"
	b.err.ID = id
	return b
}

// Edge sets the entity to "edge" with the given ID.
func (b *ErrorBuilder) Edge(id uint64) *ErrorBuilder {
	b.err.Entity = "edge"
	b.err.ID = id
	return b
}

// Sequence sets the entity to "sequence" with the given name as context.
func (b *ErrorBuilder) Sequence(name string) *ErrorBuilder {
	b.err.Entity = "sequence"
	b.err.Context = name
	return b
}

// Snapshot sets the entity to "snapshot".
func (b *ErrorBuilder) Snapshot() *ErrorBuilder {
	b.err.Entity = "snapshot"
	return b
}

// Field sets the field name for property operations.
func (b *ErrorBuilder) Field(name string) *ErrorBuilder {
	b.err.Field = name
	return b
}

// Context sets additional context information.
func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// VertexNotFoundError creates a vertex not found error.
func VertexNotFoundError(op string, vertexID uint64) error {
	return NewError(op).Vertex(vertexID).Cause(ErrVertexNotFound).Err()
}

// EdgeNotFoundError creates an edge not found error.
func EdgeNotFoundError(op string, edgeID uint64) error {
	return NewError(op).Edge(edgeID).Cause(ErrEdgeNotFound).Err()
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVertexNotFound) || errors.Is(err, ErrEdgeNotFound)
}

// IsClosed returns true if the error indicates the storage is closed.
func IsClosed(err error) bool {
	return errors.Is(err, ErrStorageClosed)
}
