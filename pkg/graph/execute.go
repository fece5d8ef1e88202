package graph

import (
	"context"
	"fmt"

	"github.com/dd0wney/hivegraph/pkg/storage"
)

// Step is one stage of a traversal pipeline
type Step interface {
	// Execute transforms ec.results in place
	Execute(ec *ExecutionContext) error
	// Mutates reports whether the step writes to the graph
	Mutates() bool
	String() string
}

// ExecutionContext carries the graph and the current traversers through the steps
type ExecutionContext struct {
	ctx     context.Context
	graph   storage.Graph
	results []Element
}

// CheckCancellation returns the context error once the caller has given up
func (ec *ExecutionContext) CheckCancellation() error {
	return ec.ctx.Err()
}

// sub runs an anonymous traversal starting from a single element
func (ec *ExecutionContext) sub(t *Traversal, from Element) ([]Element, error) {
	if t.err != nil {
		return nil, t.err
	}
	return runSteps(ec.ctx, ec.graph, t.steps, []Element{from})
}

func runSteps(ctx context.Context, g storage.Graph, steps []Step, input []Element) ([]Element, error) {
	ec := &ExecutionContext{ctx: ctx, graph: g, results: input}
	for i, step := range optimize(steps) {
		if err := ec.CheckCancellation(); err != nil {
			return nil, err
		}
		if err := step.Execute(ec); err != nil {
			return nil, &StepError{Step: step.String(), Index: i, Cause: err}
		}
	}
	return ec.results, nil
}

func (ec *ExecutionContext) vertexOf(e Element, step string) (*storage.Vertex, error) {
	if !e.IsVertex() {
		return nil, fmt.Errorf("%w: %s needs a vertex, got edge %d", ErrElementKind, step, e.ID())
	}
	return e.Vertex, nil
}

func (ec *ExecutionContext) edgeOf(e Element, step string) (*storage.Edge, error) {
	if e.IsVertex() {
		return nil, fmt.Errorf("%w: %s needs an edge, got vertex %d", ErrElementKind, step, e.ID())
	}
	return e.Edge, nil
}
