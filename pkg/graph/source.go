package graph

import (
	"context"

	"github.com/dd0wney/hivegraph/pkg/storage"
)

// Store is the transactional graph a Source executes against.
// *storage.GraphStorage implements it.
type Store interface {
	View(fn func(tx *storage.Transaction) error) error
	Update(fn func(tx *storage.Transaction) error) error
}

// Source spawns traversals. A Source created by NewSource runs each traversal in its
// own store transaction (read-only unless the traversal mutates); the Source handed to
// a Tx or Read callback runs everything in that callback's transaction.
type Source struct {
	store Store
	tx    *storage.Transaction
}

// NewSource creates a traversal source over store
func NewSource(store Store) *Source {
	return &Source{store: store}
}

// V starts a traversal at the given vertices, or at every vertex when ids is empty.
// Ids that do not exist are skipped.
func (s *Source) V(ids ...uint64) *Traversal {
	return s.start(&vertexStartStep{ids: ids})
}

// E starts a traversal at the given edges, or at every edge when ids is empty
func (s *Source) E(ids ...uint64) *Traversal {
	return s.start(&edgeStartStep{ids: ids})
}

// AddV starts a traversal that creates one vertex with label
func (s *Source) AddV(label string) *Traversal {
	return s.start(&addVertexStep{label: label})
}

func (s *Source) start(step Step) *Traversal {
	return &Traversal{source: s, steps: []Step{step}}
}

// InTx reports whether the source is bound to a transaction
func (s *Source) InTx() bool {
	return s.tx != nil
}

// Tx runs fn in a write transaction. Every traversal fn executes through its argument
// commits together, or not at all when fn returns an error. A Tx inside a Tx joins the
// outer transaction.
func (s *Source) Tx(ctx context.Context, fn func(g *Source) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		if !s.tx.Writable() {
			return storage.ErrReadOnly
		}
		return fn(s)
	}
	return s.store.Update(func(tx *storage.Transaction) error {
		return fn(&Source{store: s.store, tx: tx})
	})
}

// Read runs fn in a read-only transaction so several traversals see one consistent graph
func (s *Source) Read(ctx context.Context, fn func(g *Source) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.tx != nil {
		return fn(s)
	}
	return s.store.View(func(tx *storage.Transaction) error {
		return fn(&Source{store: s.store, tx: tx})
	})
}

// NextSequence draws the next value of a store-native counter
func (s *Source) NextSequence(ctx context.Context, name string) (uint64, error) {
	var value uint64
	err := s.Tx(ctx, func(g *Source) error {
		var err error
		value, err = g.tx.NextSequence(name)
		return err
	})
	return value, err
}

// AdvanceSequence moves a counter forward so it never hands out a value below atLeast
func (s *Source) AdvanceSequence(ctx context.Context, name string, atLeast uint64) error {
	return s.Tx(ctx, func(g *Source) error {
		return g.tx.AdvanceSequence(name, atLeast)
	})
}

func (s *Source) execute(ctx context.Context, t *Traversal) ([]Element, error) {
	if s == nil {
		return nil, ErrNoSource
	}
	if t.err != nil {
		return nil, t.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if s.tx != nil {
		return runSteps(ctx, s.tx, t.steps, nil)
	}

	var out []Element
	run := func(tx *storage.Transaction) error {
		var err error
		out, err = runSteps(ctx, tx, t.steps, nil)
		return err
	}

	var err error
	if t.Mutates() {
		err = s.store.Update(run)
	} else {
		err = s.store.View(run)
	}
	return out, err
}
