package dao

import (
	"context"

	"github.com/dd0wney/hivegraph/pkg/events"
	"github.com/dd0wney/hivegraph/pkg/graph"
	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/metrics"
	"github.com/dd0wney/hivegraph/pkg/model"
	"github.com/dd0wney/hivegraph/pkg/schema"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// Options carries the collaborators shared by every DAO. Zero values are valid.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
	Events  events.Publisher
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logging.NewNopLogger()
	}
	if o.Events == nil {
		o.Events = events.Discard
	}
	return o
}

// entityDAO implements the operations every entity shares. T is the value object;
// the hooks let an entity add checks and edges inside the write transaction.
type entityDAO[T any] struct {
	g      *graph.Source
	codec  schema.Codec[*T]
	kind   events.Kind
	list   listSpec
	opts   Options
	logger logging.Logger

	id    func(*T) *int64
	setID func(*T, *int64)

	// allowGivenID accepts caller chosen ids on Persist
	allowGivenID bool

	// prepare fills defaults before the entity is written
	prepare func(entity *T)
	// load completes a decoded entity from its edges
	load func(ctx context.Context, g *graph.Source, v *storage.Vertex, entity *T) error
	// check runs before the vertex is written; vertexID is 0 on create
	check func(ctx context.Context, g *graph.Source, entity *T, vertexID uint64) error
	// link writes the entity's edges after the vertex is written
	link func(ctx context.Context, g *graph.Source, entity *T, vertexID uint64) ([]events.Event, error)
}

func newEntityDAO[T any](g *graph.Source, codec schema.Codec[*T], kind events.Kind, opts Options) *entityDAO[T] {
	opts = opts.withDefaults()
	return &entityDAO[T]{
		g:      g,
		codec:  codec,
		kind:   kind,
		opts:   opts,
		logger: opts.Logger.With(logging.Component("dao"), logging.Entity(string(kind))),
	}
}

func (d *entityDAO[T]) label() string {
	return d.codec.Label()
}

// call tracks one DAO operation for logging and metrics
type call struct {
	op    string
	id    *int64
	timer *logging.TimedOperation
}

func (d *entityDAO[T]) begin(op string, id *int64, fields ...logging.Field) *call {
	fields = append(fields, logging.Operation(op), logging.OptionalID("id", id))
	return &call{op: op, id: id, timer: logging.StartTimer(d.logger, "dao call", fields...)}
}

// end classifies err, records the outcome and returns the classified error
func (d *entityDAO[T]) end(c *call, err error) error {
	err = classify(c.op, string(d.kind), c.id, err)
	st := status(err)
	if d.opts.Metrics != nil {
		d.opts.Metrics.RecordDAOOperation(string(d.kind), c.op, st, c.timer.Elapsed())
	}
	switch st {
	case "success":
		c.timer.End()
	case "not_found", "invalid", "denied":
		c.timer.EndWithLevel(logging.DebugLevel, "dao call rejected", logging.Error(err))
	case "conflict":
		c.timer.EndWithLevel(logging.WarnLevel, "dao call conflict", logging.Error(err))
	default:
		c.timer.EndError(err)
	}
	return err
}

func (d *entityDAO[T]) emit(evs ...events.Event) {
	for _, ev := range evs {
		d.opts.Events.Publish(ev)
	}
}

func (d *entityDAO[T]) decode(ctx context.Context, g *graph.Source, v *storage.Vertex) (*T, error) {
	entity, err := d.codec.Decode(v)
	if err != nil {
		return nil, err
	}
	if d.load != nil {
		if err := d.load(ctx, g, v, entity); err != nil {
			return nil, err
		}
	}
	return entity, nil
}

func (d *entityDAO[T]) decodeAll(ctx context.Context, g *graph.Source, vertices []*storage.Vertex) ([]T, error) {
	out := make([]T, 0, len(vertices))
	for _, v := range vertices {
		entity, err := d.decode(ctx, g, v)
		if err != nil {
			return nil, err
		}
		out = append(out, *entity)
	}
	return out, nil
}

// first runs tr in a read transaction and decodes its first vertex
func (d *entityDAO[T]) first(ctx context.Context, tr func(g *graph.Source) *graph.Traversal) (*T, error) {
	var out *T
	err := d.g.Read(ctx, func(g *graph.Source) error {
		v, err := tr(g).NextVertex(ctx)
		if err != nil || v == nil {
			return err
		}
		out, err = d.decode(ctx, g, v)
		return err
	})
	return out, err
}

// all runs tr in a read transaction and decodes every vertex
func (d *entityDAO[T]) all(ctx context.Context, tr func(g *graph.Source) *graph.Traversal) ([]T, error) {
	var out []T
	err := d.g.Read(ctx, func(g *graph.Source) error {
		vertices, err := tr(g).Vertices(ctx)
		if err != nil {
			return err
		}
		out, err = d.decodeAll(ctx, g, vertices)
		return err
	})
	return out, err
}

// vertex returns the store vertex for a domain id, or nil
func (d *entityDAO[T]) vertex(ctx context.Context, g *graph.Source, id int64) (*storage.Vertex, error) {
	return schema.ByID(g, d.label(), id).NextVertex(ctx)
}

// Find returns the entity with id, or nil when there is none
func (d *entityDAO[T]) Find(ctx context.Context, id int64) (*T, error) {
	c := d.begin("find", &id)
	out, err := d.first(ctx, func(g *graph.Source) *graph.Traversal {
		return schema.ByID(g, d.label(), id)
	})
	return out, d.end(c, err)
}

// Exists reports whether an entity with id exists
func (d *entityDAO[T]) Exists(ctx context.Context, id int64) (bool, error) {
	c := d.begin("exists", &id)
	ok, err := schema.ByID(d.g, d.label(), id).HasNext(ctx)
	return ok, d.end(c, err)
}

// Persist creates the entity. An unset id is drawn from the label's sequence in the
// same transaction that creates the vertex; the entity's id is set on success.
func (d *entityDAO[T]) Persist(ctx context.Context, entity *T) error {
	if entity == nil {
		return d.end(d.begin("persist", nil), newError(ErrInvalidInput, "persist", string(d.kind), nil, nil))
	}
	if d.prepare != nil {
		d.prepare(entity)
	}
	given := d.id(entity)
	c := d.begin("persist", given)

	var created []events.Event
	err := d.g.Tx(ctx, func(g *graph.Source) error {
		id, err := d.allocate(ctx, g, given)
		if err != nil {
			return err
		}
		d.setID(entity, &id)
		c.id = &id

		if d.check != nil {
			if err := d.check(ctx, g, entity, 0); err != nil {
				return err
			}
		}
		v, err := schema.ToVertex(g, d.codec, entity).NextVertex(ctx)
		if err != nil {
			return err
		}
		if d.link != nil {
			created, err = d.link(ctx, g, entity, v.ID)
		}
		return err
	})
	if err != nil {
		d.setID(entity, given)
		return d.end(c, err)
	}

	d.logger.Info("entity created", logging.OptionalID("id", c.id))
	snapshot := *entity
	d.emit(events.New(d.kind, events.OpCreated, &snapshot))
	d.emit(created...)
	return d.end(c, nil)
}

func (d *entityDAO[T]) allocate(ctx context.Context, g *graph.Source, given *int64) (int64, error) {
	if given == nil {
		next, err := g.NextSequence(ctx, d.label())
		return int64(next), err
	}
	if !d.allowGivenID || *given < 0 {
		return 0, newError(ErrInvalidInput, "persist", string(d.kind), given, nil)
	}
	taken, err := schema.ByID(g, d.label(), *given).HasNext(ctx)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, newError(ErrConflict, "persist", string(d.kind), given, nil)
	}
	if err := g.AdvanceSequence(ctx, d.label(), uint64(*given)+1); err != nil {
		return 0, err
	}
	return *given, nil
}

// Merge overwrites every stored property of the entity with id entity.ID
func (d *entityDAO[T]) Merge(ctx context.Context, entity *T) (*T, error) {
	if entity == nil || d.id(entity) == nil {
		return nil, d.end(d.begin("merge", nil), newError(ErrInvalidInput, "merge", string(d.kind), nil, nil))
	}
	if d.prepare != nil {
		d.prepare(entity)
	}
	id := *d.id(entity)
	c := d.begin("merge", &id)

	var linked []events.Event
	err := d.g.Tx(ctx, func(g *graph.Source) error {
		v, err := d.vertex(ctx, g, id)
		if err != nil {
			return err
		}
		if v == nil {
			return newError(ErrNotFound, "merge", string(d.kind), &id, nil)
		}
		if d.check != nil {
			if err := d.check(ctx, g, entity, v.ID); err != nil {
				return err
			}
		}
		if err := g.V(v.ID).ReplaceProperties(d.codec.Encode(entity)).Iterate(ctx); err != nil {
			return err
		}
		if d.link != nil {
			linked, err = d.link(ctx, g, entity, v.ID)
		}
		return err
	})
	if err != nil {
		return nil, d.end(c, err)
	}

	snapshot := *entity
	d.emit(events.New(d.kind, events.OpUpdated, &snapshot))
	d.emit(linked...)
	return entity, d.end(c, nil)
}

// DeleteByID removes the entity and its edges and returns how many entities were removed
func (d *entityDAO[T]) DeleteByID(ctx context.Context, id int64) (int, error) {
	c := d.begin("delete", &id)

	var count int64
	err := d.g.Tx(ctx, func(g *graph.Source) error {
		tr := schema.ByID(g, d.label(), id)
		var err error
		if count, err = tr.Count(ctx); err != nil || count == 0 {
			return err
		}
		return tr.Drop(ctx)
	})
	if err != nil {
		return 0, d.end(c, err)
	}

	if count > 0 {
		d.logger.Info("entity deleted", logging.Int64("id", id))
		d.emit(events.New(d.kind, events.OpDeleted, events.Deleted{ID: id}))
	}
	return int(count), d.end(c, nil)
}

// List returns the entities matching filter. A filter that cannot be satisfied
// (unknown sort field, conflicting criteria) yields an empty result.
func (d *entityDAO[T]) List(ctx context.Context, filter model.ListFilter) ([]T, error) {
	c := d.begin("list", nil)
	var out []T
	err := d.g.Read(ctx, func(g *graph.Source) error {
		tr, ok := d.list.build(g, filter)
		if !ok {
			d.logger.Debug("list filter rejected", logging.Any("filter", filter))
			return nil
		}
		vertices, err := tr.Vertices(ctx)
		if err != nil {
			return err
		}
		out, err = d.decodeAll(ctx, g, vertices)
		return err
	})
	if out == nil {
		out = []T{}
	}
	return out, d.end(c, err)
}
