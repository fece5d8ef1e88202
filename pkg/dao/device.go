package dao

import (
	"context"

	"github.com/dd0wney/hivegraph/pkg/events"
	"github.com/dd0wney/hivegraph/pkg/graph"
	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/model"
	"github.com/dd0wney/hivegraph/pkg/schema"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// DeviceDAO stores devices. A device's NetworkID is its single BELONGS_TO edge:
// it is read from the edge and every write replaces the edge to match it.
type DeviceDAO struct {
	*entityDAO[model.Device]
}

// NewDeviceDAO creates a device DAO over g
func NewDeviceDAO(g *graph.Source, opts Options) *DeviceDAO {
	d := newEntityDAO[model.Device](g, schema.DeviceCodec{}, events.KindDevice, opts)
	d.id = func(dev *model.Device) *int64 { return dev.ID }
	d.setID = func(dev *model.Device, id *int64) { dev.ID = id }
	d.allowGivenID = true
	d.list = listSpec{
		label:   schema.LabelDevice,
		nameKey: schema.PropDeviceName,
		sortable: map[string]string{
			"id":   schema.PropID,
			"name": schema.PropDeviceName,
			"guid": schema.PropDeviceGUID,
		},
		networkID: true,
	}
	d.load = loadDeviceNetwork
	d.check = func(ctx context.Context, g *graph.Source, dev *model.Device, vertexID uint64) error {
		clash, err := g.V().HasLabel(schema.LabelDevice).Has(schema.PropDeviceGUID, dev.DeviceID).
			Not(graph.Anon().HasID(vertexID)).
			HasNext(ctx)
		if err != nil {
			return err
		}
		if clash {
			return newError(ErrConflict, "write", string(events.KindDevice), dev.ID, nil)
		}
		return nil
	}
	d.link = func(ctx context.Context, g *graph.Source, dev *model.Device, vertexID uint64) ([]events.Event, error) {
		ev, err := setOwner(ctx, g, dev, vertexID, dev.NetworkID)
		if err != nil || ev == nil {
			return nil, err
		}
		return []events.Event{*ev}, nil
	}
	return &DeviceDAO{entityDAO: d}
}

func loadDeviceNetwork(ctx context.Context, g *graph.Source, v *storage.Vertex, dev *model.Device) error {
	nv, err := g.V(v.ID).Then(schema.DeviceNetwork()).NextVertex(ctx)
	if err != nil || nv == nil {
		return err
	}
	if id, ok := schema.VertexID(nv); ok {
		dev.NetworkID = &id
	}
	return nil
}

// setOwner makes networkID the device's only owner (none when networkID is nil).
// It returns the ownership event to emit after commit, or nil when nothing changed.
func setOwner(ctx context.Context, g *graph.Source, dev *model.Device, vertexID uint64, networkID *int64) (*events.Event, error) {
	current, err := g.V(vertexID).Then(schema.DeviceNetwork()).Vertices(ctx)
	if err != nil {
		return nil, err
	}
	var previous *int64
	if len(current) > 0 {
		if id, ok := schema.VertexID(current[0]); ok {
			previous = &id
		}
	}
	if len(current) == 1 && networkID != nil && previous != nil && *previous == *networkID {
		return nil, nil
	}
	if len(current) == 0 && networkID == nil {
		return nil, nil
	}

	if networkID != nil {
		if err := requireVertex(ctx, g, "assign_network", schema.LabelNetwork, *networkID); err != nil {
			return nil, err
		}
	}
	if err := g.V(vertexID).Then(schema.OwnershipEdges()).Drop(ctx); err != nil {
		return nil, err
	}
	if networkID == nil {
		ev := events.New(events.KindOwnership, events.OpUnassigned, events.Ownership{
			GUID: dev.DeviceID, NetworkID: derefOr(previous), Previous: previous, DeviceID: derefOr(dev.ID),
		})
		return &ev, nil
	}
	if err := schema.BelongsTo.Link(g.V(vertexID), schema.ByID(g, schema.LabelNetwork, *networkID)).Iterate(ctx); err != nil {
		return nil, err
	}
	ev := events.New(events.KindOwnership, events.OpAssigned, events.Ownership{
		DeviceID: derefOr(dev.ID), GUID: dev.DeviceID, NetworkID: *networkID, Previous: previous,
	})
	return &ev, nil
}

func derefOr(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

// FindByGUID returns the device with guid, or nil
func (d *DeviceDAO) FindByGUID(ctx context.Context, guid string) (*model.Device, error) {
	c := d.begin("find_by_guid", nil, logging.GUID(guid))
	out, err := d.first(ctx, func(g *graph.Source) *graph.Traversal {
		return g.V().HasLabel(schema.LabelDevice).Has(schema.PropDeviceGUID, guid)
	})
	return out, d.end(c, err)
}

// AssignNetwork moves the device to networkID. The old BELONGS_TO edge is dropped
// and the new one added in one transaction, so the device never has two owners.
func (d *DeviceDAO) AssignNetwork(ctx context.Context, dev *model.Device, networkID int64) error {
	if dev == nil || dev.ID == nil {
		return d.end(d.begin("assign_network", nil), newError(ErrInvalidInput, "assign_network", string(d.kind), nil, nil))
	}
	id := *dev.ID
	c := d.begin("assign_network", &id, logging.NetworkID(networkID))

	var ev *events.Event
	err := d.g.Tx(ctx, func(g *graph.Source) error {
		v, err := d.vertex(ctx, g, id)
		if err != nil {
			return err
		}
		if v == nil {
			return newError(ErrNotFound, "assign_network", string(d.kind), &id, nil)
		}
		ev, err = setOwner(ctx, g, dev, v.ID, &networkID)
		return err
	})
	if err != nil {
		return d.end(c, err)
	}

	dev.NetworkID = &networkID
	if ev != nil {
		d.emit(*ev)
	}
	return d.end(c, nil)
}

// ListByNetwork returns the devices owned by networkID
func (d *DeviceDAO) ListByNetwork(ctx context.Context, networkID int64) ([]model.Device, error) {
	c := d.begin("list_by_network", nil, logging.NetworkID(networkID))
	out, err := d.all(ctx, func(g *graph.Source) *graph.Traversal {
		return schema.ByID(g, schema.LabelNetwork, networkID).Then(schema.NetworkDevices()).Order(schema.PropID, true)
	})
	return out, d.end(c, err)
}

// ListByGUIDs returns the devices with one of guids owned by a network in permitted
// (no restriction when permitted is nil)
func (d *DeviceDAO) ListByGUIDs(ctx context.Context, guids []string, permitted []int64) ([]model.Device, error) {
	c := d.begin("list_by_guids", nil, logging.Count(len(guids)))
	if len(guids) == 0 || (permitted != nil && len(permitted) == 0) {
		return []model.Device{}, d.end(c, nil)
	}

	values := make([]storage.Value, len(guids))
	for i, guid := range guids {
		values[i] = storage.StringValue(guid)
	}
	out, err := d.all(ctx, func(g *graph.Source) *graph.Traversal {
		tr := g.V().HasLabel(schema.LabelDevice).HasP(schema.PropDeviceGUID, graph.Within(values...))
		if permitted != nil {
			tr = tr.Where(schema.DeviceNetwork().HasP(schema.PropID, graph.Within(int64Values(permitted)...)))
		}
		return tr.Order(schema.PropID, true)
	})
	return out, d.end(c, err)
}
