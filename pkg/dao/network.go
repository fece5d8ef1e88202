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

// NetworkDAO stores networks. Names are unique; Persist and Merge reject a name
// another network already has.
type NetworkDAO struct {
	*entityDAO[model.Network]
	users   schema.UserCodec
	devices schema.DeviceCodec
}

// NewNetworkDAO creates a network DAO over g
func NewNetworkDAO(g *graph.Source, opts Options) *NetworkDAO {
	d := newEntityDAO[model.Network](g, schema.NetworkCodec{}, events.KindNetwork, opts)
	d.id = func(n *model.Network) *int64 { return n.ID }
	d.setID = func(n *model.Network, id *int64) { n.ID = id }
	d.list = listSpec{
		label:   schema.LabelNetwork,
		nameKey: schema.PropNetworkName,
		sortable: map[string]string{
			"id":   schema.PropID,
			"name": schema.PropNetworkName,
		},
	}
	d.check = func(ctx context.Context, g *graph.Source, n *model.Network, vertexID uint64) error {
		clash, err := g.V().HasLabel(schema.LabelNetwork).Has(schema.PropNetworkName, n.Name).
			Not(graph.Anon().HasID(vertexID)).
			HasNext(ctx)
		if err != nil {
			return err
		}
		if clash {
			return newError(ErrConflict, "write", string(events.KindNetwork), n.ID, nil)
		}
		return nil
	}
	return &NetworkDAO{entityDAO: d}
}

// FindByName returns every network named name (at most one while names are unique)
func (d *NetworkDAO) FindByName(ctx context.Context, name string) ([]model.Network, error) {
	c := d.begin("find_by_name", nil, logging.String("name", name))
	out, err := d.all(ctx, func(g *graph.Source) *graph.Traversal {
		return g.V().HasLabel(schema.LabelNetwork).Has(schema.PropNetworkName, name).Order(schema.PropID, true)
	})
	return out, d.end(c, err)
}

// FindFirstByName returns the lowest-id network named name, or nil
func (d *NetworkDAO) FindFirstByName(ctx context.Context, name string) (*model.Network, error) {
	c := d.begin("find_first_by_name", nil, logging.String("name", name))
	out, err := d.first(ctx, func(g *graph.Source) *graph.Traversal {
		return g.V().HasLabel(schema.LabelNetwork).Has(schema.PropNetworkName, name).Order(schema.PropID, true)
	})
	return out, d.end(c, err)
}

// GetWithUsersAndDevices returns the network with its non-deleted members and its
// devices, or nil
func (d *NetworkDAO) GetWithUsersAndDevices(ctx context.Context, id int64) (*model.NetworkWithUsersAndDevices, error) {
	c := d.begin("get_with_users_and_devices", &id)

	var out *model.NetworkWithUsersAndDevices
	err := d.g.Read(ctx, func(g *graph.Source) error {
		v, err := d.vertex(ctx, g, id)
		if err != nil || v == nil {
			return err
		}
		network, err := d.decode(ctx, g, v)
		if err != nil {
			return err
		}

		userVertices, err := g.V(v.ID).Then(schema.NetworkMembers()).Then(schema.ActiveUsers()).
			Dedup().Order(schema.PropID, true).Vertices(ctx)
		if err != nil {
			return err
		}
		deviceVertices, err := g.V(v.ID).Then(schema.NetworkDevices()).Order(schema.PropID, true).Vertices(ctx)
		if err != nil {
			return err
		}

		out = &model.NetworkWithUsersAndDevices{
			Network: *network,
			Users:   make([]model.User, 0, len(userVertices)),
			Devices: make([]model.Device, 0, len(deviceVertices)),
		}
		for _, uv := range userVertices {
			u, err := d.users.Decode(uv)
			if err != nil {
				return err
			}
			out.Users = append(out.Users, *u)
		}
		for _, dv := range deviceVertices {
			dev, err := d.devices.Decode(dv)
			if err != nil {
				return err
			}
			dev.NetworkID = network.ID
			out.Devices = append(out.Devices, *dev)
		}
		return nil
	})
	return out, d.end(c, err)
}

// GetNetworksByIDsAndUsers returns the networks among ids that userID is a member of
// (any user when userID is nil) and that are in permitted (no restriction when
// permitted is nil).
func (d *NetworkDAO) GetNetworksByIDsAndUsers(ctx context.Context, userID *int64, ids []int64, permitted []int64) ([]model.Network, error) {
	c := d.begin("get_by_ids_and_users", nil, logging.OptionalID("user_id", userID), logging.Count(len(ids)))
	if len(ids) == 0 || (permitted != nil && len(permitted) == 0) {
		return []model.Network{}, d.end(c, nil)
	}

	out, err := d.all(ctx, func(g *graph.Source) *graph.Traversal {
		tr := schema.ByIDs(g, schema.LabelNetwork, ids)
		if permitted != nil {
			tr = tr.HasP(schema.PropID, graph.Within(int64Values(permitted)...))
		}
		if userID != nil {
			tr = tr.Where(schema.NetworkMembers().Has(schema.PropID, *userID))
		}
		return tr.Order(schema.PropID, true)
	})
	return out, d.end(c, err)
}

// FindDefaultByUser returns the lowest-id network the user is a member of, or nil
func (d *NetworkDAO) FindDefaultByUser(ctx context.Context, userID int64) (*model.Network, error) {
	c := d.begin("find_default_by_user", nil, logging.UserID(userID))
	out, err := d.first(ctx, func(g *graph.Source) *graph.Traversal {
		return schema.ByID(g, schema.LabelUser, userID).Then(schema.UserNetworks()).Order(schema.PropID, true)
	})
	return out, d.end(c, err)
}

func int64Values(ids []int64) []storage.Value {
	values := make([]storage.Value, len(ids))
	for i, id := range ids {
		values[i] = storage.IntValue(id)
	}
	return values
}
