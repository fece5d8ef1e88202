package dao

import (
	"context"

	"github.com/dd0wney/hivegraph/pkg/events"
	"github.com/dd0wney/hivegraph/pkg/graph"
	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/model"
	"github.com/dd0wney/hivegraph/pkg/schema"
)

// UserDAO stores users. Logins are unique across all users, soft-deleted ones
// included. Every lookup by login skips soft-deleted users; Find by id does not.
// A user written without a role is stored as a client.
type UserDAO struct {
	*entityDAO[model.User]
	networks schema.NetworkCodec
}

// NewUserDAO creates a user DAO over g
func NewUserDAO(g *graph.Source, opts Options) *UserDAO {
	d := newEntityDAO[model.User](g, schema.UserCodec{}, events.KindUser, opts)
	d.id = func(u *model.User) *int64 { return u.ID }
	d.setID = func(u *model.User, id *int64) { u.ID = id }
	d.allowGivenID = true
	d.list = listSpec{
		label:   schema.LabelUser,
		nameKey: schema.PropUserLogin,
		sortable: map[string]string{
			"id":        schema.PropID,
			"login":     schema.PropUserLogin,
			"role":      schema.PropUserRole,
			"status":    schema.PropUserStatus,
			"lastLogin": schema.PropUserLastLogin,
		},
		status: true,
		role:   true,
	}
	d.prepare = func(u *model.User) {
		if u.Role == model.UserRoleUnset {
			u.Role = model.UserRoleClient
		}
	}
	d.check = func(ctx context.Context, g *graph.Source, u *model.User, vertexID uint64) error {
		clash, err := g.V().HasLabel(schema.LabelUser).Has(schema.PropUserLogin, u.Login).
			Not(graph.Anon().HasID(vertexID)).
			HasNext(ctx)
		if err != nil {
			return err
		}
		if clash {
			return newError(ErrConflict, "write", string(events.KindUser), u.ID, nil)
		}
		return nil
	}
	return &UserDAO{entityDAO: d}
}

func (d *UserDAO) findActiveBy(ctx context.Context, op, key, value string) (*model.User, error) {
	c := d.begin(op, nil, logging.String(key, value))
	out, err := d.first(ctx, func(g *graph.Source) *graph.Traversal {
		return g.V().HasLabel(schema.LabelUser).Has(key, value).Then(schema.ActiveUsers())
	})
	return out, d.end(c, err)
}

// FindByLogin returns the non-deleted user with login, or nil
func (d *UserDAO) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	return d.findActiveBy(ctx, "find_by_login", schema.PropUserLogin, login)
}

// FindByGoogleLogin matches case-insensitively
func (d *UserDAO) FindByGoogleLogin(ctx context.Context, login string) (*model.User, error) {
	return d.findActiveBy(ctx, "find_by_google_login", schema.PropUserGoogleLogin, schema.NormalizeIdentityLogin(login))
}

// FindByFacebookLogin matches case-insensitively
func (d *UserDAO) FindByFacebookLogin(ctx context.Context, login string) (*model.User, error) {
	return d.findActiveBy(ctx, "find_by_facebook_login", schema.PropUserFacebookLogin, schema.NormalizeIdentityLogin(login))
}

// FindByGithubLogin matches case-insensitively
func (d *UserDAO) FindByGithubLogin(ctx context.Context, login string) (*model.User, error) {
	return d.findActiveBy(ctx, "find_by_github_login", schema.PropUserGithubLogin, schema.NormalizeIdentityLogin(login))
}

// FindByIdentityLogin returns a non-deleted user whose login or any external identity
// login matches the corresponding argument. Empty arguments are ignored.
func (d *UserDAO) FindByIdentityLogin(ctx context.Context, login, googleLogin, facebookLogin, githubLogin string) (*model.User, error) {
	var alternatives []*graph.Traversal
	if login != "" {
		alternatives = append(alternatives, graph.Anon().Has(schema.PropUserLogin, login))
	}
	identities := []struct{ key, value string }{
		{schema.PropUserGoogleLogin, googleLogin},
		{schema.PropUserFacebookLogin, facebookLogin},
		{schema.PropUserGithubLogin, githubLogin},
	}
	for _, id := range identities {
		if id.value != "" {
			alternatives = append(alternatives, graph.Anon().Has(id.key, schema.NormalizeIdentityLogin(id.value)))
		}
	}

	c := d.begin("find_by_identity_login", nil)
	if len(alternatives) == 0 {
		return nil, d.end(c, nil)
	}
	out, err := d.first(ctx, func(g *graph.Source) *graph.Traversal {
		return g.V().HasLabel(schema.LabelUser).Or(alternatives...).Then(schema.ActiveUsers()).Order(schema.PropID, true)
	})
	return out, d.end(c, err)
}

// GetWithNetworks returns the user and the networks it is a member of, or nil
func (d *UserDAO) GetWithNetworks(ctx context.Context, id int64) (*model.UserWithNetworks, error) {
	c := d.begin("get_with_networks", &id)

	var out *model.UserWithNetworks
	err := d.g.Read(ctx, func(g *graph.Source) error {
		v, err := d.vertex(ctx, g, id)
		if err != nil || v == nil {
			return err
		}
		user, err := d.decode(ctx, g, v)
		if err != nil {
			return err
		}
		vertices, err := g.V(v.ID).Then(schema.UserNetworks()).Dedup().Order(schema.PropID, true).Vertices(ctx)
		if err != nil {
			return err
		}
		out = &model.UserWithNetworks{User: *user, Networks: make([]model.Network, 0, len(vertices))}
		for _, nv := range vertices {
			n, err := d.networks.Decode(nv)
			if err != nil {
				return err
			}
			out.Networks = append(out.Networks, *n)
		}
		return nil
	})
	return out, d.end(c, err)
}

// AssignNetwork makes the user a member of the network. Assigning twice is a no-op.
func (d *UserDAO) AssignNetwork(ctx context.Context, user *model.User, networkID int64) error {
	if user == nil || user.ID == nil {
		return d.end(d.begin("assign_network", nil), newError(ErrInvalidInput, "assign_network", string(d.kind), nil, nil))
	}
	userID := *user.ID
	c := d.begin("assign_network", &userID, logging.NetworkID(networkID))

	added := false
	err := d.g.Tx(ctx, func(g *graph.Source) error {
		if err := requireVertex(ctx, g, "assign_network", schema.LabelUser, userID); err != nil {
			return err
		}
		if err := requireVertex(ctx, g, "assign_network", schema.LabelNetwork, networkID); err != nil {
			return err
		}
		member, err := schema.ByID(g, schema.LabelUser, userID).Then(schema.MembershipEdgesTo(networkID)).HasNext(ctx)
		if err != nil || member {
			return err
		}
		added = true
		return schema.IsMemberOf.Link(
			schema.ByID(g, schema.LabelUser, userID),
			schema.ByID(g, schema.LabelNetwork, networkID),
		).Iterate(ctx)
	})
	if err != nil {
		return d.end(c, err)
	}

	if added {
		d.emit(events.New(events.KindMembership, events.OpAssigned, events.Membership{UserID: userID, NetworkID: networkID}))
	}
	return d.end(c, nil)
}

// UnassignNetwork removes the membership. A missing membership is not an error.
func (d *UserDAO) UnassignNetwork(ctx context.Context, user *model.User, networkID int64) error {
	if user == nil || user.ID == nil {
		return d.end(d.begin("unassign_network", nil), newError(ErrInvalidInput, "unassign_network", string(d.kind), nil, nil))
	}
	userID := *user.ID
	c := d.begin("unassign_network", &userID, logging.NetworkID(networkID))

	var removed int64
	err := d.g.Tx(ctx, func(g *graph.Source) error {
		edges := schema.ByID(g, schema.LabelUser, userID).Then(schema.MembershipEdgesTo(networkID))
		var err error
		if removed, err = edges.Count(ctx); err != nil || removed == 0 {
			return err
		}
		return edges.Drop(ctx)
	})
	if err != nil {
		return d.end(c, err)
	}

	if removed > 0 {
		d.emit(events.New(events.KindMembership, events.OpUnassigned, events.Membership{UserID: userID, NetworkID: networkID}))
	}
	return d.end(c, nil)
}

// CountActive counts users that are not soft-deleted
func (d *UserDAO) CountActive(ctx context.Context) (int64, error) {
	c := d.begin("count_active", nil)
	n, err := d.g.V().HasLabel(schema.LabelUser).Then(schema.ActiveUsers()).Count(ctx)
	return n, d.end(c, err)
}

// requireVertex fails with ErrNotFound unless label has a vertex with id
func requireVertex(ctx context.Context, g *graph.Source, op, label string, id int64) error {
	ok, err := schema.ByID(g, label, id).HasNext(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return newError(ErrNotFound, op, label, &id, nil)
	}
	return nil
}
