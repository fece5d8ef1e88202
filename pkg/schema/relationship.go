package schema

import (
	"fmt"

	"github.com/dd0wney/hivegraph/pkg/graph"
	"github.com/dd0wney/hivegraph/pkg/model"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// Relationship describes one edge kind: the label, the endpoint labels it is created
// between, and the direction queries follow when starting at From.
type Relationship struct {
	Label string
	From  string
	To    string
	Query graph.Direction
}

var (
	// IsMemberOf links a user to a network it may see
	IsMemberOf = Relationship{Label: EdgeIsMemberOf, From: LabelUser, To: LabelNetwork, Query: graph.Both}
	// BelongsTo links a device to its owning network
	BelongsTo = Relationship{Label: EdgeBelongsTo, From: LabelDevice, To: LabelNetwork, Query: graph.Out}
)

// Relationships lists every edge kind in the schema
var Relationships = []Relationship{IsMemberOf, BelongsTo}

// Allows reports whether an edge may be created from a fromLabel vertex to a toLabel vertex
func (r Relationship) Allows(fromLabel, toLabel string) bool {
	return r.From == fromLabel && r.To == toLabel
}

// reverse is the direction that walks from To back to From
func (r Relationship) reverse() graph.Direction {
	switch r.Query {
	case graph.Out:
		return graph.In
	case graph.In:
		return graph.Out
	default:
		return graph.Both
	}
}

// Link returns a traversal that adds the edge from every vertex of from to every vertex of to.
// Endpoints are checked with Allows; a mismatch fails with graph.ErrEndpointLabel.
func (r Relationship) Link(from, to *graph.Traversal) *graph.Traversal {
	return from.AddEChecked(r.Label, to, r.Allows)
}

func (r Relationship) String() string {
	return fmt.Sprintf("(%s)-[%s]->(%s)", r.From, r.Label, r.To)
}

// Canonical fragments. These are the only place that decides which way an edge is walked.

// UserNetworks moves from a user to the networks it is a member of
func UserNetworks() *graph.Traversal {
	return graph.Anon().ToV(IsMemberOf.Query, IsMemberOf.Label).HasLabel(LabelNetwork)
}

// NetworkMembers moves from a network to its member users
func NetworkMembers() *graph.Traversal {
	return graph.Anon().ToV(IsMemberOf.reverse(), IsMemberOf.Label).HasLabel(LabelUser)
}

// NetworkDevices moves from a network to the devices it owns
func NetworkDevices() *graph.Traversal {
	return graph.Anon().ToV(BelongsTo.reverse(), BelongsTo.Label).HasLabel(LabelDevice)
}

// DeviceNetwork moves from a device to its owning network
func DeviceNetwork() *graph.Traversal {
	return graph.Anon().ToV(BelongsTo.Query, BelongsTo.Label).HasLabel(LabelNetwork)
}

// MembershipEdgesTo moves from a user to its IS_MEMBER_OF edges whose far end is networkID
func MembershipEdgesTo(networkID int64) *graph.Traversal {
	return graph.Anon().
		ToE(IsMemberOf.Query, IsMemberOf.Label).
		Where(graph.Anon().OtherV().HasLabel(LabelNetwork).Has(PropID, networkID))
}

// OwnershipEdges moves from a device to its BELONGS_TO edges
func OwnershipEdges() *graph.Traversal {
	return graph.Anon().ToE(BelongsTo.Query, BelongsTo.Label)
}

// ActiveUsers keeps users that are not soft-deleted. The test runs per user.
func ActiveUsers() *graph.Traversal {
	return graph.Anon().HasP(PropUserStatus, graph.Neq(storage.IntValue(int64(model.UserStatusDeleted))))
}

// ByID starts at the vertex with label and domain id
func ByID(g *graph.Source, label string, id int64) *graph.Traversal {
	return g.V().HasLabel(label).Has(PropID, id)
}

// ByIDs starts at the vertices with label whose domain id is one of ids
func ByIDs(g *graph.Source, label string, ids []int64) *graph.Traversal {
	values := make([]storage.Value, len(ids))
	for i, id := range ids {
		values[i] = storage.IntValue(id)
	}
	return g.V().HasLabel(label).HasP(PropID, graph.Within(values...))
}

// VertexID reads the domain id of v
func VertexID(v *storage.Vertex) (int64, bool) {
	val, ok := v.GetProperty(PropID)
	if !ok {
		return 0, false
	}
	id, err := val.AsInt()
	return id, err == nil
}
