package schema

import (
	"github.com/dd0wney/hivegraph/pkg/model"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// NetworkCodec maps model.Network to Network vertices
type NetworkCodec struct{}

var _ Codec[*model.Network] = NetworkCodec{}

func (NetworkCodec) Label() string { return LabelNetwork }

func (NetworkCodec) Encode(n *model.Network) map[string]storage.Value {
	props := map[string]storage.Value{
		PropNetworkName: storage.StringValue(n.Name),
	}
	putID(props, n.ID)
	putString(props, PropNetworkDescription, n.Description)
	return props
}

func (NetworkCodec) Decode(v *storage.Vertex) (*model.Network, error) {
	d := newDecoder(v, LabelNetwork)
	n := &model.Network{
		ID:          d.id(),
		Name:        d.getString(PropNetworkName, true),
		Description: d.getString(PropNetworkDescription, false),
	}
	if d.err != nil {
		return nil, d.err
	}
	return n, nil
}
