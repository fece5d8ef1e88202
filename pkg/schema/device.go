package schema

import (
	"github.com/dd0wney/hivegraph/pkg/model"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// DeviceCodec maps model.Device to Device vertices. NetworkID lives on the
// BELONGS_TO edge, not on the vertex, so Decode leaves it nil.
type DeviceCodec struct{}

var _ Codec[*model.Device] = DeviceCodec{}

func (DeviceCodec) Label() string { return LabelDevice }

func (DeviceCodec) Encode(dev *model.Device) map[string]storage.Value {
	props := map[string]storage.Value{
		PropDeviceGUID:    storage.StringValue(dev.DeviceID),
		PropDeviceBlocked: storage.BoolValue(dev.Blocked),
	}
	putID(props, dev.ID)
	putString(props, PropDeviceName, dev.Name)
	putString(props, PropDeviceData, dev.Data)
	return props
}

func (DeviceCodec) Decode(v *storage.Vertex) (*model.Device, error) {
	d := newDecoder(v, LabelDevice)
	dev := &model.Device{
		ID:       d.id(),
		DeviceID: d.getString(PropDeviceGUID, true),
		Name:     d.getString(PropDeviceName, false),
		Data:     d.getString(PropDeviceData, false),
		Blocked:  d.getBool(PropDeviceBlocked),
	}
	if d.err != nil {
		return nil, d.err
	}
	return dev, nil
}
