package service

import (
	"context"

	"github.com/dd0wney/hivegraph/pkg/access"
	"github.com/dd0wney/hivegraph/pkg/dao"
	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/model"
)

// DeviceService answers device lookups within what a principal may see
type DeviceService struct {
	devices  *dao.DeviceDAO
	networks *NetworkService
	access   *access.Engine
	logger   logging.Logger
}

// NewDeviceService creates the service; logger may be nil
func NewDeviceService(devices *dao.DeviceDAO, networks *NetworkService, engine *access.Engine, logger logging.Logger) *DeviceService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &DeviceService{
		devices:  devices,
		networks: networks,
		access:   engine,
		logger:   logger.With(logging.Component("device_service")),
	}
}

// FindByIDWithPermissionsCheck returns the device with guid if the principal can
// see it, or nil
func (s *DeviceService) FindByIDWithPermissionsCheck(ctx context.Context, guid string, p Principal) (*model.Device, error) {
	found, err := s.FindByIDsWithPermissionsCheck(ctx, []string{guid}, p)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

// FindByIDsWithPermissionsCheck returns the devices among guids the principal can see
func (s *DeviceService) FindByIDsWithPermissionsCheck(ctx context.Context, guids []string, p Principal) ([]model.Device, error) {
	permitted, err := s.permittedNetworks(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.devices.ListByGUIDs(ctx, guids, permitted)
}

// List returns the devices of a network
func (s *DeviceService) List(ctx context.Context, networkID int64) ([]model.Device, error) {
	return s.devices.ListByNetwork(ctx, networkID)
}

// Reassign moves a device the principal can see to a network the principal can see
func (s *DeviceService) Reassign(ctx context.Context, guid string, networkID int64, p Principal) (*model.Device, error) {
	dev, err := s.FindByIDWithPermissionsCheck(ctx, guid, p)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, notFound(msgDeviceNotFound, guid)
	}

	exists, err := s.networks.Exists(ctx, &networkID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound(msgNetworkNotFound, networkID)
	}

	if !p.permits(networkID) {
		return nil, denied(msgNetworksNotFound, []int64{networkID})
	}
	if !p.IsAdmin() {
		if p.User == nil || p.User.ID == nil {
			return nil, denied(msgNoUser)
		}
		count, err := s.access.HasAccessToNetwork(ctx, *p.User.ID, networkID)
		if err != nil {
			return nil, err
		}
		if !access.Allowed(count) {
			s.logger.Warn("device reassignment denied", logging.GUID(guid), logging.NetworkID(networkID), logging.UserID(*p.User.ID))
			return nil, denied(msgNetworksNotFound, []int64{networkID})
		}
	}

	if err := s.devices.AssignNetwork(ctx, dev, networkID); err != nil {
		return nil, err
	}
	s.logger.Info("device reassigned", logging.GUID(guid), logging.NetworkID(networkID))
	return dev, nil
}

// permittedNetworks is the network scope of a device lookup: nil for an unrestricted
// admin, the user's memberships otherwise, narrowed by the principal's NetworkIDs.
// A principal without a user is limited to its NetworkIDs.
func (s *DeviceService) permittedNetworks(ctx context.Context, p Principal) ([]int64, error) {
	switch {
	case p.User == nil:
		if p.NetworkIDs == nil {
			return []int64{}, nil
		}
		return p.NetworkIDs, nil
	case p.IsAdmin():
		return p.NetworkIDs, nil
	case p.User.ID == nil:
		return []int64{}, nil
	}

	ids, err := s.access.PermittedNetworkIDs(ctx, *p.User.ID)
	if err != nil {
		return nil, err
	}
	return p.intersect(ids), nil
}
