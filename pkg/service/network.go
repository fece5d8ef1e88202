package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/dd0wney/hivegraph/pkg/dao"
	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/model"
	"github.com/dd0wney/hivegraph/pkg/validation"
)

// NetworkUpdate is a partial update; nil fields are left unchanged
type NetworkUpdate struct {
	Name        *string
	Description *string
}

// NetworkService manages networks and their creators' memberships
type NetworkService struct {
	networks *dao.NetworkDAO
	users    *dao.UserDAO
	logger   logging.Logger
}

// NewNetworkService creates the service; logger may be nil
func NewNetworkService(networks *dao.NetworkDAO, users *dao.UserDAO, logger logging.Logger) *NetworkService {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &NetworkService{networks: networks, users: users, logger: logger.With(logging.Component("network_service"))}
}

// Create stores a new network. The caller may not choose the id and the name must be free.
func (s *NetworkService) Create(ctx context.Context, n *model.Network) (*model.Network, error) {
	if err := validation.ValidateNetwork(n); err != nil {
		return nil, invalidEntity(err)
	}
	if n.ID != nil {
		s.logger.Warn("network create with id rejected", logging.NetworkID(*n.ID))
		return nil, invalid(msgIDNotAllowed)
	}

	existing, err := s.networks.FindByName(ctx, n.Name)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		s.logger.Warn("network name taken", logging.String("name", n.Name))
		return nil, conflict(msgDuplicateNetwork)
	}

	if err := s.networks.Persist(ctx, n); err != nil {
		return nil, err
	}
	s.logger.Info("network created", logging.NetworkID(*n.ID), logging.String("name", n.Name))
	return n, nil
}

// Update patches the network and writes it back in full
func (s *NetworkService) Update(ctx context.Context, id int64, update NetworkUpdate) (*model.Network, error) {
	existing, err := s.networks.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, notFound(msgNetworkNotFound, id)
	}

	if update.Name != nil {
		existing.Name = *update.Name
	}
	if update.Description != nil {
		existing.Description = *update.Description
	}
	if err := validation.ValidateNetwork(existing); err != nil {
		return nil, invalidEntity(err)
	}
	return s.networks.Merge(ctx, existing)
}

// Delete removes the network and reports whether it existed
func (s *NetworkService) Delete(ctx context.Context, id int64) (bool, error) {
	count, err := s.networks.DeleteByID(ctx, id)
	if err != nil {
		return false, err
	}
	s.logger.Debug("network delete", logging.NetworkID(id), logging.Count(count))
	return count > 0, nil
}

// List returns networks matching filter
func (s *NetworkService) List(ctx context.Context, filter model.ListFilter) ([]model.Network, error) {
	if err := validation.ValidateListFilter(filter); err != nil {
		return nil, invalidEntity(err)
	}
	return s.networks.List(ctx, filter)
}

// Verify resolves a network reference by id, or by name when it has no id.
// A nil reference resolves to nil.
func (s *NetworkService) Verify(ctx context.Context, n *model.Network) (*model.Network, error) {
	if n == nil {
		return nil, nil
	}
	stored, err := s.findByIDOrName(ctx, n)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		if n.ID != nil {
			return nil, notFound(msgNetworkNotFound, *n.ID)
		}
		return nil, notFound("network %q not found", n.Name)
	}
	return stored, nil
}

// CreateOrUpdateByUser resolves the reference like Verify; an unknown network without
// an id is created when user is an admin, and the admin becomes its member.
func (s *NetworkService) CreateOrUpdateByUser(ctx context.Context, n *model.Network, user *model.User) (*model.Network, error) {
	if n == nil {
		return nil, nil
	}
	stored, err := s.findByIDOrName(ctx, n)
	if err != nil || stored != nil {
		return stored, err
	}

	if n.ID != nil {
		return nil, invalid("unknown network id %d", *n.ID)
	}
	if user == nil || !user.IsAdmin() {
		return nil, denied(msgCreationNotAllowed)
	}

	created, err := s.Create(ctx, n)
	if err != nil {
		return nil, err
	}
	if err := s.users.AssignNetwork(ctx, user, *created.ID); err != nil {
		return nil, err
	}
	return created, nil
}

// CreateDefaultForUser makes sure the user's personal network (named after its
// login) exists
func (s *NetworkService) CreateDefaultForUser(ctx context.Context, user *model.User) (*model.Network, error) {
	if user == nil {
		return nil, invalid(msgNoUser)
	}
	return s.CreateOrUpdateByUser(ctx, &model.Network{
		Name:        user.Login,
		Description: fmt.Sprintf("User %s default network", user.Login),
	}, user)
}

// FindDefaultNetworkByUserID returns the id of the user's lowest-id network
func (s *NetworkService) FindDefaultNetworkByUserID(ctx context.Context, userID int64) (int64, error) {
	n, err := s.networks.FindDefaultByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, denied(msgNoNetworkAccess)
	}
	return *n.ID, nil
}

// Exists reports whether a network with id exists; a nil id never does
func (s *NetworkService) Exists(ctx context.Context, id *int64) (bool, error) {
	if id == nil {
		return false, nil
	}
	return s.networks.Exists(ctx, *id)
}

// GetWithDevices returns the network with its members and devices when the
// principal can see it, or nil
func (s *NetworkService) GetWithDevices(ctx context.Context, id int64, p Principal) (*model.NetworkWithUsersAndDevices, error) {
	if p.User == nil || (!p.IsAdmin() && p.User.ID == nil) {
		return nil, nil
	}
	found, err := s.networks.GetNetworksByIDsAndUsers(ctx, p.memberFilter(), []int64{id}, p.NetworkIDs)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return s.networks.GetWithUsersAndDevices(ctx, id)
}

// GetDeviceIDsForNetworks returns the sorted guids of the devices in networks ids.
// Any id the principal cannot see fails the whole call with dao.ErrAccessDenied.
func (s *NetworkService) GetDeviceIDsForNetworks(ctx context.Context, ids []int64, p Principal) ([]string, error) {
	seen := make(map[string]struct{})
	var forbidden []int64

	for _, id := range ids {
		n, err := s.GetWithDevices(ctx, id, p)
		if err != nil {
			return nil, err
		}
		if n == nil {
			forbidden = append(forbidden, id)
			continue
		}
		for _, d := range n.Devices {
			seen[d.DeviceID] = struct{}{}
		}
	}

	if len(forbidden) > 0 {
		s.logger.Warn("networks not visible to principal", logging.Any("network_ids", forbidden))
		return nil, denied(msgNetworksNotFound, forbidden)
	}

	guids := make([]string, 0, len(seen))
	for guid := range seen {
		guids = append(guids, guid)
	}
	sort.Strings(guids)
	return guids, nil
}

func (s *NetworkService) findByIDOrName(ctx context.Context, n *model.Network) (*model.Network, error) {
	if n.ID != nil {
		return s.networks.Find(ctx, *n.ID)
	}
	return s.networks.FindFirstByName(ctx, n.Name)
}
