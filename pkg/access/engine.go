// Package access answers whether a user may see a network or a device. Both answers
// are counts of graph paths; zero means no access. Missing users, networks and
// devices are not errors, they simply have no paths. Store failures are reported
// with the dao error kinds.
package access

import (
	"context"
	"sort"

	"github.com/dd0wney/hivegraph/pkg/dao"
	"github.com/dd0wney/hivegraph/pkg/graph"
	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/metrics"
	"github.com/dd0wney/hivegraph/pkg/schema"
)

const entityAccess = "access"

// Engine evaluates access traversals. It holds no state besides its collaborators.
type Engine struct {
	g       *graph.Source
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewEngine creates an engine over g. logger and reg may be nil.
func NewEngine(g *graph.Source, logger logging.Logger, reg *metrics.Registry) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{g: g, logger: logger.With(logging.Component("access")), metrics: reg}
}

// Allowed turns an access count into a decision
func Allowed(count int64) bool {
	return count > 0
}

// NetworkAccess is the traversal behind HasAccessToNetwork: the user's membership
// edges whose far end is the network
func NetworkAccess(g *graph.Source, userID, networkID int64) *graph.Traversal {
	return schema.ByID(g, schema.LabelUser, userID).Then(schema.MembershipEdgesTo(networkID))
}

// DeviceAccess is the traversal behind HasAccessToDevice: the distinct devices with
// guid owned by any network the user is a member of
func DeviceAccess(g *graph.Source, userID int64, guid string) *graph.Traversal {
	return schema.ByID(g, schema.LabelUser, userID).
		Then(schema.UserNetworks()).
		Then(schema.NetworkDevices()).
		Has(schema.PropDeviceGUID, guid).
		Dedup()
}

// HasAccessToNetwork counts the membership edges between the user and the network
func (e *Engine) HasAccessToNetwork(ctx context.Context, userID, networkID int64) (int64, error) {
	count, err := NetworkAccess(e.g, userID, networkID).Count(ctx)
	if err != nil {
		e.logger.Error("network access check failed", logging.UserID(userID), logging.NetworkID(networkID), logging.Error(err))
		return 0, dao.Classify("has_access_to_network", entityAccess, err)
	}
	e.record("network", count)
	e.logger.Debug("network access checked",
		logging.UserID(userID), logging.NetworkID(networkID), logging.Int64("count", count))
	return count, nil
}

// HasAccessToDevice counts the distinct devices with guid reachable from the user
// through its networks. Because guids are unique the count is 0 or 1.
func (e *Engine) HasAccessToDevice(ctx context.Context, userID int64, guid string) (int64, error) {
	count, err := DeviceAccess(e.g, userID, guid).Count(ctx)
	if err != nil {
		e.logger.Error("device access check failed", logging.UserID(userID), logging.GUID(guid), logging.Error(err))
		return 0, dao.Classify("has_access_to_device", entityAccess, err)
	}
	e.record("device", count)
	e.logger.Debug("device access checked",
		logging.UserID(userID), logging.GUID(guid), logging.Int64("count", count))
	return count, nil
}

// PermittedNetworkIDs returns the ids of every network the user is a member of, in
// ascending order. Services pass the result down as an explicit permission scope.
func (e *Engine) PermittedNetworkIDs(ctx context.Context, userID int64) ([]int64, error) {
	values, err := schema.ByID(e.g, schema.LabelUser, userID).
		Then(schema.UserNetworks()).
		Dedup().
		Values(ctx, schema.PropID)
	if err != nil {
		return nil, dao.Classify("permitted_network_ids", entityAccess, err)
	}

	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := v.AsInt()
		if err != nil {
			return nil, dao.Classify("permitted_network_ids", entityAccess,
				&schema.CorruptEntityError{Label: schema.LabelNetwork, Property: schema.PropID, Reason: err.Error()})
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (e *Engine) record(kind string, count int64) {
	if e.metrics != nil {
		e.metrics.RecordAccessCheck(kind, Allowed(count))
	}
}
