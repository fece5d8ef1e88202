// Package service holds the use cases built on the DAOs: network lifecycle and
// permission-checked device lookup. Callers pass the acting Principal explicitly.
package service

import (
	"slices"

	"github.com/dd0wney/hivegraph/pkg/model"
)

// Principal is the identity a call runs as. NetworkIDs narrows the principal to a
// set of networks (a scoped token); nil means no narrowing.
type Principal struct {
	User       *model.User
	NetworkIDs []int64
}

// IsAdmin reports whether the principal acts as an administrator
func (p Principal) IsAdmin() bool {
	return p.User != nil && p.User.IsAdmin()
}

// memberFilter is the user id network queries filter membership by; admins and
// principals without a user are not filtered
func (p Principal) memberFilter() *int64 {
	if p.User == nil || p.IsAdmin() {
		return nil
	}
	return p.User.ID
}

// permits reports whether the NetworkIDs narrowing allows networkID
func (p Principal) permits(networkID int64) bool {
	return p.NetworkIDs == nil || slices.Contains(p.NetworkIDs, networkID)
}

// intersect narrows ids by the principal's NetworkIDs
func (p Principal) intersect(ids []int64) []int64 {
	if p.NetworkIDs == nil {
		return ids
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if slices.Contains(p.NetworkIDs, id) {
			out = append(out, id)
		}
	}
	return out
}
