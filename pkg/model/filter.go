package model

import "strings"

// ListFilter selects and pages entities. Name and NamePattern match the entity's
// name property (login for users). Status, Role and NetworkID only apply to the
// entities that carry them; setting one for another entity yields an empty result.
type ListFilter struct {
	Name        string
	NamePattern string
	Status      *UserStatus
	Role        *UserRole
	NetworkID   *int64

	SortField string
	SortAsc   bool
	Take      int
	Skip      int
}

// Pattern strips leading and trailing SQL-style % wildcards; the remainder is
// matched as a substring. ok is false when a % is left inside the pattern.
func (f ListFilter) Pattern() (string, bool) {
	p := strings.Trim(f.NamePattern, "%")
	return p, !strings.Contains(p, "%")
}

// Int64 returns a pointer to v
func Int64(v int64) *int64 {
	return &v
}
