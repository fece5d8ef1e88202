package service

import (
	"fmt"

	"github.com/dd0wney/hivegraph/pkg/dao"
)

// Messages attached to the dao error kinds the services return
const (
	msgIDNotAllowed       = "id cannot be specified for a new network"
	msgDuplicateNetwork   = "network with such name already exists"
	msgNetworkNotFound    = "network with id = %d not found"
	msgNetworksNotFound   = "networks with ids %v not found or access denied"
	msgCreationNotAllowed = "no permissions to create a network"
	msgNoNetworkAccess    = "no access to any network"
	msgDeviceNotFound     = "device with guid = %s not found or access denied"
	msgNoUser             = "principal has no user"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", dao.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", dao.ErrConflict, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", dao.ErrNotFound, fmt.Sprintf(format, args...))
}

func denied(format string, args ...any) error {
	return fmt.Errorf("%w: %s", dao.ErrAccessDenied, fmt.Sprintf(format, args...))
}

// invalidEntity wraps a validation failure so it matches both dao.ErrInvalidInput
// and validation.ErrInvalid
func invalidEntity(err error) error {
	return fmt.Errorf("%w: %w", dao.ErrInvalidInput, err)
}
