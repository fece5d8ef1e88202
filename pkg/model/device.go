package model

// Device is identified externally by its guid. NetworkID mirrors the device's single
// BELONGS_TO edge.
type Device struct {
	ID        *int64 `json:"id,omitempty"`
	DeviceID  string `json:"guid" validate:"required,max=48"`
	Name      string `json:"name" validate:"max=128"`
	Data      string `json:"data,omitempty"`
	Blocked   bool   `json:"isBlocked"`
	NetworkID *int64 `json:"networkId,omitempty"`
}
