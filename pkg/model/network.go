package model

// Network groups devices; users see a device through membership of its network
type Network struct {
	ID          *int64 `json:"id,omitempty"`
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description,omitempty" validate:"max=128"`
}

// NetworkWithUsersAndDevices is a network with both sides of its relationships loaded
type NetworkWithUsersAndDevices struct {
	Network
	Users   []User   `json:"users"`
	Devices []Device `json:"devices"`
}
