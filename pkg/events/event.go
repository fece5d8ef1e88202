package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the entity an event is about
type Kind string

const (
	KindUser       Kind = "user"
	KindNetwork    Kind = "network"
	KindDevice     Kind = "device"
	KindMembership Kind = "membership"
	KindOwnership  Kind = "ownership"
)

// Op is what happened to the entity
type Op string

const (
	OpCreated    Op = "created"
	OpUpdated    Op = "updated"
	OpDeleted    Op = "deleted"
	OpAssigned   Op = "assigned"
	OpUnassigned Op = "unassigned"
)

// Event is emitted after a mutation commits. Payload holds the entity as it is after
// the mutation (for deletes, the id that was removed).
type Event struct {
	ID      uuid.UUID `json:"id"`
	Entity  Kind      `json:"entity"`
	Op      Op        `json:"op"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// New stamps an event with a fresh id and the current time
func New(entity Kind, op Op, payload any) Event {
	return Event{
		ID:      uuid.New(),
		Entity:  entity,
		Op:      op,
		Payload: payload,
		At:      time.Now().UTC(),
	}
}

// Topic is the subscription topic the event is delivered on
func (e Event) Topic() string {
	return string(e.Entity)
}

// Membership is the payload of membership events
type Membership struct {
	UserID    int64 `json:"userId"`
	NetworkID int64 `json:"networkId"`
}

// Ownership is the payload of ownership events
type Ownership struct {
	DeviceID  int64  `json:"deviceId"`
	GUID      string `json:"guid"`
	NetworkID int64  `json:"networkId"`
	// Previous is the network the device left, if any
	Previous *int64 `json:"previousNetworkId,omitempty"`
}

// Deleted is the payload of delete events
type Deleted struct {
	ID int64 `json:"id"`
}

// Publisher accepts events. Publish never blocks on slow consumers.
type Publisher interface {
	Publish(ev Event)
}

// Listener is called once per delivered event
type Listener interface {
	OnEvent(ev Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(ev Event)

func (f ListenerFunc) OnEvent(ev Event) { f(ev) }

// Notifier forwards an event somewhere that may fail
type Notifier func(ev Event) error

// Discard drops every event
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}
