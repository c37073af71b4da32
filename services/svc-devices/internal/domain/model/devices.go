package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type DeviceID struct {
	uuid.UUID
}

func NewDeviceID() DeviceID {
	return DeviceID{UUID: uuid.Must(uuid.NewV7())}
}

func ParseDeviceID(s string) (DeviceID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return DeviceID{}, fmt.Errorf("%w: %q", ErrInvalidDeviceID, s)
	}

	return DeviceID{UUID: id}, nil
}

func (d DeviceID) String() string {
	return d.UUID.String()
}

func (d DeviceID) IsZero() bool {
	return d.UUID == uuid.Nil
}

// Device is the managed resource. ID and CreationTime are assigned once and never change.
type Device struct {
	ID           DeviceID
	Name         string
	Brand        string
	State        State
	CreationTime time.Time
}

// NewDevice allocates a fresh id and stamps the creation time.
func NewDevice(name, brand string, state State) *Device {
	return &Device{
		ID:           NewDeviceID(),
		Name:         name,
		Brand:        brand,
		State:        state,
		CreationTime: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// RestoreDevice rebuilds a device from already persisted values.
func RestoreDevice(id DeviceID, name, brand string, state State, creationTime time.Time) *Device {
	return &Device{
		ID:           id,
		Name:         name,
		Brand:        brand,
		State:        state,
		CreationTime: creationTime.UTC(),
	}
}

// Replace returns a device with the same identity and creation time as d
// and every other field taken from the arguments.
func (d *Device) Replace(name, brand string, state State) *Device {
	return RestoreDevice(d.ID, name, brand, state, d.CreationTime)
}

func (d *Device) clone() *Device {
	c := *d

	return &c
}

// DeviceFilter selects devices by exact brand or by state.
// Brand takes precedence when both are set.
type DeviceFilter struct {
	Brand *string
	State *State
}
