package ports

import (
	"context"

	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
)

// DevicesService defines the device lifecycle operations.
type DevicesService interface {
	CreateDevice(ctx context.Context, name, brand string, state model.State) (*model.Device, error)

	GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error)

	// ListDevices never returns a nil slice.
	ListDevices(ctx context.Context, filter model.DeviceFilter) ([]*model.Device, error)

	// UpdateDevice replaces name, brand and state of a device that is not IN_USE.
	UpdateDevice(ctx context.Context, id model.DeviceID, name, brand string, state model.State) (*model.Device, error)

	// PatchDevice merges patch into a device that is not IN_USE.
	PatchDevice(ctx context.Context, id model.DeviceID, patch model.Patch) (*model.Device, error)

	DeleteDevice(ctx context.Context, id model.DeviceID) error
}
