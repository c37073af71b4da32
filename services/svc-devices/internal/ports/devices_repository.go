package ports

import (
	"context"

	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
)

type (
	Saver interface {
		// Create stores a new device. A clashing id fails with model.ErrDuplicateDevice.
		Create(ctx context.Context, device *model.Device) error
	}

	Fetcher interface {
		// FetchByID returns the stored device or an error matching model.ErrDeviceNotFound.
		FetchByID(ctx context.Context, id model.DeviceID) (*model.Device, error)
	}

	Finder interface {
		FindAll(ctx context.Context) ([]*model.Device, error)
		FindByBrand(ctx context.Context, brand string) ([]*model.Device, error)
		FindByState(ctx context.Context, state model.State) ([]*model.Device, error)
	}

	Updater interface {
		// Update replaces the stored record unless it is missing or currently IN_USE,
		// in which case it fails with model.ErrStaleDevice and writes nothing.
		Update(ctx context.Context, device *model.Device) error
	}

	Deleter interface {
		// Delete removes the device under the same guard as Update.
		Delete(ctx context.Context, id model.DeviceID) error
	}

	// DeviceRepository defines the interface for device persistence operations.
	DeviceRepository interface {
		Saver
		Fetcher
		Finder
		Updater
		Deleter
		DatabaseHealthChecker
	}
)
