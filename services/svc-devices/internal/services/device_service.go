package services

import (
	"context"
	"errors"

	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
	"github.com/architeacher/devices-api/services/svc-devices/internal/ports"
)

type DevicesService struct {
	repo ports.DeviceRepository
}

func NewDevicesService(repo ports.DeviceRepository) *DevicesService {
	return &DevicesService{repo: repo}
}

func (s *DevicesService) CreateDevice(ctx context.Context, name, brand string, state model.State) (*model.Device, error) {
	device := model.NewDevice(name, brand, state)

	if err := s.repo.Create(ctx, device); err != nil {
		return nil, err
	}

	return device, nil
}

func (s *DevicesService) GetDevice(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	return s.load(ctx, id)
}

func (s *DevicesService) ListDevices(ctx context.Context, filter model.DeviceFilter) ([]*model.Device, error) {
	var (
		devices []*model.Device
		err     error
	)

	switch {
	case filter.Brand != nil:
		devices, err = s.repo.FindByBrand(ctx, *filter.Brand)
	case filter.State != nil:
		devices, err = s.repo.FindByState(ctx, *filter.State)
	default:
		devices, err = s.repo.FindAll(ctx)
	}

	if err != nil {
		return nil, err
	}

	if devices == nil {
		devices = []*model.Device{}
	}

	return devices, nil
}

func (s *DevicesService) UpdateDevice(
	ctx context.Context,
	id model.DeviceID,
	name, brand string,
	state model.State,
) (*model.Device, error) {
	return s.mutate(ctx, id, func(current *model.Device) (*model.Device, error) {
		return current.Replace(name, brand, state), nil
	})
}

func (s *DevicesService) PatchDevice(ctx context.Context, id model.DeviceID, patch model.Patch) (*model.Device, error) {
	return s.mutate(ctx, id, patch.Apply)
}

func (s *DevicesService) DeleteDevice(ctx context.Context, id model.DeviceID) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	if err := model.ValidateMutable(current); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.explainStale(ctx, id, err)
	}

	return nil
}

// mutate loads the device, checks it may change, merges and persists the result.
// Nothing is written unless merge succeeds.
func (s *DevicesService) mutate(
	ctx context.Context,
	id model.DeviceID,
	merge func(current *model.Device) (*model.Device, error),
) (*model.Device, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := model.ValidateMutable(current); err != nil {
		return nil, err
	}

	next, err := merge(current)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, next); err != nil {
		return nil, s.explainStale(ctx, id, err)
	}

	return next, nil
}

func (s *DevicesService) load(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	device, err := s.repo.FetchByID(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrDeviceNotFound) {
			return nil, model.NewDeviceNotFoundError(id)
		}

		return nil, err
	}

	return device, nil
}

// explainStale turns a rejected guarded write into the error the caller would
// have seen had it loaded the device a moment later.
func (s *DevicesService) explainStale(ctx context.Context, id model.DeviceID, err error) error {
	if !errors.Is(err, model.ErrStaleDevice) {
		return err
	}

	fresh, loadErr := s.load(ctx, id)
	if loadErr != nil {
		return loadErr
	}

	if invalid := model.ValidateMutable(fresh); invalid != nil {
		return invalid
	}

	return err
}
