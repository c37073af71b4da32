package repos

import (
	"context"
	"errors"

	"github.com/architeacher/devices-api/pkg/circuitbreaker"
	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
	"github.com/architeacher/devices-api/services/svc-devices/internal/ports"
)

// BreakerDevicesRepository guards a repository with a single circuit breaker.
// Business outcomes such as a missing or locked device never trip it.
type BreakerDevicesRepository struct {
	next ports.DeviceRepository
	cb   *circuitbreaker.CircuitBreaker[any]
}

func NewBreakerDevicesRepository(
	next ports.DeviceRepository,
	cfg circuitbreaker.Config,
	log logger.Logger,
) *BreakerDevicesRepository {
	cfg.IsSuccessful = isBusinessError
	cfg.OnStateChange = func(name, from, to string) {
		log.Warn().
			Str("breaker", name).
			Str("from", from).
			Str("to", to).
			Msg("circuit breaker state changed")
	}

	return &BreakerDevicesRepository{
		next: next,
		cb:   circuitbreaker.New[any](cfg),
	}
}

func (r *BreakerDevicesRepository) Create(ctx context.Context, device *model.Device) error {
	return r.exec(func() error { return r.next.Create(ctx, device) })
}

func (r *BreakerDevicesRepository) FetchByID(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	return call(r.cb, func() (*model.Device, error) { return r.next.FetchByID(ctx, id) })
}

func (r *BreakerDevicesRepository) FindAll(ctx context.Context) ([]*model.Device, error) {
	return call(r.cb, func() ([]*model.Device, error) { return r.next.FindAll(ctx) })
}

func (r *BreakerDevicesRepository) FindByBrand(ctx context.Context, brand string) ([]*model.Device, error) {
	return call(r.cb, func() ([]*model.Device, error) { return r.next.FindByBrand(ctx, brand) })
}

func (r *BreakerDevicesRepository) FindByState(ctx context.Context, state model.State) ([]*model.Device, error) {
	return call(r.cb, func() ([]*model.Device, error) { return r.next.FindByState(ctx, state) })
}

func (r *BreakerDevicesRepository) Update(ctx context.Context, device *model.Device) error {
	return r.exec(func() error { return r.next.Update(ctx, device) })
}

func (r *BreakerDevicesRepository) Delete(ctx context.Context, id model.DeviceID) error {
	return r.exec(func() error { return r.next.Delete(ctx, id) })
}

func (r *BreakerDevicesRepository) Ping(ctx context.Context) error {
	return r.exec(func() error { return r.next.Ping(ctx) })
}

// State reports the breaker state for health output.
func (r *BreakerDevicesRepository) State() string {
	return r.cb.State()
}

func (r *BreakerDevicesRepository) exec(fn func() error) error {
	_, err := circuitbreaker.Execute(r.cb, func() (any, error) {
		return nil, fn()
	})

	return err
}

func call[T any](cb *circuitbreaker.CircuitBreaker[any], fn func() (T, error)) (T, error) {
	result, err := circuitbreaker.Execute(cb, func() (any, error) {
		return fn()
	})

	typed, _ := result.(T)

	return typed, err
}

func isBusinessError(err error) bool {
	return errors.Is(err, model.ErrDeviceNotFound) ||
		errors.Is(err, model.ErrStaleDevice) ||
		errors.Is(err, model.ErrDuplicateDevice) ||
		errors.Is(err, context.Canceled)
}
