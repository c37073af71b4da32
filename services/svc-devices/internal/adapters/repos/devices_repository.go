package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	devicesTable = "devices"

	uniqueViolationCode = "23505"
)

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	deviceColumns = []string{"id", "name", "brand", "state", "creation_time"}

	// mutableGuard limits writes to rows that are not locked by IN_USE.
	mutableGuard = sq.NotEq{"state": model.StateInUse.String()}
)

type (
	// PoolOps defines the interface for database operations.
	// This allows injecting mock implementations for testing.
	PoolOps interface {
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
		Ping(ctx context.Context) error
	}

	// DevicesRepository stores devices in PostgreSQL.
	DevicesRepository struct {
		pool    PoolOps
		scanner Scanner
		logger  logger.Logger
	}

	deviceRow struct {
		ID           string    `db:"id"`
		Name         string    `db:"name"`
		Brand        string    `db:"brand"`
		State        string    `db:"state"`
		CreationTime time.Time `db:"creation_time"`
	}
)

func NewDevicesRepository(pool PoolOps, scanner Scanner, log logger.Logger) *DevicesRepository {
	return &DevicesRepository{
		pool:    pool,
		scanner: scanner,
		logger:  log,
	}
}

func (r *DevicesRepository) Create(ctx context.Context, device *model.Device) error {
	query, args, err := psql.Insert(devicesTable).
		Columns(deviceColumns...).
		Values(
			device.ID.String(),
			device.Name,
			device.Brand,
			device.State.String(),
			device.CreationTime,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err = r.pool.Exec(ctx, query, args...); err != nil {
		if isDuplicateKeyError(err) {
			return model.ErrDuplicateDevice
		}

		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}

func (r *DevicesRepository) FetchByID(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	query, args, err := psql.Select(deviceColumns...).
		From(devicesTable).
		Where(sq.Eq{"id": id.String()}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var row deviceRow
	if err := r.scanner.ScanOne(&row, rows); err != nil {
		if r.scanner.IsNotFound(err) {
			return nil, model.NewDeviceNotFoundError(id)
		}

		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return row.toDevice()
}

func (r *DevicesRepository) FindAll(ctx context.Context) ([]*model.Device, error) {
	return r.findWhere(ctx, nil)
}

func (r *DevicesRepository) FindByBrand(ctx context.Context, brand string) ([]*model.Device, error) {
	return r.findWhere(ctx, sq.Eq{"brand": brand})
}

func (r *DevicesRepository) FindByState(ctx context.Context, state model.State) ([]*model.Device, error) {
	return r.findWhere(ctx, sq.Eq{"state": state.String()})
}

func (r *DevicesRepository) Update(ctx context.Context, device *model.Device) error {
	return r.guardedExec(ctx, device.ID, psql.Update(devicesTable).
		Set("name", device.Name).
		Set("brand", device.Brand).
		Set("state", device.State.String()).
		Where(sq.Eq{"id": device.ID.String()}).
		Where(mutableGuard),
	)
}

func (r *DevicesRepository) Delete(ctx context.Context, id model.DeviceID) error {
	return r.guardedExec(ctx, id, psql.Delete(devicesTable).
		Where(sq.Eq{"id": id.String()}).
		Where(mutableGuard),
	)
}

func (r *DevicesRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// guardedExec runs a write that matches nothing once the row is gone or IN_USE.
func (r *DevicesRepository) guardedExec(ctx context.Context, id model.DeviceID, stmt sq.Sqlizer) error {
	query, args, err := stmt.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build write query: %w", err)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	if result.RowsAffected() == 0 {
		ctxLog := r.logger.WithContext(ctx)
		ctxLog.Debug().
			Str("device_id", id.String()).
			Msg("guarded write matched no row")

		return model.ErrStaleDevice
	}

	return nil
}

func (r *DevicesRepository) findWhere(ctx context.Context, pred sq.Sqlizer) ([]*model.Device, error) {
	builder := psql.Select(deviceColumns...).
		From(devicesTable).
		OrderBy("creation_time", "id")

	if pred != nil {
		builder = builder.Where(pred)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var deviceRows []deviceRow
	if err := r.scanner.ScanAll(&deviceRows, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	devices := make([]*model.Device, 0, len(deviceRows))

	for index := range deviceRows {
		device, err := deviceRows[index].toDevice()
		if err != nil {
			return nil, err
		}

		devices = append(devices, device)
	}

	return devices, nil
}

func (row deviceRow) toDevice() (*model.Device, error) {
	id, err := model.ParseDeviceID(row.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: stored id %q: %v", model.ErrDatabaseQuery, row.ID, err)
	}

	state, err := model.ParseState(row.State)
	if err != nil {
		return nil, fmt.Errorf("%w: stored state: %v", model.ErrDatabaseQuery, err)
	}

	return model.RestoreDevice(id, row.Name, row.Brand, state, row.CreationTime), nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}

	msg := err.Error()

	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
