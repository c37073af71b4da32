package repos

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
	bbolt "go.etcd.io/bbolt"
)

var (
	devicesBucket = []byte("devices")
	brandIndex    = []byte("devices_by_brand")
	stateIndex    = []byte("devices_by_state")

	errBucketMissing = errors.New("bolt bucket missing")
)

type (
	// BoltDevicesRepository stores devices in an embedded bbolt file.
	//
	// Records live in the devices bucket keyed by id. The brand and state index
	// buckets hold composite keys (value, 0x00, creation nanos, id) so a prefix
	// scan yields devices in creation order.
	BoltDevicesRepository struct {
		db     *bbolt.DB
		logger logger.Logger
	}

	boltRecord struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Brand        string    `json:"brand"`
		State        string    `json:"state"`
		CreationTime time.Time `json:"creationTime"`
	}
)

// NewBoltDevicesRepository creates the buckets it needs on first use.
func NewBoltDevicesRepository(db *bbolt.DB, log logger.Logger) (*BoltDevicesRepository, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{devicesBucket, brandIndex, stateIndex} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BoltDevicesRepository{db: db, logger: log}, nil
}

func (r *BoltDevicesRepository) Create(ctx context.Context, device *model.Device) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.update(func(tx *bbolt.Tx) error {
		records := tx.Bucket(devicesBucket)

		key := []byte(device.ID.String())
		if records.Get(key) != nil {
			return model.ErrDuplicateDevice
		}

		return putRecord(tx, toBoltRecord(device))
	})
}

func (r *BoltDevicesRepository) FetchByID(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var device *model.Device

	err := r.view(func(tx *bbolt.Tx) error {
		record, err := getRecord(tx, id.String())
		if err != nil {
			return err
		}

		if record == nil {
			return model.NewDeviceNotFoundError(id)
		}

		device, err = record.toDevice()

		return err
	})
	if err != nil {
		return nil, err
	}

	return device, nil
}

func (r *BoltDevicesRepository) FindAll(ctx context.Context) ([]*model.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	devices := make([]*model.Device, 0)

	err := r.view(func(tx *bbolt.Tx) error {
		return tx.Bucket(devicesBucket).ForEach(func(_, value []byte) error {
			device, err := decodeRecord(value)
			if err != nil {
				return err
			}

			devices = append(devices, device)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(devices, compareCreation)

	return devices, nil
}

func (r *BoltDevicesRepository) FindByBrand(ctx context.Context, brand string) ([]*model.Device, error) {
	return r.scanIndex(ctx, brandIndex, brand)
}

func (r *BoltDevicesRepository) FindByState(ctx context.Context, state model.State) ([]*model.Device, error) {
	return r.scanIndex(ctx, stateIndex, state.String())
}

func (r *BoltDevicesRepository) Update(ctx context.Context, device *model.Device) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.guardedUpdate(device.ID, func(tx *bbolt.Tx, current *boltRecord) error {
		if err := deleteRecord(tx, current); err != nil {
			return err
		}

		next := toBoltRecord(device)
		next.CreationTime = current.CreationTime

		return putRecord(tx, next)
	})
}

func (r *BoltDevicesRepository) Delete(ctx context.Context, id model.DeviceID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.guardedUpdate(id, deleteRecord)
}

func (r *BoltDevicesRepository) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return r.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(devicesBucket) == nil {
			return errBucketMissing
		}

		return nil
	})
}

// guardedUpdate runs write inside one transaction unless the stored record is
// missing or IN_USE.
func (r *BoltDevicesRepository) guardedUpdate(id model.DeviceID, write func(*bbolt.Tx, *boltRecord) error) error {
	return r.update(func(tx *bbolt.Tx) error {
		current, err := getRecord(tx, id.String())
		if err != nil {
			return err
		}

		if current == nil || current.State == model.StateInUse.String() {
			r.logger.Debug().
				Str("device_id", id.String()).
				Msg("guarded write matched no row")

			return model.ErrStaleDevice
		}

		return write(tx, current)
	})
}

func (r *BoltDevicesRepository) scanIndex(ctx context.Context, index []byte, value string) ([]*model.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	devices := make([]*model.Device, 0)
	prefix := indexPrefix(value)

	err := r.view(func(tx *bbolt.Tx) error {
		records := tx.Bucket(devicesBucket)
		cursor := tx.Bucket(index).Cursor()

		for key, id := cursor.Seek(prefix); key != nil && bytes.HasPrefix(key, prefix); key, id = cursor.Next() {
			raw := records.Get(id)
			if raw == nil {
				continue
			}

			device, err := decodeRecord(raw)
			if err != nil {
				return err
			}

			devices = append(devices, device)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return devices, nil
}

func (r *BoltDevicesRepository) view(fn func(*bbolt.Tx) error) error {
	if err := r.db.View(fn); err != nil {
		return wrapBoltError(err)
	}

	return nil
}

func (r *BoltDevicesRepository) update(fn func(*bbolt.Tx) error) error {
	if err := r.db.Update(fn); err != nil {
		return wrapBoltError(err)
	}

	return nil
}

func wrapBoltError(err error) error {
	switch {
	case errors.Is(err, model.ErrDeviceNotFound),
		errors.Is(err, model.ErrStaleDevice),
		errors.Is(err, model.ErrDuplicateDevice),
		errors.Is(err, model.ErrDatabaseQuery):
		return err
	default:
		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
}

func getRecord(tx *bbolt.Tx, id string) (*boltRecord, error) {
	raw := tx.Bucket(devicesBucket).Get([]byte(id))
	if raw == nil {
		return nil, nil
	}

	var record boltRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: decoding device %s: %v", model.ErrDatabaseQuery, id, err)
	}

	return &record, nil
}

func putRecord(tx *bbolt.Tx, record *boltRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding device %s: %w", record.ID, err)
	}

	id := []byte(record.ID)

	if err := tx.Bucket(devicesBucket).Put(id, raw); err != nil {
		return err
	}

	if err := tx.Bucket(brandIndex).Put(indexKey(record.Brand, record), id); err != nil {
		return err
	}

	return tx.Bucket(stateIndex).Put(indexKey(record.State, record), id)
}

func deleteRecord(tx *bbolt.Tx, record *boltRecord) error {
	if err := tx.Bucket(brandIndex).Delete(indexKey(record.Brand, record)); err != nil {
		return err
	}

	if err := tx.Bucket(stateIndex).Delete(indexKey(record.State, record)); err != nil {
		return err
	}

	return tx.Bucket(devicesBucket).Delete([]byte(record.ID))
}

func indexPrefix(value string) []byte {
	prefix := make([]byte, 0, len(value)+1)
	prefix = append(prefix, value...)

	return append(prefix, 0)
}

func indexKey(value string, record *boltRecord) []byte {
	key := indexPrefix(value)
	key = binary.BigEndian.AppendUint64(key, uint64(record.CreationTime.UnixNano()))

	return append(key, record.ID...)
}

func toBoltRecord(device *model.Device) *boltRecord {
	return &boltRecord{
		ID:           device.ID.String(),
		Name:         device.Name,
		Brand:        device.Brand,
		State:        device.State.String(),
		CreationTime: device.CreationTime.UTC(),
	}
}

func decodeRecord(raw []byte) (*model.Device, error) {
	var record boltRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("%w: decoding device: %v", model.ErrDatabaseQuery, err)
	}

	return record.toDevice()
}

func (record *boltRecord) toDevice() (*model.Device, error) {
	id, err := model.ParseDeviceID(record.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: stored id %q: %v", model.ErrDatabaseQuery, record.ID, err)
	}

	state, err := model.ParseState(record.State)
	if err != nil {
		return nil, fmt.Errorf("%w: stored state: %v", model.ErrDatabaseQuery, err)
	}

	return model.RestoreDevice(id, record.Name, record.Brand, state, record.CreationTime), nil
}

func compareCreation(a, b *model.Device) int {
	if c := a.CreationTime.Compare(b.CreationTime); c != 0 {
		return c
	}

	return bytes.Compare(a.ID.UUID[:], b.ID.UUID[:])
}
