package model_test

import (
	"testing"
	"time"

	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewDeviceID(t *testing.T) {
	t.Parallel()

	id := model.NewDeviceID()

	require.False(t, id.IsZero())
	require.Equal(t, uuid.Version(7), id.Version())
	require.NotEqual(t, id, model.NewDeviceID())
}

func TestParseDeviceID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid uuid", input: "019426d2-5b1e-7c8a-9f3e-123456789abc"},
		{name: "malformed", input: "not-a-uuid", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			id, err := model.ParseDeviceID(tc.input)
			if tc.wantErr {
				require.ErrorIs(t, err, model.ErrInvalidDeviceID)
				require.True(t, id.IsZero())

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.input, id.String())
		})
	}
}

func TestNewDevice(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	device := model.NewDevice("Laptop", "Dell", model.StateInUse)

	require.False(t, device.ID.IsZero())
	require.Equal(t, "Laptop", device.Name)
	require.Equal(t, "Dell", device.Brand)
	require.Equal(t, model.StateInUse, device.State)
	require.Equal(t, time.UTC, device.CreationTime.Location())
	require.True(t, device.CreationTime.After(before))
}

func TestRestoreDevice(t *testing.T) {
	t.Parallel()

	id := model.NewDeviceID()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))

	device := model.RestoreDevice(id, "Phone", "Apple", model.StateInactive, created)

	require.Equal(t, id, device.ID)
	require.True(t, created.Equal(device.CreationTime))
	require.Equal(t, time.UTC, device.CreationTime.Location())
}

func TestDevice_Replace(t *testing.T) {
	t.Parallel()

	current := model.NewDevice("Laptop", "Dell", model.StateAvailable)

	replaced := current.Replace("", "", model.StateInUse)

	require.Equal(t, current.ID, replaced.ID)
	require.Equal(t, current.CreationTime, replaced.CreationTime)
	require.Empty(t, replaced.Name)
	require.Empty(t, replaced.Brand)
	require.Equal(t, model.StateInUse, replaced.State)
	require.Equal(t, "Laptop", current.Name)
}
