package queries_test

import (
	"context"
	"errors"
	"testing"

	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/pkg/metrics/noop"
	"github.com/architeacher/devices-api/services/svc-devices/internal/config"
	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
	"github.com/architeacher/devices-api/services/svc-devices/internal/infrastructure/telemetry"
	"github.com/architeacher/devices-api/services/svc-devices/internal/usecases/queries"
	"github.com/stretchr/testify/require"
)

type (
	mockDevicesService struct {
		devices map[model.DeviceID]*model.Device
		filters []model.DeviceFilter
	}

	mockHealthChecker struct {
		err error
	}
)

func newMockDevicesService(devices ...*model.Device) *mockDevicesService {
	m := &mockDevicesService{devices: make(map[model.DeviceID]*model.Device)}
	for _, d := range devices {
		m.devices[d.ID] = d
	}

	return m
}

func (m *mockDevicesService) CreateDevice(context.Context, string, string, model.State) (*model.Device, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDevicesService) GetDevice(_ context.Context, id model.DeviceID) (*model.Device, error) {
	if d, ok := m.devices[id]; ok {
		return d, nil
	}

	return nil, model.NewDeviceNotFoundError(id)
}

func (m *mockDevicesService) ListDevices(_ context.Context, filter model.DeviceFilter) ([]*model.Device, error) {
	m.filters = append(m.filters, filter)

	out := []*model.Device{}

	for _, d := range m.devices {
		if filter.Brand != nil && d.Brand != *filter.Brand {
			continue
		}

		out = append(out, d)
	}

	return out, nil
}

func (m *mockDevicesService) UpdateDevice(context.Context, model.DeviceID, string, string, model.State) (*model.Device, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDevicesService) PatchDevice(context.Context, model.DeviceID, model.Patch) (*model.Device, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDevicesService) DeleteDevice(context.Context, model.DeviceID) error {
	return errors.New("not implemented")
}

func (m mockHealthChecker) Ping(context.Context) error {
	return m.err
}

func TestGetDeviceQueryHandler(t *testing.T) {
	t.Parallel()

	device := model.NewDevice("Laptop", "Dell", model.StateInUse)
	svc := newMockDevicesService(device)

	handler := queries.NewGetDeviceQueryHandler(
		svc, logger.NewTestLogger(), noop.NewMetricsClient(), telemetry.NewNoopTracerProvider(),
	)

	got, err := handler.Execute(context.Background(), queries.GetDeviceQuery{ID: device.ID})
	require.NoError(t, err)
	require.Equal(t, device, got)

	_, err = handler.Execute(context.Background(), queries.GetDeviceQuery{ID: model.NewDeviceID()})
	require.ErrorIs(t, err, model.ErrDeviceNotFound)
}

func TestListDevicesQueryHandler(t *testing.T) {
	t.Parallel()

	brand := "Apple"

	cases := []struct {
		name      string
		filter    model.DeviceFilter
		wantCount int
	}{
		{name: "all devices", wantCount: 2},
		{name: "by brand", filter: model.DeviceFilter{Brand: &brand}, wantCount: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newMockDevicesService(
				model.NewDevice("Laptop", "Dell", model.StateAvailable),
				model.NewDevice("Phone", "Apple", model.StateInUse),
			)

			handler := queries.NewListDevicesQueryHandler(
				svc, logger.NewTestLogger(), noop.NewMetricsClient(), telemetry.NewNoopTracerProvider(),
			)

			got, err := handler.Execute(context.Background(), queries.ListDevicesQuery{Filter: tc.filter})
			require.NoError(t, err)
			require.Len(t, got, tc.wantCount)
			require.Equal(t, []model.DeviceFilter{tc.filter}, svc.filters)
		})
	}
}

func TestFetchLivenessQueryHandler(t *testing.T) {
	t.Parallel()

	handler := queries.NewFetchLivenessQueryHandler(
		logger.NewTestLogger(), noop.NewMetricsClient(), telemetry.NewNoopTracerProvider(),
	)

	got, err := handler.Execute(context.Background(), queries.FetchLivenessQuery{})
	require.NoError(t, err)
	require.Equal(t, queries.StatusOK, got.Status)
}

func TestFetchReadinessQueryHandler(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		pingErr    error
		wantReady  bool
		wantStatus string
	}{
		{name: "storage reachable", wantReady: true, wantStatus: queries.StatusOK},
		{name: "storage down", pingErr: errors.New("refused"), wantStatus: queries.StatusUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := queries.NewFetchReadinessQueryHandler(
				mockHealthChecker{err: tc.pingErr},
				logger.NewTestLogger(),
				noop.NewMetricsClient(),
				telemetry.NewNoopTracerProvider(),
			)

			got, err := handler.Execute(context.Background(), queries.FetchReadinessQuery{})
			require.NoError(t, err)
			require.Equal(t, tc.wantReady, got.Ready)
			require.Equal(t, tc.wantStatus, got.Status)
		})
	}
}

func TestFetchHealthReportQueryHandler(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		pingErr     error
		wantStatus  string
		wantHealthy bool
		wantMessage string
	}{
		{name: "healthy", wantStatus: queries.StatusHealthy, wantHealthy: true},
		{
			name:        "unhealthy",
			pingErr:     errors.New("connection refused"),
			wantStatus:  queries.StatusUnhealthy,
			wantMessage: "connection refused",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := queries.NewFetchHealthReportQueryHandler(
				mockHealthChecker{err: tc.pingErr},
				"postgres",
				logger.NewTestLogger(),
				noop.NewMetricsClient(),
				telemetry.NewNoopTracerProvider(),
			)

			got, err := handler.Execute(context.Background(), queries.FetchHealthReportQuery{})
			require.NoError(t, err)
			require.Equal(t, tc.wantStatus, got.Status)
			require.Equal(t, config.ServiceVersion, got.Version)
			require.Contains(t, got.Dependencies, "postgres")
			require.Equal(t, tc.wantHealthy, got.Dependencies["postgres"].Healthy)
			require.Equal(t, tc.wantMessage, got.Dependencies["postgres"].Message)
		})
	}
}
