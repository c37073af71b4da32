package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Setenv("APP_ENVIRONMENT", "sandbox")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("STORAGE_DRIVER", "bolt")
	t.Setenv("BOLT_PATH", "/tmp/devices.db")
	t.Setenv("HTTP_SERVER_PORT", "9000")
	t.Setenv("CIRCUIT_BREAKER_FAILURE_THRESHOLD", "2")

	cfg, err := Init()
	require.NoError(t, err)

	assert.Equal(t, "sandbox", cfg.App.Env.Name)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, StorageDriverBolt, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/devices.db", cfg.Storage.BoltPath)
	assert.Equal(t, uint(9000), cfg.HTTPServer.Port)
	assert.Equal(t, uint(2), cfg.CircuitBreaker.FailureThreshold)
}

func TestInit_DefaultValues(t *testing.T) {
	cfg, err := Init()
	require.NoError(t, err)

	assert.Equal(t, "svc-devices", cfg.App.ServiceName)

	assert.Equal(t, "0.0.0.0", cfg.HTTPServer.Host)
	assert.Equal(t, uint(8080), cfg.HTTPServer.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTPServer.ShutdownTimeout)

	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "devices", cfg.Database.Database)
	assert.Equal(t, int32(25), cfg.Database.MaxConnections)

	assert.False(t, cfg.SecretsStorage.Enabled)
	assert.Equal(t, "svc-devices", cfg.SecretsStorage.MountPath)

	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.True(t, cfg.Telemetry.Metrics.Enabled)
	assert.False(t, cfg.Telemetry.Traces.Enabled)
	assert.InDelta(t, 1.0, cfg.Telemetry.Traces.SamplerRatio, 0.0001)
}

func TestInit_Invalid(t *testing.T) {
	cases := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{
			name:    "unknown storage driver",
			env:     map[string]string{"STORAGE_DRIVER": "mysql"},
			wantErr: ErrUnknownStorageDriver,
		},
		{
			name:    "unknown exporter with traces on",
			env:     map[string]string{"TRACES_ENABLED": "true", "OTEL_EXPORTER": "zipkin"},
			wantErr: ErrUnknownExporter,
		},
		{
			name:    "sampler ratio out of range",
			env:     map[string]string{"TRACES_SAMPLER_RATIO": "1.5"},
			wantErr: ErrInvalidSamplerRatio,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Init()
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestInit_MalformedValue(t *testing.T) {
	t.Setenv("HTTP_SERVER_PORT", "not-a-port")

	_, err := Init()
	require.Error(t, err)
}

func TestGetEnvironment(t *testing.T) {
	cases := []struct {
		env      string
		expected int
	}{
		{env: "production", expected: Production},
		{env: "prod", expected: Production},
		{env: "staging", expected: Staging},
		{env: "stg", expected: Staging},
		{env: "sandbox", expected: Sandbox},
		{env: "sbx", expected: Sandbox},
		{env: "development", expected: Development},
		{env: "", expected: Development},
	}

	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			cfg := &ServiceConfig{App: App{Env: Environment{Name: tc.env}}}

			assert.Equal(t, tc.expected, cfg.GetEnvironment())
			assert.Equal(t, tc.expected == Production, cfg.IsProduction())
		})
	}
}
