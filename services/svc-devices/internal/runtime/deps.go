package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/pkg/metrics"
	"github.com/architeacher/devices-api/services/svc-devices/internal/config"
	"github.com/architeacher/devices-api/services/svc-devices/internal/ports"
	"github.com/architeacher/devices-api/services/svc-devices/internal/usecases"
	"github.com/jackc/pgx/v5/pgxpool"
	bbolt "go.etcd.io/bbolt"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type (
	infrastructureDep struct {
		httpServer     *http.Server
		tracerProvider otelTrace.TracerProvider
		metricsClient  metrics.Client
		logger         logger.Logger
		dbPool         *pgxpool.Pool
		boltDB         *bbolt.DB
	}

	repositories struct {
		deviceRepo  ports.DeviceRepository
		secretsRepo ports.SecretsRepository
	}

	dependencies struct {
		config         *config.ServiceConfig
		infra          infrastructureDep
		repos          repositories
		devicesService ports.DevicesService
		app            *usecases.Application
		cleanups       []cleanup
	}

	cleanup struct {
		resource string
		fn       func(ctx context.Context) error
	}

	DependencyOption func(*dependencies) error
)

func initializeDependencies(ctx context.Context, opts ...DependencyOption) (*dependencies, error) {
	deps := &dependencies{}

	allOpts := opts
	if len(allOpts) == 0 {
		allOpts = defaultOptions(ctx)
	}

	for _, opt := range allOpts {
		if err := opt(deps); err != nil {
			deps.releaseOnFailure(ctx)

			return nil, fmt.Errorf("failed to apply dependency option: %w", err)
		}
	}

	return deps, nil
}

// addCleanup registers fn to run on shutdown. Cleanups run in reverse
// registration order so the HTTP server drains before storage closes.
func (d *dependencies) addCleanup(resource string, fn func(ctx context.Context) error) {
	d.cleanups = append(d.cleanups, cleanup{resource: resource, fn: fn})
}

func (d *dependencies) runCleanups(ctx context.Context, onError func(resource string, err error)) {
	for i := len(d.cleanups) - 1; i >= 0; i-- {
		if err := d.cleanups[i].fn(ctx); err != nil && onError != nil {
			onError(d.cleanups[i].resource, err)
		}
	}
}

// releaseOnFailure closes whatever was opened before a later option failed.
func (d *dependencies) releaseOnFailure(ctx context.Context) {
	d.runCleanups(ctx, nil)
}

func (d *dependencies) storageHealthChecker() ports.DatabaseHealthChecker {
	return d.repos.deviceRepo
}
