package runtime

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/architeacher/devices-api/pkg/circuitbreaker"
	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/pkg/metrics/noop"
	"github.com/architeacher/devices-api/pkg/metrics/prometheus"
	inboundhttp "github.com/architeacher/devices-api/services/svc-devices/internal/adapters/inbound/http"
	"github.com/architeacher/devices-api/services/svc-devices/internal/adapters/repos"
	"github.com/architeacher/devices-api/services/svc-devices/internal/config"
	infraBolt "github.com/architeacher/devices-api/services/svc-devices/internal/infrastructure/bolt"
	infraPostgres "github.com/architeacher/devices-api/services/svc-devices/internal/infrastructure/postgres"
	"github.com/architeacher/devices-api/services/svc-devices/internal/infrastructure/telemetry"
	infraVault "github.com/architeacher/devices-api/services/svc-devices/internal/infrastructure/vault"
	"github.com/architeacher/devices-api/services/svc-devices/internal/services"
	"github.com/architeacher/devices-api/services/svc-devices/internal/usecases"
)

func defaultOptions(ctx context.Context) []DependencyOption {
	return []DependencyOption{
		WithConfig(),
		WithLogger(),
		WithSecrets(ctx),
		WithTracing(ctx),
		WithMetrics(),
		WithStorage(ctx),
		WithCircuitBreaker(),
		WithDevicesService(),
		WithApplication(),
		WithHTTPServer(ctx),
	}
}

func WithConfig() DependencyOption {
	return func(d *dependencies) error {
		cfg, err := config.Init()
		if err != nil {
			return fmt.Errorf("initializing configuration: %w", err)
		}

		d.config = cfg

		return nil
	}
}

// WithServiceConfig uses cfg as is instead of reading the environment.
func WithServiceConfig(cfg *config.ServiceConfig) DependencyOption {
	return func(d *dependencies) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid service configuration: %w", err)
		}

		d.config = cfg

		return nil
	}
}

func WithLogger() DependencyOption {
	return func(d *dependencies) error {
		d.infra.logger = logger.New(d.config.Logging.Level, d.config.Logging.Format)

		return nil
	}
}

// WithSecrets overlays the database credentials stored in Vault, when enabled.
func WithSecrets(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.SecretsStorage.Enabled {
			return nil
		}

		client, err := infraVault.NewClient(d.config.SecretsStorage)
		if err != nil {
			return err
		}

		d.repos.secretsRepo = repos.NewVaultRepository(client)

		if err := config.ApplySecrets(ctx, d.repos.secretsRepo, d.config); err != nil {
			return fmt.Errorf("loading secrets: %w", err)
		}

		d.infra.logger.Info().
			Str("mount_path", d.config.SecretsStorage.MountPath).
			Msg("database credentials loaded from secrets storage")

		return nil
	}
}

func WithTracing(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Traces.Enabled {
			d.infra.tracerProvider = telemetry.NewNoopTracerProvider()

			return nil
		}

		tp, shutdown, err := telemetry.NewTracerProvider(ctx, d.config.App, d.config.Telemetry)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}

		d.infra.tracerProvider = tp
		d.addCleanup("tracer", shutdown)

		return nil
	}
}

func WithMetrics() DependencyOption {
	return func(d *dependencies) error {
		if !d.config.Telemetry.Metrics.Enabled {
			d.infra.metricsClient = noop.NewMetricsClient()

			return nil
		}

		client := prometheus.NewMetricsClient(d.config.Telemetry.Metrics.Namespace)

		d.infra.metricsClient = client
		d.addCleanup("metrics", client.Shutdown)

		return nil
	}
}

// WithStorage opens the configured storage driver and builds the device repository on top of it.
func WithStorage(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		switch d.config.Storage.Driver {
		case config.StorageDriverBolt:
			db, err := infraBolt.Open(d.config.Storage)
			if err != nil {
				return err
			}

			d.infra.boltDB = db
			d.addCleanup("bolt", func(context.Context) error {
				return db.Close()
			})

			repo, err := repos.NewBoltDevicesRepository(db, d.infra.logger)
			if err != nil {
				return fmt.Errorf("preparing bolt storage: %w", err)
			}

			d.repos.deviceRepo = repo
		default:
			pool, err := infraPostgres.NewPool(ctx, d.config.Database, d.infra.logger)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}

			d.infra.dbPool = pool
			d.addCleanup("postgres", func(context.Context) error {
				pool.Close()

				return nil
			})

			d.repos.deviceRepo = repos.NewDevicesRepository(pool, repos.NewPgxScanner(), d.infra.logger)
		}

		d.infra.logger.Info().
			Str("driver", d.config.Storage.Driver).
			Msg("storage ready")

		return nil
	}
}

// WithCircuitBreaker wraps the device repository in a breaker, when enabled.
func WithCircuitBreaker() DependencyOption {
	return func(d *dependencies) error {
		cfg := d.config.CircuitBreaker
		if !cfg.Enabled {
			return nil
		}

		d.repos.deviceRepo = repos.NewBreakerDevicesRepository(
			d.repos.deviceRepo,
			circuitbreaker.Config{
				Name:             d.config.Storage.Driver,
				Enabled:          cfg.Enabled,
				MaxRequests:      cfg.MaxRequests,
				Interval:         cfg.Interval,
				Timeout:          cfg.Timeout,
				FailureThreshold: cfg.FailureThreshold,
			},
			d.infra.logger,
		)

		return nil
	}
}

func WithDevicesService() DependencyOption {
	return func(d *dependencies) error {
		d.devicesService = services.NewDevicesService(d.repos.deviceRepo)

		return nil
	}
}

func WithApplication() DependencyOption {
	return func(d *dependencies) error {
		d.app = usecases.NewApplication(
			d.devicesService,
			d.storageHealthChecker(),
			d.config.Storage.Driver,
			d.infra.logger,
			d.infra.metricsClient,
			d.infra.tracerProvider,
		)

		return nil
	}
}

func WithHTTPServer(ctx context.Context) DependencyOption {
	return func(d *dependencies) error {
		router, err := inboundhttp.NewRouter(ctx, inboundhttp.RouterConfig{
			App:            d.app,
			Logger:         d.infra.logger,
			MetricsClient:  d.infra.metricsClient,
			TracerProvider: d.infra.tracerProvider,
			Config:         d.config,
		})
		if err != nil {
			return fmt.Errorf("building router: %w", err)
		}

		cfg := d.config.HTTPServer

		d.infra.httpServer = &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.FormatUint(uint64(cfg.Port), 10)),
			Handler:           router,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		}

		d.addCleanup("http_server", d.infra.httpServer.Shutdown)

		return nil
	}
}
