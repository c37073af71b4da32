package http

import (
	"context"
	"net/http"

	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/pkg/metrics"
	"github.com/architeacher/devices-api/services/svc-devices/internal/adapters/inbound/http/handlers"
	"github.com/architeacher/devices-api/services/svc-devices/internal/adapters/inbound/http/middleware"
	"github.com/architeacher/devices-api/services/svc-devices/internal/config"
	"github.com/architeacher/devices-api/services/svc-devices/internal/usecases"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	devicesPath       = "/devices"
	legacyDevicesPath = "/devices-api/v1/devices"
)

type RouterConfig struct {
	App            *usecases.Application
	Logger         logger.Logger
	MetricsClient  metrics.Client
	TracerProvider otelTrace.TracerProvider
	Config         *config.ServiceConfig
}

func NewRouter(ctx context.Context, cfg RouterConfig) (http.Handler, error) {
	doc, err := LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}

	serveOpenAPI, err := openAPIHandler(doc)
	if err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	router.Use(middleware.RequestTracking())
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Recovery(cfg.Logger))
	router.Use(chimiddleware.Timeout(cfg.Config.HTTPServer.RequestTimeout))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodyLimit(cfg.Config.HTTPServer.MaxBodyBytes))

	if cfg.Config.Telemetry.Traces.Enabled && cfg.TracerProvider != nil {
		router.Use(middleware.Tracer(cfg.Config.Telemetry.ServiceName, cfg.TracerProvider))
		cfg.Logger.Info().Msg("distributed tracing enabled")
	}

	if cfg.Config.Telemetry.Metrics.Enabled && cfg.MetricsClient != nil {
		router.Use(middleware.NewMetricsMiddleware(cfg.MetricsClient).Middleware)
		cfg.Logger.Info().Msg("HTTP metrics collection enabled")
	}

	if cfg.Config.Logging.AccessLog.Enabled {
		healthFilter := middleware.NewHealthCheckFilter(cfg.Config.Logging.AccessLog.LogHealthChecks)
		accessLogger := middleware.NewAccessLogger(cfg.Logger)

		router.Use(healthFilter.Middleware)
		router.Use(accessLogger.Middleware)
		cfg.Logger.Info().
			Bool("log_health_checks", cfg.Config.Logging.AccessLog.LogHealthChecks).
			Msg("structured access logging enabled")
	}

	devices := handlers.NewDeviceHandler(cfg.App, cfg.Logger)
	deviceRoutes := func(r chi.Router) {
		r.Get("/", devices.ListDevices)
		r.Post("/", devices.CreateDevice)
		r.Get("/{id}", devices.GetDevice)
		r.Put("/{id}", devices.UpdateDevice)
		r.Patch("/{id}", devices.PatchDevice)
		r.Delete("/{id}", devices.DeleteDevice)
	}

	router.Route(devicesPath, deviceRoutes)
	router.Route(legacyDevicesPath, deviceRoutes)

	health := handlers.NewHealthHandler(cfg.App, cfg.Logger)
	router.Get("/liveness", health.Liveness)
	router.Get("/readiness", health.Readiness)
	router.Get("/health", health.Health)

	router.Get("/openapi.json", serveOpenAPI)

	if cfg.Config.Telemetry.Metrics.Enabled && cfg.MetricsClient != nil {
		router.Handle("/metrics", cfg.MetricsClient.Handler())
	}

	return router, nil
}
