package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/architeacher/devices-api/pkg/decorator"
	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/pkg/metrics"
	"github.com/architeacher/devices-api/services/svc-devices/internal/config"
	"github.com/architeacher/devices-api/services/svc-devices/internal/ports"
	otelTrace "go.opentelemetry.io/otel/trace"
)

const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
	StatusHealthy     = "healthy"
	StatusUnhealthy   = "unhealthy"
)

type (
	FetchHealthReportQuery struct{}

	HealthResult struct {
		Status       string                            `json:"status"`
		Version      string                            `json:"version"`
		Commit       string                            `json:"commit"`
		Uptime       string                            `json:"uptime"`
		Dependencies map[string]ports.DependencyStatus `json:"dependencies"`
	}

	FetchHealthReportQueryHandler = decorator.QueryHandler[FetchHealthReportQuery, *HealthResult]

	fetchHealthReportQueryHandler struct {
		dbHealthChecker ports.DatabaseHealthChecker
		storageName     string
		startTime       time.Time
	}
)

func NewFetchHealthReportQueryHandler(
	dbHealthChecker ports.DatabaseHealthChecker,
	storageName string,
	log logger.Logger,
	metricsClient metrics.Client,
	tracerProvider otelTrace.TracerProvider,
) FetchHealthReportQueryHandler {
	return decorator.ApplyQueryDecorators[FetchHealthReportQuery, *HealthResult](
		fetchHealthReportQueryHandler{
			dbHealthChecker: dbHealthChecker,
			storageName:     storageName,
			startTime:       time.Now(),
		},
		log,
		metricsClient,
		tracerProvider,
	)
}

func (h fetchHealthReportQueryHandler) Execute(ctx context.Context, _ FetchHealthReportQuery) (*HealthResult, error) {
	start := time.Now()
	dbErr := h.dbHealthChecker.Ping(ctx)

	storage := ports.DependencyStatus{
		Healthy: dbErr == nil,
		Latency: fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
	}

	status := StatusHealthy

	if dbErr != nil {
		storage.Message = dbErr.Error()
		status = StatusUnhealthy
	}

	return &HealthResult{
		Status:       status,
		Version:      config.ServiceVersion,
		Commit:       config.CommitSHA,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		Dependencies: map[string]ports.DependencyStatus{h.storageName: storage},
	}, nil
}
