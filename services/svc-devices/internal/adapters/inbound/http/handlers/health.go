package handlers

import (
	"net/http"

	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/services/svc-devices/internal/usecases"
	"github.com/architeacher/devices-api/services/svc-devices/internal/usecases/queries"
)

type HealthHandler struct {
	app    *usecases.Application
	logger logger.Logger
}

func NewHealthHandler(app *usecases.Application, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		app:    app,
		logger: log,
	}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Queries.FetchLiveness.Execute(r.Context(), queries.FetchLivenessQuery{})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	writeJSONResponse(w, http.StatusOK, result)
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Queries.FetchReadiness.Execute(r.Context(), queries.FetchReadinessQuery{})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	status := http.StatusOK
	if !result.Ready {
		status = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, status, result)
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	result, err := h.app.Queries.FetchHealthReport.Execute(r.Context(), queries.FetchHealthReportQuery{})
	if err != nil {
		writeError(w, r, h.logger, err)

		return
	}

	status := http.StatusOK
	if result.Status != queries.StatusHealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSONResponse(w, status, result)
}
