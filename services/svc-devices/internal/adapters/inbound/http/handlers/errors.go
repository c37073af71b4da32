package handlers

import (
	"errors"
	"net/http"

	"github.com/architeacher/devices-api/pkg/circuitbreaker"
	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/services/svc-devices/internal/domain/model"
)

const (
	msgValidationFailed = "Validation Failed"
	msgUnexpectedError  = "An unexpected error occurred"
	msgStorageDown      = "Storage is temporarily unavailable"
)

// errMalformedBody marks request bodies that are not valid JSON for the endpoint.
var errMalformedBody = errors.New("malformed request body")

// writeError is the single place where errors become HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var validation *model.ValidationErrors
	if errors.As(err, &validation) {
		writeJSONResponse(w, http.StatusBadRequest, ValidationErrorResponse{
			Timestamp: timestamp(),
			Status:    http.StatusBadRequest,
			Error:     msgValidationFailed,
			Errors:    validation.Fields(),
		})

		return
	}

	status, message := classify(err)

	if status >= http.StatusInternalServerError {
		reqLog := log.WithContext(r.Context())
		reqLog.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("method", r.Method).
			Msg("request failed")
	}

	writeJSONResponse(w, status, ErrorResponse{
		Timestamp: timestamp(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrDeviceNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, model.ErrInvalidOperation),
		errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrInvalidPatch),
		errors.Is(err, model.ErrInvalidDeviceID),
		errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrDuplicateDevice):
		return http.StatusConflict, err.Error()
	case circuitbreaker.IsRejection(err):
		return http.StatusServiceUnavailable, msgStorageDown
	default:
		return http.StatusInternalServerError, msgUnexpectedError
	}
}
