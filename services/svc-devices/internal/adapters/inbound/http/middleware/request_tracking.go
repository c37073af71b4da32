package middleware

import (
	"net/http"

	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/google/uuid"
)

const (
	RequestIDHeader     = "X-Request-Id"
	CorrelationIDHeader = "X-Correlation-Id"
)

// RequestTracking propagates request and correlation ids, generating them when absent.
// Both ids are echoed in the response and picked up by logger.WithContext.
func RequestTracking() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			correlationID := r.Header.Get(CorrelationIDHeader)
			if correlationID == "" {
				correlationID = requestID
			}

			ctx := logger.ContextWithRequestID(r.Context(), requestID)
			ctx = logger.ContextWithCorrelationID(ctx, correlationID)

			w.Header().Set(RequestIDHeader, requestID)
			w.Header().Set(CorrelationIDHeader, correlationID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
