package middleware

import (
	"net/http"
	"time"

	"github.com/architeacher/devices-api/pkg/logger"
)

type AccessLogger struct {
	logger logger.Logger
}

func NewAccessLogger(log logger.Logger) *AccessLogger {
	return &AccessLogger{logger: log}
}

// Middleware logs one line per request: errors for 5xx, warnings for 4xx.
func (a *AccessLogger) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ShouldSkipAccessLog(r.Context()) {
			next.ServeHTTP(w, r)

			return
		}

		start := time.Now()
		wrapped := NewResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		reqLogger := a.logger.WithContext(r.Context()).
			With().
			Str("component", "http").
			Logger()

		event := reqLogger.Info()

		switch {
		case wrapped.StatusCode() >= http.StatusInternalServerError:
			event = reqLogger.Error()
		case wrapped.StatusCode() >= http.StatusBadRequest:
			event = reqLogger.Warn()
		}

		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Int("status", wrapped.StatusCode()).
			Uint64("bytes", wrapped.BytesWritten()).
			Dur("duration", time.Since(start))

		if r.URL.RawQuery != "" {
			event.Str("query", r.URL.RawQuery)
		}

		event.Msg("request handled")
	})
}
