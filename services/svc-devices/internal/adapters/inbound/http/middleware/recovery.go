package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/architeacher/devices-api/pkg/logger"
)

const errorTimestampLayout = "2006-01-02T15:04:05"

// Recovery returns a middleware that recovers from panics.
func Recovery(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}

				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				var errMsg string
				switch v := rvr.(type) {
				case string:
					errMsg = v
				case error:
					errMsg = v.Error()
				default:
					errMsg = fmt.Sprintf("%v", v)
				}

				reqLog := log.WithContext(r.Context())
				reqLog.Error().
					Str("error", errMsg).
					Str("stack", string(debug.Stack())).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("panic recovered")

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)

				_ = json.NewEncoder(w).Encode(map[string]any{
					"timestamp": time.Now().UTC().Format(errorTimestampLayout),
					"status":    http.StatusInternalServerError,
					"error":     http.StatusText(http.StatusInternalServerError),
					"message":   "An unexpected error occurred",
					"path":      r.URL.Path,
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
