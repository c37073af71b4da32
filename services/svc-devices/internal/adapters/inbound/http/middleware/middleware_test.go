package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/architeacher/devices-api/pkg/logger"
	"github.com/architeacher/devices-api/services/svc-devices/internal/adapters/inbound/http/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.opentelemetry.io/otel/attribute"
)

type recordedMetric struct {
	key   string
	value any
	attrs map[string]string
}

type recordingMetrics struct {
	mu      sync.Mutex
	records []recordedMetric
}

func (m *recordingMetrics) Inc(_ context.Context, key string, value any, attrs ...attribute.KeyValue) {
	m.mu.Lock()
	defer m.mu.Unlock()

	labels := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		labels[string(attr.Key)] = attr.Value.Emit()
	}

	m.records = append(m.records, recordedMetric{key: key, value: value, attrs: labels})
}

func (m *recordingMetrics) Handler() http.Handler { return http.NotFoundHandler() }

func (m *recordingMetrics) Shutdown(context.Context) error { return nil }

type MiddlewareTestSuite struct {
	suite.Suite
}

func TestMiddlewareTestSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(MiddlewareTestSuite))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (s *MiddlewareTestSuite) TestSecurityHeaders() {
	handler := middleware.SecurityHeaders()(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices", nil))

	expected := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Content-Security-Policy":   "default-src 'self'",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Cache-Control":             "no-store",
	}

	for header, value := range expected {
		s.Equal(value, rec.Header().Get(header), header)
	}
}

func (s *MiddlewareTestSuite) TestRequestTracking() {
	cases := []struct {
		name              string
		requestID         string
		correlationID     string
		wantCorrelationID string
	}{
		{
			name:              "keeps incoming ids",
			requestID:         "req-1",
			correlationID:     "corr-1",
			wantCorrelationID: "corr-1",
		},
		{
			name:              "correlation defaults to request id",
			requestID:         "req-2",
			wantCorrelationID: "req-2",
		},
		{
			name: "generates a request id",
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			var seenRequestID any

			handler := middleware.RequestTracking()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenRequestID = r.Context().Value(logger.ContextKeyRequestID)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/devices", nil)
			if tc.requestID != "" {
				req.Header.Set(middleware.RequestIDHeader, tc.requestID)
			}

			if tc.correlationID != "" {
				req.Header.Set(middleware.CorrelationIDHeader, tc.correlationID)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			requestID := rec.Header().Get(middleware.RequestIDHeader)
			s.NotEmpty(requestID)
			s.Equal(requestID, seenRequestID)

			if tc.requestID != "" {
				s.Equal(tc.requestID, requestID)
				s.Equal(tc.wantCorrelationID, rec.Header().Get(middleware.CorrelationIDHeader))
			}
		})
	}
}

func (s *MiddlewareTestSuite) TestRecovery() {
	buf := &bytes.Buffer{}
	handler := middleware.Recovery(logger.NewBufferedTestLogger(buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/devices/x", nil))

	s.Equal(http.StatusInternalServerError, rec.Code)

	var body map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("Internal Server Error", body["error"])
	s.Equal("/devices/x", body["path"])
	s.InDelta(500, body["status"], 0)
	s.Contains(buf.String(), "panic recovered")
	s.Contains(buf.String(), "boom")
}

func (s *MiddlewareTestSuite) TestBodyLimit() {
	var readErr error

	handler := middleware.BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/devices", strings.NewReader(`{"name":"too long"}`)))

	var maxBytesErr *http.MaxBytesError
	s.ErrorAs(readErr, &maxBytesErr)
}

func (s *MiddlewareTestSuite) TestAccessLogger() {
	cases := []struct {
		name            string
		path            string
		status          int
		logHealthChecks bool
		wantLevel       string
		wantLogged      bool
	}{
		{name: "success at info", path: "/devices", status: http.StatusOK, wantLevel: `"level":"info"`, wantLogged: true},
		{name: "client error at warn", path: "/devices/x", status: http.StatusBadRequest, wantLevel: `"level":"warn"`, wantLogged: true},
		{name: "server error at error", path: "/devices", status: http.StatusInternalServerError, wantLevel: `"level":"error"`, wantLogged: true},
		{name: "health checks skipped", path: "/health", status: http.StatusOK},
		{name: "health checks logged on demand", path: "/readiness", status: http.StatusOK, logHealthChecks: true, wantLevel: `"level":"info"`, wantLogged: true},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			buf := &bytes.Buffer{}
			accessLogger := middleware.NewAccessLogger(logger.NewBufferedTestLogger(buf))
			filter := middleware.NewHealthCheckFilter(tc.logHealthChecks)

			handler := filter.Middleware(accessLogger.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("{}"))
			})))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tc.path, nil))

			if !tc.wantLogged {
				s.Empty(buf.String())

				return
			}

			s.Contains(buf.String(), tc.wantLevel)
			s.Contains(buf.String(), `"path":"`+tc.path+`"`)
			s.Contains(buf.String(), `"bytes":2`)
		})
	}
}

func (s *MiddlewareTestSuite) TestMetricsUseRoutePattern() {
	recorder := &recordingMetrics{}

	router := chi.NewRouter()
	router.Use(middleware.NewMetricsMiddleware(recorder).Middleware)
	router.Get("/devices/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/devices/123", nil))

	s.Require().Len(recorder.records, 3)

	keys := make([]string, 0, len(recorder.records))
	for _, record := range recorder.records {
		keys = append(keys, record.key)
		s.Equal("/devices/{id}", record.attrs["http.route"])
		s.Equal("404", record.attrs["http.status_code"])
		s.Equal(http.MethodGet, record.attrs["http.method"])
	}

	s.Equal([]string{"http_requests_total", "http_request_duration_seconds", "http_response_size_bytes"}, keys)
}
