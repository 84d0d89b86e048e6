package metrics

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestHTTPMiddleware_Status(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"scrape", "/metrics", http.StatusOK, "2xx"},
		{"unknown path", "/nope", http.StatusNotFound, "4xx"},
		{"handler failure", "/healthz", http.StatusServiceUnavailable, "5xx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			wrapped := HTTPMiddleware(reg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			w := httptest.NewRecorder()
			wrapped.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)

			total := findMetric(t, reg, "http_requests_total")
			require.Len(t, total, 1)
			assert.Equal(t, tt.path, labelValue(total[0], "path"))
			assert.Equal(t, tt.want, labelValue(total[0], "status"))
			assert.Equal(t, 1.0, total[0].GetCounter().GetValue())

			duration := findMetric(t, reg, "http_request_duration_seconds")
			require.Len(t, duration, 1)
			assert.Equal(t, uint64(1), duration[0].GetHistogram().GetSampleCount())
		})
	}
}

func TestHTTPMiddleware_TracksInFlight(t *testing.T) {
	reg := NewRegistry()

	during := -1.0
	wrapped := HTTPMiddleware(reg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = findMetric(t, reg, "http_requests_in_flight")[0].GetGauge().GetValue()
	}))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, 1.0, during)
	assert.Equal(t, 0.0, findMetric(t, reg, "http_requests_in_flight")[0].GetGauge().GetValue())
}

// serveLogged runs one request through LoggingMiddleware and decodes the log line.
func serveLogged(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&buf), zapcore.InfoLevel)
	wrapped := LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log: %s", buf.String())
	return w, entry
}

func TestLoggingMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.RemoteAddr = "192.168.1.1:12345"

	w, entry := serveLogged(t, req)

	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/metrics", entry["path"])
	assert.Equal(t, float64(http.StatusAccepted), entry["status"])
	assert.Equal(t, "192.168.1.1:12345", entry["client_ip"])
	assert.Contains(t, entry, "duration_ms")

	id := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, id)
	assert.Equal(t, id, entry["request_id"])
}

func TestLoggingMiddleware_KeepsCallerRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "scrape-42")

	w, entry := serveLogged(t, req)

	assert.Equal(t, "scrape-42", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "scrape-42", entry["request_id"])
}

func TestLoggingMiddleware_ClientIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		want      string
	}{
		{"remote addr", "", "10.0.0.1:54321"},
		{"single proxy", "203.0.113.50", "203.0.113.50"},
		{"proxy chain", "203.0.113.50, 70.41.3.18", "203.0.113.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			req.RemoteAddr = "10.0.0.1:54321"
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			_, entry := serveLogged(t, req)
			assert.Equal(t, tt.want, entry["client_ip"])
		})
	}
}
