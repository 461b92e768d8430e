package observability

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAddress(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{"connection host", "192.0.2.1:4000", "", false, "192.0.2.1"},
		{"ignores forwarded header without trust", "192.0.2.1:4000", "203.0.113.9", false, "192.0.2.1"},
		{"first forwarded hop behind proxy", "10.0.0.2:4000", "203.0.113.9, 10.0.0.2", true, "203.0.113.9"},
		{"falls back without header", "10.0.0.2:4000", "", true, "10.0.0.2"},
		{"remote addr without port", "192.0.2.1", "", false, "192.0.2.1"},
		{"unknown", "", "", false, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}

			assert.Equal(t, tt.want, ClientAddress(req, tt.trustProxy))
		})
	}
}

func TestRequestLoggingMiddleware(t *testing.T) {
	var out bytes.Buffer
	logger := NewLoggerTo(&out)

	var seenID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	RequestLoggingMiddleware(logger, false, next).ServeHTTP(rec, req)

	require.NotEmpty(t, seenID)
	assert.Equal(t, seenID, rec.Header().Get(RequestIDHeader))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "http_request", entry["message"])
	assert.Equal(t, seenID, entry["request_id"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
	assert.Equal(t, "/api/status", entry["path"])
}

func TestRequestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	logger := NewLoggerTo(&bytes.Buffer{})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	rec := httptest.NewRecorder()
	RequestLoggingMiddleware(logger, false, next).ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", rec.Header().Get(RequestIDHeader))
}

func TestRecoverMiddleware(t *testing.T) {
	var out bytes.Buffer
	logger := NewLoggerTo(&out)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodPost, "/api/generate/free", nil)
	rec := httptest.NewRecorder()
	RecoverMiddleware(logger, next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.True(t, strings.Contains(out.String(), `"panic_recovered"`))
}

func TestLogger_MergesFields(t *testing.T) {
	var out bytes.Buffer
	NewLoggerTo(&out).Warn("restock_entries_dropped", map[string]any{"dropped_free": 2})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, float64(2), entry["dropped_free"])
	assert.NotEmpty(t, entry["timestamp"])
}
