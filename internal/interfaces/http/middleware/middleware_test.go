package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/turtacn/RateCraft/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RateCraft/internal/testutil"
)

func TestRequestContext(t *testing.T) {
	var seen string
	h := chimw.RequestID(RequestContext(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFrom(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(chimw.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get(HeaderRequestID))
}

func TestRequestLogging_Levels(t *testing.T) {
	log := testutil.NewMockLogger()
	mw := RequestLogging(log, nil, DefaultLoggingConfig())

	status := http.StatusOK
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(status) }))
	serve := func(path string) {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	serve("/api/v1/metrics/performance")
	assert.True(t, log.HasMessage("info", "request completed"))

	status = http.StatusNotFound
	serve("/api/v1/x")
	assert.True(t, log.HasMessage("warn", "request rejected"))

	status = http.StatusBadGateway
	serve("/healthz")
	assert.False(t, log.HasMessage("error", "request failed"), "skipped path")
	serve("/api/v1/x")
	assert.True(t, log.HasMessage("error", "request failed"))
}

func TestMaxBodySize(t *testing.T) {
	var readErr error
	h := MaxBodySize(8)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		_, readErr = r.Body.Read(buf)
		for readErr == nil {
			_, readErr = r.Body.Read(buf)
		}
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32))))

	var tooLarge *http.MaxBytesError
	assert.ErrorAs(t, readErr, &tooLarge)
}

//Personal.AI order the ending
