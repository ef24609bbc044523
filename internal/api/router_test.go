package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/internal/api"
	mw "github.com/kiranshivaraju/replysim/internal/api/middleware"
	"github.com/kiranshivaraju/replysim/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stub cache that always reports the limit as exceeded ---

type exhaustedCache struct{}

func (c *exhaustedCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *exhaustedCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *exhaustedCache) Delete(_ context.Context, _ string) error                         { return nil }
func (c *exhaustedCache) Ping(_ context.Context) error                                     { return nil }
func (c *exhaustedCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1000, nil
}
func (c *exhaustedCache) SetSummary(_ context.Context, _ *models.TestSummary, _ time.Duration) error {
	return nil
}
func (c *exhaustedCache) GetSummary(_ context.Context, _ int64) (*models.TestSummary, bool, error) {
	return nil, false, nil
}
func (c *exhaustedCache) SetRun(_ context.Context, _ *models.SimulationRun, _ time.Duration) error {
	return nil
}
func (c *exhaustedCache) GetRun(_ context.Context, _ uuid.UUID) (*models.SimulationRun, bool, error) {
	return nil, false, nil
}
func (c *exhaustedCache) DeleteRun(_ context.Context, _ uuid.UUID) error { return nil }

// --- router tests ---

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"data":"ok"}`))
}

func newTestRouter(rl *mw.RateLimit) http.Handler {
	return api.NewRouter(api.Dependencies{
		RateLimit:        rl,
		HealthHandler:    okHandler,
		RunTestHandler:   okHandler,
		ListTestsHandler: okHandler,
		GetTestHandler:   okHandler,
		SummarizeHandler: okHandler,
		GetRunHandler:    okHandler,
		RegradeHandler:   okHandler,
	})
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	errObj := body["error"].(map[string]any)
	return errObj["code"].(string)
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(nil)
	runID := uuid.NewString()

	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/health"},
		{"POST", "/api/v1/tests"},
		{"GET", "/api/v1/tests"},
		{"GET", "/api/v1/tests/12"},
		{"POST", "/api/v1/summaries"},
		{"GET", "/api/v1/runs/" + runID},
		{"POST", "/api/v1/runs/" + runID + "/regrade"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.NotEmpty(t, w.Header().Get(mw.RequestIDHeader))
		})
	}
}

func TestRouter_RateLimitOnlyOnLLMRoutes(t *testing.T) {
	router := newTestRouter(mw.NewRateLimit(&exhaustedCache{}, 10))

	limited := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/tests"},
		{"POST", "/api/v1/summaries"},
		{"POST", "/api/v1/runs/" + uuid.NewString() + "/regrade"},
	}
	for _, ep := range limited {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(ep.method, ep.path, nil))

			assert.Equal(t, http.StatusTooManyRequests, w.Code)
			assert.Equal(t, "RATE_LIMIT_EXCEEDED", errCode(t, w))
		})
	}

	for _, path := range []string{"/api/v1/health", "/api/v1/tests", "/api/v1/tests/3"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_NotImplementedPlaceholder(t *testing.T) {
	router := api.NewRouter(api.Dependencies{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/tests", nil))

	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "NOT_IMPLEMENTED", errCode(t, w))
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest("GET", "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", errCode(t, w))
}

func TestRouter_PanicRecovered(t *testing.T) {
	router := api.NewRouter(api.Dependencies{
		HealthHandler: func(_ http.ResponseWriter, _ *http.Request) { panic("boom") },
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errCode(t, w))
}
