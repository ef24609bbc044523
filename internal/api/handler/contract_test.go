package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/internal/api"
	"github.com/kiranshivaraju/replysim/internal/api/handler"
	mw "github.com/kiranshivaraju/replysim/internal/api/middleware"
	"github.com/kiranshivaraju/replysim/internal/config"
	"github.com/kiranshivaraju/replysim/internal/llm/mock"
	"github.com/kiranshivaraju/replysim/internal/simulation"
	"github.com/kiranshivaraju/replysim/internal/store"
	"github.com/kiranshivaraju/replysim/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── test server ─────────────────────────────────────────────────────────────
// The full router over a real SQLite store and mock LLM providers.

type testServer struct {
	*httptest.Server
	store *store.SQLiteStore
}

func newTestServer(t *testing.T, gen models.ReplyGenerator, judge models.ReplyJudge) *testServer {
	t.Helper()
	ctx := context.Background()

	st, err := store.OpenSQLite(ctx, filepath.Join(t.TempDir(), "contract.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	corpus, err := simulation.LoadScenarios("")
	require.NoError(t, err)
	scenarios, err := simulation.NewScenarioSource(corpus)
	require.NoError(t, err)

	svc := simulation.NewService(simulation.ServiceDeps{
		Store:       st,
		Generator:   gen,
		Judge:       judge,
		Scenarios:   scenarios,
		Limits:      config.SimulationConfig{MaxEmails: 20, MaxConcurrency: 5},
		CallTimeout: 5 * time.Second,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	router := api.NewRouter(api.Dependencies{
		HealthHandler:    handler.NewHealthHandler(st, nil),
		RunTestHandler:   handler.NewRunTestHandler(svc),
		ListTestsHandler: handler.NewListTestsHandler(svc),
		GetTestHandler:   handler.NewGetTestHandler(svc),
		SummarizeHandler: handler.NewSummarizeHandler(svc),
		GetRunHandler:    handler.NewGetRunHandler(svc),
		RegradeHandler:   handler.NewRegradeHandler(svc),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: st}
}

func (ts *testServer) seedCompany(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, ts.store.CreateCompany(context.Background(), &models.Company{Name: name, URL: "https://" + name + ".example"}))
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	return resp, parsed
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected data envelope, got %v", body)
	return d
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	return e["code"].(string)
}

// ─── contract tests ──────────────────────────────────────────────────────────

func TestHealth_200(t *testing.T) {
	ts := newTestServer(t, mock.NewGenerator(), mock.NewJudge(7))

	resp, body := ts.do(t, "GET", "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(mw.RequestIDHeader))
	services := data(t, body)["services"].(map[string]any)
	assert.Equal(t, "ok", services["database"])
	assert.Equal(t, "disabled", services["cache"])
}

func TestRunTest_201_PinnedCompany(t *testing.T) {
	ts := newTestServer(t, mock.NewGenerator(), mock.NewJudge(8))

	resp, body := ts.do(t, "POST", "/api/v1/tests",
		map[string]any{"num_emails": 3, "concurrency_level": 1, "company_name": "Acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	d := data(t, body)
	assert.Len(t, d["run_ids"], 3)
	summary := d["summary"].(map[string]any)
	assert.Equal(t, []any{"Acme"}, summary["companies"])
	assert.Equal(t, 3.0, summary["num_emails"])
	assert.Equal(t, 8.0, summary["avg_reply_grade"])

	// The summary is retrievable and the listing includes it.
	testID := int64(summary["test_id"].(float64))
	resp, body = ts.do(t, "GET", fmt.Sprintf("/api/v1/tests/%d", testID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, summary["run_ids"], data(t, body)["run_ids"])

	resp, body = ts.do(t, "GET", "/api/v1/tests?limit=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)
}

func TestRunTest_RandomCompanyFromStore(t *testing.T) {
	ts := newTestServer(t, mock.NewGenerator(), mock.NewJudge(6))
	ts.seedCompany(t, "Globex")
	ts.seedCompany(t, "Initech")

	resp, body := ts.do(t, "POST", "/api/v1/tests", map[string]any{"num_emails": 6, "concurrency_level": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	summary := data(t, body)["summary"].(map[string]any)
	for _, c := range summary["companies"].([]any) {
		assert.Contains(t, []string{"Globex", "Initech"}, c)
	}
}

func TestRunTest_422_EmptyCatalog(t *testing.T) {
	ts := newTestServer(t, mock.NewGenerator(), mock.NewJudge(7))

	resp, body := ts.do(t, "POST", "/api/v1/tests", map[string]any{"num_emails": 2, "concurrency_level": 2})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "EMPTY_RUN_SET", errorCode(t, body))
}

func TestRunTest_400_OutOfRange(t *testing.T) {
	ts := newTestServer(t, mock.NewGenerator(), mock.NewJudge(7))

	for _, req := range []map[string]any{
		{"num_emails": 0, "concurrency_level": 1},
		{"num_emails": 21, "concurrency_level": 1},
		{"num_emails": 1, "concurrency_level": 6},
	} {
		resp, body := ts.do(t, "POST", "/api/v1/tests", req)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, req)
		assert.Equal(t, "INVALID_REQUEST", errorCode(t, body))
	}
}

func TestRunTest_GenerationFailuresStillSummarized(t *testing.T) {
	ts := newTestServer(t, mock.NewFailingGenerator(fmt.Errorf("provider offline")), mock.NewJudge(9))

	resp, body := ts.do(t, "POST", "/api/v1/tests",
		map[string]any{"num_emails": 2, "concurrency_level": 2, "company_name": "Acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	d := data(t, body)
	assert.Equal(t, 2.0, d["failed"])
	summary := d["summary"].(map[string]any)
	assert.Equal(t, 2.0, summary["num_emails"])
	assert.Nil(t, summary["avg_reply_grade"])
}

func TestSummaries_201_And_404(t *testing.T) {
	ts := newTestServer(t, mock.NewGenerator(), mock.NewJudge(5))

	_, body := ts.do(t, "POST", "/api/v1/tests",
		map[string]any{"num_emails": 2, "concurrency_level": 1, "company_name": "Acme"})
	runIDs := data(t, body)["run_ids"].([]any)

	resp, body := ts.do(t, "POST", "/api/v1/summaries",
		map[string]any{"run_ids": []any{runIDs[0], uuid.NewString()}, "concurrency_level": 1})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, 1.0, data(t, body)["num_emails"])
	assert.Equal(t, 2.0, data(t, body)["total_requests"])

	resp, body = ts.do(t, "POST", "/api/v1/summaries",
		map[string]any{"run_ids": []string{uuid.NewString()}, "concurrency_level": 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "RUNS_NOT_FOUND", errorCode(t, body))
}

func TestRuns_GetAndRegrade(t *testing.T) {
	ts := newTestServer(t, mock.NewGenerator(), mock.NewJudge(4))

	_, body := ts.do(t, "POST", "/api/v1/tests",
		map[string]any{"num_emails": 1, "concurrency_level": 1, "company_name": "Acme"})
	runID := data(t, body)["run_ids"].([]any)[0].(string)

	resp, body := ts.do(t, "GET", "/api/v1/runs/"+runID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Acme", data(t, body)["company_name"])
	assert.Equal(t, 4.0, data(t, body)["reply_grade"])

	resp, body = ts.do(t, "POST", "/api/v1/runs/"+runID+"/regrade", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 4.0, data(t, body)["reply_grade"])

	resp, body = ts.do(t, "GET", "/api/v1/runs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "RESOURCE_NOT_FOUND", errorCode(t, body))
}

func TestRegrade_409_NoBody(t *testing.T) {
	ts := newTestServer(t, mock.NewFailingGenerator(fmt.Errorf("provider offline")), mock.NewJudge(4))

	_, body := ts.do(t, "POST", "/api/v1/tests",
		map[string]any{"num_emails": 1, "concurrency_level": 1, "company_name": "Acme"})
	runID := data(t, body)["run_ids"].([]any)[0].(string)

	resp, body := ts.do(t, "POST", "/api/v1/runs/"+runID+"/regrade", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "NOTHING_TO_GRADE", errorCode(t, body))
}

func TestResponseFormat_ErrorEnvelope(t *testing.T) {
	ts := newTestServer(t, mock.NewGenerator(), mock.NewJudge(7))

	resp, body := ts.do(t, "GET", "/api/v1/tests/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	e := body["error"].(map[string]any)
	assert.NotEmpty(t, e["message"])
}
