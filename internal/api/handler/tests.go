package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/internal/api/response"
	"github.com/kiranshivaraju/replysim/internal/simulation"
	"github.com/kiranshivaraju/replysim/pkg/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// TestRunner runs and summarizes one batch.
type TestRunner interface {
	RunTest(ctx context.Context, req simulation.TestRequest) (*simulation.TestResult, error)
}

// SummaryReader serves stored summaries.
type SummaryReader interface {
	GetSummary(ctx context.Context, id int64) (*models.TestSummary, error)
	ListSummaries(ctx context.Context, limit int) ([]*models.TestSummary, error)
}

type runTestResponse struct {
	Summary *models.TestSummary `json:"summary"`
	BatchID uuid.UUID           `json:"batch_id"`
	RunIDs  []uuid.UUID         `json:"run_ids"`
	Failed  int                 `json:"failed"`
	Skipped int                 `json:"skipped"`
}

type batchDetails struct {
	BatchID uuid.UUID   `json:"batch_id"`
	RunIDs  []uuid.UUID `json:"run_ids"`
	Failed  int         `json:"failed"`
	Skipped int         `json:"skipped"`
}

// NewRunTestHandler returns an http.HandlerFunc for POST /api/v1/tests.
func NewRunTestHandler(svc TestRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req simulation.TestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		result, err := svc.RunTest(r.Context(), req)
		if err != nil {
			var details any
			if result != nil && result.Batch != nil {
				details = batchDetails{
					BatchID: result.Batch.ID,
					RunIDs:  result.Batch.RunIDs,
					Failed:  result.Batch.Failed,
					Skipped: result.Batch.Skipped,
				}
			}
			writeServiceError(w, err, details)
			return
		}

		response.Created(w, runTestResponse{
			Summary: result.Summary,
			BatchID: result.Batch.ID,
			RunIDs:  result.Batch.RunIDs,
			Failed:  result.Batch.Failed,
			Skipped: result.Batch.Skipped,
		})
	}
}

// NewListTestsHandler returns an http.HandlerFunc for GET /api/v1/tests.
func NewListTestsHandler(svc SummaryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxListLimit {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"limit must be an integer between 1 and 200", nil)
				return
			}
			limit = n
		}

		summaries, err := svc.ListSummaries(r.Context(), limit)
		if err != nil {
			writeServiceError(w, err, nil)
			return
		}
		if summaries == nil {
			summaries = []*models.TestSummary{}
		}
		response.Collection(w, summaries, response.ListMeta{Limit: limit, Count: len(summaries)})
	}
}

// NewGetTestHandler returns an http.HandlerFunc for GET /api/v1/tests/{testID}.
func NewGetTestHandler(svc SummaryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "testID"), 10, 64)
		if err != nil || id <= 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "testID must be a positive integer", nil)
			return
		}

		summary, err := svc.GetSummary(r.Context(), id)
		if err != nil {
			writeServiceError(w, err, nil)
			return
		}
		response.JSON(w, summary)
	}
}
