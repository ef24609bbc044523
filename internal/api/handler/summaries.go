package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/internal/api/response"
	"github.com/kiranshivaraju/replysim/pkg/models"
)

// Summarizer builds a summary over existing runs.
type Summarizer interface {
	Summarize(ctx context.Context, ids []uuid.UUID, concurrency int) (*models.TestSummary, error)
}

// NewSummarizeHandler returns an http.HandlerFunc for POST /api/v1/summaries.
func NewSummarizeHandler(svc Summarizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			RunIDs      []string `json:"run_ids"`
			Concurrency int      `json:"concurrency_level"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if len(req.RunIDs) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "run_ids is required", nil)
			return
		}
		if req.Concurrency < 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "concurrency_level must not be negative", nil)
			return
		}

		ids := make([]uuid.UUID, 0, len(req.RunIDs))
		var invalid []string
		for _, raw := range req.RunIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				invalid = append(invalid, raw)
				continue
			}
			ids = append(ids, id)
		}
		if len(invalid) > 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"run_ids must be UUIDs", map[string][]string{"invalid": invalid})
			return
		}

		summary, err := svc.Summarize(r.Context(), ids, req.Concurrency)
		if err != nil {
			writeServiceError(w, err, nil)
			return
		}
		response.Created(w, summary)
	}
}
