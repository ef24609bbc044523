package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/internal/api/response"
	"github.com/kiranshivaraju/replysim/pkg/models"
)

type RunReader interface {
	GetRun(ctx context.Context, id uuid.UUID) (*models.SimulationRun, error)
}

type Regrader interface {
	Regrade(ctx context.Context, id uuid.UUID) (*models.SimulationRun, error)
}

// NewGetRunHandler returns an http.HandlerFunc for GET /api/v1/runs/{runID}.
func NewGetRunHandler(svc RunReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := runIDParam(w, r)
		if !ok {
			return
		}
		run, err := svc.GetRun(r.Context(), id)
		if err != nil {
			writeServiceError(w, err, nil)
			return
		}
		response.JSON(w, run)
	}
}

// NewRegradeHandler returns an http.HandlerFunc for POST /api/v1/runs/{runID}/regrade.
func NewRegradeHandler(svc Regrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := runIDParam(w, r)
		if !ok {
			return
		}
		run, err := svc.Regrade(r.Context(), id)
		if err != nil {
			writeServiceError(w, err, nil)
			return
		}
		response.JSON(w, run)
	}
}

func runIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "runID must be a UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
