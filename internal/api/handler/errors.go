package handler

import (
	"errors"
	"net/http"

	"github.com/kiranshivaraju/replysim/internal/api/response"
	"github.com/kiranshivaraju/replysim/internal/simulation"
	"github.com/kiranshivaraju/replysim/internal/store"
)

// writeServiceError maps simulation and store errors onto API error codes.
func writeServiceError(w http.ResponseWriter, err error, details any) {
	switch {
	case errors.Is(err, simulation.ErrInvalidBatchParameters):
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), details)
	case errors.Is(err, simulation.ErrEmptyRunSet):
		response.Error(w, http.StatusUnprocessableEntity, "EMPTY_RUN_SET",
			"No simulation runs were produced", details)
	case errors.Is(err, simulation.ErrRunsNotFound):
		response.Error(w, http.StatusNotFound, "RUNS_NOT_FOUND",
			"No simulation runs found for the given ids", details)
	case errors.Is(err, simulation.ErrNothingToGrade):
		response.Error(w, http.StatusConflict, "NOTHING_TO_GRADE",
			"The run has no generated reply to grade", details)
	case errors.Is(err, simulation.ErrJudgingFailed):
		response.Error(w, http.StatusBadGateway, "JUDGE_UNAVAILABLE",
			"The reply judge could not grade the run", details)
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found", details)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"An unexpected error occurred", nil)
	}
}
