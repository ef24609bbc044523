package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/replysim/internal/api/middleware"
	"github.com/kiranshivaraju/replysim/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	RateLimit *mw.RateLimit

	HealthHandler    http.HandlerFunc
	RunTestHandler   http.HandlerFunc
	ListTestsHandler http.HandlerFunc
	GetTestHandler   http.HandlerFunc
	SummarizeHandler http.HandlerFunc
	GetRunHandler    http.HandlerFunc
	RegradeHandler   http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Get("/api/v1/tests", orNotImplemented(deps.ListTestsHandler))
	r.Get("/api/v1/tests/{testID}", orNotImplemented(deps.GetTestHandler))
	r.Get("/api/v1/runs/{runID}", orNotImplemented(deps.GetRunHandler))

	// Routes that call the LLM providers
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/tests", orNotImplemented(deps.RunTestHandler))
		r.Post("/api/v1/summaries", orNotImplemented(deps.SummarizeHandler))
		r.Post("/api/v1/runs/{runID}/regrade", orNotImplemented(deps.RegradeHandler))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "RESOURCE_NOT_FOUND", "Route not found", nil)
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
