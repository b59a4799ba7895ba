package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/microloans/loan-service/internal/adapters/metrics"
)

// NewRouter registers the loan service routes and middleware stack.
// Centralizing routes here keeps logging, metrics and error behavior
// consistent across endpoints. A nil metrics instance removes both the
// collection middleware and the /metrics endpoint.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)
	if handler.metrics != nil {
		r.Use(metricsMiddleware(handler.metrics))
	}

	r.Get("/health", handler.health)
	r.Get("/readyz", handler.readyz)
	if handler.metrics != nil {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/loans", handler.listLoans)
		r.Post("/loans", handler.createLoan)
		r.Get("/loans/{loan_id}", handler.getLoan)
		r.Patch("/loans/{loan_id}", handler.updateLoan)
		r.Delete("/loans/{loan_id}", handler.deleteLoan)
		r.Get("/stats", handler.stats)
	})

	return r
}
