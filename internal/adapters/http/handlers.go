package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/microloans/loan-service/internal/adapters/metrics"
	"github.com/microloans/loan-service/internal/application"
	"github.com/microloans/loan-service/internal/domain"
	"github.com/microloans/loan-service/internal/ports"
)

// Handler is the HTTP adapter entrypoint for loan use-cases.
// Keeping only the application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
	metrics *metrics.Metrics
	ready   func(context.Context) error
}

// NewHandler constructs an HTTP handler bound to the application service.
// The metrics instance may be nil when metrics collection is disabled; the
// ready check may be nil when there is no backing dependency to probe.
func NewHandler(service *application.Service, m *metrics.Metrics, ready func(context.Context) error) *Handler {
	return &Handler{service: service, metrics: m, ready: ready}
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "NOT_READY", "dependency unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *Handler) listLoans(w http.ResponseWriter, r *http.Request) {
	filter := ports.LoanFilter{
		Status:     strings.TrimSpace(r.URL.Query().Get("status")),
		BorrowerID: strings.TrimSpace(r.URL.Query().Get("borrower_id")),
	}

	loans, err := h.service.ListLoans(r.Context(), filter)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	// The list endpoint returns a bare array to stay wire-compatible with the
	// original API consumers.
	writeJSON(w, http.StatusOK, loans)
}

func (h *Handler) createLoan(w http.ResponseWriter, r *http.Request) {
	var req application.CreateLoanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), req)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	if h.metrics != nil {
		h.metrics.LoansCreated.Inc()
	}
	writeSuccess(w, http.StatusCreated, loan)
}

func (h *Handler) getLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := loanIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "loan_id must be a valid UUID")
		return
	}

	loan, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, loan)
}

func (h *Handler) updateLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := loanIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "loan_id must be a valid UUID")
		return
	}

	var req application.UpdateLoanRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	loan, err := h.service.UpdateLoanStatus(r.Context(), loanID, req)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, loan)
}

func (h *Handler) deleteLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := loanIDFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "loan_id must be a valid UUID")
		return
	}

	if err := h.service.DeleteLoan(r.Context(), loanID); err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func loanIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "loan_id")
	return uuid.Parse(raw)
}

func decodeBody(r *http.Request, target any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", domain.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
