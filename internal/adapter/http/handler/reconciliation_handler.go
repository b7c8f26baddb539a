package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/http/dto"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// ReconciliationService audits and repairs derived balances.
type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, ownerID, accountID string) (*usecase.ReconciliationResult, error)
	RebuildAccount(ctx context.Context, ownerID, accountID string) (*usecase.RebuildResult, error)
	GenerateReport(ctx context.Context, ownerID string) (*usecase.ReconciliationReport, error)
}

// ReconciliationHandler handles reconciliation requests.
type ReconciliationHandler struct {
	reconciliationUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(uc ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationUC: uc}
}

// Reconcile compares the stored balances of an account against a replay.
func (h *ReconciliationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	result, err := h.reconciliationUC.ReconcileAccount(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reconcile account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

// Rebuild rewrites the derived balances of an account.
func (h *ReconciliationHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	result, err := h.reconciliationUC.RebuildAccount(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to rebuild account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RebuildFromUseCase(result))
}

// Report reconciles every account of the caller.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	report, err := h.reconciliationUC.GenerateReport(r.Context(), owner)
	if err != nil {
		writeDomainError(w, "failed to generate report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromUseCase(report))
}
