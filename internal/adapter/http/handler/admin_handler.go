package handler

import (
	"context"
	"net/http"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// HoldingsResetter clears every holding.
type HoldingsResetter interface {
	ResetHoldings(ctx context.Context, principal domain.Principal) (int, error)
}

// Reconciler audits the ledger.
type Reconciler interface {
	Reconcile(ctx context.Context, principal domain.Principal) (*usecase.ReconciliationReport, error)
}

// AdminHandler serves administrative operations. Role checks happen in the use cases.
type AdminHandler struct {
	resetter   HoldingsResetter
	reconciler Reconciler
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(resetter HoldingsResetter, reconciler Reconciler) *AdminHandler {
	return &AdminHandler{resetter: resetter, reconciler: reconciler}
}

// ResetHoldings deletes every holding and reports how many were removed.
func (h *AdminHandler) ResetHoldings(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	removed, err := h.resetter.ResetHoldings(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, "failed to reset holdings", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ResetHoldingsResponse{Removed: removed})
}

// Reconcile returns the reconciliation report.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	report, err := h.reconciler.Reconcile(r.Context(), p)
	if err != nil {
		writeDomainError(w, r, "failed to reconcile", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(report))
}
