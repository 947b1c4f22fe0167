package handler

import (
	"context"
	"net/http"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	TopUp(ctx context.Context, input usecase.TopUpInput) (*domain.Account, error)
	GetAccount(ctx context.Context, identity string) (*domain.Account, error)
}

// AccountHandler serves the caller's own account.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create opens an account for the caller.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), req.ToUseCaseInput(p.ID))
	if err != nil {
		writeDomainError(w, r, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get returns the caller's account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), p.ID)
	if err != nil {
		writeDomainError(w, r, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// TopUp credits the caller's balance.
func (h *AccountHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var req dto.TopUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountUC.TopUp(r.Context(), req.ToUseCaseInput(p.ID))
	if err != nil {
		writeDomainError(w, r, "failed to top up", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}
