package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/http/dto"
	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, ownerID, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, input usecase.ListAccountsInput) ([]*domain.Account, error)
	CloseAccount(ctx context.Context, ownerID, id string) (*domain.Account, error)
	GetTotalBalance(ctx context.Context, ownerID string) (decimal.Decimal, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create opens a new account for the caller.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req dto.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.OpenAccount(r.Context(), req.ToUseCaseInput(owner))
	if err != nil {
		writeDomainError(w, "failed to open account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), owner, id)
	if err != nil {
		writeDomainError(w, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists the caller's accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		OwnerID: owner,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		writeDomainError(w, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// Close soft-deletes an account. Its history stays readable.
func (h *AccountHandler) Close(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.CloseAccount(r.Context(), owner, id)
	if err != nil {
		writeDomainError(w, "failed to close account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// TotalBalance returns the sum of the caller's active account balances.
func (h *AccountHandler) TotalBalance(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	total, err := h.accountUC.GetTotalBalance(r.Context(), owner)
	if err != nil {
		writeDomainError(w, "failed to get total balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TotalBalanceResponse{OwnerID: owner, Total: total})
}
