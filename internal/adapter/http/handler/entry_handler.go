package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/http/dto"
	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// LedgerService posts and mutates entries.
type LedgerService interface {
	Credit(ctx context.Context, input usecase.PostEntryInput) (*domain.LedgerEntry, error)
	Debit(ctx context.Context, input usecase.PostEntryInput) (*domain.LedgerEntry, error)
	EditEntry(ctx context.Context, input usecase.EditEntryInput) (*domain.LedgerEntry, error)
	DeleteEntry(ctx context.Context, ownerID, entryID string) error
}

// EntryQueryService reads entries and historical balances.
type EntryQueryService interface {
	GetEntry(ctx context.Context, ownerID, id string) (*domain.LedgerEntry, error)
	ListEntriesPage(ctx context.Context, ownerID, accountID string, filter domain.EntryFilter) (*usecase.EntryPage, error)
	GetBalanceAt(ctx context.Context, ownerID, accountID string, at time.Time) (decimal.Decimal, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	ledger  LedgerService
	entries EntryQueryService
	now     func() time.Time
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(ledger LedgerService, entries EntryQueryService) *EntryHandler {
	return &EntryHandler{ledger: ledger, entries: entries, now: time.Now}
}

// Credit posts a credit to the account in the path.
func (h *EntryHandler) Credit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.ledger.Credit)
}

// Debit posts a debit to the account in the path.
func (h *EntryHandler) Debit(w http.ResponseWriter, r *http.Request) {
	h.post(w, r, h.ledger.Debit)
}

func (h *EntryHandler) post(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, usecase.PostEntryInput) (*domain.LedgerEntry, error),
) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.PostEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := fn(r.Context(), req.ToUseCaseInput(owner, accountID))
	if err != nil {
		writeDomainError(w, "failed to post entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Get retrieves an entry by ID.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	entry, err := h.entries.GetEntry(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Edit applies a partial update to an entry.
func (h *EntryHandler) Edit(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var req dto.EditEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ledger.EditEntry(r.Context(), req.ToUseCaseInput(owner, chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "failed to edit entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Delete removes an entry and replays the account.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	if err := h.ledger.DeleteEntry(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "failed to delete entry", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByAccount returns one page of an account's history.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	filter, err := parseEntryFilter(r)
	if err != nil {
		writeDomainError(w, "invalid filter", err)
		return
	}

	page, err := h.entries.ListEntriesPage(r.Context(), owner, accountID, filter)
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryPageFromUseCase(page))
}

// BalanceAt returns the account balance as of the "at" query parameter,
// or now when it is absent.
func (h *EntryHandler) BalanceAt(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	accountID := chi.URLParam(r, "id")

	at, err := parseTimeQuery(r, "at")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid 'at' format (use RFC3339)", err.Error())
		return
	}
	if at == nil {
		now := h.now().UTC()
		at = &now
	}

	balance, err := h.entries.GetBalanceAt(r.Context(), owner, accountID, *at)
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceAtResponse{
		AccountID: accountID,
		At:        *at,
		Balance:   balance,
	})
}

func parseEntryFilter(r *http.Request) (domain.EntryFilter, error) {
	var filter domain.EntryFilter
	var err error

	if filter.From, err = parseTimeQuery(r, "from"); err != nil {
		return filter, fmt.Errorf("%w: from", errInvalidQuery)
	}
	if filter.To, err = parseTimeQuery(r, "to"); err != nil {
		return filter, fmt.Errorf("%w: to", errInvalidQuery)
	}

	if d := domain.Direction(r.URL.Query().Get("direction")); d != "" {
		if !d.IsValid() {
			return filter, domain.ErrInvalidDirection
		}
		filter.Direction = d
	}

	if filter.After, err = dto.DecodeCursor(r.URL.Query().Get("cursor")); err != nil {
		return filter, err
	}

	filter.Limit = parseIntQuery(r, "limit", 0)
	return filter, nil
}
