package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/http/dto"
	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

type ledgerServiceStub struct {
	creditFn func(ctx context.Context, input usecase.PostEntryInput) (*domain.LedgerEntry, error)
	debitFn  func(ctx context.Context, input usecase.PostEntryInput) (*domain.LedgerEntry, error)
	editFn   func(ctx context.Context, input usecase.EditEntryInput) (*domain.LedgerEntry, error)
	deleteFn func(ctx context.Context, ownerID, entryID string) error
}

func (s *ledgerServiceStub) Credit(ctx context.Context, input usecase.PostEntryInput) (*domain.LedgerEntry, error) {
	return s.creditFn(ctx, input)
}

func (s *ledgerServiceStub) Debit(ctx context.Context, input usecase.PostEntryInput) (*domain.LedgerEntry, error) {
	return s.debitFn(ctx, input)
}

func (s *ledgerServiceStub) EditEntry(ctx context.Context, input usecase.EditEntryInput) (*domain.LedgerEntry, error) {
	return s.editFn(ctx, input)
}

func (s *ledgerServiceStub) DeleteEntry(ctx context.Context, ownerID, entryID string) error {
	return s.deleteFn(ctx, ownerID, entryID)
}

type entryQueryStub struct {
	getFn     func(ctx context.Context, ownerID, id string) (*domain.LedgerEntry, error)
	pageFn    func(ctx context.Context, ownerID, accountID string, filter domain.EntryFilter) (*usecase.EntryPage, error)
	balanceFn func(ctx context.Context, ownerID, accountID string, at time.Time) (decimal.Decimal, error)
}

func (s *entryQueryStub) GetEntry(ctx context.Context, ownerID, id string) (*domain.LedgerEntry, error) {
	return s.getFn(ctx, ownerID, id)
}

func (s *entryQueryStub) ListEntriesPage(ctx context.Context, ownerID, accountID string, filter domain.EntryFilter) (*usecase.EntryPage, error) {
	return s.pageFn(ctx, ownerID, accountID, filter)
}

func (s *entryQueryStub) GetBalanceAt(ctx context.Context, ownerID, accountID string, at time.Time) (decimal.Decimal, error) {
	return s.balanceFn(ctx, ownerID, accountID, at)
}

func TestEntryHandler_Debit(t *testing.T) {
	var captured usecase.PostEntryInput
	handler := NewEntryHandler(&ledgerServiceStub{
		debitFn: func(ctx context.Context, input usecase.PostEntryInput) (*domain.LedgerEntry, error) {
			captured = input
			return &domain.LedgerEntry{
				ID:           "ent-1",
				AccountID:    input.AccountID,
				Direction:    domain.DirectionDebit,
				Amount:       input.Amount,
				BalanceAfter: decimal.NewFromInt(90),
			}, nil
		},
	}, &entryQueryStub{})

	body := `{"amount":"10","label":"lunch","category":"food"}`
	req := httptest.NewRequest(http.MethodPost, "/accounts/acc-1/debits", bytes.NewBufferString(body))
	req = withOwner(setChiURLParam(req, "id", "acc-1"), "owner-1")
	rec := httptest.NewRecorder()

	handler.Debit(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "owner-1", captured.OwnerID)
	assert.Equal(t, "acc-1", captured.AccountID)
	assert.Equal(t, "lunch", captured.Label)
	assert.Equal(t, "food", captured.Category)
	assert.True(t, captured.Amount.Equal(decimal.NewFromInt(10)))
	assert.Nil(t, captured.OccurredAt)

	var resp dto.EntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "debit", resp.Direction)
	assert.Equal(t, "90", resp.BalanceAfter.String())
}

func TestEntryHandler_Credit_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		retryAfter bool
	}{
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity, false},
		{"closed account", domain.ErrAccountInactive, http.StatusUnprocessableEntity, false},
		{"lock conflict", domain.ErrConcurrencyConflict, http.StatusConflict, true},
		{"bad amount", domain.ErrInvalidAmount, http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewEntryHandler(&ledgerServiceStub{
				creditFn: func(ctx context.Context, input usecase.PostEntryInput) (*domain.LedgerEntry, error) {
					return nil, tt.err
				},
			}, &entryQueryStub{})

			req := httptest.NewRequest(http.MethodPost, "/accounts/acc-1/credits", bytes.NewBufferString(`{"amount":"1","label":"x"}`))
			req = withOwner(setChiURLParam(req, "id", "acc-1"), "owner-1")
			rec := httptest.NewRecorder()

			handler.Credit(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After") != "")
		})
	}
}

func TestEntryHandler_Credit_InvalidJSON(t *testing.T) {
	handler := NewEntryHandler(&ledgerServiceStub{}, &entryQueryStub{})

	req := httptest.NewRequest(http.MethodPost, "/accounts/acc-1/credits", bytes.NewBufferString(`{"amount":`))
	req = withOwner(setChiURLParam(req, "id", "acc-1"), "owner-1")
	rec := httptest.NewRecorder()

	handler.Credit(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEntryHandler_Edit(t *testing.T) {
	var captured usecase.EditEntryInput
	handler := NewEntryHandler(&ledgerServiceStub{
		editFn: func(ctx context.Context, input usecase.EditEntryInput) (*domain.LedgerEntry, error) {
			captured = input
			return &domain.LedgerEntry{ID: input.EntryID, Direction: *input.Direction}, nil
		},
	}, &entryQueryStub{})

	req := httptest.NewRequest(http.MethodPatch, "/entries/ent-1", bytes.NewBufferString(`{"direction":"credit","occurred_at":"2024-01-01T00:00:00Z"}`))
	req = withOwner(setChiURLParam(req, "id", "ent-1"), "owner-1")
	rec := httptest.NewRecorder()

	handler.Edit(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "ent-1", captured.EntryID)
	require.NotNil(t, captured.OccurredAt)
	assert.True(t, captured.OccurredAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Nil(t, captured.Amount)
}

func TestEntryHandler_Delete(t *testing.T) {
	deleted := ""
	handler := NewEntryHandler(&ledgerServiceStub{
		deleteFn: func(ctx context.Context, ownerID, entryID string) error {
			deleted = entryID
			return nil
		},
	}, &entryQueryStub{})

	req := httptest.NewRequest(http.MethodDelete, "/entries/ent-1", nil)
	req = withOwner(setChiURLParam(req, "id", "ent-1"), "owner-1")
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "ent-1", deleted)
}

func TestEntryHandler_Get_NotFound(t *testing.T) {
	handler := NewEntryHandler(&ledgerServiceStub{}, &entryQueryStub{
		getFn: func(ctx context.Context, ownerID, id string) (*domain.LedgerEntry, error) {
			return nil, domain.ErrEntryNotFound
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/entries/missing", nil)
	req = withOwner(setChiURLParam(req, "id", "missing"), "owner-1")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEntryHandler_ListByAccount(t *testing.T) {
	after := &domain.Cursor{OccurredAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), ID: "ent-5"}
	next := domain.Cursor{OccurredAt: time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC), ID: "ent-9"}

	var captured domain.EntryFilter
	handler := NewEntryHandler(&ledgerServiceStub{}, &entryQueryStub{
		pageFn: func(ctx context.Context, ownerID, accountID string, filter domain.EntryFilter) (*usecase.EntryPage, error) {
			captured = filter
			return &usecase.EntryPage{
				Entries:    []*domain.LedgerEntry{{ID: "ent-9", OccurredAt: next.OccurredAt}},
				NextCursor: &next,
			}, nil
		},
	})

	url := "/accounts/acc-1/entries?from=2024-01-01T00:00:00Z&to=2024-02-01T00:00:00Z&direction=debit&limit=1&cursor=" + dto.EncodeCursor(after)
	req := withOwner(setChiURLParam(httptest.NewRequest(http.MethodGet, url, nil), "id", "acc-1"), "owner-1")
	rec := httptest.NewRecorder()

	handler.ListByAccount(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, captured.From)
	require.NotNil(t, captured.To)
	require.NotNil(t, captured.After)
	assert.Equal(t, domain.DirectionDebit, captured.Direction)
	assert.Equal(t, 1, captured.Limit)
	assert.Equal(t, "ent-5", captured.After.ID)

	var resp dto.EntryPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, dto.EncodeCursor(&next), resp.NextCursor)
}

func TestEntryHandler_ListByAccount_BadQuery(t *testing.T) {
	handler := NewEntryHandler(&ledgerServiceStub{}, &entryQueryStub{
		pageFn: func(ctx context.Context, ownerID, accountID string, filter domain.EntryFilter) (*usecase.EntryPage, error) {
			t.Fatal("ListEntriesPage should not be called for a bad query")
			return nil, nil
		},
	})

	for _, query := range []string{"direction=sideways", "cursor=%25%25", "from=yesterday"} {
		req := httptest.NewRequest(http.MethodGet, "/accounts/acc-1/entries?"+query, nil)
		req = withOwner(setChiURLParam(req, "id", "acc-1"), "owner-1")
		rec := httptest.NewRecorder()

		handler.ListByAccount(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestEntryHandler_BalanceAt(t *testing.T) {
	var capturedAt time.Time
	handler := NewEntryHandler(&ledgerServiceStub{}, &entryQueryStub{
		balanceFn: func(ctx context.Context, ownerID, accountID string, at time.Time) (decimal.Decimal, error) {
			capturedAt = at
			return decimal.NewFromInt(42), nil
		},
	})
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return fixed }

	req := withOwner(setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/balance/history?at=2024-03-01T00:00:00Z", nil), "id", "acc-1"), "owner-1")
	rec := httptest.NewRecorder()
	handler.BalanceAt(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, capturedAt.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))

	var resp dto.BalanceAtResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "42", resp.Balance.String())

	req = withOwner(setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/balance/history", nil), "id", "acc-1"), "owner-1")
	rec = httptest.NewRecorder()
	handler.BalanceAt(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, capturedAt.Equal(fixed))

	req = withOwner(setChiURLParam(httptest.NewRequest(http.MethodGet, "/accounts/acc-1/balance/history?at=noon", nil), "id", "acc-1"), "owner-1")
	rec = httptest.NewRecorder()
	handler.BalanceAt(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
