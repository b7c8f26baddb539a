package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/postgres/generated"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool Pool) *EntryRepository {
	return &EntryRepository{queries: generated.New(pool)}
}

// Create creates a new entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateEntry(ctx, generated.CreateEntryParams{
		ID:            entry.ID,
		AccountID:     entry.AccountID,
		Direction:     string(entry.Direction),
		Amount:        decimalToNumeric(entry.Amount),
		BalanceBefore: decimalToNumeric(entry.BalanceBefore),
		BalanceAfter:  decimalToNumeric(entry.BalanceAfter),
		Label:         entry.Label,
		Description:   entry.Description,
		Reference:     entry.Reference,
		Category:      entry.Category,
		OccurredAt:    timeToPgTimestamptz(entry.OccurredAt),
		CreatedAt:     timeToPgTimestamptz(entry.CreatedAt),
		UpdatedAt:     timeToPgTimestamptz(entry.UpdatedAt),
	})

	return translateError(err)
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	row, err := r.queries.GetEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, translateError(err)
	}

	return rowToEntry(row), nil
}

// GetByIDForUpdate retrieves an entry with a FOR UPDATE lock.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetEntryByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, translateError(err)
	}

	return rowToEntry(row), nil
}

// GetLast returns the last entry of the account in (occurred_at, id) order,
// or nil if it has none.
func (r *EntryRepository) GetLast(ctx context.Context, tx usecase.Transaction, accountID string) (*domain.LedgerEntry, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetLastEntry(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, translateError(err)
	}

	return rowToEntry(row), nil
}

// ListByAccountForUpdate locks and returns every entry of the account.
func (r *EntryRepository) ListByAccountForUpdate(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.LedgerEntry, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	rows, err := queries.ListEntriesByAccountForUpdate(ctx, accountID)
	if err != nil {
		return nil, translateError(err)
	}

	return rowsToEntries(rows), nil
}

// Update overwrites the mutable fields and derived balances of an entry.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	n, err := queries.UpdateEntry(ctx, generated.UpdateEntryParams{
		ID:            entry.ID,
		Direction:     string(entry.Direction),
		Amount:        decimalToNumeric(entry.Amount),
		BalanceBefore: decimalToNumeric(entry.BalanceBefore),
		BalanceAfter:  decimalToNumeric(entry.BalanceAfter),
		Label:         entry.Label,
		Description:   entry.Description,
		Reference:     entry.Reference,
		Category:      entry.Category,
		OccurredAt:    timeToPgTimestamptz(entry.OccurredAt),
		UpdatedAt:     timeToPgTimestamptz(entry.UpdatedAt),
	})
	if err != nil {
		return translateError(err)
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	n, err := queries.DeleteEntry(ctx, id)
	if err != nil {
		return translateError(err)
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// List returns committed entries matching filter in (occurred_at, id) order.
func (r *EntryRepository) List(ctx context.Context, accountID string, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	params := generated.ListEntriesParams{
		AccountID: accountID,
		FromTime:  optionalTimestamptz(filter.From),
		ToTime:    optionalTimestamptz(filter.To),
		Direction: string(filter.Direction),
		Limit:     int32(filter.Limit),
	}
	if filter.After != nil {
		params.AfterOccurredAt = timeToPgTimestamptz(filter.After.OccurredAt)
		params.AfterID = filter.After.ID
	}

	rows, err := r.queries.ListEntries(ctx, params)
	if err != nil {
		return nil, translateError(err)
	}

	return rowsToEntries(rows), nil
}

// GetLastAtOrBefore returns the last entry that occurred at or before at,
// or nil.
func (r *EntryRepository) GetLastAtOrBefore(ctx context.Context, accountID string, at time.Time) (*domain.LedgerEntry, error) {
	row, err := r.queries.GetLastEntryAtOrBefore(ctx, generated.GetLastEntryAtOrBeforeParams{
		AccountID:  accountID,
		OccurredAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, translateError(err)
	}

	return rowToEntry(row), nil
}

func rowsToEntries(rows []generated.LedgerEntry) []*domain.LedgerEntry {
	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries
}

func rowToEntry(row generated.LedgerEntry) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:            row.ID,
		AccountID:     row.AccountID,
		Direction:     domain.Direction(row.Direction),
		Amount:        numericToDecimal(row.Amount),
		BalanceBefore: numericToDecimal(row.BalanceBefore),
		BalanceAfter:  numericToDecimal(row.BalanceAfter),
		Label:         row.Label,
		Description:   row.Description,
		Reference:     row.Reference,
		Category:      row.Category,
		OccurredAt:    row.OccurredAt.Time.UTC(),
		CreatedAt:     row.CreatedAt.Time.UTC(),
		UpdatedAt:     row.UpdatedAt.Time.UTC(),
	}
}
