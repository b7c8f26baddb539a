package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

const entryColumns = `id, account_id, direction, amount, balance_before, balance_after, label, description, reference, category, occurred_at, created_at, updated_at`

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	db *sql.DB
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Create creates a new entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	q, err := txQueryer(tx)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.AccountID,
		string(entry.Direction),
		entry.Amount.String(),
		entry.BalanceBefore.String(),
		entry.BalanceAfter.String(),
		entry.Label,
		entry.Description,
		entry.Reference,
		entry.Category,
		formatTime(entry.OccurredAt),
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)

	return translateError(err)
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return getEntry(ctx, r.db, id)
}

// GetByIDForUpdate retrieves an entry by ID inside tx.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	q, err := txQueryer(tx)
	if err != nil {
		return nil, err
	}

	return getEntry(ctx, q, id)
}

func getEntry(ctx context.Context, q queryer, id string) (*domain.LedgerEntry, error) {
	row := q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, translateError(err)
	}

	return entry, nil
}

// GetLast returns the last entry of the account in (occurred_at, id) order,
// or nil if it has none.
func (r *EntryRepository) GetLast(ctx context.Context, tx usecase.Transaction, accountID string) (*domain.LedgerEntry, error) {
	q, err := txQueryer(tx)
	if err != nil {
		return nil, err
	}

	row := q.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries
		WHERE account_id = ? ORDER BY occurred_at DESC, id DESC LIMIT 1`, accountID)

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, translateError(err)
	}

	return entry, nil
}

// ListByAccountForUpdate returns every entry of the account inside tx.
func (r *EntryRepository) ListByAccountForUpdate(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.LedgerEntry, error) {
	q, err := txQueryer(tx)
	if err != nil {
		return nil, err
	}

	return queryEntries(ctx, q, `SELECT `+entryColumns+` FROM ledger_entries
		WHERE account_id = ? ORDER BY occurred_at, id`, accountID)
}

// Update overwrites the mutable fields and derived balances of an entry.
func (r *EntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	q, err := txQueryer(tx)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `UPDATE ledger_entries
		SET direction = ?, amount = ?, balance_before = ?, balance_after = ?, label = ?,
		    description = ?, reference = ?, category = ?, occurred_at = ?, updated_at = ?
		WHERE id = ?`,
		string(entry.Direction),
		entry.Amount.String(),
		entry.BalanceBefore.String(),
		entry.BalanceAfter.String(),
		entry.Label,
		entry.Description,
		entry.Reference,
		entry.Category,
		formatTime(entry.OccurredAt),
		formatTime(entry.UpdatedAt),
		entry.ID,
	)

	return affectedOne(result, err, domain.ErrEntryNotFound)
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	q, err := txQueryer(tx)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = ?`, id)

	return affectedOne(result, err, domain.ErrEntryNotFound)
}

// List returns committed entries matching filter in (occurred_at, id) order.
func (r *EntryRepository) List(ctx context.Context, accountID string, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	var (
		where = []string{"account_id = ?"}
		args  = []any{accountID}
	)

	if filter.From != nil {
		where = append(where, "occurred_at >= ?")
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "occurred_at <= ?")
		args = append(args, formatTime(*filter.To))
	}
	if filter.Direction != "" {
		where = append(where, "direction = ?")
		args = append(args, string(filter.Direction))
	}
	if filter.After != nil {
		where = append(where, "(occurred_at > ? OR (occurred_at = ? AND id > ?))")
		after := formatTime(filter.After.OccurredAt)
		args = append(args, after, after, filter.After.ID)
	}

	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY occurred_at, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	return queryEntries(ctx, r.db, query, args...)
}

// GetLastAtOrBefore returns the last entry that occurred at or before at,
// or nil.
func (r *EntryRepository) GetLastAtOrBefore(ctx context.Context, accountID string, at time.Time) (*domain.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries
		WHERE account_id = ? AND occurred_at <= ?
		ORDER BY occurred_at DESC, id DESC LIMIT 1`, accountID, formatTime(at))

	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, translateError(err)
	}

	return entry, nil
}

func queryEntries(ctx context.Context, q queryer, query string, args ...any) ([]*domain.LedgerEntry, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	entries := []*domain.LedgerEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func scanEntry(s scanner) (*domain.LedgerEntry, error) {
	var (
		entry                            domain.LedgerEntry
		direction                        string
		amount, before, after            string
		occurredAt, createdAt, updatedAt string
	)

	err := s.Scan(
		&entry.ID,
		&entry.AccountID,
		&direction,
		&amount,
		&before,
		&after,
		&entry.Label,
		&entry.Description,
		&entry.Reference,
		&entry.Category,
		&occurredAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Direction = domain.Direction(direction)

	for _, f := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{amount, &entry.Amount},
		{before, &entry.BalanceBefore},
		{after, &entry.BalanceAfter},
	} {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return nil, fmt.Errorf("entry %s: invalid decimal %q: %w", entry.ID, f.raw, err)
		}
	}

	for _, f := range []struct {
		raw string
		dst *time.Time
	}{
		{occurredAt, &entry.OccurredAt},
		{createdAt, &entry.CreatedAt},
		{updatedAt, &entry.UpdatedAt},
	} {
		if *f.dst, err = parseTime(f.raw); err != nil {
			return nil, fmt.Errorf("entry %s: invalid time %q: %w", entry.ID, f.raw, err)
		}
	}

	return &entry, nil
}
