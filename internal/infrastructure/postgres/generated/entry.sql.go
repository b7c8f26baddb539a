package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createEntry = `-- name: CreateEntry :exec
INSERT INTO ledger_entries (id, account_id, direction, amount, balance_before, balance_after, label, description, reference, category, occurred_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
`

type CreateEntryParams struct {
	ID            string             `json:"id"`
	AccountID     string             `json:"account_id"`
	Direction     string             `json:"direction"`
	Amount        pgtype.Numeric     `json:"amount"`
	BalanceBefore pgtype.Numeric     `json:"balance_before"`
	BalanceAfter  pgtype.Numeric     `json:"balance_after"`
	Label         string             `json:"label"`
	Description   string             `json:"description"`
	Reference     string             `json:"reference"`
	Category      string             `json:"category"`
	OccurredAt    pgtype.Timestamptz `json:"occurred_at"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) error {
	_, err := q.db.Exec(ctx, createEntry,
		arg.ID,
		arg.AccountID,
		arg.Direction,
		arg.Amount,
		arg.BalanceBefore,
		arg.BalanceAfter,
		arg.Label,
		arg.Description,
		arg.Reference,
		arg.Category,
		arg.OccurredAt,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const deleteEntry = `-- name: DeleteEntry :execrows
DELETE FROM ledger_entries WHERE id = $1
`

func (q *Queries) DeleteEntry(ctx context.Context, id string) (int64, error) {
	result, err := q.db.Exec(ctx, deleteEntry, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const getEntryByID = `-- name: GetEntryByID :one
SELECT id, account_id, direction, amount, balance_before, balance_after, label, description, reference, category, occurred_at, created_at, updated_at FROM ledger_entries WHERE id = $1
`

func (q *Queries) GetEntryByID(ctx context.Context, id string) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, getEntryByID, id)
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Direction,
		&i.Amount,
		&i.BalanceBefore,
		&i.BalanceAfter,
		&i.Label,
		&i.Description,
		&i.Reference,
		&i.Category,
		&i.OccurredAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getEntryByIDForUpdate = `-- name: GetEntryByIDForUpdate :one
SELECT id, account_id, direction, amount, balance_before, balance_after, label, description, reference, category, occurred_at, created_at, updated_at FROM ledger_entries WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetEntryByIDForUpdate(ctx context.Context, id string) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, getEntryByIDForUpdate, id)
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Direction,
		&i.Amount,
		&i.BalanceBefore,
		&i.BalanceAfter,
		&i.Label,
		&i.Description,
		&i.Reference,
		&i.Category,
		&i.OccurredAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getLastEntry = `-- name: GetLastEntry :one
SELECT id, account_id, direction, amount, balance_before, balance_after, label, description, reference, category, occurred_at, created_at, updated_at FROM ledger_entries
WHERE account_id = $1
ORDER BY occurred_at DESC, id DESC
LIMIT 1
`

func (q *Queries) GetLastEntry(ctx context.Context, accountID string) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, getLastEntry, accountID)
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Direction,
		&i.Amount,
		&i.BalanceBefore,
		&i.BalanceAfter,
		&i.Label,
		&i.Description,
		&i.Reference,
		&i.Category,
		&i.OccurredAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getLastEntryAtOrBefore = `-- name: GetLastEntryAtOrBefore :one
SELECT id, account_id, direction, amount, balance_before, balance_after, label, description, reference, category, occurred_at, created_at, updated_at FROM ledger_entries
WHERE account_id = $1 AND occurred_at <= $2
ORDER BY occurred_at DESC, id DESC
LIMIT 1
`

type GetLastEntryAtOrBeforeParams struct {
	AccountID  string             `json:"account_id"`
	OccurredAt pgtype.Timestamptz `json:"occurred_at"`
}

func (q *Queries) GetLastEntryAtOrBefore(ctx context.Context, arg GetLastEntryAtOrBeforeParams) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, getLastEntryAtOrBefore, arg.AccountID, arg.OccurredAt)
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.Direction,
		&i.Amount,
		&i.BalanceBefore,
		&i.BalanceAfter,
		&i.Label,
		&i.Description,
		&i.Reference,
		&i.Category,
		&i.OccurredAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listEntries = `-- name: ListEntries :many
SELECT id, account_id, direction, amount, balance_before, balance_after, label, description, reference, category, occurred_at, created_at, updated_at FROM ledger_entries
WHERE account_id = $1
  AND ($2::timestamptz IS NULL OR occurred_at >= $2)
  AND ($3::timestamptz IS NULL OR occurred_at <= $3)
  AND ($4::text = '' OR direction = $4)
  AND ($5::timestamptz IS NULL OR (occurred_at, id) > ($5, $6::text))
ORDER BY occurred_at, id
LIMIT NULLIF($7::int, 0)
`

type ListEntriesParams struct {
	AccountID       string             `json:"account_id"`
	FromTime        pgtype.Timestamptz `json:"from_time"`
	ToTime          pgtype.Timestamptz `json:"to_time"`
	Direction       string             `json:"direction"`
	AfterOccurredAt pgtype.Timestamptz `json:"after_occurred_at"`
	AfterID         string             `json:"after_id"`
	Limit           int32              `json:"limit"`
}

func (q *Queries) ListEntries(ctx context.Context, arg ListEntriesParams) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listEntries,
		arg.AccountID,
		arg.FromTime,
		arg.ToTime,
		arg.Direction,
		arg.AfterOccurredAt,
		arg.AfterID,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

const listEntriesByAccountForUpdate = `-- name: ListEntriesByAccountForUpdate :many
SELECT id, account_id, direction, amount, balance_before, balance_after, label, description, reference, category, occurred_at, created_at, updated_at FROM ledger_entries
WHERE account_id = $1
ORDER BY occurred_at, id
FOR UPDATE
`

func (q *Queries) ListEntriesByAccountForUpdate(ctx context.Context, accountID string) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listEntriesByAccountForUpdate, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

const updateEntry = `-- name: UpdateEntry :execrows
UPDATE ledger_entries
SET direction = $2, amount = $3, balance_before = $4, balance_after = $5, label = $6,
    description = $7, reference = $8, category = $9, occurred_at = $10, updated_at = $11
WHERE id = $1
`

type UpdateEntryParams struct {
	ID            string             `json:"id"`
	Direction     string             `json:"direction"`
	Amount        pgtype.Numeric     `json:"amount"`
	BalanceBefore pgtype.Numeric     `json:"balance_before"`
	BalanceAfter  pgtype.Numeric     `json:"balance_after"`
	Label         string             `json:"label"`
	Description   string             `json:"description"`
	Reference     string             `json:"reference"`
	Category      string             `json:"category"`
	OccurredAt    pgtype.Timestamptz `json:"occurred_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateEntry(ctx context.Context, arg UpdateEntryParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateEntry,
		arg.ID,
		arg.Direction,
		arg.Amount,
		arg.BalanceBefore,
		arg.BalanceAfter,
		arg.Label,
		arg.Description,
		arg.Reference,
		arg.Category,
		arg.OccurredAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

type entryRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanEntries(rows entryRows) ([]LedgerEntry, error) {
	items := []LedgerEntry{}
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Direction,
			&i.Amount,
			&i.BalanceBefore,
			&i.BalanceAfter,
			&i.Label,
			&i.Description,
			&i.Reference,
			&i.Category,
			&i.OccurredAt,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
