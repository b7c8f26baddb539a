package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createAccount = `-- name: CreateAccount :exec
INSERT INTO accounts (id, owner_id, name, kind, wallet_kind, initial_balance, current_balance, active, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

type CreateAccountParams struct {
	ID             string             `json:"id"`
	OwnerID        string             `json:"owner_id"`
	Name           string             `json:"name"`
	Kind           string             `json:"kind"`
	WalletKind     string             `json:"wallet_kind"`
	InitialBalance pgtype.Numeric     `json:"initial_balance"`
	CurrentBalance pgtype.Numeric     `json:"current_balance"`
	Active         bool               `json:"active"`
	Version        int64              `json:"version"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.Exec(ctx, createAccount,
		arg.ID,
		arg.OwnerID,
		arg.Name,
		arg.Kind,
		arg.WalletKind,
		arg.InitialBalance,
		arg.CurrentBalance,
		arg.Active,
		arg.Version,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT id, owner_id, name, kind, wallet_kind, initial_balance, current_balance, active, version, created_at, updated_at FROM accounts WHERE id = $1
`

func (q *Queries) GetAccountByID(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByID, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.Kind,
		&i.WalletKind,
		&i.InitialBalance,
		&i.CurrentBalance,
		&i.Active,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByIDForUpdate = `-- name: GetAccountByIDForUpdate :one
SELECT id, owner_id, name, kind, wallet_kind, initial_balance, current_balance, active, version, created_at, updated_at FROM accounts WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetAccountByIDForUpdate(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRow(ctx, getAccountByIDForUpdate, id)
	var i Account
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Name,
		&i.Kind,
		&i.WalletKind,
		&i.InitialBalance,
		&i.CurrentBalance,
		&i.Active,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listAccountsByOwner = `-- name: ListAccountsByOwner :many
SELECT id, owner_id, name, kind, wallet_kind, initial_balance, current_balance, active, version, created_at, updated_at FROM accounts
WHERE owner_id = $1
ORDER BY created_at, id
LIMIT $2 OFFSET $3
`

type ListAccountsByOwnerParams struct {
	OwnerID string `json:"owner_id"`
	Limit   int32  `json:"limit"`
	Offset  int32  `json:"offset"`
}

func (q *Queries) ListAccountsByOwner(ctx context.Context, arg ListAccountsByOwnerParams) ([]Account, error) {
	rows, err := q.db.Query(ctx, listAccountsByOwner, arg.OwnerID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Account{}
	for rows.Next() {
		var i Account
		if err := rows.Scan(
			&i.ID,
			&i.OwnerID,
			&i.Name,
			&i.Kind,
			&i.WalletKind,
			&i.InitialBalance,
			&i.CurrentBalance,
			&i.Active,
			&i.Version,
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

const setAccountActive = `-- name: SetAccountActive :execrows
UPDATE accounts SET active = $2, version = version + 1, updated_at = $3 WHERE id = $1
`

type SetAccountActiveParams struct {
	ID        string             `json:"id"`
	Active    bool               `json:"active"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) SetAccountActive(ctx context.Context, arg SetAccountActiveParams) (int64, error) {
	result, err := q.db.Exec(ctx, setAccountActive, arg.ID, arg.Active, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const sumActiveBalancesByOwner = `-- name: SumActiveBalancesByOwner :one
SELECT COALESCE(SUM(current_balance), 0)::NUMERIC AS total FROM accounts WHERE owner_id = $1 AND active
`

func (q *Queries) SumActiveBalancesByOwner(ctx context.Context, ownerID string) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumActiveBalancesByOwner, ownerID)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}

const updateAccountBalance = `-- name: UpdateAccountBalance :execrows
UPDATE accounts SET current_balance = $2, version = version + 1, updated_at = $3 WHERE id = $1
`

type UpdateAccountBalanceParams struct {
	ID             string             `json:"id"`
	CurrentBalance pgtype.Numeric     `json:"current_balance"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateAccountBalance(ctx context.Context, arg UpdateAccountBalanceParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateAccountBalance, arg.ID, arg.CurrentBalance, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
