package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

const accountColumns = `id, owner_id, name, kind, wallet_kind, initial_balance, current_balance, active, version, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	q, err := txQueryer(tx)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.OwnerID,
		account.Name,
		string(account.Kind),
		string(account.WalletKind),
		account.InitialBalance.String(),
		account.CurrentBalance.String(),
		account.Active,
		account.Version,
		formatTime(account.CreatedAt),
		formatTime(account.UpdatedAt),
	)

	return translateError(err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return getAccount(ctx, r.db, id)
}

// GetByIDForUpdate retrieves an account by ID. The immediate transaction
// already holds the database write lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	q, err := txQueryer(tx)
	if err != nil {
		return nil, err
	}

	return getAccount(ctx, q, id)
}

func getAccount(ctx context.Context, q queryer, id string) (*domain.Account, error) {
	row := q.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, translateError(err)
	}

	return account, nil
}

// UpdateBalance sets the current balance and bumps the version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	q, err := txQueryer(tx)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx,
		`UPDATE accounts SET current_balance = ?, version = version + 1, updated_at = ? WHERE id = ?`,
		balance.String(), formatTime(updatedAt), id)

	return affectedOne(result, err, domain.ErrAccountNotFound)
}

// SetActive flips the soft-delete flag.
func (r *AccountRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	q, err := txQueryer(tx)
	if err != nil {
		return err
	}

	result, err := q.ExecContext(ctx,
		`UPDATE accounts SET active = ?, version = version + 1, updated_at = ? WHERE id = ?`,
		active, formatTime(updatedAt), id)

	return affectedOne(result, err, domain.ErrAccountNotFound)
}

// ListByOwner lists the owner's accounts with pagination.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = ? ORDER BY created_at, id LIMIT ? OFFSET ?`,
		ownerID, limit, offset)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	accounts := []*domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// SumActiveBalances sums the current balances of the owner's active
// accounts. Balances are stored as text, so the sum is done in decimal
// arithmetic here rather than by SQLite's floating point SUM.
func (r *AccountRepository) SumActiveBalances(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT current_balance FROM accounts WHERE owner_id = ? AND active = 1`, ownerID)
	if err != nil {
		return decimal.Zero, translateError(err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, err
		}

		balance, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid stored balance %q: %w", raw, err)
		}
		total = total.Add(balance)
	}

	return total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*domain.Account, error) {
	var (
		account              domain.Account
		kind, walletKind     string
		initial, current     string
		createdAt, updatedAt string
	)

	err := s.Scan(
		&account.ID,
		&account.OwnerID,
		&account.Name,
		&kind,
		&walletKind,
		&initial,
		&current,
		&account.Active,
		&account.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Kind = domain.AccountKind(kind)
	account.WalletKind = domain.WalletKind(walletKind)

	if account.InitialBalance, err = decimal.NewFromString(initial); err != nil {
		return nil, fmt.Errorf("account %s: invalid initial balance: %w", account.ID, err)
	}
	if account.CurrentBalance, err = decimal.NewFromString(current); err != nil {
		return nil, fmt.Errorf("account %s: invalid current balance: %w", account.ID, err)
	}
	if account.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if account.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &account, nil
}

func affectedOne(result sql.Result, err error, notFound error) error {
	if err != nil {
		return translateError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}

	return nil
}
