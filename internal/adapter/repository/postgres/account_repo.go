package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/postgres/generated"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool Pool) *AccountRepository {
	return &AccountRepository{queries: generated.New(pool)}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:             account.ID,
		OwnerID:        account.OwnerID,
		Name:           account.Name,
		Kind:           string(account.Kind),
		WalletKind:     string(account.WalletKind),
		InitialBalance: decimalToNumeric(account.InitialBalance),
		CurrentBalance: decimalToNumeric(account.CurrentBalance),
		Active:         account.Active,
		Version:        account.Version,
		CreatedAt:      timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(account.UpdatedAt),
	})

	return translateError(err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, translateError(err)
	}

	return rowToAccount(row), nil
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, translateError(err)
	}

	return rowToAccount(row), nil
}

// UpdateBalance sets the current balance and bumps the version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	n, err := queries.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:             id,
		CurrentBalance: decimalToNumeric(balance),
		UpdatedAt:      timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return translateError(err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// SetActive flips the soft-delete flag.
func (r *AccountRepository) SetActive(ctx context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	n, err := queries.SetAccountActive(ctx, generated.SetAccountActiveParams{
		ID:        id,
		Active:    active,
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return translateError(err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// ListByOwner lists the owner's accounts with pagination.
func (r *AccountRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccountsByOwner(ctx, generated.ListAccountsByOwnerParams{
		OwnerID: ownerID,
		Limit:   int32(limit),
		Offset:  int32(offset),
	})
	if err != nil {
		return nil, translateError(err)
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// SumActiveBalances sums the current balances of the owner's active accounts.
func (r *AccountRepository) SumActiveBalances(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	total, err := r.queries.SumActiveBalancesByOwner(ctx, ownerID)
	if err != nil {
		return decimal.Zero, translateError(err)
	}

	return numericToDecimal(total), nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:             row.ID,
		OwnerID:        row.OwnerID,
		Name:           row.Name,
		Kind:           domain.AccountKind(row.Kind),
		WalletKind:     domain.WalletKind(row.WalletKind),
		InitialBalance: numericToDecimal(row.InitialBalance),
		CurrentBalance: numericToDecimal(row.CurrentBalance),
		Active:         row.Active,
		Version:        row.Version,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}
