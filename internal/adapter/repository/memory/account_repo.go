package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create inserts a new account.
func (r *AccountRepository) Create(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	if _, ok := st.accounts[account.ID]; ok {
		return errDuplicateKey
	}
	st.accounts[account.ID] = *account
	return nil
}

// GetByID retrieves a committed account.
func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	var (
		account domain.Account
		ok      bool
	)
	r.store.read(func(st *state) {
		account, ok = st.accounts[id]
	})
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

// GetByIDForUpdate retrieves an account inside tx. The store-wide write
// slot held by tx already excludes other writers.
func (r *AccountRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	st, err := r.store.txState(tx)
	if err != nil {
		return nil, err
	}
	account, ok := st.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

// UpdateBalance sets the current balance and bumps the version.
func (r *AccountRepository) UpdateBalance(_ context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	account, ok := st.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.CurrentBalance = balance
	account.Version++
	account.UpdatedAt = updatedAt
	st.accounts[id] = account
	return nil
}

// SetActive flips the soft-delete flag.
func (r *AccountRepository) SetActive(_ context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	account, ok := st.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Active = active
	account.Version++
	account.UpdatedAt = updatedAt
	st.accounts[id] = account
	return nil
}

// ListByOwner lists the owner's accounts ordered by creation.
func (r *AccountRepository) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	var accounts []*domain.Account
	r.store.read(func(st *state) {
		for _, a := range st.accounts {
			if a.OwnerID == ownerID {
				account := a
				accounts = append(accounts, &account)
			}
		}
	})

	sort.Slice(accounts, func(i, j int) bool {
		if !accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		}
		return accounts[i].ID < accounts[j].ID
	})

	if offset >= len(accounts) {
		return []*domain.Account{}, nil
	}
	accounts = accounts[offset:]
	if limit > 0 && limit < len(accounts) {
		accounts = accounts[:limit]
	}
	return accounts, nil
}

// SumActiveBalances sums current balances of the owner's active accounts.
func (r *AccountRepository) SumActiveBalances(_ context.Context, ownerID string) (decimal.Decimal, error) {
	total := decimal.Zero
	r.store.read(func(st *state) {
		for _, a := range st.accounts {
			if a.OwnerID == ownerID && a.Active {
				total = total.Add(a.CurrentBalance)
			}
		}
	})
	return total, nil
}
