package memory

import (
	"context"
	"slices"
	"time"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create inserts a new entry.
func (r *EntryRepository) Create(_ context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	if _, ok := st.entries[entry.ID]; ok {
		return errDuplicateKey
	}
	if _, ok := st.accounts[entry.AccountID]; !ok {
		return domain.ErrAccountNotFound
	}
	st.entries[entry.ID] = *entry
	st.byAccount[entry.AccountID] = append(st.byAccount[entry.AccountID], entry.ID)
	return nil
}

// GetByID retrieves a committed entry.
func (r *EntryRepository) GetByID(_ context.Context, id string) (*domain.LedgerEntry, error) {
	var (
		entry domain.LedgerEntry
		ok    bool
	)
	r.store.read(func(st *state) {
		entry, ok = st.entries[id]
	})
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return &entry, nil
}

// GetByIDForUpdate retrieves an entry inside tx.
func (r *EntryRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	st, err := r.store.txState(tx)
	if err != nil {
		return nil, err
	}
	entry, ok := st.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return &entry, nil
}

// GetLast returns the chronologically last entry of the account, or nil.
func (r *EntryRepository) GetLast(_ context.Context, tx usecase.Transaction, accountID string) (*domain.LedgerEntry, error) {
	st, err := r.store.txState(tx)
	if err != nil {
		return nil, err
	}
	entries := st.accountEntries(accountID)
	if len(entries) == 0 {
		return nil, nil
	}
	return entries[len(entries)-1], nil
}

// ListByAccountForUpdate returns every entry of the account, ordered.
func (r *EntryRepository) ListByAccountForUpdate(_ context.Context, tx usecase.Transaction, accountID string) ([]*domain.LedgerEntry, error) {
	st, err := r.store.txState(tx)
	if err != nil {
		return nil, err
	}
	return st.accountEntries(accountID), nil
}

// Update overwrites an existing entry.
func (r *EntryRepository) Update(_ context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	if _, ok := st.entries[entry.ID]; !ok {
		return domain.ErrEntryNotFound
	}
	st.entries[entry.ID] = *entry
	return nil
}

// Delete removes an entry.
func (r *EntryRepository) Delete(_ context.Context, tx usecase.Transaction, id string) error {
	st, err := r.store.txState(tx)
	if err != nil {
		return err
	}
	entry, ok := st.entries[id]
	if !ok {
		return domain.ErrEntryNotFound
	}
	delete(st.entries, id)
	st.byAccount[entry.AccountID] = slices.DeleteFunc(st.byAccount[entry.AccountID], func(v string) bool {
		return v == id
	})
	return nil
}

// List returns committed entries matching filter, ordered.
func (r *EntryRepository) List(_ context.Context, accountID string, filter domain.EntryFilter) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	r.store.read(func(st *state) {
		entries = st.accountEntries(accountID)
	})

	out := make([]*domain.LedgerEntry, 0)
	for _, e := range entries {
		if !filter.Matches(e) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// GetLastAtOrBefore returns the last committed entry that occurred at or
// before at, or nil.
func (r *EntryRepository) GetLastAtOrBefore(_ context.Context, accountID string, at time.Time) (*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	r.store.read(func(st *state) {
		entries = st.accountEntries(accountID)
	})

	var last *domain.LedgerEntry
	for _, e := range entries {
		if e.OccurredAt.After(at) {
			break
		}
		last = e
	}
	return last, nil
}
