package usecase

import (
	"context"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
)

// EntryUseCase serves read access to ledger entries.
type EntryUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	pageSize    int
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(accountRepo AccountRepository, entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		pageSize:    listPageSize,
	}
}

// GetEntry retrieves an entry whose account is owned by ownerID.
func (uc *EntryUseCase) GetEntry(ctx context.Context, ownerID, id string) (*domain.LedgerEntry, error) {
	entry, err := uc.entryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := uc.ownedAccount(ctx, ownerID, entry.AccountID); err != nil {
		return nil, err
	}

	return entry, nil
}

// ListEntries returns the account's entries in (OccurredAt, ID) order,
// narrowed by filter. The sequence is lazy: it pages through the store as it
// is consumed. Ranging over it again restarts from the beginning of the
// filter. filter.Limit caps the total number of entries yielded; zero means
// no cap. A store error is yielded once and ends the sequence.
func (uc *EntryUseCase) ListEntries(ctx context.Context, ownerID, accountID string, filter domain.EntryFilter) (iter.Seq2[*domain.LedgerEntry, error], error) {
	if _, err := uc.ownedAccount(ctx, ownerID, accountID); err != nil {
		return nil, err
	}

	return func(yield func(*domain.LedgerEntry, error) bool) {
		page := filter
		remaining := filter.Limit

		for {
			page.Limit = uc.pageSize
			if remaining > 0 && remaining < page.Limit {
				page.Limit = remaining
			}

			entries, err := uc.entryRepo.List(ctx, accountID, page)
			if err != nil {
				yield(nil, err)
				return
			}

			for _, e := range entries {
				if !yield(e, nil) {
					return
				}
			}

			if filter.Limit > 0 {
				remaining -= len(entries)
				if remaining <= 0 {
					return
				}
			}

			if len(entries) < page.Limit {
				return
			}

			cursor := domain.CursorOf(entries[len(entries)-1])
			page.After = &cursor
		}
	}, nil
}

// EntryPage is one page of an entry listing.
type EntryPage struct {
	Entries    []*domain.LedgerEntry
	NextCursor *domain.Cursor
}

// ListEntriesPage returns a single page of entries and the cursor of the
// next page, which is nil on the last page.
func (uc *EntryUseCase) ListEntriesPage(ctx context.Context, ownerID, accountID string, filter domain.EntryFilter) (*EntryPage, error) {
	if _, err := uc.ownedAccount(ctx, ownerID, accountID); err != nil {
		return nil, err
	}

	limit, _, err := domain.ValidatePagination(filter.Limit, 0)
	if err != nil {
		return nil, err
	}

	filter.Limit = limit + 1
	entries, err := uc.entryRepo.List(ctx, accountID, filter)
	if err != nil {
		return nil, err
	}

	page := &EntryPage{Entries: entries}
	if len(entries) > limit {
		page.Entries = entries[:limit]
		cursor := domain.CursorOf(page.Entries[limit-1])
		page.NextCursor = &cursor
	}

	return page, nil
}

// GetBalanceAt returns the account balance right after the last entry that
// occurred at or before at, or the initial balance if there is none.
func (uc *EntryUseCase) GetBalanceAt(ctx context.Context, ownerID, accountID string, at time.Time) (decimal.Decimal, error) {
	account, err := uc.ownedAccount(ctx, ownerID, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	entry, err := uc.entryRepo.GetLastAtOrBefore(ctx, accountID, at)
	if err != nil {
		return decimal.Zero, err
	}
	if entry == nil {
		return account.InitialBalance, nil
	}

	return entry.BalanceAfter, nil
}

func (uc *EntryUseCase) ownedAccount(ctx context.Context, ownerID, accountID string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if err := account.CheckOwner(ownerID); err != nil {
		return nil, err
	}

	return account, nil
}
