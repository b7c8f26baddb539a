package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase/mocks"
)

func collect(t *testing.T, seq func(func(*domain.LedgerEntry, error) bool)) []*domain.LedgerEntry {
	t.Helper()

	var out []*domain.LedgerEntry
	for e, err := range seq {
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

func TestEntryUseCase_GetEntry(t *testing.T) {
	h := newHarness(t)
	acc := h.open(t, "0")
	entry := h.credit(t, acc.ID, "3", nil)

	got, err := h.entries.GetEntry(context.Background(), owner, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	_, err = h.entries.GetEntry(context.Background(), "someone-else", entry.ID)
	assert.ErrorIs(t, err, domain.ErrOwnershipMismatch)

	_, err = h.entries.GetEntry(context.Background(), owner, "missing")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestEntryUseCase_ListEntriesPagesLazily(t *testing.T) {
	h := newHarness(t)
	acc := h.open(t, "0")

	// more than one internal page
	const n = 450
	for i := 0; i < n; i++ {
		h.credit(t, acc.ID, "1", at(i))
	}

	seq, err := h.entries.ListEntries(context.Background(), owner, acc.ID, domain.EntryFilter{})
	require.NoError(t, err)

	all := collect(t, seq)
	require.Len(t, all, n)
	for i := 1; i < n; i++ {
		assert.True(t, domain.Less(all[i-1], all[i]), "entries out of order at %d", i)
	}
	assert.True(t, all[n-1].BalanceAfter.Equal(dec("450")))

	// ranging again restarts from the beginning
	again := collect(t, seq)
	require.Len(t, again, n)
	assert.Equal(t, all[0].ID, again[0].ID)

	// early exit stops paging
	count := 0
	for range seq {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}

func TestEntryUseCase_ListEntriesFilters(t *testing.T) {
	h := newHarness(t)
	acc := h.open(t, "100")
	h.credit(t, acc.ID, "10", at(1))
	h.debit(t, acc.ID, "5", at(2))
	h.credit(t, acc.ID, "10", at(3))
	h.debit(t, acc.ID, "5", at(4))

	seq, err := h.entries.ListEntries(context.Background(), owner, acc.ID, domain.EntryFilter{Direction: domain.DirectionDebit})
	require.NoError(t, err)
	debits := collect(t, seq)
	require.Len(t, debits, 2)
	for _, e := range debits {
		assert.Equal(t, domain.DirectionDebit, e.Direction)
	}

	seq, err = h.entries.ListEntries(context.Background(), owner, acc.ID, domain.EntryFilter{From: at(2), To: at(3)})
	require.NoError(t, err)
	assert.Len(t, collect(t, seq), 2)

	seq, err = h.entries.ListEntries(context.Background(), owner, acc.ID, domain.EntryFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, collect(t, seq), 3)

	_, err = h.entries.ListEntries(context.Background(), "someone-else", acc.ID, domain.EntryFilter{})
	assert.ErrorIs(t, err, domain.ErrOwnershipMismatch)
}

func TestEntryUseCase_ListEntriesYieldsStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	accountRepo := mocks.NewMockAccountRepository(ctrl)
	entryRepo := mocks.NewMockEntryRepository(ctrl)
	storeErr := errors.New("connection refused")

	accountRepo.EXPECT().GetByID(gomock.Any(), "acc-1").Return(activeAccount("0"), nil)
	entryRepo.EXPECT().List(gomock.Any(), "acc-1", gomock.Any()).Return(nil, storeErr)

	uc := usecase.NewEntryUseCase(accountRepo, entryRepo)
	seq, err := uc.ListEntries(context.Background(), owner, "acc-1", domain.EntryFilter{})
	require.NoError(t, err)

	var errs []error
	for e, err := range seq {
		assert.Nil(t, e)
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], storeErr)
}

func TestEntryUseCase_ListEntriesPage(t *testing.T) {
	h := newHarness(t)
	acc := h.open(t, "0")
	for i := 0; i < 5; i++ {
		h.credit(t, acc.ID, "1", at(i))
	}

	first, err := h.entries.ListEntriesPage(context.Background(), owner, acc.ID, domain.EntryFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Entries, 2)
	require.NotNil(t, first.NextCursor)

	var seen []string
	for _, e := range first.Entries {
		seen = append(seen, e.ID)
	}

	cursor := first.NextCursor
	for cursor != nil {
		page, err := h.entries.ListEntriesPage(context.Background(), owner, acc.ID, domain.EntryFilter{Limit: 2, After: cursor})
		require.NoError(t, err)
		for _, e := range page.Entries {
			seen = append(seen, e.ID)
		}
		cursor = page.NextCursor
	}

	var want []string
	for _, e := range h.history(t, acc.ID) {
		want = append(want, e.ID)
	}
	assert.Equal(t, want, seen)
}

func TestEntryUseCase_GetBalanceAt(t *testing.T) {
	h := newHarness(t)
	acc := h.open(t, "100")
	h.credit(t, acc.ID, "50", at(10))
	h.debit(t, acc.ID, "30", at(20))

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "before any entry", at: *at(0), want: "100"},
		{name: "exactly at first entry", at: *at(10), want: "150"},
		{name: "between entries", at: *at(15), want: "150"},
		{name: "after last entry", at: *at(60), want: "120"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balance, err := h.entries.GetBalanceAt(context.Background(), owner, acc.ID, tt.at)
			require.NoError(t, err)
			assert.True(t, balance.Equal(dec(tt.want)), "got %s", balance)
		})
	}

	_, err := h.entries.GetBalanceAt(context.Background(), "someone-else", acc.ID, *at(60))
	assert.ErrorIs(t, err, domain.ErrOwnershipMismatch)
}
