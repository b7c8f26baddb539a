package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/lock"
	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/repository/memory"
	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

const owner = "owner-1"

var baseTime = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func at(minutes int) *time.Time {
	t := baseTime.Add(time.Duration(minutes) * time.Minute)
	return &t
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// seqIDs yields zero-padded sequential IDs that sort in creation order.
type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("id-%08d", g.n.Add(1))
}

type harness struct {
	store       *memory.Store
	accountRepo *memory.AccountRepository
	entryRepo   *memory.EntryRepository
	outboxRepo  *memory.OutboxRepository
	txManager   *memory.TxManager
	accounts    *usecase.AccountUseCase
	engine      *usecase.LedgerEngine
	entries     *usecase.EntryUseCase
	recon       *usecase.ReconciliationUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memory.NewStore()
	h := &harness{
		store:       store,
		accountRepo: memory.NewAccountRepository(store),
		entryRepo:   memory.NewEntryRepository(store),
		outboxRepo:  memory.NewOutboxRepository(store),
		txManager:   memory.NewTxManager(store),
	}

	locker := lock.NewLocal(time.Second)
	ids := &seqIDs{}

	h.accounts = usecase.NewAccountUseCase(h.txManager, h.accountRepo, h.outboxRepo, locker, ids, nil, 0, nil, zerolog.Nop())
	h.engine = usecase.NewLedgerEngine(h.txManager, h.accountRepo, h.entryRepo, h.outboxRepo, locker, ids)
	h.entries = usecase.NewEntryUseCase(h.accountRepo, h.entryRepo)
	h.recon = usecase.NewReconciliationUseCase(h.txManager, h.accountRepo, h.entryRepo, locker, h.engine, zerolog.Nop())

	return h
}

func (h *harness) open(t *testing.T, initial string) *domain.Account {
	t.Helper()

	account, err := h.accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{
		OwnerID:        owner,
		Name:           "Main",
		InitialBalance: dec(initial),
	})
	require.NoError(t, err)
	return account
}

func (h *harness) credit(t *testing.T, accountID, amount string, occurredAt *time.Time) *domain.LedgerEntry {
	t.Helper()

	entry, err := h.engine.Credit(context.Background(), usecase.PostEntryInput{
		OwnerID:    owner,
		AccountID:  accountID,
		Amount:     dec(amount),
		Label:      "credit " + amount,
		OccurredAt: occurredAt,
	})
	require.NoError(t, err)
	return entry
}

func (h *harness) debit(t *testing.T, accountID, amount string, occurredAt *time.Time) *domain.LedgerEntry {
	t.Helper()

	entry, err := h.engine.Debit(context.Background(), usecase.PostEntryInput{
		OwnerID:    owner,
		AccountID:  accountID,
		Amount:     dec(amount),
		Label:      "debit " + amount,
		OccurredAt: occurredAt,
	})
	require.NoError(t, err)
	return entry
}

func (h *harness) account(t *testing.T, id string) *domain.Account {
	t.Helper()

	account, err := h.accountRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return account
}

func (h *harness) history(t *testing.T, accountID string) []*domain.LedgerEntry {
	t.Helper()

	entries, err := h.entryRepo.List(context.Background(), accountID, domain.EntryFilter{})
	require.NoError(t, err)
	return entries
}

// snapshot captures the stored account and history for byte-for-byte
// comparison.
type snapshot struct {
	account domain.Account
	entries []domain.LedgerEntry
}

func (h *harness) snapshot(t *testing.T, accountID string) snapshot {
	t.Helper()

	s := snapshot{account: *h.account(t, accountID)}
	for _, e := range h.history(t, accountID) {
		s.entries = append(s.entries, *e)
	}
	return s
}

// requireConsistent checks every balance invariant of the account.
func (h *harness) requireConsistent(t *testing.T, accountID string) {
	t.Helper()

	account := h.account(t, accountID)
	entries := h.history(t, accountID)

	discrepancies, err := domain.Verify(account, entries)
	require.NoError(t, err)
	require.Empty(t, discrepancies)

	identity := account.InitialBalance
	for _, e := range entries {
		identity = identity.Add(e.SignedAmount())
		require.False(t, e.BalanceAfter.IsNegative(), "entry %s has negative balance", e.ID)
	}
	require.True(t, account.CurrentBalance.Equal(identity), "balance identity: %s != %s", account.CurrentBalance, identity)
}
