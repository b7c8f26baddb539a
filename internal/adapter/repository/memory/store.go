// Package memory provides in-process implementations of the usecase
// repository ports, for tests and single-process development.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

var (
	errTxClosed     = errors.New("memory: transaction already closed")
	errForeignTx    = errors.New("memory: transaction does not belong to this store")
	errDuplicateKey = errors.New("memory: duplicate key")
)

type state struct {
	accounts  map[string]domain.Account
	entries   map[string]domain.LedgerEntry
	byAccount map[string][]string
	outbox    []domain.OutboxEvent
}

func newState() *state {
	return &state{
		accounts:  make(map[string]domain.Account),
		entries:   make(map[string]domain.LedgerEntry),
		byAccount: make(map[string][]string),
	}
}

func (s *state) clone() *state {
	c := &state{
		accounts:  maps.Clone(s.accounts),
		entries:   maps.Clone(s.entries),
		byAccount: make(map[string][]string, len(s.byAccount)),
		outbox:    slices.Clone(s.outbox),
	}
	for k, v := range s.byAccount {
		c.byAccount[k] = slices.Clone(v)
	}
	return c
}

// accountEntries returns copies of the account's entries in (OccurredAt, ID) order.
func (s *state) accountEntries(accountID string) []*domain.LedgerEntry {
	ids := s.byAccount[accountID]
	out := make([]*domain.LedgerEntry, 0, len(ids))
	for _, id := range ids {
		e := s.entries[id]
		out = append(out, &e)
	}
	domain.SortEntries(out)
	return out
}

// Store holds the committed state. A transaction works on a private copy
// that replaces the committed state on Commit, so Rollback restores the
// exact pre-transaction state. At most one write transaction is open at a
// time.
type Store struct {
	mu        sync.RWMutex
	committed *state
	writer    chan struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		committed: newState(),
		writer:    make(chan struct{}, 1),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.writer <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, ctx.Err())
	}
}

func (s *Store) release() {
	<-s.writer
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.committed)
}

// write applies fn to the committed state outside of any transaction.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.committed)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin waits for the store's write slot and starts a transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := m.store.acquire(ctx); err != nil {
		return nil, err
	}

	m.store.mu.RLock()
	work := m.store.committed.clone()
	m.store.mu.RUnlock()

	return &Tx{store: m.store, work: work}, nil
}

// Tx is a snapshot transaction.
type Tx struct {
	store *Store
	work  *state
	done  bool
}

// Commit publishes the transaction's changes.
func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return errTxClosed
	}
	t.done = true

	t.store.mu.Lock()
	t.store.committed = t.work
	t.store.mu.Unlock()

	t.store.release()
	return nil
}

// Rollback discards the transaction's changes. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.release()
	return nil
}

func (s *Store) txState(tx usecase.Transaction) (*state, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, errForeignTx
	}
	if t.done {
		return nil, errTxClosed
	}
	return t.work, nil
}
