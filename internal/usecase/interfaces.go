package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	SetActive(ctx context.Context, tx Transaction, id string, active bool, updatedAt time.Time) error
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error)
	SumActiveBalances(ctx context.Context, ownerID string) (decimal.Decimal, error)
}

// EntryRepository defines data access for ledger entries.
//
// Methods taking a Transaction observe the writes of that transaction.
// ListByAccountForUpdate and GetLast return entries ordered by
// (OccurredAt, ID); GetLast returns (nil, nil) for an empty account.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.LedgerEntry, error)
	GetLast(ctx context.Context, tx Transaction, accountID string) (*domain.LedgerEntry, error)
	ListByAccountForUpdate(ctx context.Context, tx Transaction, accountID string) ([]*domain.LedgerEntry, error)
	Update(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	Delete(ctx context.Context, tx Transaction, id string) error
	// List returns at most filter.Limit entries strictly after filter.After.
	List(ctx context.Context, accountID string, filter domain.EntryFilter) ([]*domain.LedgerEntry, error)
	// GetLastAtOrBefore returns (nil, nil) when no entry occurred at or before at.
	GetLastAtOrBefore(ctx context.Context, accountID string, at time.Time) (*domain.LedgerEntry, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// AccountLocker serializes mutating operations per account.
//
// Lock blocks until the account is free, ctx is done, or the
// implementation's wait bound elapses. When the wait bound elapses the error
// wraps domain.ErrConcurrencyConflict; when ctx is done it is ctx.Err().
// The returned func releases the lock.
type AccountLocker interface {
	Lock(ctx context.Context, accountID string) (func(), error)
}

// Retrier re-runs an operation that failed with a retryable error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations. Get returns (nil, nil) on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Incr atomically increments an integer counter, creating it at 1.
	Incr(ctx context.Context, key string) (int64, error)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}
