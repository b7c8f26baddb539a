package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
)

type fakeTx struct{}

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) *Tx {
	t.Helper()

	pool.ExpectBegin()
	tx, err := NewTxManager(pool).Begin(context.Background())
	require.NoError(t, err)
	return tx.(*Tx)
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
	}{
		{name: "nil", err: nil},
		{name: "serialization failure", err: &pgconn.PgError{Code: pgErrSerializationFailure}, conflict: true},
		{name: "deadlock", err: &pgconn.PgError{Code: pgErrDeadlock}, conflict: true},
		{name: "lock not available", err: &pgconn.PgError{Code: pgErrLockNotAvailable}, conflict: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err)
			assert.Equal(t, tt.conflict, errors.Is(got, domain.ErrConcurrencyConflict))
			if tt.err != nil {
				assert.ErrorIs(t, got, tt.err)
			}
		})
	}
}

func TestAccountRepository_GetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
		WithArgs("acc-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := NewAccountRepository(pool).GetByID(context.Background(), "acc-1")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assertExpectations(t, pool)
}

func TestAccountRepository_UpdateBalance(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)
	repo := NewAccountRepository(pool)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	pool.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET current_balance")).
		WithArgs("acc-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateBalance(context.Background(), tx, "acc-1", decimal.NewFromInt(10), now))

	pool.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET current_balance")).
		WithArgs("missing", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.UpdateBalance(context.Background(), tx, "missing", decimal.NewFromInt(10), now), domain.ErrAccountNotFound)

	pool.ExpectExec(regexp.QuoteMeta("UPDATE accounts SET current_balance")).
		WithArgs("acc-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrDeadlock})
	assert.ErrorIs(t, repo.UpdateBalance(context.Background(), tx, "acc-1", decimal.NewFromInt(10), now), domain.ErrConcurrencyConflict)

	assertExpectations(t, pool)
}

func TestRepositories_RejectForeignTransaction(t *testing.T) {
	pool := newMockPool(t)

	_, err := NewAccountRepository(pool).GetByIDForUpdate(context.Background(), fakeTx{}, "acc-1")
	assert.ErrorIs(t, err, errForeignTx)

	err = NewEntryRepository(pool).Delete(context.Background(), fakeTx{}, "e-1")
	assert.ErrorIs(t, err, errForeignTx)

	err = NewOutboxRepository(pool).Create(context.Background(), fakeTx{}, &domain.OutboxEvent{ID: "ev"})
	assert.ErrorIs(t, err, errForeignTx)
}

func TestRepositories_GetByIDTranslatesLockErrors(t *testing.T) {
	t.Run("entry", func(t *testing.T) {
		pool := newMockPool(t)
		pool.ExpectQuery(regexp.QuoteMeta("FROM ledger_entries WHERE id = $1")).
			WithArgs("e-1").
			WillReturnError(&pgconn.PgError{Code: pgErrSerializationFailure})

		_, err := NewEntryRepository(pool).GetByID(context.Background(), "e-1")
		assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		assert.NotErrorIs(t, err, domain.ErrEntryNotFound)
		assertExpectations(t, pool)
	})

	t.Run("account", func(t *testing.T) {
		pool := newMockPool(t)
		pool.ExpectQuery(regexp.QuoteMeta("FROM accounts WHERE id = $1")).
			WithArgs("acc-1").
			WillReturnError(&pgconn.PgError{Code: pgErrDeadlock})

		_, err := NewAccountRepository(pool).GetByID(context.Background(), "acc-1")
		assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		assertExpectations(t, pool)
	})

	t.Run("entry not found", func(t *testing.T) {
		pool := newMockPool(t)
		pool.ExpectQuery(regexp.QuoteMeta("FROM ledger_entries WHERE id = $1")).
			WithArgs("e-1").
			WillReturnError(pgx.ErrNoRows)

		_, err := NewEntryRepository(pool).GetByID(context.Background(), "e-1")
		assert.ErrorIs(t, err, domain.ErrEntryNotFound)
		assertExpectations(t, pool)
	})
}

func TestEntryRepository_GetLastOnEmptyAccount(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectQuery(regexp.QuoteMeta("ORDER BY occurred_at DESC, id DESC")).
		WithArgs("acc-1").
		WillReturnError(pgx.ErrNoRows)

	last, err := NewEntryRepository(pool).GetLast(context.Background(), tx, "acc-1")
	require.NoError(t, err)
	assert.Nil(t, last)
	assertExpectations(t, pool)
}

func TestEntryRepository_DeleteMissing(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectExec(regexp.QuoteMeta("DELETE FROM ledger_entries")).
		WithArgs("e-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := NewEntryRepository(pool).Delete(context.Background(), tx, "e-1")
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
	assertExpectations(t, pool)
}

func TestEntryRepository_ListPassesFilter(t *testing.T) {
	pool := newMockPool(t)
	after := domain.Cursor{OccurredAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), ID: "e-9"}

	pool.ExpectQuery(regexp.QuoteMeta("FROM ledger_entries")).
		WithArgs("acc-1", pgxmock.AnyArg(), pgxmock.AnyArg(), "debit", pgxmock.AnyArg(), "e-9", int32(25)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "account_id", "direction", "amount", "balance_before", "balance_after", "label",
			"description", "reference", "category", "occurred_at", "created_at", "updated_at",
		}))

	entries, err := NewEntryRepository(pool).List(context.Background(), "acc-1", domain.EntryFilter{
		Direction: domain.DirectionDebit,
		After:     &after,
		Limit:     25,
	})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assertExpectations(t, pool)
}

func TestNumericRoundTrip(t *testing.T) {
	for _, v := range []string{"0", "1", "1234.56", "0.01", "1000000000000"} {
		d := decimal.RequireFromString(v)
		assert.True(t, numericToDecimal(decimalToNumeric(d)).Equal(d), v)
	}
	assert.True(t, numericToDecimal(decimalToNumeric(decimal.Zero)).IsZero())
}
