package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/postgres/generated"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

var errForeignTx = errors.New("postgres: transaction was not started by this adapter")

// Pool is the subset of *pgxpool.Pool the repositories use.
type Pool interface {
	generated.DBTX
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	pool Pool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool Pool) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, translateError(err)
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return translateError(t.tx.Commit(ctx))
}

// Rollback rolls back the transaction. Rolling back a committed
// transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}

// queriesFor returns queries bound to tx.
func queriesFor(tx usecase.Transaction) (*generated.Queries, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, errForeignTx
	}
	return generated.New(t.tx), nil
}
