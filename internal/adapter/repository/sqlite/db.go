// Package sqlite implements the usecase repository ports on an embedded
// SQLite database, for single-node deployments.
//
// The database runs in WAL mode with foreign keys on. Every transaction
// starts with BEGIN IMMEDIATE, so writers serialize on the database lock
// and a busy database surfaces as domain.ErrConcurrencyConflict after the
// busy timeout.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mattn/go-sqlite3"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is fixed-width so lexical order equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const defaultBusyTimeout = 5 * time.Second

var errForeignTx = errors.New("sqlite: transaction was not started by this adapter")

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens the database at path, applies migrations and returns it.
// ":memory:" opens a private in-memory database.
func Open(path string, busyTimeout time.Duration) (*sql.DB, error) {
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d&_txlock=immediate",
		path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	// m is not closed: closing it would close db.
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// Begin starts an immediate transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, translateError(err)
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a database/sql transaction.
type Tx struct {
	tx *sql.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(_ context.Context) error {
	return translateError(t.tx.Commit())
}

// Rollback rolls back the transaction. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

func txQueryer(tx usecase.Transaction) (queryer, error) {
	t, ok := tx.(*Tx)
	if !ok {
		return nil, errForeignTx
	}
	return t.tx, nil
}

// translateError maps a busy or locked database to
// domain.ErrConcurrencyConflict.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return fmt.Errorf("%w: %w", domain.ErrConcurrencyConflict, err)
		}
	}

	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
