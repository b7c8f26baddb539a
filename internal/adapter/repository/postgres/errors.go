package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
)

// PostgreSQL error codes the engine may safely retry.
const (
	pgErrSerializationFailure = "40001"
	pgErrDeadlock             = "40P01"
	pgErrLockNotAvailable     = "55P03"
)

// translateError maps serialization failures to
// domain.ErrConcurrencyConflict, keeping the driver error in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrSerializationFailure, pgErrDeadlock, pgErrLockNotAvailable:
			return fmt.Errorf("%w: %w", domain.ErrConcurrencyConflict, err)
		}
	}

	return err
}
