package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/metrics"
)

// accountGuard runs a unit of work against one account with the
// per-account lock held and inside a single transaction.
//
// The caller's ctx can abort the work only while waiting for the lock.
// Once the lock is held the transaction runs on a detached context bounded
// by DefaultTransactionTimeout, so it either commits or rolls back fully.
type accountGuard struct {
	txManager TransactionManager
	locker    AccountLocker
	metrics   *metrics.Metrics
}

func (g accountGuard) run(ctx context.Context, accountID string, fn func(txCtx context.Context, tx Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	waitStart := time.Now()
	unlock, err := g.locker.Lock(ctx, accountID)
	if err != nil {
		if g.metrics != nil && errors.Is(err, domain.ErrConcurrencyConflict) {
			g.metrics.LockConflicts.Inc()
		}
		return err
	}
	defer unlock()

	if g.metrics != nil {
		g.metrics.LockWait.Observe(time.Since(waitStart).Seconds())
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultTransactionTimeout)
	defer cancel()

	tx, err := g.txManager.Begin(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// retry runs operation through r, or once when r is nil.
func retry(ctx context.Context, r Retrier, operation func() error) error {
	if r == nil {
		return operation()
	}
	return r.Retry(ctx, operation)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrEntryNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrOwnershipMismatch):
		return "ownership_mismatch"
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, domain.ErrAccountInactive):
		return "account_inactive"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case isValidationError(err):
		return "validation"
	default:
		return "internal"
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidAmount,
		domain.ErrInvalidLabel,
		domain.ErrInvalidDirection,
		domain.ErrInvalidAccountName,
		domain.ErrInvalidAccountKind,
		domain.ErrInvalidWalletKind,
		domain.ErrInvalidInitialBalance,
		domain.ErrInvalidOwner,
		domain.ErrNothingToUpdate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
