package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
)

// Rebuilder rewrites the derived balances of an account. LedgerEngine
// implements it.
type Rebuilder interface {
	Rebuild(ctx context.Context, ownerID, accountID string) (*RebuildResult, error)
}

// ReconciliationUseCase checks stored balances against a replay of the
// entry history. Repairs are delegated to a Rebuilder.
type ReconciliationUseCase struct {
	guard       accountGuard
	accountRepo AccountRepository
	entryRepo   EntryRepository
	rebuilder   Rebuilder
	logger      zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	locker AccountLocker,
	rebuilder Rebuilder,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		guard:       accountGuard{txManager: txManager, locker: locker},
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		rebuilder:   rebuilder,
		logger:      logger,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	EntryCount        int
	Discrepancies     []domain.Discrepancy
	// Replayable is false when the history itself would drive a balance
	// negative, so no consistent set of derived balances exists.
	Replayable   bool
	ReplayError  string
	IsReconciled bool
	LastChecked  time.Time
}

// ReconcileAccount replays the stored history of an account and reports
// every stored balance that disagrees with it. It reads under the account
// lock so the snapshot is consistent, and never writes.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, ownerID, accountID string) (*ReconciliationResult, error) {
	var result *ReconciliationResult

	err := uc.guard.run(ctx, accountID, func(txCtx context.Context, tx Transaction) error {
		account, entries, err := uc.load(txCtx, tx, ownerID, accountID)
		if err != nil {
			return err
		}

		result = reconcile(account, entries)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func reconcile(account *domain.Account, entries []*domain.LedgerEntry) *ReconciliationResult {
	// balance identity: initial + credits - debits
	calculated := account.InitialBalance
	for _, e := range entries {
		calculated = calculated.Add(e.SignedAmount())
	}

	result := &ReconciliationResult{
		AccountID:         account.ID,
		RecordedBalance:   account.CurrentBalance,
		CalculatedBalance: calculated,
		Difference:        account.CurrentBalance.Sub(calculated),
		EntryCount:        len(entries),
		Replayable:        true,
		LastChecked:       time.Now().UTC(),
	}

	discrepancies, err := domain.Verify(account, entries)
	if err != nil {
		result.Replayable = false
		result.ReplayError = err.Error()
		return result
	}

	result.Discrepancies = discrepancies
	result.IsReconciled = len(discrepancies) == 0
	return result
}

// RebuildAccount rewrites every derived balance of an account from a replay
// of its history. The write goes through the ledger engine.
func (uc *ReconciliationUseCase) RebuildAccount(ctx context.Context, ownerID, accountID string) (*RebuildResult, error) {
	result, err := uc.rebuilder.Rebuild(ctx, ownerID, accountID)
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("account_id", accountID).
		Int("entries_updated", result.EntriesUpdated).
		Str("previous_balance", result.PreviousBalance.String()).
		Str("balance", result.Balance.String()).
		Msg("account rebuilt")

	return result, nil
}

func (uc *ReconciliationUseCase) load(ctx context.Context, tx Transaction, ownerID, accountID string) (*domain.Account, []*domain.LedgerEntry, error) {
	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, nil, err
	}
	if err := account.CheckOwner(ownerID); err != nil {
		return nil, nil, err
	}

	entries, err := uc.entryRepo.ListByAccountForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, nil, err
	}
	domain.SortEntries(entries)

	return account, entries, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	OwnerID            string
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	CheckedAt          time.Time
}

// GenerateReport reconciles every account of the owner.
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context, ownerID string) (*ReconciliationReport, error) {
	if ownerID == "" {
		return nil, domain.ErrInvalidOwner
	}

	report := &ReconciliationReport{
		OwnerID:       ownerID,
		Discrepancies: make([]*ReconciliationResult, 0),
	}

	limit, offset, _ := domain.ValidatePagination(1000, 0)
	for {
		accounts, err := uc.accountRepo.ListByOwner(ctx, ownerID, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			result, err := uc.ReconcileAccount(ctx, ownerID, account.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			}

			report.TotalAccounts++
			if result.IsReconciled {
				report.ReconciledAccounts++
			} else {
				report.Discrepancies = append(report.Discrepancies, result)
			}
		}

		if len(accounts) < limit {
			break
		}
		offset += limit
	}

	report.CheckedAt = time.Now().UTC()
	return report, nil
}
