package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/metrics"
)

// Execution paths reported in logs and metrics.
const (
	pathAppend      = "append"
	pathReplay      = "replay"
	pathDescriptive = "descriptive"
)

// LedgerEngine records credits and debits and keeps every derived balance
// consistent with the ordered entry history of its account. It is the only
// component that writes Account.CurrentBalance or entry balances.
type LedgerEngine struct {
	guard       accountGuard
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	cache       Cache
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	now         func() time.Time
}

// EngineOption configures optional LedgerEngine collaborators.
type EngineOption func(*LedgerEngine)

// WithRetrier retries operations that fail with domain.ErrConcurrencyConflict.
func WithRetrier(r Retrier) EngineOption {
	return func(e *LedgerEngine) { e.retrier = r }
}

// WithCache invalidates cached owner totals after each committed mutation.
func WithCache(c Cache) EngineOption {
	return func(e *LedgerEngine) { e.cache = c }
}

// WithMetrics records engine metrics.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *LedgerEngine) {
		e.metrics = m
		e.guard.metrics = m
	}
}

// WithLogger sets the engine logger.
func WithLogger(l zerolog.Logger) EngineOption {
	return func(e *LedgerEngine) { e.logger = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) EngineOption {
	return func(e *LedgerEngine) { e.now = now }
}

// NewLedgerEngine creates a new LedgerEngine.
func NewLedgerEngine(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	locker AccountLocker,
	idGen IDGenerator,
	opts ...EngineOption,
) *LedgerEngine {
	e := &LedgerEngine{
		guard:       accountGuard{txManager: txManager, locker: locker},
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PostEntryInput represents input for Credit and Debit.
type PostEntryInput struct {
	OccurredAt  *time.Time
	OwnerID     string
	AccountID   string
	Label       string
	Description string
	Reference   string
	Category    string
	Amount      decimal.Decimal
}

// EditEntryInput represents a partial update of an entry. Nil fields are
// left unchanged.
type EditEntryInput struct {
	Amount      *decimal.Decimal
	Direction   *domain.Direction
	OccurredAt  *time.Time
	Label       *string
	Description *string
	Reference   *string
	Category    *string
	OwnerID     string
	EntryID     string
}

// affectsBalances reports whether the update touches amount, direction or
// occurredAt.
func (in EditEntryInput) affectsBalances() bool {
	return in.Amount != nil || in.Direction != nil || in.OccurredAt != nil
}

// Credit adds amount to the account.
func (uc *LedgerEngine) Credit(ctx context.Context, input PostEntryInput) (*domain.LedgerEntry, error) {
	return uc.post(ctx, domain.DirectionCredit, input)
}

// Debit subtracts amount from the account. It fails with
// domain.ErrInsufficientFunds if the balance at the entry's position in the
// sequence would become negative.
func (uc *LedgerEngine) Debit(ctx context.Context, input PostEntryInput) (*domain.LedgerEntry, error) {
	return uc.post(ctx, domain.DirectionDebit, input)
}

func (uc *LedgerEngine) post(ctx context.Context, direction domain.Direction, input PostEntryInput) (*domain.LedgerEntry, error) {
	op := string(direction)

	if err := validatePost(input); err != nil {
		return nil, uc.fail(op, input.AccountID, err)
	}

	var entry *domain.LedgerEntry

	err := uc.execute(ctx, op, input.OwnerID, input.AccountID, true, func(txCtx context.Context, tx Transaction, account *domain.Account) (string, error) {
		now := uc.timestamp()

		occurredAt := now
		if input.OccurredAt != nil {
			occurredAt = input.OccurredAt.UTC().Truncate(time.Microsecond)
		}

		entry = &domain.LedgerEntry{
			ID:          uc.idGen.Generate(),
			AccountID:   account.ID,
			Direction:   direction,
			Amount:      input.Amount,
			Label:       strings.TrimSpace(input.Label),
			Description: input.Description,
			Reference:   input.Reference,
			Category:    input.Category,
			OccurredAt:  occurredAt,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		last, err := uc.entryRepo.GetLast(txCtx, tx, account.ID)
		if err != nil {
			return "", err
		}

		path := pathAppend
		if entry.After(last) {
			if err := uc.appendEntry(txCtx, tx, account, entry, now); err != nil {
				return "", err
			}
		} else {
			path = pathReplay
			if err := uc.insertBackdated(txCtx, tx, account, entry, now); err != nil {
				return "", err
			}
		}

		return path, uc.emit(txCtx, tx, domain.AggregateTypeEntry, entry.ID, domain.EventTypeEntryPosted, domain.EntryPayload(account, entry), now)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesPosted.WithLabelValues(op).Inc()
	}

	return entry, nil
}

// appendEntry is the fast path: the entry sorts after every existing entry, so
// its balances follow from the current balance alone.
func (uc *LedgerEngine) appendEntry(ctx context.Context, tx Transaction, account *domain.Account, entry *domain.LedgerEntry, now time.Time) error {
	if entry.Direction == domain.DirectionDebit {
		if err := account.CanAppendDebit(entry.Amount); err != nil {
			return err
		}
	}

	entry.BalanceBefore = account.CurrentBalance
	entry.BalanceAfter = entry.Direction.Apply(account.CurrentBalance, entry.Amount)

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, entry.BalanceAfter, now); err != nil {
		return err
	}
	account.CurrentBalance = entry.BalanceAfter

	uc.logger.Debug().
		Str("account_id", account.ID).
		Str("entry_id", entry.ID).
		Str("direction", string(entry.Direction)).
		Str("balance", account.CurrentBalance.String()).
		Msg("entry appended")

	return nil
}

func (uc *LedgerEngine) insertBackdated(ctx context.Context, tx Transaction, account *domain.Account, entry *domain.LedgerEntry, now time.Time) error {
	entries, err := uc.entryRepo.ListByAccountForUpdate(ctx, tx, account.ID)
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	if _, err := uc.replay(ctx, tx, account, entries, entry.ID, "insert", now); err != nil {
		return err
	}

	return uc.entryRepo.Create(ctx, tx, entry)
}

// EditEntry applies a partial update to an entry. Changes to amount,
// direction or occurredAt replay the whole account; the edit is rejected in
// full if the replay fails.
func (uc *LedgerEngine) EditEntry(ctx context.Context, input EditEntryInput) (*domain.LedgerEntry, error) {
	const op = "edit"

	if err := validateEdit(input); err != nil {
		return nil, uc.fail(op, "", err)
	}

	current, err := uc.entryRepo.GetByID(ctx, input.EntryID)
	if err != nil {
		return nil, uc.fail(op, "", err)
	}

	var updated *domain.LedgerEntry

	err = uc.execute(ctx, op, input.OwnerID, current.AccountID, true, func(txCtx context.Context, tx Transaction, account *domain.Account) (string, error) {
		now := uc.timestamp()

		entry, err := uc.entryRepo.GetByIDForUpdate(txCtx, tx, input.EntryID)
		if err != nil {
			return "", err
		}
		if entry.AccountID != account.ID {
			return "", domain.ErrEntryNotFound
		}

		updated = applyEdit(entry, input)
		updated.UpdatedAt = now

		path := pathDescriptive
		if balanceAffected(entry, updated) {
			path = pathReplay

			entries, err := uc.entryRepo.ListByAccountForUpdate(txCtx, tx, account.ID)
			if err != nil {
				return "", err
			}
			for i, e := range entries {
				if e.ID == updated.ID {
					entries[i] = updated
				}
			}

			if _, err := uc.replay(txCtx, tx, account, entries, updated.ID, op, now); err != nil {
				return "", err
			}
		}

		if err := uc.entryRepo.Update(txCtx, tx, updated); err != nil {
			return "", err
		}

		return path, uc.emit(txCtx, tx, domain.AggregateTypeEntry, updated.ID, domain.EventTypeEntryEdited, domain.EntryPayload(account, updated), now)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesEdited.Inc()
	}

	return updated, nil
}

// DeleteEntry removes an entry and replays the rest of its account. The
// deletion is rejected, leaving the entry in place, if a later debit would
// no longer be covered.
func (uc *LedgerEngine) DeleteEntry(ctx context.Context, ownerID, entryID string) error {
	const op = "delete"

	current, err := uc.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return uc.fail(op, "", err)
	}

	err = uc.execute(ctx, op, ownerID, current.AccountID, true, func(txCtx context.Context, tx Transaction, account *domain.Account) (string, error) {
		now := uc.timestamp()

		entry, err := uc.entryRepo.GetByIDForUpdate(txCtx, tx, entryID)
		if err != nil {
			return "", err
		}
		if entry.AccountID != account.ID {
			return "", domain.ErrEntryNotFound
		}

		entries, err := uc.entryRepo.ListByAccountForUpdate(txCtx, tx, account.ID)
		if err != nil {
			return "", err
		}

		remaining := make([]*domain.LedgerEntry, 0, len(entries))
		for _, e := range entries {
			if e.ID != entry.ID {
				remaining = append(remaining, e)
			}
		}

		if err := uc.entryRepo.Delete(txCtx, tx, entry.ID); err != nil {
			return "", err
		}

		if _, err := uc.replay(txCtx, tx, account, remaining, "", op, now); err != nil {
			return "", err
		}

		return pathReplay, uc.emit(txCtx, tx, domain.AggregateTypeEntry, entry.ID, domain.EventTypeEntryDeleted, domain.EntryPayload(account, entry), now)
	})
	if err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.EntriesDeleted.Inc()
	}

	return nil
}

// RebuildResult describes a rebuilt account.
type RebuildResult struct {
	AccountID       string
	PreviousBalance decimal.Decimal
	Balance         decimal.Decimal
	EntriesUpdated  int
}

// Rebuild rewrites every derived balance of an account from a replay of its
// stored history. Closed accounts can be rebuilt. It fails with
// domain.ErrInsufficientFunds, changing nothing, if the history is not
// replayable.
func (uc *LedgerEngine) Rebuild(ctx context.Context, ownerID, accountID string) (*RebuildResult, error) {
	const op = "rebuild"

	var result *RebuildResult

	err := uc.execute(ctx, op, ownerID, accountID, false, func(txCtx context.Context, tx Transaction, account *domain.Account) (string, error) {
		now := uc.timestamp()

		entries, err := uc.entryRepo.ListByAccountForUpdate(txCtx, tx, account.ID)
		if err != nil {
			return "", err
		}

		previous := account.CurrentBalance
		changed, err := uc.replay(txCtx, tx, account, entries, "", op, now)
		if err != nil {
			return "", err
		}

		result = &RebuildResult{
			AccountID:       account.ID,
			PreviousBalance: previous,
			Balance:         account.CurrentBalance,
			EntriesUpdated:  changed,
		}

		return pathReplay, uc.emit(txCtx, tx, domain.AggregateTypeAccount, account.ID, domain.EventTypeAccountRebuilt, map[string]any{
			"account_id":       account.ID,
			"entries_updated":  changed,
			"previous_balance": previous.String(),
			"current_balance":  account.CurrentBalance.String(),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// replay orders entries, recomputes every balance from the account's
// initial balance and writes back the entries whose balances changed, except
// skipID which the caller persists itself. It returns how many entries
// changed. Nothing is written if the replay fails.
func (uc *LedgerEngine) replay(
	ctx context.Context,
	tx Transaction,
	account *domain.Account,
	entries []*domain.LedgerEntry,
	skipID string,
	op string,
	now time.Time,
) (int, error) {
	start := time.Now()

	domain.SortEntries(entries)

	result, err := domain.Replay(account.InitialBalance, entries)
	if err != nil {
		return 0, err
	}

	changed := result.Apply(entries)
	for _, e := range changed {
		if e.ID == skipID {
			continue
		}
		e.UpdatedAt = now
		if err := uc.entryRepo.Update(ctx, tx, e); err != nil {
			return 0, err
		}
	}

	if !account.CurrentBalance.Equal(result.FinalBalance) {
		if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, result.FinalBalance, now); err != nil {
			return 0, err
		}
	}
	previous := account.CurrentBalance
	account.CurrentBalance = result.FinalBalance

	if uc.metrics != nil {
		uc.metrics.Replays.WithLabelValues(op).Inc()
		uc.metrics.ReplayLength.Observe(float64(len(entries)))
	}

	uc.logger.Info().
		Str("account_id", account.ID).
		Str("operation", op).
		Int("entries", len(entries)).
		Int("changed", len(changed)).
		Str("previous_balance", previous.String()).
		Str("balance", result.FinalBalance.String()).
		Dur("duration", time.Since(start)).
		Msg("account replayed")

	return len(changed), uc.emit(ctx, tx, domain.AggregateTypeAccount, account.ID, domain.EventTypeAccountReplayed, map[string]any{
		"account_id":       account.ID,
		"operation":        op,
		"entries":          len(entries),
		"changed":          len(changed),
		"previous_balance": previous.String(),
		"current_balance":  result.FinalBalance.String(),
	}, now)
}

type mutation func(txCtx context.Context, tx Transaction, account *domain.Account) (path string, err error)

// execute runs fn under the concurrency guard after locking and checking
// the account, retrying on concurrency conflicts. Closed accounts are
// rejected when requireActive is set.
func (uc *LedgerEngine) execute(ctx context.Context, op, ownerID, accountID string, requireActive bool, fn mutation) error {
	if ownerID == "" {
		return uc.fail(op, accountID, domain.ErrInvalidOwner)
	}

	start := time.Now()
	var path string

	err := retry(ctx, uc.retrier, func() error {
		return uc.guard.run(ctx, accountID, func(txCtx context.Context, tx Transaction) error {
			account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, accountID)
			if err != nil {
				return err
			}
			if err := account.CheckOwner(ownerID); err != nil {
				return err
			}
			if requireActive {
				if err := account.CheckActive(); err != nil {
					return err
				}
			}

			path, err = fn(txCtx, tx, account)
			return err
		})
	})
	if err != nil {
		return uc.fail(op, accountID, err)
	}

	if uc.metrics != nil {
		uc.metrics.OperationDuration.WithLabelValues(op, path).Observe(time.Since(start).Seconds())
	}

	uc.invalidateTotals(ctx, ownerID)

	return nil
}

// timestamp returns the current time at the precision the stores keep, so
// ordering decisions match what is read back.
func (uc *LedgerEngine) timestamp() time.Time {
	return uc.now().UTC().Truncate(time.Microsecond)
}

func (uc *LedgerEngine) emit(ctx context.Context, tx Transaction, aggregateType, aggregateID, eventType string, payload map[string]any, now time.Time) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
		Published:     false,
	})
}

func (uc *LedgerEngine) invalidateTotals(ctx context.Context, ownerID string) {
	totalsCache{cache: uc.cache, logger: uc.logger}.invalidate(ctx, ownerID)
}

// fail records a rejected operation and returns err unchanged.
func (uc *LedgerEngine) fail(op, accountID string, err error) error {
	kind := errorType(err)

	if uc.metrics != nil {
		uc.metrics.OperationErrors.WithLabelValues(op, kind).Inc()
	}

	event := uc.logger.Warn()
	if kind == "internal" {
		event = uc.logger.Error()
	}
	event.Err(err).
		Str("operation", op).
		Str("account_id", accountID).
		Str("error_type", kind).
		Msg("ledger operation rejected")

	return err
}

func validatePost(input PostEntryInput) error {
	if input.AccountID == "" {
		return domain.ErrAccountNotFound
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return err
	}
	if err := domain.ValidateLabel(input.Label); err != nil {
		return err
	}
	return domain.ValidateDescription(input.Description)
}

func validateEdit(input EditEntryInput) error {
	if input.EntryID == "" {
		return domain.ErrEntryNotFound
	}
	if input.Amount != nil {
		if err := domain.ValidateAmount(*input.Amount); err != nil {
			return err
		}
	}
	if input.Direction != nil && !input.Direction.IsValid() {
		return domain.ErrInvalidDirection
	}
	if input.Label != nil {
		if err := domain.ValidateLabel(*input.Label); err != nil {
			return err
		}
	}
	if input.Description != nil {
		if err := domain.ValidateDescription(*input.Description); err != nil {
			return err
		}
	}
	if !input.affectsBalances() && input.Label == nil && input.Description == nil &&
		input.Reference == nil && input.Category == nil {
		return domain.ErrNothingToUpdate
	}
	return nil
}

func applyEdit(entry *domain.LedgerEntry, input EditEntryInput) *domain.LedgerEntry {
	updated := entry.Clone()
	if input.Amount != nil {
		updated.Amount = *input.Amount
	}
	if input.Direction != nil {
		updated.Direction = *input.Direction
	}
	if input.OccurredAt != nil {
		updated.OccurredAt = input.OccurredAt.UTC().Truncate(time.Microsecond)
	}
	if input.Label != nil {
		updated.Label = strings.TrimSpace(*input.Label)
	}
	if input.Description != nil {
		updated.Description = *input.Description
	}
	if input.Reference != nil {
		updated.Reference = *input.Reference
	}
	if input.Category != nil {
		updated.Category = *input.Category
	}
	return updated
}

func balanceAffected(before, after *domain.LedgerEntry) bool {
	return !before.Amount.Equal(after.Amount) ||
		before.Direction != after.Direction ||
		!before.OccurredAt.Equal(after.OccurredAt)
}
