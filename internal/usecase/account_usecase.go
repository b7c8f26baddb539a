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

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	guard       accountGuard
	accountRepo AccountRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	cache       Cache
	cacheTTL    time.Duration
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewAccountUseCase creates a new AccountUseCase. cache and m may be nil.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	outboxRepo OutboxRepository,
	locker AccountLocker,
	idGen IDGenerator,
	cache Cache,
	cacheTTL time.Duration,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AccountUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultTotalsCacheTTL
	}

	return &AccountUseCase{
		guard:       accountGuard{txManager: txManager, locker: locker, metrics: m},
		accountRepo: accountRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     m,
		logger:      logger,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	OwnerID        string
	Name           string
	Kind           domain.AccountKind
	WalletKind     domain.WalletKind
	InitialBalance decimal.Decimal
}

// OpenAccount creates a new active account whose current balance equals
// its initial balance.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if input.OwnerID == "" {
		return nil, domain.ErrInvalidOwner
	}
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateInitialBalance(input.InitialBalance); err != nil {
		return nil, err
	}

	if input.Kind == "" {
		input.Kind = domain.AccountKindCurrent
	}
	if !input.Kind.IsValid() {
		return nil, domain.ErrInvalidAccountKind
	}
	if input.WalletKind == "" {
		input.WalletKind = domain.WalletKindBank
	}
	if !input.WalletKind.IsValid() {
		return nil, domain.ErrInvalidWalletKind
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:             uc.idGen.Generate(),
		OwnerID:        input.OwnerID,
		Name:           strings.TrimSpace(input.Name),
		Kind:           input.Kind,
		WalletKind:     input.WalletKind,
		InitialBalance: input.InitialBalance,
		CurrentBalance: input.InitialBalance,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.guard.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := uc.accountRepo.Create(txCtx, tx, account); err != nil {
		return nil, err
	}

	if err := uc.emit(txCtx, tx, account, domain.EventTypeAccountOpened, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.Inc()
	}

	uc.invalidateTotals(ctx, account.OwnerID)

	return account, nil
}

// GetAccount retrieves an account owned by ownerID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, ownerID, id string) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := account.CheckOwner(ownerID); err != nil {
		return nil, err
	}

	return account, nil
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	OwnerID string
	Limit   int
	Offset  int
}

// ListAccounts lists the owner's accounts, active or not, with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.OwnerID == "" {
		return nil, domain.ErrInvalidOwner
	}

	limit, offset, err := domain.ValidatePagination(input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return uc.accountRepo.ListByOwner(ctx, input.OwnerID, limit, offset)
}

// CloseAccount soft-deletes an account. Its entries are retained and it no
// longer accepts mutations. Closing a closed account is a no-op.
func (uc *AccountUseCase) CloseAccount(ctx context.Context, ownerID, id string) (*domain.Account, error) {
	var closed *domain.Account

	err := uc.guard.run(ctx, id, func(txCtx context.Context, tx Transaction) error {
		account, err := uc.accountRepo.GetByIDForUpdate(txCtx, tx, id)
		if err != nil {
			return err
		}
		if err := account.CheckOwner(ownerID); err != nil {
			return err
		}

		closed = account
		if !account.Active {
			return nil
		}

		now := time.Now().UTC()
		if err := uc.accountRepo.SetActive(txCtx, tx, id, false, now); err != nil {
			return err
		}
		account.Active = false
		account.UpdatedAt = now

		return uc.emit(txCtx, tx, account, domain.EventTypeAccountClosed, now)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsClosed.Inc()
	}

	uc.invalidateTotals(ctx, ownerID)

	return closed, nil
}

// GetTotalBalance returns the sum of current balances over the owner's
// active accounts. Results are cached until the next committed mutation.
func (uc *AccountUseCase) GetTotalBalance(ctx context.Context, ownerID string) (decimal.Decimal, error) {
	if ownerID == "" {
		return decimal.Zero, domain.ErrInvalidOwner
	}

	return uc.totals().get(ctx, ownerID, func(ctx context.Context) (decimal.Decimal, error) {
		return uc.accountRepo.SumActiveBalances(ctx, ownerID)
	})
}

func (uc *AccountUseCase) totals() totalsCache {
	return totalsCache{cache: uc.cache, ttl: uc.cacheTTL, logger: uc.logger}
}

func (uc *AccountUseCase) emit(ctx context.Context, tx Transaction, account *domain.Account, eventType string, now time.Time) error {
	if uc.outboxRepo == nil {
		return nil
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     eventType,
		Payload:       domain.AccountPayload(account),
		CreatedAt:     now,
		Published:     false,
	})
}

func (uc *AccountUseCase) invalidateTotals(ctx context.Context, ownerID string) {
	uc.totals().invalidate(ctx, ownerID)
}
