package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase/mocks"
)

type engineMocks struct {
	txManager   *mocks.MockTransactionManager
	tx          *mocks.MockTransaction
	accountRepo *mocks.MockAccountRepository
	entryRepo   *mocks.MockEntryRepository
	outboxRepo  *mocks.MockOutboxRepository
	locker      *mocks.MockAccountLocker
	idGen       *mocks.MockIDGenerator
	retrier     *mocks.MockRetrier
	cache       *mocks.MockCache
}

func newEngineMocks(ctrl *gomock.Controller) engineMocks {
	return engineMocks{
		txManager:   mocks.NewMockTransactionManager(ctrl),
		tx:          mocks.NewMockTransaction(ctrl),
		accountRepo: mocks.NewMockAccountRepository(ctrl),
		entryRepo:   mocks.NewMockEntryRepository(ctrl),
		outboxRepo:  mocks.NewMockOutboxRepository(ctrl),
		locker:      mocks.NewMockAccountLocker(ctrl),
		idGen:       mocks.NewMockIDGenerator(ctrl),
		retrier:     mocks.NewMockRetrier(ctrl),
		cache:       mocks.NewMockCache(ctrl),
	}
}

func (m engineMocks) engine(opts ...usecase.EngineOption) *usecase.LedgerEngine {
	return usecase.NewLedgerEngine(m.txManager, m.accountRepo, m.entryRepo, m.outboxRepo, m.locker, m.idGen, opts...)
}

func activeAccount(balance string) *domain.Account {
	return &domain.Account{
		ID:             "acc-1",
		OwnerID:        owner,
		Name:           "Main",
		Kind:           domain.AccountKindCurrent,
		WalletKind:     domain.WalletKindBank,
		InitialBalance: dec(balance),
		CurrentBalance: dec(balance),
		Active:         true,
	}
}

func TestLedgerEngine_Mock_CreditAppendCommits(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newEngineMocks(ctrl)

	released := false
	m.locker.EXPECT().Lock(gomock.Any(), "acc-1").Return(func() { released = true }, nil)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.accountRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, "acc-1").Return(activeAccount("100"), nil)
	m.idGen.EXPECT().Generate().Return("entry-1")
	m.idGen.EXPECT().Generate().Return("event-1")
	m.entryRepo.EXPECT().GetLast(gomock.Any(), m.tx, "acc-1").Return(nil, nil)
	m.entryRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, e *domain.LedgerEntry) error {
			assert.True(t, e.BalanceBefore.Equal(dec("100")))
			assert.True(t, e.BalanceAfter.Equal(dec("125")))
			return nil
		})
	m.accountRepo.EXPECT().UpdateBalance(gomock.Any(), m.tx, "acc-1", gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ usecase.Transaction, _ string, balance decimal.Decimal, _ time.Time) error {
			assert.Equal(t, "125", balance.String())
			return nil
		})
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	m.cache.EXPECT().Incr(gomock.Any(), "total-gen:"+owner).Return(int64(1), nil)

	entry, err := m.engine(usecase.WithCache(m.cache)).Credit(context.Background(), usecase.PostEntryInput{
		OwnerID:   owner,
		AccountID: "acc-1",
		Amount:    dec("25"),
		Label:     "salary",
	})
	require.NoError(t, err)
	assert.Equal(t, "entry-1", entry.ID)
	assert.True(t, released)
}

func TestLedgerEngine_Mock_CommitFailureIsReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newEngineMocks(ctrl)
	commitErr := errors.New("connection reset")

	m.locker.EXPECT().Lock(gomock.Any(), "acc-1").Return(func() {}, nil)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.accountRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, "acc-1").Return(activeAccount("100"), nil)
	m.idGen.EXPECT().Generate().Return("id").Times(2)
	m.entryRepo.EXPECT().GetLast(gomock.Any(), m.tx, "acc-1").Return(nil, nil)
	m.entryRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.accountRepo.EXPECT().UpdateBalance(gomock.Any(), m.tx, "acc-1", gomock.Any(), gomock.Any()).Return(nil)
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(commitErr)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	// no cache invalidation expected: nothing committed
	_, err := m.engine(usecase.WithCache(m.cache)).Debit(context.Background(), usecase.PostEntryInput{
		OwnerID:   owner,
		AccountID: "acc-1",
		Amount:    dec("25"),
		Label:     "rent",
	})
	assert.ErrorIs(t, err, commitErr)
}

func TestLedgerEngine_Mock_RepositoryErrorRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newEngineMocks(ctrl)
	dbErr := errors.New("disk full")

	m.locker.EXPECT().Lock(gomock.Any(), "acc-1").Return(func() {}, nil)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.accountRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, "acc-1").Return(activeAccount("100"), nil)
	m.idGen.EXPECT().Generate().Return("id")
	m.entryRepo.EXPECT().GetLast(gomock.Any(), m.tx, "acc-1").Return(nil, nil)
	m.entryRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(dbErr)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	_, err := m.engine().Credit(context.Background(), usecase.PostEntryInput{
		OwnerID:   owner,
		AccountID: "acc-1",
		Amount:    dec("1"),
		Label:     "x",
	})
	assert.ErrorIs(t, err, dbErr)
}

func TestLedgerEngine_Mock_LockConflictIsRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newEngineMocks(ctrl)

	m.retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, op func() error) error {
			err := op()
			if domain.IsRetryable(err) {
				return op()
			}
			return err
		})

	gomock.InOrder(
		m.locker.EXPECT().Lock(gomock.Any(), "acc-1").Return(nil, domain.ErrConcurrencyConflict),
		m.locker.EXPECT().Lock(gomock.Any(), "acc-1").Return(func() {}, nil),
	)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.accountRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, "acc-1").Return(activeAccount("100"), nil)
	m.idGen.EXPECT().Generate().Return("id").Times(2)
	m.entryRepo.EXPECT().GetLast(gomock.Any(), m.tx, "acc-1").Return(nil, nil)
	m.entryRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.accountRepo.EXPECT().UpdateBalance(gomock.Any(), m.tx, "acc-1", gomock.Any(), gomock.Any()).Return(nil)
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	_, err := m.engine(usecase.WithRetrier(m.retrier)).Credit(context.Background(), usecase.PostEntryInput{
		OwnerID:   owner,
		AccountID: "acc-1",
		Amount:    dec("1"),
		Label:     "x",
	})
	require.NoError(t, err)
}

func TestLedgerEngine_Mock_LockConflictSurfacesWithoutRetrier(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newEngineMocks(ctrl)

	m.locker.EXPECT().Lock(gomock.Any(), "acc-1").Return(nil, domain.ErrConcurrencyConflict)

	_, err := m.engine().Credit(context.Background(), usecase.PostEntryInput{
		OwnerID:   owner,
		AccountID: "acc-1",
		Amount:    dec("1"),
		Label:     "x",
	})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestLedgerEngine_Mock_CanceledWhileWaitingForLock(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newEngineMocks(ctrl)

	ctx, cancel := context.WithCancel(context.Background())

	// the lock is granted just as the caller gives up
	m.locker.EXPECT().Lock(gomock.Any(), "acc-1").DoAndReturn(func(context.Context, string) (func(), error) {
		cancel()
		return func() {}, nil
	})

	_, err := m.engine().Credit(ctx, usecase.PostEntryInput{
		OwnerID:   owner,
		AccountID: "acc-1",
		Amount:    dec("1"),
		Label:     "x",
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLedgerEngine_Mock_TransactionSurvivesCallerCancellation(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := newEngineMocks(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.locker.EXPECT().Lock(gomock.Any(), "acc-1").Return(func() {}, nil)
	m.txManager.EXPECT().Begin(gomock.Any()).Return(m.tx, nil)
	m.accountRepo.EXPECT().GetByIDForUpdate(gomock.Any(), m.tx, "acc-1").DoAndReturn(
		func(txCtx context.Context, _ usecase.Transaction, _ string) (*domain.Account, error) {
			cancel()
			assert.NoError(t, txCtx.Err(), "transaction context must not follow the caller")
			return activeAccount("100"), nil
		})
	m.idGen.EXPECT().Generate().Return("id").Times(2)
	m.entryRepo.EXPECT().GetLast(gomock.Any(), m.tx, "acc-1").Return(nil, nil)
	m.entryRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.accountRepo.EXPECT().UpdateBalance(gomock.Any(), m.tx, "acc-1", gomock.Any(), gomock.Any()).Return(nil)
	m.outboxRepo.EXPECT().Create(gomock.Any(), m.tx, gomock.Any()).Return(nil)
	m.tx.EXPECT().Commit(gomock.Any()).Return(nil)
	m.tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	_, err := m.engine().Credit(ctx, usecase.PostEntryInput{
		OwnerID:   owner,
		AccountID: "acc-1",
		Amount:    dec("1"),
		Label:     "x",
	})
	require.NoError(t, err)
}
