package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultTotalsCacheTTL bounds how long an owner's total balance is cached
	DefaultTotalsCacheTTL = time.Minute

	// listPageSize is the store page size used by lazy entry iteration
	listPageSize = 200
)
