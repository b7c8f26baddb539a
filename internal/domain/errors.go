package domain

import "errors"

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountInactive   = errors.New("account is inactive")
	ErrOwnershipMismatch = errors.New("account belongs to another owner")

	// Entry errors
	ErrEntryNotFound     = errors.New("entry not found")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidDirection  = errors.New("direction must be credit or debit")

	// ErrConcurrencyConflict means the per-account lock could not be acquired
	// or the store reported a serialization failure. It is safe to retry.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// IsRetryable reports whether err may succeed if the operation is retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
