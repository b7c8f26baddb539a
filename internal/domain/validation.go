package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName    = errors.New("invalid account name")
	ErrInvalidAccountKind    = errors.New("invalid account kind")
	ErrInvalidWalletKind     = errors.New("invalid wallet kind")
	ErrInvalidInitialBalance = errors.New("initial balance must not be negative")
	ErrInvalidLabel          = errors.New("invalid entry label")
	ErrInvalidOwner          = errors.New("owner is required")
	ErrAmountTooLarge        = fmt.Errorf("%w: exceeds maximum allowed", ErrInvalidAmount)
	ErrNothingToUpdate       = errors.New("no fields to update")
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MaxLabelLength       = 255
	MaxDescriptionLength = 2000
	MaxEntryAmount       = "1000000000000" // 1 trillion
)

var maxEntryAmount = decimal.RequireFromString(MaxEntryAmount)

// ValidateAmount validates a credit or debit amount. Any strictly positive
// amount up to MaxEntryAmount is accepted; every rejection is ErrInvalidAmount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if amount.GreaterThan(maxEntryAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxEntryAmount)
	}

	return nil
}

// ValidateLabel validates the short, required label of an entry.
func ValidateLabel(label string) error {
	label = strings.TrimSpace(label)

	if label == "" {
		return fmt.Errorf("%w: label cannot be empty", ErrInvalidLabel)
	}

	if len(label) > MaxLabelLength {
		return fmt.Errorf("%w: label exceeds %d characters", ErrInvalidLabel, MaxLabelLength)
	}

	return nil
}

// ValidateDescription bounds the optional free-form description.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidLabel, MaxDescriptionLength)
	}
	return nil
}

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateInitialBalance rejects negative opening balances.
func ValidateInitialBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ErrInvalidInitialBalance
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
