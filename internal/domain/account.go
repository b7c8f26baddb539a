package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies what an account is used for.
type AccountKind string

const (
	AccountKindCurrent     AccountKind = "current"
	AccountKindSavings     AccountKind = "savings"
	AccountKindOperational AccountKind = "operational"
)

// WalletKind describes where the money of an account physically lives.
type WalletKind string

const (
	WalletKindBank        WalletKind = "bank"
	WalletKindMobileMoney WalletKind = "mobile-money"
	WalletKindCash        WalletKind = "cash"
)

var validAccountKinds = map[AccountKind]bool{
	AccountKindCurrent:     true,
	AccountKindSavings:     true,
	AccountKindOperational: true,
}

var validWalletKinds = map[WalletKind]bool{
	WalletKindBank:        true,
	WalletKindMobileMoney: true,
	WalletKindCash:        true,
}

// IsValid reports whether k is a known account kind.
func (k AccountKind) IsValid() bool {
	return validAccountKinds[k]
}

// IsValid reports whether k is a known wallet kind.
func (k WalletKind) IsValid() bool {
	return validWalletKinds[k]
}

// Account is a named balance-holding entity owned by a user.
//
// CurrentBalance is derived: it always equals the BalanceAfter of the
// chronologically last entry of the account, or InitialBalance when the
// account has no entries. Only the ledger engine writes it.
type Account struct {
	ID             string
	OwnerID        string
	Name           string
	Kind           AccountKind
	WalletKind     WalletKind
	InitialBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	Active         bool
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CheckOwner returns ErrOwnershipMismatch when ownerID does not own the account.
func (a *Account) CheckOwner(ownerID string) error {
	if a.OwnerID != ownerID {
		return ErrOwnershipMismatch
	}
	return nil
}

// CheckActive returns ErrAccountInactive for soft-deleted accounts.
func (a *Account) CheckActive() error {
	if !a.Active {
		return ErrAccountInactive
	}
	return nil
}

// CanAppendDebit checks the fast-path funds rule: the current balance must
// cover the amount before a debit is appended at the end of the sequence.
func (a *Account) CanAppendDebit(amount decimal.Decimal) error {
	if a.CurrentBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	return nil
}
