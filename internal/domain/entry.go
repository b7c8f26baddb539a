package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether an entry adds to or subtracts from the balance.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// IsValid reports whether d is credit or debit.
func (d Direction) IsValid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// Apply returns the balance after moving amount in direction d.
func (d Direction) Apply(balance, amount decimal.Decimal) decimal.Decimal {
	if d == DirectionDebit {
		return balance.Sub(amount)
	}
	return balance.Add(amount)
}

// LedgerEntry is one recorded credit or debit movement against an account.
//
// BalanceBefore and BalanceAfter are derived by Replay and are never set
// from caller input. OccurredAt is the ordering key; ID breaks ties.
type LedgerEntry struct {
	ID            string
	AccountID     string
	Direction     Direction
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Label         string
	Description   string
	Reference     string
	Category      string
	OccurredAt    time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone returns a shallow copy of the entry.
func (e *LedgerEntry) Clone() *LedgerEntry {
	c := *e
	return &c
}

// SignedAmount returns the amount with its sign: positive for credits,
// negative for debits.
func (e *LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Direction == DirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Less orders entries by (OccurredAt, ID).
func Less(a, b *LedgerEntry) bool {
	if !a.OccurredAt.Equal(b.OccurredAt) {
		return a.OccurredAt.Before(b.OccurredAt)
	}
	return a.ID < b.ID
}

// After reports whether e sorts strictly after last. A nil last means the
// sequence is empty, so any entry is last.
func (e *LedgerEntry) After(last *LedgerEntry) bool {
	if last == nil {
		return true
	}
	return Less(last, e)
}

// SortEntries sorts entries in place by (OccurredAt, ID).
func SortEntries(entries []*LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Less(entries[i], entries[j])
	})
}

// EntryFilter narrows an entry listing.
type EntryFilter struct {
	From      *time.Time
	To        *time.Time
	Direction Direction
	After     *Cursor
	Limit     int
}

// Matches reports whether e passes the date range and direction filters.
// The cursor and limit are applied by the store.
func (f EntryFilter) Matches(e *LedgerEntry) bool {
	if f.From != nil && e.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && e.OccurredAt.After(*f.To) {
		return false
	}
	if f.Direction != "" && e.Direction != f.Direction {
		return false
	}
	if f.After != nil && !f.After.Before(e) {
		return false
	}
	return true
}

// Cursor is a keyset position in an account's ordered entry sequence.
type Cursor struct {
	OccurredAt time.Time
	ID         string
}

// CursorOf returns the cursor pointing at e.
func CursorOf(e *LedgerEntry) Cursor {
	return Cursor{OccurredAt: e.OccurredAt, ID: e.ID}
}

// Before reports whether the cursor position sorts strictly before e.
func (c Cursor) Before(e *LedgerEntry) bool {
	return Less(&LedgerEntry{OccurredAt: c.OccurredAt, ID: c.ID}, e)
}
