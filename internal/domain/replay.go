package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EntryBalance is the recomputed balance pair of one entry.
type EntryBalance struct {
	EntryID       string
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

// ReplayResult is the outcome of a successful Replay.
type ReplayResult struct {
	Balances     []EntryBalance
	FinalBalance decimal.Decimal
}

// Replay walks entries left to right from initial and computes the
// balance before and after every entry. entries must already be ordered
// by (OccurredAt, ID). The input is not modified.
//
// Replay fails fast, without a partial result, as soon as a debit would
// drive the running balance below zero.
func Replay(initial decimal.Decimal, entries []*LedgerEntry) (*ReplayResult, error) {
	result := &ReplayResult{
		Balances: make([]EntryBalance, 0, len(entries)),
	}

	running := initial
	for i, e := range entries {
		after := e.Direction.Apply(running, e.Amount)
		if after.IsNegative() {
			return nil, fmt.Errorf("%w: entry %s at position %d would take balance from %s to %s",
				ErrInsufficientFunds, e.ID, i, running.String(), after.String())
		}

		result.Balances = append(result.Balances, EntryBalance{
			EntryID:       e.ID,
			BalanceBefore: running,
			BalanceAfter:  after,
		})
		running = after
	}

	result.FinalBalance = running
	return result, nil
}

// Apply writes the computed balances onto entries, which must be the same
// slice (same order) that was replayed, and returns the entries whose
// stored balances changed.
func (r *ReplayResult) Apply(entries []*LedgerEntry) []*LedgerEntry {
	changed := make([]*LedgerEntry, 0)
	for i, e := range entries {
		b := r.Balances[i]
		if e.BalanceBefore.Equal(b.BalanceBefore) && e.BalanceAfter.Equal(b.BalanceAfter) {
			continue
		}
		e.BalanceBefore = b.BalanceBefore
		e.BalanceAfter = b.BalanceAfter
		changed = append(changed, e)
	}
	return changed
}

// Discrepancy describes one stored value that disagrees with a replay.
type Discrepancy struct {
	EntryID  string
	Field    string
	Stored   decimal.Decimal
	Expected decimal.Decimal
}

// Verify checks a stored account history against the balance invariants
// and returns every mismatch. entries must be ordered. A history that is
// not replayable at all is reported through the returned error.
func Verify(account *Account, entries []*LedgerEntry) ([]Discrepancy, error) {
	result, err := Replay(account.InitialBalance, entries)
	if err != nil {
		return nil, err
	}

	var out []Discrepancy
	for i, e := range entries {
		b := result.Balances[i]
		if !e.BalanceBefore.Equal(b.BalanceBefore) {
			out = append(out, Discrepancy{EntryID: e.ID, Field: "balance_before", Stored: e.BalanceBefore, Expected: b.BalanceBefore})
		}
		if !e.BalanceAfter.Equal(b.BalanceAfter) {
			out = append(out, Discrepancy{EntryID: e.ID, Field: "balance_after", Stored: e.BalanceAfter, Expected: b.BalanceAfter})
		}
	}

	if !account.CurrentBalance.Equal(result.FinalBalance) {
		out = append(out, Discrepancy{Field: "current_balance", Stored: account.CurrentBalance, Expected: result.FinalBalance})
	}

	return out, nil
}
