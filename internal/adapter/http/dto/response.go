package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"owner_id"`
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	WalletKind     string          `json:"wallet_kind"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Active         bool            `json:"active"`
	Version        int64           `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		OwnerID:        a.OwnerID,
		Name:           a.Name,
		Kind:           string(a.Kind),
		WalletKind:     string(a.WalletKind),
		InitialBalance: a.InitialBalance,
		CurrentBalance: a.CurrentBalance,
		Active:         a.Active,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"account_id"`
	Direction     string          `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Label         string          `json:"label"`
	Description   string          `json:"description,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Category      string          `json:"category,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	return &EntryResponse{
		ID:            e.ID,
		AccountID:     e.AccountID,
		Direction:     string(e.Direction),
		Amount:        e.Amount,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		Label:         e.Label,
		Description:   e.Description,
		Reference:     e.Reference,
		Category:      e.Category,
		OccurredAt:    e.OccurredAt,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// EntryPageResponse is one page of an account's history. NextCursor is
// empty on the last page.
type EntryPageResponse struct {
	Entries    []*EntryResponse `json:"entries"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// EntryPageFromUseCase converts a use case page to response.
func EntryPageFromUseCase(p *usecase.EntryPage) *EntryPageResponse {
	return &EntryPageResponse{
		Entries:    EntriesFromDomain(p.Entries),
		NextCursor: EncodeCursor(p.NextCursor),
	}
}

// TotalBalanceResponse is the sum of an owner's active account balances.
type TotalBalanceResponse struct {
	OwnerID string          `json:"owner_id"`
	Total   decimal.Decimal `json:"total"`
}

// BalanceAtResponse is an account balance as of a point in time.
type BalanceAtResponse struct {
	AccountID string          `json:"account_id"`
	At        time.Time       `json:"at"`
	Balance   decimal.Decimal `json:"balance"`
}

// DiscrepancyResponse is one stored value that disagrees with a replay.
type DiscrepancyResponse struct {
	EntryID  string          `json:"entry_id,omitempty"`
	Field    string          `json:"field"`
	Stored   decimal.Decimal `json:"stored"`
	Expected decimal.Decimal `json:"expected"`
}

// ReconciliationResponse represents the outcome of reconciling one account.
type ReconciliationResponse struct {
	AccountID         string                 `json:"account_id"`
	RecordedBalance   decimal.Decimal        `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal        `json:"calculated_balance"`
	Difference        decimal.Decimal        `json:"difference"`
	EntryCount        int                    `json:"entry_count"`
	Replayable        bool                   `json:"replayable"`
	ReplayError       string                 `json:"replay_error,omitempty"`
	IsReconciled      bool                   `json:"is_reconciled"`
	Discrepancies     []*DiscrepancyResponse `json:"discrepancies"`
	CheckedAt         time.Time              `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	discrepancies := make([]*DiscrepancyResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = &DiscrepancyResponse{
			EntryID:  d.EntryID,
			Field:    d.Field,
			Stored:   d.Stored,
			Expected: d.Expected,
		}
	}

	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		RecordedBalance:   r.RecordedBalance,
		CalculatedBalance: r.CalculatedBalance,
		Difference:        r.Difference,
		EntryCount:        r.EntryCount,
		Replayable:        r.Replayable,
		ReplayError:       r.ReplayError,
		IsReconciled:      r.IsReconciled,
		Discrepancies:     discrepancies,
		CheckedAt:         r.LastChecked,
	}
}

// ReportResponse summarizes the reconciliation of all an owner's accounts.
type ReportResponse struct {
	OwnerID            string                    `json:"owner_id"`
	TotalAccounts      int                       `json:"total_accounts"`
	ReconciledAccounts int                       `json:"reconciled_accounts"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt          time.Time                 `json:"checked_at"`
}

// ReportFromUseCase converts a reconciliation report to response.
func ReportFromUseCase(r *usecase.ReconciliationReport) *ReportResponse {
	results := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		results[i] = ReconciliationFromUseCase(d)
	}

	return &ReportResponse{
		OwnerID:            r.OwnerID,
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      results,
		CheckedAt:          r.CheckedAt,
	}
}

// RebuildResponse represents the outcome of rebuilding an account.
type RebuildResponse struct {
	AccountID       string          `json:"account_id"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	Balance         decimal.Decimal `json:"balance"`
	EntriesUpdated  int             `json:"entries_updated"`
}

// RebuildFromUseCase converts a rebuild result to response.
func RebuildFromUseCase(r *usecase.RebuildResult) *RebuildResponse {
	return &RebuildResponse{
		AccountID:       r.AccountID,
		PreviousBalance: r.PreviousBalance,
		Balance:         r.Balance,
		EntriesUpdated:  r.EntriesUpdated,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
