package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	WalletKind     string          `json:"wallet_kind,omitempty"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput(ownerID string) usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		OwnerID:        ownerID,
		Name:           r.Name,
		Kind:           domain.AccountKind(r.Kind),
		WalletKind:     domain.WalletKind(r.WalletKind),
		InitialBalance: r.InitialBalance,
	}
}

// PostEntryRequest represents a credit or debit posted to an account.
type PostEntryRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	Category    string          `json:"category,omitempty"`
	OccurredAt  *time.Time      `json:"occurred_at,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PostEntryRequest) ToUseCaseInput(ownerID, accountID string) usecase.PostEntryInput {
	return usecase.PostEntryInput{
		OccurredAt:  r.OccurredAt,
		OwnerID:     ownerID,
		AccountID:   accountID,
		Label:       r.Label,
		Description: r.Description,
		Reference:   r.Reference,
		Category:    r.Category,
		Amount:      r.Amount,
	}
}

// EditEntryRequest represents a partial update of an entry. Absent fields
// are left unchanged.
type EditEntryRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Direction   *string          `json:"direction,omitempty"`
	OccurredAt  *time.Time       `json:"occurred_at,omitempty"`
	Label       *string          `json:"label,omitempty"`
	Description *string          `json:"description,omitempty"`
	Reference   *string          `json:"reference,omitempty"`
	Category    *string          `json:"category,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *EditEntryRequest) ToUseCaseInput(ownerID, entryID string) usecase.EditEntryInput {
	input := usecase.EditEntryInput{
		Amount:      r.Amount,
		OccurredAt:  r.OccurredAt,
		Label:       r.Label,
		Description: r.Description,
		Reference:   r.Reference,
		Category:    r.Category,
		OwnerID:     ownerID,
		EntryID:     entryID,
	}
	if r.Direction != nil {
		d := domain.Direction(*r.Direction)
		input.Direction = &d
	}
	return input
}
