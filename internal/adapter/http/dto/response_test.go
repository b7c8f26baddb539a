package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddostedson/eddo-budg-sub001/internal/domain"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

func TestAccountFromDomain(t *testing.T) {
	now := time.Now()
	account := &domain.Account{
		ID:             "acc-1",
		OwnerID:        "owner-1",
		Name:           "Main",
		Kind:           domain.AccountKindCurrent,
		WalletKind:     domain.WalletKindBank,
		InitialBalance: decimal.RequireFromString("100"),
		CurrentBalance: decimal.RequireFromString("123.45"),
		Active:         true,
		Version:        2,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	resp := AccountFromDomain(account)
	if resp.ID != account.ID || resp.CurrentBalance.String() != "123.45" || resp.Version != 2 {
		t.Fatalf("unexpected account response: %+v", resp)
	}
	if resp.Kind != "current" || resp.WalletKind != "bank" || !resp.Active {
		t.Fatalf("unexpected classification: %+v", resp)
	}

	list := AccountsFromDomain([]*domain.Account{account})
	if len(list) != 1 || list[0].ID != account.ID {
		t.Fatalf("AccountsFromDomain returned %+v", list)
	}
}

func TestEntryPageFromUseCase(t *testing.T) {
	at := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	entry := &domain.LedgerEntry{
		ID:            "ent-1",
		AccountID:     "acc-1",
		Direction:     domain.DirectionDebit,
		Amount:        decimal.RequireFromString("10"),
		BalanceBefore: decimal.RequireFromString("50"),
		BalanceAfter:  decimal.RequireFromString("40"),
		Label:         "coffee",
		OccurredAt:    at,
	}
	next := domain.CursorOf(entry)

	resp := EntryPageFromUseCase(&usecase.EntryPage{
		Entries:    []*domain.LedgerEntry{entry},
		NextCursor: &next,
	})

	if len(resp.Entries) != 1 || resp.Entries[0].Direction != "debit" {
		t.Fatalf("unexpected entries: %+v", resp.Entries)
	}
	if resp.Entries[0].BalanceAfter.String() != "40" {
		t.Fatalf("unexpected balance after: %s", resp.Entries[0].BalanceAfter)
	}

	cursor, err := DecodeCursor(resp.NextCursor)
	if err != nil || cursor.ID != "ent-1" || !cursor.OccurredAt.Equal(at) {
		t.Fatalf("unexpected next cursor %q: %+v, %v", resp.NextCursor, cursor, err)
	}

	last := EntryPageFromUseCase(&usecase.EntryPage{})
	if last.NextCursor != "" || last.Entries == nil {
		t.Fatalf("expected empty non-nil page without cursor, got %+v", last)
	}
}

func TestReconciliationFromUseCase(t *testing.T) {
	result := &usecase.ReconciliationResult{
		AccountID:         "acc-1",
		RecordedBalance:   decimal.RequireFromString("90"),
		CalculatedBalance: decimal.RequireFromString("100"),
		Difference:        decimal.RequireFromString("-10"),
		EntryCount:        3,
		Replayable:        true,
		Discrepancies: []domain.Discrepancy{
			{EntryID: "ent-2", Field: "balance_after", Stored: decimal.NewFromInt(5), Expected: decimal.NewFromInt(15)},
		},
	}

	resp := ReconciliationFromUseCase(result)
	if resp.IsReconciled || len(resp.Discrepancies) != 1 || resp.Discrepancies[0].EntryID != "ent-2" {
		t.Fatalf("unexpected reconciliation response: %+v", resp)
	}

	report := ReportFromUseCase(&usecase.ReconciliationReport{
		OwnerID:            "owner-1",
		TotalAccounts:      2,
		ReconciledAccounts: 1,
		Discrepancies:      []*usecase.ReconciliationResult{result},
	})
	if report.TotalAccounts != 2 || len(report.Discrepancies) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestDecimalFieldsMarshalAsStrings(t *testing.T) {
	body, err := json.Marshal(TotalBalanceResponse{OwnerID: "owner-1", Total: decimal.RequireFromString("0.10")})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(body) != `{"owner_id":"owner-1","total":"0.1"}` {
		t.Fatalf("unexpected json: %s", body)
	}
}
