package domain

import "time"

// Event types
const (
	EventTypeAccountOpened   = "account.opened"
	EventTypeAccountClosed   = "account.closed"
	EventTypeAccountReplayed = "account.replayed"
	EventTypeAccountRebuilt  = "account.rebuilt"
	EventTypeEntryPosted     = "entry.posted"
	EventTypeEntryEdited     = "entry.edited"
	EventTypeEntryDeleted    = "entry.deleted"
)

// Aggregate types
const (
	AggregateTypeAccount = "account"
	AggregateTypeEntry   = "entry"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntryPayload is the event payload describing an entry after a mutation.
func EntryPayload(account *Account, e *LedgerEntry) map[string]any {
	return map[string]any{
		"entry_id":        e.ID,
		"account_id":      e.AccountID,
		"owner_id":        account.OwnerID,
		"direction":       string(e.Direction),
		"amount":          e.Amount.String(),
		"balance_before":  e.BalanceBefore.String(),
		"balance_after":   e.BalanceAfter.String(),
		"occurred_at":     e.OccurredAt.UTC().Format(time.RFC3339Nano),
		"current_balance": account.CurrentBalance.String(),
	}
}

// AccountPayload is the event payload describing an account.
func AccountPayload(account *Account) map[string]any {
	return map[string]any{
		"account_id":      account.ID,
		"owner_id":        account.OwnerID,
		"name":            account.Name,
		"kind":            string(account.Kind),
		"wallet_kind":     string(account.WalletKind),
		"initial_balance": account.InitialBalance.String(),
		"current_balance": account.CurrentBalance.String(),
		"active":          account.Active,
	}
}
