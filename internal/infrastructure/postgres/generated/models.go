package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID             string             `json:"id"`
	OwnerID        string             `json:"owner_id"`
	Name           string             `json:"name"`
	Kind           string             `json:"kind"`
	WalletKind     string             `json:"wallet_kind"`
	InitialBalance pgtype.Numeric     `json:"initial_balance"`
	CurrentBalance pgtype.Numeric     `json:"current_balance"`
	Active         bool               `json:"active"`
	Version        int64              `json:"version"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

type LedgerEntry struct {
	ID            string             `json:"id"`
	AccountID     string             `json:"account_id"`
	Direction     string             `json:"direction"`
	Amount        pgtype.Numeric     `json:"amount"`
	BalanceBefore pgtype.Numeric     `json:"balance_before"`
	BalanceAfter  pgtype.Numeric     `json:"balance_after"`
	Label         string             `json:"label"`
	Description   string             `json:"description"`
	Reference     string             `json:"reference"`
	Category      string             `json:"category"`
	OccurredAt    pgtype.Timestamptz `json:"occurred_at"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}
