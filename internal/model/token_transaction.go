package model

import "time"

// Ledger entry types.
const (
	TxCredit = "CREDIT"
	TxDebit  = "DEBIT"
)

// TokenTransaction is an append-only ledger row. Rows are never updated or
// deleted; the member balance is the authoritative running total.
type TokenTransaction struct {
	ID          string    // token_transactions.id
	UserID      string    // token_transactions.user_id
	Type        string    // CREDIT or DEBIT
	Amount      int64     // always > 0
	Description *string   // token_transactions.description (nullable)
	EventID     *string   // back-reference for RSVP debits (nullable)
	CreatedAt   time.Time // token_transactions.created_at
}
