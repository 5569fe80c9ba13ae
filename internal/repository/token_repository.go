package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/club-membership/internal/database"
	"github.com/iliyamo/club-membership/internal/model"
)

// LedgerRepo appends to and reads from the token_transactions table. Rows
// are never updated or deleted.
type LedgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo returns a LedgerRepo bound to db.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// AppendTx inserts a ledger row inside tx. A fresh uuid is assigned when
// t.ID is empty; the stored row is returned.
func (r *LedgerRepo) AppendTx(ctx context.Context, tx *sql.Tx, t model.TokenTransaction) (model.TokenTransaction, error) {
	if t.Amount <= 0 {
		return model.TokenTransaction{}, fmt.Errorf("ledger amount must be positive, got %d", t.Amount)
	}
	if t.Type != model.TxCredit && t.Type != model.TxDebit {
		return model.TokenTransaction{}, fmt.Errorf("unknown ledger type %q", t.Type)
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO token_transactions (id, user_id, type, amount, description, event_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Type, t.Amount, t.Description, t.EventID, database.ToMillis(t.CreatedAt))
	if err != nil {
		return model.TokenTransaction{}, fmt.Errorf("insert token transaction: %w", err)
	}
	return t, nil
}

// ListByUser returns up to limit ledger rows for a member, newest first.
func (r *LedgerRepo) ListByUser(ctx context.Context, userID string, limit int) ([]model.TokenTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, amount, description, event_id, created_at
		 FROM token_transactions
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list token transactions: %w", err)
	}
	defer rows.Close()
	var out []model.TokenTransaction
	for rows.Next() {
		var (
			t             model.TokenTransaction
			desc, eventID sql.NullString
			created       int64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &desc, &eventID, &created); err != nil {
			return nil, fmt.Errorf("scan token transaction: %w", err)
		}
		if desc.Valid {
			t.Description = &desc.String
		}
		if eventID.Valid {
			t.EventID = &eventID.String
		}
		t.CreatedAt = database.FromMillis(created)
		out = append(out, t)
	}
	return out, rows.Err()
}
