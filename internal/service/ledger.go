package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/iliyamo/club-membership/internal/database"
	"github.com/iliyamo/club-membership/internal/model"
	"github.com/iliyamo/club-membership/internal/repository"
)

// ErrInvalidAmount is returned for non-positive credit amounts and for
// credits that would overflow the balance.
var ErrInvalidAmount = errors.New("amount must be a positive integer")

// LedgerService applies balance credits. Token purchases are stubbed: an
// admin grants tokens and the grant is recorded as a CREDIT row.
type LedgerService struct {
	db       *sql.DB
	members  *repository.MemberRepo
	ledger   *repository.LedgerRepo
	attempts int
	now      func() time.Time
}

// NewLedgerService returns a LedgerService. attempts is the store retry
// budget; zero selects database.DefaultAttempts.
func NewLedgerService(db *sql.DB, members *repository.MemberRepo, ledger *repository.LedgerRepo, attempts int) *LedgerService {
	return &LedgerService{
		db:       db,
		members:  members,
		ledger:   ledger,
		attempts: attempts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Credit adds amount tokens to the member's balance and appends a CREDIT
// row in the same transaction. It returns the new balance and the row.
func (s *LedgerService) Credit(ctx context.Context, uid string, amount int64, description string) (int64, model.TokenTransaction, error) {
	if amount <= 0 {
		return 0, model.TokenTransaction{}, ErrInvalidAmount
	}
	var (
		balance int64
		row     model.TokenTransaction
	)
	err := database.RunInTx(ctx, s.db, s.attempts, func(ctx context.Context, tx *sql.Tx) error {
		m, err := s.members.GetForUpdateTx(ctx, tx, uid)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("read member: %w", err)
		}
		if amount > math.MaxInt64-m.TokenBalance {
			return ErrInvalidAmount
		}
		now := s.now()
		if err := s.members.AdjustBalanceTx(ctx, tx, uid, amount, now); err != nil {
			return err
		}
		t := model.TokenTransaction{UserID: uid, Type: model.TxCredit, Amount: amount, CreatedAt: now}
		if description != "" {
			t.Description = &description
		}
		r, err := s.ledger.AppendTx(ctx, tx, t)
		if err != nil {
			return err
		}
		balance, row = m.TokenBalance+amount, r
		return nil
	})
	if err != nil {
		return 0, model.TokenTransaction{}, err
	}
	return balance, row, nil
}
