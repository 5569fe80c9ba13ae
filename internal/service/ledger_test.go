package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/iliyamo/club-membership/internal/model"
)

func TestCreditAddsBalanceAndLedgerRow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.member(t, "alice", 2)
	svc := NewLedgerService(f.db, f.members, f.ledger, 0)

	balance, row, err := svc.Credit(context.Background(), "alice", 10, "Token purchase")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if balance != 12 {
		t.Fatalf("balance = %d, want 12", balance)
	}
	if row.Type != model.TxCredit || row.Amount != 10 || row.ID == "" {
		t.Fatalf("row = %+v, want CREDIT of 10 with id", row)
	}
	m, err := f.members.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m.TokenBalance != 12 {
		t.Fatalf("stored balance = %d, want 12", m.TokenBalance)
	}
}

func TestCreditRejections(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.member(t, "alice", 0)
	svc := NewLedgerService(f.db, f.members, f.ledger, 0)
	ctx := context.Background()

	if _, _, err := svc.Credit(ctx, "alice", 0, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero amount err = %v, want ErrInvalidAmount", err)
	}
	if _, _, err := svc.Credit(ctx, "ghost", 5, ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("missing member err = %v, want ErrUserNotFound", err)
	}
	rows, err := f.ledger.ListByUser(ctx, "ghost", 10)
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("ledger rows = %d, want 0", len(rows))
	}
}

func TestCreditRejectsBalanceOverflow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.member(t, "alice", 1)
	svc := NewLedgerService(f.db, f.members, f.ledger, 0)
	ctx := context.Background()

	if _, _, err := svc.Credit(ctx, "alice", math.MaxInt64, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("overflow err = %v, want ErrInvalidAmount", err)
	}
	m, err := f.members.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("get member after rejected credit: %v", err)
	}
	if m.TokenBalance != 1 {
		t.Fatalf("balance = %d, want 1", m.TokenBalance)
	}

	balance, _, err := svc.Credit(ctx, "alice", math.MaxInt64-1, "")
	if err != nil {
		t.Fatalf("credit up to max: %v", err)
	}
	if balance != math.MaxInt64 {
		t.Fatalf("balance = %d, want MaxInt64", balance)
	}
	ev := f.event(t, "Evening Squash", 2, 1, 0)
	if _, err := NewAdmissionService(f.db, f.events, f.members, f.rsvps, f.ledger, 0, nil).RequestAdmission(ctx, ev.ID, "alice"); err != nil {
		t.Fatalf("admission after large credit: %v", err)
	}
}
