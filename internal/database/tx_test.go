package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func openTempDB(t *testing.T) *sql.DB {
	t.Helper()

	db, d, err := Open(Options{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "club.db")})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if d != SQLite {
		t.Fatalf("dialect = %q, want %q", d, SQLite)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	if _, _, err := Open(Options{Driver: "postgres"}); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := OpenSQLite("  "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	db := openTempDB(t)
	if err := Migrate(context.Background(), db, SQLite); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	for _, table := range []string{"users", "events", "event_rsvps", "token_transactions"} {
		if n := countRows(t, db, table); n != 0 {
			t.Fatalf("%s has %d rows after migrate, want 0", table, n)
		}
	}
}

func TestRunInTxRetriesConflicts(t *testing.T) {
	t.Parallel()

	db := openTempDB(t)
	calls := 0
	err := RunInTx(context.Background(), db, 5, func(ctx context.Context, tx *sql.Tx) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("lost race: %w", ErrConflict)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("run in tx: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRunInTxExhaustsBudget(t *testing.T) {
	t.Parallel()

	db := openTempDB(t)
	calls := 0
	err := RunInTx(context.Background(), db, 3, func(ctx context.Context, tx *sql.Tx) error {
		calls++
		return ErrConflict
	})
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("err = %v, want ErrRetriesExhausted", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestRunInTxZeroAttemptsUsesDefault(t *testing.T) {
	t.Parallel()

	db := openTempDB(t)
	calls := 0
	_ = RunInTx(context.Background(), db, 0, func(ctx context.Context, tx *sql.Tx) error {
		calls++
		return ErrConflict
	})
	if calls != DefaultAttempts {
		t.Fatalf("calls = %d, want %d", calls, DefaultAttempts)
	}
}

func TestRunInTxReturnsBusinessErrorsUnchanged(t *testing.T) {
	t.Parallel()

	db := openTempDB(t)
	sentinel := errors.New("insufficient tokens")
	calls := 0
	err := RunInTx(context.Background(), db, 5, func(ctx context.Context, tx *sql.Tx) error {
		calls++
		return sentinel
	})
	if err != sentinel {
		t.Fatalf("err = %v, want sentinel", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	db := openTempDB(t)
	err := RunInTx(context.Background(), db, 1, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (uid, role, token_balance, created_at, updated_at) VALUES ('u1', 'MEMBER', 5, 0, 0)`); err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if n := countRows(t, db, "users"); n != 0 {
		t.Fatalf("users = %d after rollback, want 0", n)
	}
}

func TestRunInTxStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	db := openTempDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RunInTx(ctx, db, 5, func(ctx context.Context, tx *sql.Tx) error {
		calls++
		cancel()
		return ErrConflict
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestIsDuplicateDetectsPrimaryKeyViolation(t *testing.T) {
	t.Parallel()

	db := openTempDB(t)
	insert := `INSERT INTO users (uid, role, token_balance, created_at, updated_at) VALUES ('u1', 'MEMBER', 0, 0, 0)`
	if _, err := db.Exec(insert); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := db.Exec(insert)
	if err == nil {
		t.Fatal("expected duplicate error")
	}
	if !IsDuplicate(err) {
		t.Fatalf("IsDuplicate(%v) = false, want true", err)
	}
	if Retryable(err) {
		t.Fatalf("Retryable(%v) = true, want false", err)
	}
}

func TestCheckConstraintIsNotDuplicate(t *testing.T) {
	t.Parallel()

	db := openTempDB(t)
	_, err := db.Exec(`INSERT INTO users (uid, role, token_balance, created_at, updated_at) VALUES ('u1', 'MEMBER', -1, 0, 0)`)
	if err == nil {
		t.Fatal("expected check constraint error")
	}
	if IsDuplicate(err) {
		t.Fatalf("IsDuplicate(%v) = true, want false", err)
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "conflict", err: ErrConflict, want: true},
		{name: "wrapped conflict", err: fmt.Errorf("insert rsvp: %w", ErrConflict), want: true},
		{name: "plain", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Errorf("%s: Retryable = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMillisRoundTripTruncatesToMilliseconds(t *testing.T) {
	t.Parallel()

	in := time.Date(2026, time.March, 4, 18, 30, 0, 123456789, time.UTC)
	got := FromMillis(ToMillis(in))
	if want := in.Truncate(time.Millisecond); !got.Equal(want) {
		t.Fatalf("round trip = %v, want %v", got, want)
	}
}

func TestForUpdate(t *testing.T) {
	t.Parallel()

	if got := MySQL.ForUpdate(); got != " FOR UPDATE" {
		t.Fatalf("mysql ForUpdate = %q", got)
	}
	if got := SQLite.ForUpdate(); got != "" {
		t.Fatalf("sqlite ForUpdate = %q", got)
	}
}
