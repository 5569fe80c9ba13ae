package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// ErrConflict marks a write that lost a race with a concurrent transaction,
// for example an insert colliding on a natural key. RunInTx retries it.
var ErrConflict = errors.New("write conflict")

// ErrRetriesExhausted is returned by RunInTx when every attempt ended in a
// retryable conflict.
var ErrRetriesExhausted = errors.New("transaction retries exhausted")

// DefaultAttempts is the retry budget used when the caller passes zero.
const DefaultAttempts = 5

// TxFunc is the body of a transaction. It may run more than once for one
// RunInTx call, so every write must be derived from reads made through tx
// during the same invocation.
type TxFunc func(ctx context.Context, tx *sql.Tx) error

// RunInTx executes fn inside a transaction and commits it. When fn, begin or
// commit fail with a retryable error the transaction is rolled back and fn
// is invoked again against fresh state. Non-retryable errors from fn are
// returned unchanged so callers can match sentinel values.
func RunInTx(ctx context.Context, db *sql.DB, attempts int, fn TxFunc) error {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := sleepCtx(ctx, backoff(i)); err != nil {
				return err
			}
		}
		err := runOnce(ctx, db, fn)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, attempts, lastErr)
}

func runOnce(ctx context.Context, db *sql.DB, fn TxFunc) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(ctx, tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Retryable reports whether err is a transient concurrency failure: a MySQL
// deadlock or lock wait timeout, a busy/locked SQLite database, or
// ErrConflict.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrConflict) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1213, 1205: // ER_LOCK_DEADLOCK, ER_LOCK_WAIT_TIMEOUT
			return true
		}
		return false
	}
	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

// IsDuplicate reports whether err is a primary or unique key violation.
func IsDuplicate(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 // ER_DUP_ENTRY
	}
	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		case sqlite3lib.SQLITE_CONSTRAINT:
			// extended result codes disabled
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}

func backoff(attempt int) time.Duration {
	return time.Duration(attempt*attempt) * 5 * time.Millisecond
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
