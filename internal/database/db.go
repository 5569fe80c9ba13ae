package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL engine behind a *sql.DB. Repositories use it for the
// few statements whose syntax differs between engines.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// ForUpdate returns the row-lock suffix for SELECTs inside a transaction.
// SQLite has no row locks; its single writer connection serializes
// transactions instead.
func (d Dialect) ForUpdate() string {
	if d == MySQL {
		return " FOR UPDATE"
	}
	return ""
}

// Options selects and addresses the ledger database.
type Options struct {
	Driver string // "mysql" or "sqlite"
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
	Path   string // sqlite file path
}

// Open connects to the configured engine, verifies the connection and
// applies the schema.
func Open(o Options) (*sql.DB, Dialect, error) {
	var (
		db  *sql.DB
		d   Dialect
		err error
	)
	switch strings.ToLower(o.Driver) {
	case "", string(MySQL):
		d = MySQL
		db, err = OpenMySQL(o.User, o.Pass, o.Host, o.Port, o.Name)
	case string(SQLite):
		d = SQLite
		db, err = OpenSQLite(o.Path)
	default:
		return nil, "", fmt.Errorf("unsupported db driver %q", o.Driver)
	}
	if err != nil {
		return nil, "", err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := Migrate(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, "", err
	}
	return db, d, nil
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens an embedded database file. The pool is capped at one
// connection so write transactions never overlap.
func OpenSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return db, nil
}

// ToMillis and FromMillis convert between time.Time and the BIGINT epoch
// millisecond columns used by every table.
func ToMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func FromMillis(v int64) time.Time { return time.UnixMilli(v).UTC() }
