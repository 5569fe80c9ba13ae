package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Timestamps are stored as epoch milliseconds so both engines scan them the
// same way.
var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		uid           VARCHAR(128) NOT NULL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL DEFAULT '',
		first_name    VARCHAR(100) NOT NULL DEFAULT '',
		last_name     VARCHAR(100) NOT NULL DEFAULT '',
		photo_url     VARCHAR(1024) NULL,
		role          VARCHAR(20)  NOT NULL DEFAULT 'MEMBER',
		token_balance BIGINT       NOT NULL DEFAULT 0,
		is_active     TINYINT(1)   NOT NULL DEFAULT 1,
		created_at    BIGINT       NOT NULL,
		updated_at    BIGINT       NOT NULL,
		CHECK (token_balance >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
		id              VARCHAR(64)  NOT NULL PRIMARY KEY,
		title           VARCHAR(255) NOT NULL,
		description     TEXT NULL,
		category        VARCHAR(32)  NOT NULL DEFAULT 'WEEKLY_SPORTS',
		sport_id        VARCHAR(64)  NOT NULL,
		start_time      BIGINT       NOT NULL,
		end_time        BIGINT       NOT NULL,
		capacity        BIGINT       NOT NULL,
		tokens_required BIGINT       NOT NULL DEFAULT 0,
		confirmed_count BIGINT       NOT NULL DEFAULT 0,
		waitlist_count  BIGINT       NOT NULL DEFAULT 0,
		status          VARCHAR(16)  NOT NULL DEFAULT 'DRAFT',
		is_public       TINYINT(1)   NOT NULL DEFAULT 0,
		created_by      VARCHAR(128) NULL,
		created_at      BIGINT       NOT NULL,
		KEY idx_events_start (start_time),
		CHECK (capacity > 0),
		CHECK (confirmed_count <= capacity)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS event_rsvps (
		id                VARCHAR(200) NOT NULL PRIMARY KEY,
		event_id          VARCHAR(64)  NOT NULL,
		user_id           VARCHAR(128) NOT NULL,
		status            VARCHAR(16)  NOT NULL,
		waitlist_position BIGINT NULL,
		attended          TINYINT(1)   NOT NULL DEFAULT 0,
		created_at        BIGINT       NOT NULL,
		updated_at        BIGINT       NOT NULL,
		UNIQUE KEY uq_rsvp_event_user (event_id, user_id),
		KEY idx_rsvp_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS token_transactions (
		id          VARCHAR(64)  NOT NULL PRIMARY KEY,
		user_id     VARCHAR(128) NOT NULL,
		type        VARCHAR(8)   NOT NULL,
		amount      BIGINT       NOT NULL,
		description VARCHAR(512) NULL,
		event_id    VARCHAR(64)  NULL,
		created_at  BIGINT       NOT NULL,
		KEY idx_token_tx_user (user_id, created_at),
		CHECK (amount > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		uid           TEXT    NOT NULL PRIMARY KEY,
		email         TEXT    NOT NULL DEFAULT '',
		first_name    TEXT    NOT NULL DEFAULT '',
		last_name     TEXT    NOT NULL DEFAULT '',
		photo_url     TEXT    NULL,
		role          TEXT    NOT NULL DEFAULT 'MEMBER',
		token_balance INTEGER NOT NULL DEFAULT 0 CHECK (token_balance >= 0),
		is_active     INTEGER NOT NULL DEFAULT 1,
		created_at    INTEGER NOT NULL,
		updated_at    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id              TEXT    NOT NULL PRIMARY KEY,
		title           TEXT    NOT NULL,
		description     TEXT    NULL,
		category        TEXT    NOT NULL DEFAULT 'WEEKLY_SPORTS',
		sport_id        TEXT    NOT NULL,
		start_time      INTEGER NOT NULL,
		end_time        INTEGER NOT NULL,
		capacity        INTEGER NOT NULL CHECK (capacity > 0),
		tokens_required INTEGER NOT NULL DEFAULT 0,
		confirmed_count INTEGER NOT NULL DEFAULT 0,
		waitlist_count  INTEGER NOT NULL DEFAULT 0,
		status          TEXT    NOT NULL DEFAULT 'DRAFT',
		is_public       INTEGER NOT NULL DEFAULT 0,
		created_by      TEXT    NULL,
		created_at      INTEGER NOT NULL,
		CHECK (confirmed_count <= capacity)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_start ON events (start_time)`,
	`CREATE TABLE IF NOT EXISTS event_rsvps (
		id                TEXT    NOT NULL PRIMARY KEY,
		event_id          TEXT    NOT NULL,
		user_id           TEXT    NOT NULL,
		status            TEXT    NOT NULL,
		waitlist_position INTEGER NULL,
		attended          INTEGER NOT NULL DEFAULT 0,
		created_at        INTEGER NOT NULL,
		updated_at        INTEGER NOT NULL,
		UNIQUE (event_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rsvp_user ON event_rsvps (user_id)`,
	`CREATE TABLE IF NOT EXISTS token_transactions (
		id          TEXT    NOT NULL PRIMARY KEY,
		user_id     TEXT    NOT NULL,
		type        TEXT    NOT NULL,
		amount      INTEGER NOT NULL CHECK (amount > 0),
		description TEXT    NULL,
		event_id    TEXT    NULL,
		created_at  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_token_tx_user ON token_transactions (user_id, created_at)`,
}

// Migrate creates any missing tables. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	stmts := mysqlSchema
	if d == SQLite {
		stmts = sqliteSchema
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
