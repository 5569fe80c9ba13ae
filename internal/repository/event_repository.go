package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/club-membership/internal/database"
	"github.com/iliyamo/club-membership/internal/model"
)

// EventRepo provides access to the events table. The confirmed and waitlist
// counters are written only through the ...Tx increment methods.
type EventRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewEventRepo returns an EventRepo bound to db.
func NewEventRepo(db *sql.DB, d database.Dialect) *EventRepo {
	return &EventRepo{db: db, dialect: d}
}

// DB exposes the underlying handle so callers can open transactions.
func (r *EventRepo) DB() *sql.DB { return r.db }

// Dialect reports the engine the repository was opened against.
func (r *EventRepo) Dialect() database.Dialect { return r.dialect }

const eventColumns = `id, title, description, category, sport_id, start_time, end_time, capacity,
	tokens_required, confirmed_count, waitlist_count, status, is_public, created_by, created_at`

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var (
		e                     model.Event
		desc, createdBy       sql.NullString
		start, end, createdAt int64
	)
	if err := row.Scan(&e.ID, &e.Title, &desc, &e.Category, &e.SportID, &start, &end, &e.Capacity,
		&e.TokensRequired, &e.ConfirmedCount, &e.WaitlistCount, &e.Status, &e.IsPublic, &createdBy, &createdAt); err != nil {
		return model.Event{}, err
	}
	if desc.Valid {
		e.Description = &desc.String
	}
	if createdBy.Valid {
		e.CreatedBy = &createdBy.String
	}
	e.StartTime = database.FromMillis(start)
	e.EndTime = database.FromMillis(end)
	e.CreatedAt = database.FromMillis(createdAt)
	return e, nil
}

// Create inserts a new event with zeroed counters. A uuid is assigned when
// e.ID is empty; a supplied id must not contain "_" so RSVP ids stay
// unambiguous. The stored event is returned.
func (r *EventRepo) Create(ctx context.Context, e model.Event) (model.Event, error) {
	switch {
	case e.ID == "":
		e.ID = uuid.New().String()
	case strings.Contains(e.ID, "_"):
		return model.Event{}, ErrInvalidID
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.ConfirmedCount, e.WaitlistCount = 0, 0
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.Category, e.SportID,
		database.ToMillis(e.StartTime), database.ToMillis(e.EndTime), e.Capacity,
		e.TokensRequired, e.ConfirmedCount, e.WaitlistCount, e.Status, e.IsPublic, e.CreatedBy,
		database.ToMillis(e.CreatedAt))
	if err != nil {
		if database.IsDuplicate(err) {
			return model.Event{}, ErrConflict
		}
		return model.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// Get returns an event by id or ErrNotFound.
func (r *EventRepo) Get(ctx context.Context, id string) (model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	return e, err
}

// GetForUpdateTx reads an event inside tx, locking the row on engines that
// support it so concurrent admissions for one event serialize here.
func (r *EventRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (model.Event, error) {
	e, err := scanEvent(tx.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`+r.dialect.ForUpdate(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	return e, err
}

// List returns events ordered by start time. When visibleOnly is set only
// published public events are returned.
func (r *EventRepo) List(ctx context.Context, visibleOnly bool) ([]model.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events`
	var args []any
	if visibleOnly {
		q += ` WHERE is_public = ? AND status = ?`
		args = append(args, true, model.EventPublished)
	}
	q += ` ORDER BY start_time ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// IncrementConfirmedTx bumps confirmed_count by one. The capacity guard in
// the WHERE clause backs up the caller's own check.
func (r *EventRepo) IncrementConfirmedTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE events SET confirmed_count = confirmed_count + 1 WHERE id = ? AND confirmed_count < capacity`, id)
	if err != nil {
		return fmt.Errorf("increment confirmed_count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrConflict
	}
	return nil
}

// IncrementWaitlistTx bumps waitlist_count by one.
func (r *EventRepo) IncrementWaitlistTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE events SET waitlist_count = waitlist_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("increment waitlist_count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ErrCapacityBelowConfirmed is returned by Update when the new capacity is
// smaller than the seats already confirmed.
var ErrCapacityBelowConfirmed = errors.New("capacity below confirmed count")

// ErrEventHasRSVPs is returned by Delete while the event still has confirmed
// or waitlisted members.
var ErrEventHasRSVPs = errors.New("event has active rsvps")

// Update overwrites the editable columns of an event. The counters are never
// written here, and the capacity guard in the WHERE clause keeps a
// concurrent admission from being stranded above the new capacity.
func (r *EventRepo) Update(ctx context.Context, e model.Event) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, category = ?, sport_id = ?, start_time = ?, end_time = ?,
		        capacity = ?, tokens_required = ?, status = ?, is_public = ?
		 WHERE id = ? AND confirmed_count <= ?`,
		e.Title, e.Description, e.Category, e.SportID,
		database.ToMillis(e.StartTime), database.ToMillis(e.EndTime),
		e.Capacity, e.TokensRequired, e.Status, e.IsPublic, e.ID, e.Capacity)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if _, err := r.Get(ctx, e.ID); err != nil {
		return err
	}
	return ErrCapacityBelowConfirmed
}

// Delete removes an event that nobody holds a claim on, together with any
// cancelled RSVP rows left for it.
func (r *EventRepo) Delete(ctx context.Context, id string) error {
	return database.RunInTx(ctx, r.db, 0, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM events WHERE id = ? AND confirmed_count = 0 AND waitlist_count = 0`, id)
		if err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, id).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("lookup event: %w", err)
			}
			return ErrEventHasRSVPs
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM event_rsvps WHERE event_id = ?`, id); err != nil {
			return fmt.Errorf("delete event rsvps: %w", err)
		}
		return nil
	})
}
