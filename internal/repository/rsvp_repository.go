package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/club-membership/internal/database"
	"github.com/iliyamo/club-membership/internal/model"
)

// RSVPRepo provides access to the event_rsvps table. Rows are keyed by the
// deterministic id eventID_userID, and (event_id, user_id) is unique, so a
// member can never hold two rows for one event.
type RSVPRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewRSVPRepo returns an RSVPRepo bound to db.
func NewRSVPRepo(db *sql.DB, d database.Dialect) *RSVPRepo {
	return &RSVPRepo{db: db, dialect: d}
}

// AttendeeView is an RSVP joined with the display fields of its member.
// Member is nil when the users row is missing.
type AttendeeView struct {
	RSVP   model.RSVP
	Member *AttendeeMember
}

// AttendeeMember carries the presentation fields shown next to an RSVP.
type AttendeeMember struct {
	FirstName string
	LastName  string
	Email     string
	PhotoURL  *string
}

const rsvpColumns = `id, event_id, user_id, status, waitlist_position, attended, created_at, updated_at`

func scanRSVP(row interface{ Scan(...any) error }) (model.RSVP, error) {
	var (
		rv               model.RSVP
		pos              sql.NullInt64
		created, updated int64
	)
	if err := row.Scan(&rv.ID, &rv.EventID, &rv.UserID, &rv.Status, &pos, &rv.Attended, &created, &updated); err != nil {
		return model.RSVP{}, err
	}
	if pos.Valid {
		p := pos.Int64
		rv.WaitlistPosition = &p
	}
	rv.CreatedAt = database.FromMillis(created)
	rv.UpdatedAt = database.FromMillis(updated)
	return rv, nil
}

// GetForUpdateTx reads the RSVP a member holds for an event inside tx. It
// returns ErrNotFound when the member never RSVP'd.
func (r *RSVPRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, eventID, userID string) (model.RSVP, error) {
	rv, err := scanRSVP(tx.QueryRowContext(ctx,
		`SELECT `+rsvpColumns+` FROM event_rsvps WHERE id = ?`+r.dialect.ForUpdate(),
		model.RSVPID(eventID, userID)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.RSVP{}, ErrNotFound
	}
	return rv, err
}

// InsertTx creates the RSVP row. A duplicate key means a concurrent
// transaction inserted the same pair first; it is reported as
// database.ErrConflict so the transaction is re-run and observes that row.
func (r *RSVPRepo) InsertTx(ctx context.Context, tx *sql.Tx, rv model.RSVP) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO event_rsvps (`+rsvpColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		model.RSVPID(rv.EventID, rv.UserID), rv.EventID, rv.UserID, rv.Status, rv.WaitlistPosition,
		rv.Attended, database.ToMillis(rv.CreatedAt), database.ToMillis(rv.UpdatedAt))
	if err != nil {
		if database.IsDuplicate(err) {
			return fmt.Errorf("insert rsvp: %w", database.ErrConflict)
		}
		return fmt.Errorf("insert rsvp: %w", err)
	}
	return nil
}

// OverwriteTx replaces an existing row in place, keeping its id.
func (r *RSVPRepo) OverwriteTx(ctx context.Context, tx *sql.Tx, rv model.RSVP) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE event_rsvps SET status = ?, waitlist_position = ?, attended = ?, created_at = ?, updated_at = ?
		 WHERE id = ?`,
		rv.Status, rv.WaitlistPosition, rv.Attended, database.ToMillis(rv.CreatedAt),
		database.ToMillis(rv.UpdatedAt), model.RSVPID(rv.EventID, rv.UserID))
	if err != nil {
		return fmt.Errorf("overwrite rsvp: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("overwrite rsvp: %w", database.ErrConflict)
	}
	return nil
}

// ListByEvent returns all RSVPs for an event, newest first, joined with the
// member display fields.
func (r *RSVPRepo) ListByEvent(ctx context.Context, eventID string) ([]AttendeeView, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.event_id, r.user_id, r.status, r.waitlist_position, r.attended, r.created_at, r.updated_at,
		        u.uid, u.first_name, u.last_name, u.email, u.photo_url
		 FROM event_rsvps r
		 LEFT JOIN users u ON u.uid = r.user_id
		 WHERE r.event_id = ?
		 ORDER BY r.created_at DESC, r.id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list rsvps: %w", err)
	}
	defer rows.Close()
	var out []AttendeeView
	for rows.Next() {
		var (
			v                AttendeeView
			pos              sql.NullInt64
			created, updated int64
			uid, first, last sql.NullString
			email, photo     sql.NullString
		)
		if err := rows.Scan(&v.RSVP.ID, &v.RSVP.EventID, &v.RSVP.UserID, &v.RSVP.Status, &pos,
			&v.RSVP.Attended, &created, &updated, &uid, &first, &last, &email, &photo); err != nil {
			return nil, fmt.Errorf("scan rsvp: %w", err)
		}
		if pos.Valid {
			p := pos.Int64
			v.RSVP.WaitlistPosition = &p
		}
		v.RSVP.CreatedAt = database.FromMillis(created)
		v.RSVP.UpdatedAt = database.FromMillis(updated)
		if uid.Valid {
			v.Member = &AttendeeMember{FirstName: first.String, LastName: last.String, Email: email.String}
			if photo.Valid {
				v.Member.PhotoURL = &photo.String
			}
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListByUser returns the member's RSVPs, newest first.
func (r *RSVPRepo) ListByUser(ctx context.Context, userID string) ([]model.RSVP, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+rsvpColumns+` FROM event_rsvps WHERE user_id = ? ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list member rsvps: %w", err)
	}
	defer rows.Close()
	var out []model.RSVP
	for rows.Next() {
		rv, err := scanRSVP(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rsvp: %w", err)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
