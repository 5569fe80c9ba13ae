package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/club-membership/internal/database"
	"github.com/iliyamo/club-membership/internal/model"
)

// MemberRepo provides access to the users table. Balances are only changed
// inside transactions via AdjustBalanceTx.
type MemberRepo struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewMemberRepo returns a MemberRepo bound to db.
func NewMemberRepo(db *sql.DB, d database.Dialect) *MemberRepo {
	return &MemberRepo{db: db, dialect: d}
}

const memberColumns = `uid, email, first_name, last_name, photo_url, role, token_balance, is_active, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (model.Member, error) {
	var (
		m                model.Member
		photo            sql.NullString
		created, updated int64
	)
	if err := row.Scan(&m.UID, &m.Email, &m.FirstName, &m.LastName, &photo, &m.Role,
		&m.TokenBalance, &m.IsActive, &created, &updated); err != nil {
		return model.Member{}, err
	}
	if photo.Valid {
		m.PhotoURL = &photo.String
	}
	m.CreatedAt = database.FromMillis(created)
	m.UpdatedAt = database.FromMillis(updated)
	return m, nil
}

// Get returns a member by uid or ErrNotFound.
func (r *MemberRepo) Get(ctx context.Context, uid string) (model.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM users WHERE uid = ?`, uid))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, ErrNotFound
	}
	return m, err
}

// List returns every member, newest first.
func (r *MemberRepo) List(ctx context.Context) ([]model.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM users ORDER BY created_at DESC, uid ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()
	var out []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetForUpdateTx reads a member row inside tx, locking it on engines that
// support row locks. It returns ErrNotFound when the row is absent.
func (r *MemberRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, uid string) (model.Member, error) {
	m, err := scanMember(tx.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM users WHERE uid = ?`+r.dialect.ForUpdate(), uid))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, ErrNotFound
	}
	return m, err
}

// Create inserts a new member. It returns ErrConflict if the uid exists.
func (r *MemberRepo) Create(ctx context.Context, m model.Member) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	if m.Role == "" {
		m.Role = model.RoleMember
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.UID, strings.ToLower(strings.TrimSpace(m.Email)), m.FirstName, m.LastName, m.PhotoURL,
		m.Role, m.TokenBalance, m.IsActive, database.ToMillis(m.CreatedAt), database.ToMillis(m.UpdatedAt))
	if err != nil {
		if database.IsDuplicate(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// Touch refreshes updated_at for a member that logged in again.
func (r *MemberRepo) Touch(ctx context.Context, uid string) error {
	return r.execOne(ctx, `UPDATE users SET updated_at = ? WHERE uid = ?`,
		database.ToMillis(time.Now()), uid)
}

// UpdateRole changes a member's role.
func (r *MemberRepo) UpdateRole(ctx context.Context, uid, role string) error {
	return r.execOne(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE uid = ?`,
		role, database.ToMillis(time.Now()), uid)
}

// AdjustBalanceTx adds delta (which may be negative) to a member's balance
// inside tx. Callers must have checked that the result stays non-negative.
func (r *MemberRepo) AdjustBalanceTx(ctx context.Context, tx *sql.Tx, uid string, delta int64, at time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET token_balance = token_balance + ?, updated_at = ? WHERE uid = ?`,
		delta, database.ToMillis(at), uid)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MemberRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
