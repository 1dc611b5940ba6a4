package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ulyban/contactbook/internal/auth/entity"
)

// SessionRepo provides data access for the sessions table using sqlx.
//
// The table holds at most one row per user (unique index on user_id). This is
// a single-device model: multi-device login would need a keyed collection of
// sessions per user instead of the replace semantics below.
type SessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

// EnsureTable creates the sessions table if not exists (idempotent).
func (r *SessionRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
  id varchar(32) PRIMARY KEY,
  user_id varchar(32) NOT NULL,
  access_token TEXT NOT NULL,
  refresh_token TEXT NOT NULL,
  access_token_valid_until TIMESTAMPTZ NOT NULL,
  refresh_token_valid_until TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_refresh_token ON sessions(refresh_token);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Replace deletes any existing session for the user and inserts the new one.
// Deletion precedes insertion so a crash in between leaves the user with zero
// sessions (forcing re-login), never with two.
func (r *SessionRepo) Replace(ctx context.Context, s *entity.Session) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id=$1`, s.UserID); err != nil {
		return err
	}
	const q = `INSERT INTO sessions (id, user_id, access_token, refresh_token,
	             access_token_valid_until, refresh_token_valid_until, created_at)
	           VALUES (:id, :user_id, :access_token, :refresh_token,
	             :access_token_valid_until, :refresh_token_valid_until, :created_at)`
	_, err := r.db.NamedExecContext(ctx, q, s)
	return err
}

// GetByRefreshToken fetches the session storing exactly this refresh token.
// Returns sql.ErrNoRows when no row matches.
func (r *SessionRepo) GetByRefreshToken(ctx context.Context, token string) (*entity.Session, error) {
	const q = `SELECT id, user_id, access_token, refresh_token,
	             access_token_valid_until, refresh_token_valid_until, created_at
	             FROM sessions WHERE refresh_token=$1`
	var row entity.Session
	if err := r.db.GetContext(ctx, &row, q, token); err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByUserID fetches the user's current session. Returns sql.ErrNoRows when
// the user has none.
func (r *SessionRepo) GetByUserID(ctx context.Context, userID string) (*entity.Session, error) {
	const q = `SELECT id, user_id, access_token, refresh_token,
	             access_token_valid_until, refresh_token_valid_until, created_at
	             FROM sessions WHERE user_id=$1`
	var row entity.Session
	if err := r.db.GetContext(ctx, &row, q, userID); err != nil {
		return nil, err
	}
	return &row, nil
}

// Rotate swaps the stored token pair in place on an existing row. The single
// UPDATE keeps the "exactly one row during refresh" property; returns affected
// rows so callers can detect a row deleted underneath them.
func (r *SessionRepo) Rotate(ctx context.Context, id, accessToken, refreshToken string, accessExp, refreshExp time.Time) (int64, error) {
	const q = `UPDATE sessions SET access_token=$2, refresh_token=$3,
	             access_token_valid_until=$4, refresh_token_valid_until=$5
	           WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, accessToken, refreshToken, accessExp, refreshExp)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByID removes a session row. Returns affected rows.
func (r *SessionRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByUserID removes the user's session row if any. Returns affected rows.
func (r *SessionRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id=$1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
