package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ulyban/contactbook/internal/contact/entity"
)

// ContactRepo provides data access for the contacts table using sqlx.
type ContactRepo struct {
	db *sqlx.DB
}

func NewContactRepo(db *sqlx.DB) *ContactRepo { return &ContactRepo{db: db} }

// EnsureTable creates the contacts table if not exists (idempotent).
func (r *ContactRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS contacts (
  id varchar(32) PRIMARY KEY,
  user_id varchar(32) NOT NULL,
  name TEXT NOT NULL,
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_contacts_user_id ON contacts(user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

func (r *ContactRepo) Create(ctx context.Context, c *entity.Contact) error {
	const q = `INSERT INTO contacts (id, user_id, name, email, phone, created_at, updated_at)
	           VALUES (:id, :user_id, :name, :email, :phone, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, q, c)
	return err
}

// GetByID fetches a contact scoped to its owner. Returns sql.ErrNoRows when
// absent or owned by someone else.
func (r *ContactRepo) GetByID(ctx context.Context, id, userID string) (*entity.Contact, error) {
	const q = `SELECT id, user_id, name, email, phone, created_at, updated_at
	             FROM contacts WHERE id=$1 AND user_id=$2`
	var row entity.Contact
	if err := r.db.GetContext(ctx, &row, q, id, userID); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByUser returns the owner's contacts, newest first.
func (r *ContactRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Contact, error) {
	const q = `SELECT id, user_id, name, email, phone, created_at, updated_at
	             FROM contacts WHERE user_id=$1 ORDER BY created_at DESC`
	var rows []*entity.Contact
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

// Update rewrites the mutable fields of an owned contact. Returns affected
// rows; 0 means absent or foreign-owned.
func (r *ContactRepo) Update(ctx context.Context, c *entity.Contact) (int64, error) {
	const q = `UPDATE contacts SET name=$3, email=$4, phone=$5, updated_at=$6
	           WHERE id=$1 AND user_id=$2`
	res, err := r.db.ExecContext(ctx, q, c.ID, c.UserID, c.Name, c.Email, c.Phone, c.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes an owned contact. Returns affected rows.
func (r *ContactRepo) Delete(ctx context.Context, id, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
