package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/telefeed/state-core/internal/pending/entity"
)

// PendingRepo provides data access for the pending_redirections table.
type PendingRepo struct {
	db *sqlx.DB
}

func NewPendingRepo(db *sqlx.DB) *PendingRepo { return &PendingRepo{db: db} }

// EnsureTable creates the pending_redirections table if not exists (idempotent).
// The unique index backs the at-most-one-per-user invariant.
func (r *PendingRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS pending_redirections (
  id varchar(32) PRIMARY KEY,
  user_id varchar(32) NOT NULL,
  name TEXT NOT NULL,
  phone_number varchar(32) NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_pending_redirections_user ON pending_redirections (user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// GetByUser returns the user's pending entry or sql.ErrNoRows.
func (r *PendingRepo) GetByUser(ctx context.Context, ext sqlx.ExtContext, userID string) (*entity.PendingRedirection, error) {
	const q = `SELECT id, user_id, name, phone_number, created_at
		FROM pending_redirections WHERE user_id = $1`
	var p entity.PendingRedirection
	if err := sqlx.GetContext(ctx, ext, &p, q, userID); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteByUser removes the user's pending entry, if any.
func (r *PendingRepo) DeleteByUser(ctx context.Context, ext sqlx.ExtContext, userID string) error {
	const q = `DELETE FROM pending_redirections WHERE user_id = $1`
	_, err := ext.ExecContext(ctx, q, userID)
	return err
}

// Insert adds a new pending entry.
func (r *PendingRepo) Insert(ctx context.Context, ext sqlx.ExtContext, p *entity.PendingRedirection) error {
	const q = `INSERT INTO pending_redirections (id, user_id, name, phone_number, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := ext.ExecContext(ctx, q, p.ID, p.UserID, p.Name, p.PhoneNumber, p.CreatedAt)
	return err
}
