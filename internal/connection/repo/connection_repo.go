package repo

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/telefeed/state-core/internal/connection/entity"
)

// ConnectionRepo provides data access for the connections table.
type ConnectionRepo struct {
	db *sqlx.DB
}

func NewConnectionRepo(db *sqlx.DB) *ConnectionRepo { return &ConnectionRepo{db: db} }

// EnsureTable creates the connections table and its index if not exists (idempotent).
func (r *ConnectionRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS connections (
  id varchar(32) PRIMARY KEY,
  user_id varchar(32) NOT NULL,
  phone_number varchar(32) NOT NULL,
  connected_at TIMESTAMPTZ NOT NULL,
  active BOOLEAN NOT NULL DEFAULT true,
  replaced_at varchar(32) NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_connections_user_phone ON connections (user_id, phone_number);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// DeleteByUserPhone removes the connection row for (user, phone), if any.
func (r *ConnectionRepo) DeleteByUserPhone(ctx context.Context, ext sqlx.ExtContext, userID, phone string) error {
	const q = `DELETE FROM connections WHERE user_id = $1 AND phone_number = $2`
	_, err := ext.ExecContext(ctx, q, userID, phone)
	return err
}

// Insert adds a new connection row.
func (r *ConnectionRepo) Insert(ctx context.Context, ext sqlx.ExtContext, c *entity.Connection) error {
	const q = `INSERT INTO connections (id, user_id, phone_number, connected_at, active, replaced_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := ext.ExecContext(ctx, q, c.ID, c.UserID, c.PhoneNumber, c.ConnectedAt, c.Active, c.ReplacedAt)
	return err
}

// ListByUser returns all connection rows for the user, order not significant.
func (r *ConnectionRepo) ListByUser(ctx context.Context, userID string) ([]entity.Connection, error) {
	const q = `SELECT id, user_id, phone_number, connected_at, active, replaced_at
		FROM connections WHERE user_id = $1`
	var rows []entity.Connection
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	return rows, nil
}
