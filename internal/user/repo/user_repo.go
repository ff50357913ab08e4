package repo

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/telefeed/state-core/internal/user/entity"
)

// UserRepo provides data access for the users table.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  user_id varchar(32) PRIMARY KEY,
  license_code TEXT,
  validated_at TIMESTAMPTZ,
  active BOOLEAN NOT NULL DEFAULT false
);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// EnsureExists inserts an inactive placeholder row for the user unless one is
// already present. It runs against the caller's transaction so lazy creation
// commits together with the write that triggered it.
func (r *UserRepo) EnsureExists(ctx context.Context, ext sqlx.ExtContext, userID string) error {
	const q = `INSERT INTO users (user_id, active) VALUES ($1, false) ON CONFLICT (user_id) DO NOTHING`
	_, err := ext.ExecContext(ctx, q, userID)
	return err
}

// UpsertLicense records a validated license for the user, creating the row if
// needed and activating it either way.
func (r *UserRepo) UpsertLicense(ctx context.Context, userID, licenseCode string, validatedAt time.Time) error {
	const q = `INSERT INTO users (user_id, license_code, validated_at, active)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (user_id) DO UPDATE
		SET license_code = EXCLUDED.license_code, validated_at = EXCLUDED.validated_at, active = true`
	_, err := r.db.ExecContext(ctx, q, userID, licenseCode, validatedAt)
	return err
}

// GetByID returns the user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	const q = `SELECT user_id, license_code, validated_at, active FROM users WHERE user_id = $1`
	var u entity.User
	if err := r.db.GetContext(ctx, &u, q, userID); err != nil {
		return nil, err
	}
	return &u, nil
}
