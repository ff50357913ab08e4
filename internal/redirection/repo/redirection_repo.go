package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/telefeed/state-core/internal/redirection/entity"
)

// RedirectionRepo provides data access for the redirections table.
type RedirectionRepo struct {
	db *sqlx.DB
}

func NewRedirectionRepo(db *sqlx.DB) *RedirectionRepo { return &RedirectionRepo{db: db} }

// EnsureTable creates the redirections table and its indexes if not exists (idempotent).
func (r *RedirectionRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS redirections (
  id varchar(32) PRIMARY KEY,
  user_id varchar(32) NOT NULL,
  name TEXT NOT NULL,
  phone_number varchar(32) NOT NULL,
  channel_name TEXT NOT NULL,
  source_id TEXT,
  destination_id TEXT,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ,
  replaced_at varchar(32) NOT NULL DEFAULT '',
  active BOOLEAN NOT NULL DEFAULT true,
  replacement_info TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_redirections_user_phone ON redirections (user_id, phone_number);
CREATE INDEX IF NOT EXISTS idx_redirections_user_name ON redirections (user_id, name);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const selectCols = `id, user_id, name, phone_number, channel_name, source_id, destination_id,
		created_at, updated_at, replaced_at, active, replacement_info`

// FindActiveByUserPhone returns the active redirection for (user, phone)
// or sql.ErrNoRows.
func (r *RedirectionRepo) FindActiveByUserPhone(ctx context.Context, ext sqlx.ExtContext, userID, phone string) (*entity.Redirection, error) {
	q := `SELECT ` + selectCols + ` FROM redirections
		WHERE user_id = $1 AND phone_number = $2 AND active = true LIMIT 1`
	var red entity.Redirection
	if err := sqlx.GetContext(ctx, ext, &red, q, userID, phone); err != nil {
		return nil, err
	}
	return &red, nil
}

// FindFirstByUserName returns the first redirection matching (user, name),
// irrespective of phone number or active flag, or sql.ErrNoRows.
func (r *RedirectionRepo) FindFirstByUserName(ctx context.Context, ext sqlx.ExtContext, userID, name string) (*entity.Redirection, error) {
	q := `SELECT ` + selectCols + ` FROM redirections
		WHERE user_id = $1 AND name = $2 ORDER BY created_at LIMIT 1`
	var red entity.Redirection
	if err := sqlx.GetContext(ctx, ext, &red, q, userID, name); err != nil {
		return nil, err
	}
	return &red, nil
}

// Insert adds a new redirection row.
func (r *RedirectionRepo) Insert(ctx context.Context, ext sqlx.ExtContext, red *entity.Redirection) error {
	const q = `INSERT INTO redirections (id, user_id, name, phone_number, channel_name, source_id,
		destination_id, created_at, updated_at, replaced_at, active, replacement_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := ext.ExecContext(ctx, q, red.ID, red.UserID, red.Name, red.PhoneNumber, red.ChannelName,
		red.SourceID, red.DestinationID, red.CreatedAt, red.UpdatedAt, red.ReplacedAt, red.Active, red.ReplacementInfo)
	return err
}

// DeleteByID removes a redirection row by primary key.
func (r *RedirectionRepo) DeleteByID(ctx context.Context, ext sqlx.ExtContext, id string) error {
	const q = `DELETE FROM redirections WHERE id = $1`
	_, err := ext.ExecContext(ctx, q, id)
	return err
}

// UpdateByID rewrites the mutable fields of a rule in place (the "change"
// action). Name and created_at are part of the rule's identity and stay put.
func (r *RedirectionRepo) UpdateByID(ctx context.Context, ext sqlx.ExtContext, id, phone, channelName string, sourceID, destinationID *string, updatedAt time.Time) error {
	const q = `UPDATE redirections
		SET phone_number = $2, channel_name = $3, source_id = $4, destination_id = $5, updated_at = $6
		WHERE id = $1`
	_, err := ext.ExecContext(ctx, q, id, phone, channelName, sourceID, destinationID, updatedAt)
	return err
}

// ReplaceActive installs red as the single active redirection for its
// (user, phone) pair: any existing active rule is deleted first and its name
// recorded in red.ReplacementInfo. Must run inside the caller's transaction
// so readers never observe zero or two active rules for the pair.
func (r *RedirectionRepo) ReplaceActive(ctx context.Context, ext sqlx.ExtContext, red *entity.Redirection) error {
	existing, err := r.FindActiveByUserPhone(ctx, ext, red.UserID, red.PhoneNumber)
	switch {
	case err == nil:
		red.ReplacementInfo = fmt.Sprintf(" (remplacé: %s)", existing.Name)
		if err := r.DeleteByID(ctx, ext, existing.ID); err != nil {
			return fmt.Errorf("delete replaced redirection: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		red.ReplacementInfo = ""
	default:
		return fmt.Errorf("find active redirection: %w", err)
	}
	return r.Insert(ctx, ext, red)
}

// ListActiveByUserPhone returns all active redirections for (user, phone).
func (r *RedirectionRepo) ListActiveByUserPhone(ctx context.Context, userID, phone string) ([]entity.Redirection, error) {
	q := `SELECT ` + selectCols + ` FROM redirections
		WHERE user_id = $1 AND phone_number = $2 AND active = true`
	var rows []entity.Redirection
	if err := r.db.SelectContext(ctx, &rows, q, userID, phone); err != nil {
		return nil, err
	}
	return rows, nil
}
