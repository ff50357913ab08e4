package entity

import "time"

// PendingRedirection is a provisional rule request recorded before its channel
// identifiers are resolved. At most one exists per user; a new one silently
// discards the previous.
type PendingRedirection struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
