package entity

import "time"

// Connection links a phone number to a user. At most one row exists per
// (user_id, phone_number); storing again replaces the row.
type Connection struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	ConnectedAt time.Time `db:"connected_at" json:"connected_at"`
	Active      bool      `db:"active" json:"active"`
	// ReplacedAt is legacy DD/MM/YYYY HH:MM:SS text, not a timestamp column.
	ReplacedAt string `db:"replaced_at" json:"replaced_at"`
}
