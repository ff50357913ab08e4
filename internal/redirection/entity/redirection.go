package entity

import "time"

// Redirection is a named forwarding rule routing messages from a source
// channel to a destination channel, scoped to one user and phone session.
// At most one active row exists per (user_id, phone_number); adding another
// replaces the old one and records its name in ReplacementInfo.
type Redirection struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	Name          string     `db:"name" json:"name"`
	PhoneNumber   string     `db:"phone_number" json:"phone_number"`
	ChannelName   string     `db:"channel_name" json:"channel_name"`
	SourceID      *string    `db:"source_id" json:"source_id,omitempty"`
	DestinationID *string    `db:"destination_id" json:"destination_id,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`
	// ReplacedAt is legacy DD/MM/YYYY HH:MM:SS text, not a timestamp column.
	ReplacedAt      string `db:"replaced_at" json:"replaced_at"`
	Active          bool   `db:"active" json:"active"`
	ReplacementInfo string `db:"replacement_info" json:"replacement_info"`
}
