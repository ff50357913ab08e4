package entity

import "time"

// User is the per-user account row. Rows are created lazily by the first
// mutating operation on any registry; the core never deletes them.
type User struct {
	UserID      string     `db:"user_id" json:"user_id"`
	LicenseCode *string    `db:"license_code" json:"license_code,omitempty"`
	ValidatedAt *time.Time `db:"validated_at" json:"validated_at,omitempty"`
	Active      bool       `db:"active" json:"active"`
}
