package utilities

import "time"

// ReplacedAtLayout is the legacy display format used for replaced_at columns.
// Existing consumers parse this exact DD/MM/YYYY HH:MM:SS local-time text, so
// it must not be changed to RFC3339 like the other timestamps.
const ReplacedAtLayout = "02/01/2006 15:04:05"

// FormatReplacedAt renders t in the legacy replaced_at text format.
func FormatReplacedAt(t time.Time) string {
	return t.Local().Format(ReplacedAtLayout)
}
