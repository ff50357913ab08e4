package utilities

import (
	"testing"
	"time"
)

func TestFormatReplacedAt(t *testing.T) {
	ts := time.Date(2026, 8, 29, 14, 5, 9, 0, time.Local)
	got := FormatReplacedAt(ts)
	if got != "29/08/2026 14:05:09" {
		t.Fatalf("unexpected format: %s", got)
	}
	// must round-trip through the layout
	if _, err := time.Parse(ReplacedAtLayout, got); err != nil {
		t.Fatalf("not parseable with layout: %v", err)
	}
}

func TestIDGenerators(t *testing.T) {
	if a, b := NewKSUID(), NewKSUID(); a == b || a == "" {
		t.Fatalf("KSUIDs not unique: %q %q", a, b)
	}
	if id := NewSnowflakeIDWithNode(1); id == "" {
		t.Fatal("empty snowflake id")
	}
}
