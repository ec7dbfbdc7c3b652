package util

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"PT1H", time.Hour},
		{"PT30M", 30 * time.Minute},
		{"PT1H30M", 90 * time.Minute},
		{"P2D", 48 * time.Hour},
		{"P1DT2H", 26 * time.Hour},
		{"", 0},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if err != nil {
			t.Fatalf("ParseDuration(%q) failed: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDurationRejectsMalformed(t *testing.T) {
	for _, in := range []string{"1H", "P", "PT", "P1H", "PT1D"} {
		if _, err := ParseDuration(in); err == nil {
			t.Errorf("ParseDuration(%q) succeeded, want error", in)
		}
	}
}

func TestParseDue(t *testing.T) {
	now := time.Date(2024, 3, 10, 14, 20, 0, 0, time.UTC)

	tests := []struct {
		in      string
		want    time.Time
		hasTime bool
	}{
		{"today", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), false},
		{"Tomorrow", time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), false},
		{"2024-04-01", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), false},
		{"2024-04-01 09:30", time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC), true},
		{"2024-04-01T16:00", time.Date(2024, 4, 1, 16, 0, 0, 0, time.UTC), true},
		{"+PT2H", time.Date(2024, 3, 10, 16, 20, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		got, hasTime, err := ParseDue(tt.in, now)
		if err != nil {
			t.Fatalf("ParseDue(%q) failed: %v", tt.in, err)
		}
		if !got.Equal(tt.want) || hasTime != tt.hasTime {
			t.Errorf("ParseDue(%q) = %v, %v; want %v, %v", tt.in, got, hasTime, tt.want, tt.hasTime)
		}
	}

	if _, _, err := ParseDue("next week", now); err == nil {
		t.Error("expected error for unrecognized input")
	}
}
