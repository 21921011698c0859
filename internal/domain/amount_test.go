package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/tirasundara/payment-converter/internal/domain"
)

func TestCentsToAmount(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"12345", "123.45", false},
		{"000010000", "100.00", false},
		{"0000000000", "0.00", false},
		{"7", "0.07", false},
		{" 000025000 ", "250.00", false},
		{"", "0.00", true},
		{"12A45", "0.00", true},
		{"-100", "0.00", true},
		{"1.50", "0.00", true},
	}

	for _, tt := range tests {
		got, err := domain.CentsToAmount(tt.raw)
		if got != tt.want {
			t.Errorf("CentsToAmount(%q) = %q, want %q", tt.raw, got, tt.want)
		}
		if tt.wantErr && !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("CentsToAmount(%q) expected ErrInvalidAmount, got %v", tt.raw, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("CentsToAmount(%q) unexpected error: %v", tt.raw, err)
		}
	}
}

func TestFormatDate(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want string
	}{
		{"250101", "2025-01-01"},
		{"250615", "2025-06-15"},
		{"991231", "2099-12-31"},
		{"", "2026-03-09"},
		{"25011", "2026-03-09"},
		{"2501011", "2026-03-09"},
		{"25AB01", "2026-03-09"},
		{"251301", "2026-03-09"},
		{"250230", "2026-03-09"},
	}

	for _, tt := range tests {
		if got := domain.FormatDate(tt.in, now); got != tt.want {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseInputFormat(t *testing.T) {
	for _, s := range []string{"MT103", "NACHA"} {
		f, err := domain.ParseInputFormat(s)
		if err != nil {
			t.Errorf("Unexpected error for %s: %v", s, err)
		}
		if string(f) != s {
			t.Errorf("Expected %s, got %s", s, f)
		}
	}

	for _, s := range []string{"", "mt103", "Nacha", "MT940", "NACHA "} {
		if _, err := domain.ParseInputFormat(s); !errors.Is(err, domain.ErrUnsupportedFormat) {
			t.Errorf("Expected ErrUnsupportedFormat for %q, got %v", s, err)
		}
	}
}
