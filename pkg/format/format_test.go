package format

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"9.99", "$9.99"},
		{"36.99", "$36.99"},
		{"299.989", "$299.99"},
		{"-5", "-$5.00"},
		{"1159.5", "$1,159.50"},
		{"1299.99", "$1,299.99"},
		{"-0.004", "$0.00"},
		{"12345678901234567.89", "$12,345,678,901,234,567.89"},
		{"98765432109876543210.05", "$98,765,432,109,876,543,210.05"},
	}
	for _, tt := range tests {
		if got := Price(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Fatalf("Price(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Mathematics 1-7 Series", 50); got != "Mathematics 1-7 Series" {
		t.Fatalf("short text should be untouched, got %q", got)
	}
	if got := Truncate("Brainy Builder A3 - Complete Set", 14); got != "Brainy Builder..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := Truncate("anything", 0); got != "" {
		t.Fatalf("zero max should yield empty, got %q", got)
	}
	if got := Truncate("ééééé", 3); got != "ééé..." {
		t.Fatalf("truncation should count runes, got %q", got)
	}
}

func TestRating(t *testing.T) {
	if got := Rating(4.25); got != "4.3" && got != "4.2" {
		t.Fatalf("unexpected rating %q", got)
	}
	if got := Rating(3); got != "3.0" {
		t.Fatalf("expected 3.0, got %q", got)
	}
	if got := Rating(7); got != "5.0" {
		t.Fatalf("expected clamp to 5.0, got %q", got)
	}
	if got := Rating(-1); got != "0.0" {
		t.Fatalf("expected clamp to 0.0, got %q", got)
	}
}

func TestCapitalize(t *testing.T) {
	if got := Capitalize("mathematics"); got != "Mathematics" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Capitalize(""); got != "" {
		t.Fatalf("unexpected %q", got)
	}
}
