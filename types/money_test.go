package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name  string
		value decimal.Decimal
		want  string
	}{
		{"zero", decimal.Zero, "0.00"},
		{"small", decimal.RequireFromString("45"), "45.00"},
		{"thousands", decimal.RequireFromString("1234.5"), "1,234.50"},
		{"millions", decimal.RequireFromString("1234567.8"), "1,234,567.80"},
		{"exact group", decimal.RequireFromString("100000"), "100,000.00"},
		{"negative", decimal.RequireFromString("-45000"), "-45,000.00"},
		{"rounds", decimal.RequireFromString("10.005"), "10.01"},
		{"max", MaxAmount, "10,000,000,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAmount(tt.value); got != tt.want {
				t.Errorf("FormatAmount(%s) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"1,200.50", "1200.5", false},
		{" 300 ", "300", false},
		{"", "0", false},
		{"abc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tt.input, err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestSum(t *testing.T) {
	got := Sum(
		decimal.RequireFromString("0.1"),
		decimal.RequireFromString("0.2"),
		decimal.RequireFromString("0.3"),
	)
	if !got.Equal(decimal.RequireFromString("0.6")) {
		t.Errorf("Sum = %s, want 0.6", got)
	}

	if !Sum().IsZero() {
		t.Error("empty Sum should be zero")
	}
}
