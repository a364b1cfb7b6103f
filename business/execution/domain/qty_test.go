package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCoinSymbol(t *testing.T) {
	tests := map[string]string{
		"AMIUSDT": "AMI",
		"APTUSDT": "APT",
		"ethusd":  "ETH",
		"AMI":     "AMI",
	}
	for pair, want := range tests {
		if got := CoinSymbol(pair); got != want {
			t.Errorf("CoinSymbol(%q) = %q, want %q", pair, got, want)
		}
	}
}

func TestFloorQty(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123.456", "123"},
		{"5.4321", "5.43"},
		{"0.5", "0.5"},
		{"0.0123456", "0.0123"},
		{"0.00000001", "0"},
	}
	for _, tt := range tests {
		got := FloorQty(decimal.RequireFromString(tt.in))
		want := decimal.RequireFromString(tt.want)
		if !got.Equal(want) {
			t.Errorf("FloorQty(%s) = %s, want %s", tt.in, got, want)
		}
	}
}

// FloorQty is idempotent: flooring an already-floored quantity is a no-op.
func TestFloorQty_Idempotent(t *testing.T) {
	inputs := []string{"123.456", "5.4321", "0.5", "0.0123456"}
	for _, in := range inputs {
		once := FloorQty(decimal.RequireFromString(in))
		twice := FloorQty(once)
		if !once.Equal(twice) {
			t.Errorf("FloorQty not idempotent for %s: once=%s twice=%s", in, once, twice)
		}
	}
}
