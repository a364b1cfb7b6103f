package panora

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuoteResponseToDomainQuote(t *testing.T) {
	tests := []struct {
		name       string
		resp       quoteResponse
		fromAmount decimal.Decimal
		wantErr    bool
		wantTo     string
		wantSynth  bool
	}{
		{
			name:       "flat shape with payload",
			resp:       quoteResponse{ToTokenAmount: "200.5", TxData: &txData{Function: "0x1::router::swap", TypeArguments: []string{"0x1::aptos_coin::AptosCoin"}, FunctionArguments: []any{"1"}}},
			fromAmount: decimal.NewFromInt(100),
			wantTo:     "200.5",
		},
		{
			name:       "nested quotes shape",
			resp:       quoteResponse{Quotes: []struct {
				FromTokenAmount string  `json:"fromTokenAmount"`
				ToTokenAmount   string  `json:"toTokenAmount"`
				TxData          *txData `json:"txData"`
			}{{ToTokenAmount: "50"}}},
			fromAmount: decimal.NewFromInt(25),
			wantTo:     "50",
		},
		{
			name:       "missing amount errors",
			resp:       quoteResponse{},
			fromAmount: decimal.NewFromInt(1),
			wantErr:    true,
		},
		{
			name:       "zero from amount errors",
			resp:       quoteResponse{ToTokenAmount: "10"},
			fromAmount: decimal.Zero,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := tt.resp.toDomainQuote("0xfrom", "0xto", tt.fromAmount)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if quote.ToAmount.String() != tt.wantTo {
				t.Errorf("ToAmount = %s, want %s", quote.ToAmount.String(), tt.wantTo)
			}
			if quote.FromAddr != "0xfrom" || quote.ToAddr != "0xto" {
				t.Errorf("unexpected addresses: %+v", quote)
			}
		})
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   int64
	}{
		{"", 0},
		{"5", 5},
		{"not-a-number", 0},
		{"0", 0},
	}
	for _, tt := range tests {
		got := parseRetryAfter(tt.header)
		if got.Seconds() != float64(tt.want) {
			t.Errorf("parseRetryAfter(%q) = %v, want %ds", tt.header, got, tt.want)
		}
	}
}
