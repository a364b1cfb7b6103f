package app

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProfitCalculator_Calculate(t *testing.T) {
	tests := []struct {
		name           string
		minProfit      string
		buyPrice       string
		sellPrice      string
		qty            string
		buyFee         string
		sellFee        string
		wantProfitable bool
	}{
		{
			name:           "profitable_clean_spread",
			minProfit:      "0",
			buyPrice:       "1.00",
			sellPrice:      "1.02",
			qty:            "1000",
			buyFee:         "0.001",
			sellFee:        "0.001",
			wantProfitable: true,
		},
		{
			name:           "fees_erase_thin_spread",
			minProfit:      "0",
			buyPrice:       "1.00",
			sellPrice:      "1.0005",
			qty:            "100",
			buyFee:         "0.001",
			sellFee:        "0.001",
			wantProfitable: false,
		},
		{
			name:           "below_high_threshold",
			minProfit:      "100",
			buyPrice:       "1.00",
			sellPrice:      "1.02",
			qty:            "1000",
			buyFee:         "0",
			sellFee:        "0",
			wantProfitable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewProfitCalculator(dd(tt.minProfit))
			result := calc.Calculate(dd(tt.buyPrice), dd(tt.sellPrice), dd(tt.qty), dd(tt.buyFee), dd(tt.sellFee))
			if result.IsProfitable != tt.wantProfitable {
				t.Errorf("IsProfitable = %v, want %v (net=%s)", result.IsProfitable, tt.wantProfitable, result.NetProfit)
			}
		})
	}
}

func TestNewProfitCalculator(t *testing.T) {
	minProfit := decimal.NewFromInt(10)
	calc := NewProfitCalculator(minProfit)
	if calc.minProfit.Cmp(minProfit) != 0 {
		t.Errorf("minProfit = %s, want %s", calc.minProfit, minProfit)
	}
}

func BenchmarkProfitCalculator_Calculate(b *testing.B) {
	calc := NewProfitCalculator(decimal.NewFromInt(10))
	buyPrice := decimal.NewFromFloat(1.00)
	sellPrice := decimal.NewFromFloat(1.02)
	qty := decimal.NewFromInt(1000)
	fee := decimal.NewFromFloat(0.001)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		calc.Calculate(buyPrice, sellPrice, qty, fee, fee)
	}
}
