package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateProfit(t *testing.T) {
	tests := []struct {
		name        string
		buyPrice    string
		sellPrice   string
		qty         string
		buyFee      string
		sellFee     string
		minProfit   string
		wantNet     string
		wantProfit  bool
	}{
		{
			name:       "clean profitable spread",
			buyPrice:   "1.00",
			sellPrice:  "1.01",
			qty:        "1000",
			buyFee:     "0.001",
			sellFee:    "0.001",
			minProfit:  "0",
			wantNet:    "7.99", // gross 10 - fees (1000*1.00*0.001 + 1000*1.01*0.001 = 1+1.01=2.01)
			wantProfit: true,
		},
		{
			name:       "fees erase a thin spread",
			buyPrice:   "1.00",
			sellPrice:  "1.0005",
			qty:        "100",
			buyFee:     "0.001",
			sellFee:    "0.001",
			minProfit:  "0",
			wantNet:    "-0.15005",
			wantProfit: false,
		},
		{
			name:       "negative spread never profitable",
			buyPrice:   "1.01",
			sellPrice:  "1.00",
			qty:        "100",
			buyFee:     "0",
			sellFee:    "0",
			minProfit:  "0",
			wantNet:    "-1",
			wantProfit: false,
		},
		{
			name:       "zero qty yields zero everything",
			buyPrice:   "1.00",
			sellPrice:  "2.00",
			qty:        "0",
			buyFee:     "0.001",
			sellFee:    "0.001",
			minProfit:  "0",
			wantNet:    "0",
			wantProfit: false,
		},
		{
			name:       "threshold gate above zero",
			buyPrice:   "1.00",
			sellPrice:  "1.02",
			qty:        "100",
			buyFee:     "0",
			sellFee:    "0",
			minProfit:  "5",
			wantNet:    "2",
			wantProfit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateProfit(d(tt.buyPrice), d(tt.sellPrice), d(tt.qty), d(tt.buyFee), d(tt.sellFee), d(tt.minProfit))

			if !result.NetProfit.Equal(d(tt.wantNet)) {
				t.Errorf("NetProfit = %s, want %s", result.NetProfit, tt.wantNet)
			}
			if result.IsProfitable != tt.wantProfit {
				t.Errorf("IsProfitable = %v, want %v", result.IsProfitable, tt.wantProfit)
			}
		})
	}
}

// TestCalculateProfitMonotonic checks the monotonicity property from the
// profit function's testable invariants: net profit is non-decreasing in
// sellPrice and qty, non-increasing in buyPrice, whenever gross is positive.
func TestCalculateProfitMonotonic(t *testing.T) {
	base := CalculateProfit(d("1.00"), d("1.05"), d("100"), d("0.001"), d("0.001"), d("0"))
	higherSell := CalculateProfit(d("1.00"), d("1.06"), d("100"), d("0.001"), d("0.001"), d("0"))
	if !higherSell.NetProfit.GreaterThan(base.NetProfit) {
		t.Errorf("expected net profit to increase with sell price: base=%s higher=%s", base.NetProfit, higherSell.NetProfit)
	}

	lowerBuy := CalculateProfit(d("0.99"), d("1.05"), d("100"), d("0.001"), d("0.001"), d("0"))
	if !lowerBuy.NetProfit.GreaterThan(base.NetProfit) {
		t.Errorf("expected net profit to increase as buy price decreases: base=%s lower=%s", base.NetProfit, lowerBuy.NetProfit)
	}

	higherQty := CalculateProfit(d("1.00"), d("1.05"), d("200"), d("0.001"), d("0.001"), d("0"))
	if !higherQty.NetProfit.GreaterThan(base.NetProfit) {
		t.Errorf("expected net profit to increase with qty: base=%s higher=%s", base.NetProfit, higherQty.NetProfit)
	}
}
