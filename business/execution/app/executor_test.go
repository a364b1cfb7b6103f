package app

import (
	"context"
	"sync"
	"testing"
	"time"

	arbDomain "github.com/aptosarb/arbitrage-bot/business/arbitrage/domain"
	"github.com/aptosarb/arbitrage-bot/business/execution/domain"
	pricingApp "github.com/aptosarb/arbitrage-bot/business/pricing/app"
	pricingDomain "github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/shopspring/decimal"
)

type devNull struct{}

func (devNull) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() logger.LoggerInterface {
	return logger.New(devNull{}, logger.LevelError, "test", nil)
}

type fakeTrader struct {
	venue      pricingDomain.Venue
	orderRef   string
	orderErr   error
	balance    decimal.Decimal
	balanceErr error

	mu     sync.Mutex
	orders []string
}

func (f *fakeTrader) Venue() pricingDomain.Venue { return f.venue }

func (f *fakeTrader) PlaceMarketOrder(ctx context.Context, symbol string, side OrderSide, qty decimal.Decimal) (string, error) {
	f.mu.Lock()
	f.orders = append(f.orders, symbol+":"+string(side)+":"+qty.String())
	f.mu.Unlock()
	if f.orderErr != nil {
		return "", f.orderErr
	}
	return f.orderRef, nil
}

func (f *fakeTrader) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	return f.balance, f.balanceErr
}

type fakeSubmitter struct {
	txRef      string
	submitErr  error
	balance    decimal.Decimal
	balanceErr error
}

func (f *fakeSubmitter) Submit(ctx context.Context, quote *pricingDomain.SwapQuote) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.txRef, nil
}

func (f *fakeSubmitter) Balance(ctx context.Context, tokenAddress string) (decimal.Decimal, error) {
	return f.balance, f.balanceErr
}

type fakeSignalWriter struct {
	mu      sync.Mutex
	signals []domain.Signal
}

func (f *fakeSignalWriter) Write(sig domain.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, sig)
	return nil
}

func (f *fakeSignalWriter) last() domain.Signal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signals[len(f.signals)-1]
}

type fakeQuoteClient struct {
	quote *pricingDomain.SwapQuote
	err   error
}

func (f *fakeQuoteClient) GetSwapQuote(ctx context.Context, req pricingApp.SwapQuoteRequest) (*pricingDomain.SwapQuote, error) {
	return f.quote, f.err
}

func baseOpp(shape arbDomain.Shape, buyVenue, sellVenue pricingDomain.Venue) *arbDomain.Opportunity {
	return &arbDomain.Opportunity{
		ID:        "test-opp",
		Shape:     shape,
		Direction: arbDomain.DirectionBuyFirstSellSecond,
		Symbol:    "AMIUSDT",
		BuyVenue:  buyVenue,
		SellVenue: sellVenue,
		BuyPrice:  decimal.RequireFromString("1.00"),
		SellPrice: decimal.RequireFromString("1.05"),
		Qty:       decimal.RequireFromString("10"),
		Profit: &arbDomain.ProfitResult{
			NetProfit:    decimal.RequireFromString("0.3"),
			IsProfitable: true,
		},
		DetectedAt: time.Now(),
	}
}

func newTestExecutor(t *testing.T, cfg ExecutorConfig, traders map[string]CEXTrader, sub Submitter, qc pricingApp.QuoteClient, sw SignalWriter) *Executor {
	t.Helper()
	ex, err := NewExecutor(cfg, traders, sub, qc, sw, testLogger())
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	return ex
}

func TestExecutor_ExecuteCEXCEX_BothLegsSucceed(t *testing.T) {
	bybit := &fakeTrader{venue: pricingDomain.VenueBybit, orderRef: "buy-1"}
	mexc := &fakeTrader{venue: pricingDomain.VenueMEXC, orderRef: "sell-1"}
	sw := &fakeSignalWriter{}

	ex := newTestExecutor(t, ExecutorConfig{
		TradeAmountUSDT: decimal.RequireFromString("1000"),
		LegTimeout:      time.Second,
	}, map[string]CEXTrader{"bybit": bybit, "mexc": mexc}, nil, nil, sw)

	opp := baseOpp(arbDomain.ShapeCEXCEX, pricingDomain.VenueBybit, pricingDomain.VenueMEXC)
	if err := ex.ExecuteCEXCEX(context.Background(), opp); err != nil {
		t.Fatalf("ExecuteCEXCEX: %v", err)
	}
	if got := sw.last().Outcome; got != domain.SignalOutcomeExecuted {
		t.Errorf("outcome = %q, want executed", got)
	}
}

func TestExecutor_ExecuteCEXCEX_PartialFillIsImbalance(t *testing.T) {
	bybit := &fakeTrader{venue: pricingDomain.VenueBybit, orderRef: "buy-1"}
	mexc := &fakeTrader{venue: pricingDomain.VenueMEXC, orderErr: errBoom{}}
	sw := &fakeSignalWriter{}

	ex := newTestExecutor(t, ExecutorConfig{
		TradeAmountUSDT: decimal.RequireFromString("1000"),
		LegTimeout:      time.Second,
	}, map[string]CEXTrader{"bybit": bybit, "mexc": mexc}, nil, nil, sw)

	opp := baseOpp(arbDomain.ShapeCEXCEX, pricingDomain.VenueBybit, pricingDomain.VenueMEXC)
	err := ex.ExecuteCEXCEX(context.Background(), opp)
	if err == nil {
		t.Fatal("expected error on partial fill")
	}
	if got := sw.last().Outcome; got != domain.SignalOutcomeImbalance {
		t.Errorf("outcome = %q, want position_imbalance", got)
	}
}

func TestExecutor_ExecuteCEXCEX_DryRunShortCircuits(t *testing.T) {
	bybit := &fakeTrader{venue: pricingDomain.VenueBybit}
	mexc := &fakeTrader{venue: pricingDomain.VenueMEXC}
	sw := &fakeSignalWriter{}

	ex := newTestExecutor(t, ExecutorConfig{
		TradeAmountUSDT: decimal.RequireFromString("1000"),
		LegTimeout:      time.Second,
		DryRun:          true,
	}, map[string]CEXTrader{"bybit": bybit, "mexc": mexc}, nil, nil, sw)

	opp := baseOpp(arbDomain.ShapeCEXCEX, pricingDomain.VenueBybit, pricingDomain.VenueMEXC)
	if err := ex.ExecuteCEXCEX(context.Background(), opp); err != nil {
		t.Fatalf("ExecuteCEXCEX: %v", err)
	}
	if got := sw.last().Outcome; got != domain.SignalOutcomeDryRun {
		t.Errorf("outcome = %q, want dry_run", got)
	}
	if len(bybit.orders) != 0 || len(mexc.orders) != 0 {
		t.Error("dry-run must not place any orders")
	}
}

func TestExecutor_SafeQtyCapsNotional(t *testing.T) {
	ex := newTestExecutor(t, ExecutorConfig{
		TradeAmountUSDT: decimal.RequireFromString("5"),
		LegTimeout:      time.Second,
		DryRun:          true,
	}, nil, nil, nil, &fakeSignalWriter{})

	got := ex.safeQty(decimal.RequireFromString("100"), decimal.RequireFromString("1"))
	want := decimal.RequireFromString("5")
	if !got.Equal(want) {
		t.Errorf("safeQty = %s, want %s", got, want)
	}
}

func TestExecutor_ExecuteTriangular_TryLockDropsConcurrentSignal(t *testing.T) {
	sub := &fakeSubmitter{
		txRef:   "dex-1",
		balance: decimal.RequireFromString("1000"),
	}
	bybit := &fakeTrader{venue: pricingDomain.VenueBybit, orderRef: "cex-1", balance: decimal.RequireFromString("1000")}
	sw := &fakeSignalWriter{}

	ex := newTestExecutor(t, ExecutorConfig{
		TradeAmountUSDT: decimal.RequireFromString("1000"),
		LegTimeout:      2 * time.Second,
	}, map[string]CEXTrader{"bybit": bybit}, sub, nil, sw)

	opp := baseOpp(arbDomain.ShapeTriangular, pricingDomain.VenueBybit, pricingDomain.VenueBybit)
	opp.DEXQuote = &pricingDomain.SwapQuote{
		FromAddr: "0x1",
		ToAddr:   "0x2",
	}

	// Hold the lock manually to simulate an in-flight triangular execution.
	ex.triMu.Lock()
	err := ex.ExecuteTriangular(context.Background(), opp)
	ex.triMu.Unlock()

	if err == nil {
		t.Fatal("expected the second triangular signal to be dropped")
	}
}

func TestExecutor_ExecuteTriangular_DryRunAlwaysSucceedsRegardlessOfGate(t *testing.T) {
	sub := &fakeSubmitter{balance: decimal.Zero} // insufficient on-chain balance
	bybit := &fakeTrader{venue: pricingDomain.VenueBybit, balance: decimal.Zero}
	sw := &fakeSignalWriter{}

	ex := newTestExecutor(t, ExecutorConfig{
		TradeAmountUSDT: decimal.RequireFromString("1000"),
		LegTimeout:      time.Second,
		DryRun:          true,
	}, map[string]CEXTrader{"bybit": bybit}, sub, nil, sw)

	opp := baseOpp(arbDomain.ShapeTriangular, pricingDomain.VenueBybit, pricingDomain.VenueBybit)
	opp.DEXQuote = &pricingDomain.SwapQuote{FromAddr: "0x1", ToAddr: "0x2"}

	if err := ex.ExecuteTriangular(context.Background(), opp); err != nil {
		t.Fatalf("dry-run triangular must always succeed, got: %v", err)
	}
	if got := sw.last().Outcome; got != domain.SignalOutcomeDryRun {
		t.Errorf("outcome = %q, want dry_run", got)
	}
}

func TestExecutor_ExecuteTriangular_BalanceGateAbortsLiveRun(t *testing.T) {
	sub := &fakeSubmitter{balance: decimal.Zero}
	bybit := &fakeTrader{venue: pricingDomain.VenueBybit, balance: decimal.RequireFromString("1000")}
	sw := &fakeSignalWriter{}

	ex := newTestExecutor(t, ExecutorConfig{
		TradeAmountUSDT: decimal.RequireFromString("1000"),
		LegTimeout:      time.Second,
	}, map[string]CEXTrader{"bybit": bybit}, sub, nil, sw)

	opp := baseOpp(arbDomain.ShapeTriangular, pricingDomain.VenueBybit, pricingDomain.VenueBybit)
	opp.DEXQuote = &pricingDomain.SwapQuote{FromAddr: "0x1", ToAddr: "0x2"}

	err := ex.ExecuteTriangular(context.Background(), opp)
	if err == nil {
		t.Fatal("expected balance gate to abort before any leg")
	}
	if got := sw.last().Outcome; got != domain.SignalOutcomeAborted {
		t.Errorf("outcome = %q, want aborted", got)
	}
	if len(bybit.orders) != 0 {
		t.Error("balance gate must abort before placing any cex order")
	}
}

func TestExecutor_ExecuteTriangular_CEXFailureAfterDEXSuccessIsImbalance(t *testing.T) {
	sub := &fakeSubmitter{txRef: "dex-1", balance: decimal.RequireFromString("1000")}
	bybit := &fakeTrader{venue: pricingDomain.VenueBybit, orderErr: errBoom{}, balance: decimal.RequireFromString("1000")}
	sw := &fakeSignalWriter{}

	ex := newTestExecutor(t, ExecutorConfig{
		TradeAmountUSDT: decimal.RequireFromString("1000"),
		LegTimeout:      time.Second,
	}, map[string]CEXTrader{"bybit": bybit}, sub, nil, sw)

	opp := baseOpp(arbDomain.ShapeTriangular, pricingDomain.VenueBybit, pricingDomain.VenueBybit)
	opp.DEXQuote = &pricingDomain.SwapQuote{FromAddr: "0x1", ToAddr: "0x2"}

	err := ex.ExecuteTriangular(context.Background(), opp)
	if err == nil {
		t.Fatal("expected error when the cex leg fails after a successful dex swap")
	}
	if got := sw.last().Outcome; got != domain.SignalOutcomeImbalance {
		t.Errorf("outcome = %q, want position_imbalance", got)
	}
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }
