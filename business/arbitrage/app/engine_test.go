package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aptosarb/arbitrage-bot/business/arbitrage/domain"
	pricingApp "github.com/aptosarb/arbitrage-bot/business/pricing/app"
	pricingDomain "github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/shopspring/decimal"
)

type fakeExecutor struct {
	mu         sync.Mutex
	cexcex     []*domain.Opportunity
	dexcex     []*domain.Opportunity
	triangular []*domain.Opportunity
	done       chan struct{}
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{done: make(chan struct{}, 16)}
}

func (f *fakeExecutor) ExecuteCEXCEX(ctx context.Context, opp *domain.Opportunity) error {
	f.mu.Lock()
	f.cexcex = append(f.cexcex, opp)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeExecutor) ExecuteDEXCEX(ctx context.Context, opp *domain.Opportunity) error {
	f.mu.Lock()
	f.dexcex = append(f.dexcex, opp)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeExecutor) ExecuteTriangular(ctx context.Context, opp *domain.Opportunity) error {
	f.mu.Lock()
	f.triangular = append(f.triangular, opp)
	f.mu.Unlock()
	f.done <- struct{}{}
	return nil
}

func (f *fakeExecutor) waitOne(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for executor dispatch")
	}
}

type fakeQuoteClient struct {
	toAmount decimal.Decimal
	err      error
}

func (f *fakeQuoteClient) GetSwapQuote(ctx context.Context, req pricingApp.SwapQuoteRequest) (*pricingDomain.SwapQuote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &pricingDomain.SwapQuote{
		FromAddr:   req.FromAddr,
		ToAddr:     req.ToAddr,
		FromAmount: req.FromAmount,
		ToAmount:   f.toAmount,
		FetchedAt:  time.Now(),
	}, nil
}

func testLogger() logger.LoggerInterface {
	return logger.New(devNull{}, logger.LevelError, "test", nil)
}

type devNull struct{}

func (devNull) Write(p []byte) (int, error) { return len(p), nil }

func baseCfg() EngineConfig {
	return EngineConfig{
		CEXSymbol:         "AMIUSDT",
		APTSymbol:         "APTUSDT",
		DEXSymbol:         "ami_usdt",
		DEXAPTToAMISymbol: "apt_ami",
		DEXAMIToAPTSymbol: "ami_apt",
		AptAddr:           "0xapt",
		AmiAddr:           "0xami",
		UsdtAddr:          "0xusdt",
		BybitFeeRate:      decimal.NewFromFloat(0.001),
		MEXCFeeRate:       decimal.NewFromFloat(0.001),
		PanoraFeeRate:     decimal.NewFromFloat(0.003),
		MinProfit:         decimal.Zero,
		TradeAmountUSDT:   decimal.NewFromInt(1000),
		CheckInterval:     10 * time.Millisecond,
		VerifyCooldown:    3 * time.Second,
		SlippageTolerance: decimal.NewFromFloat(0.005),
		CEXQuoteMaxAge:    time.Minute,
		DexCexQuoteMaxAge: time.Minute,
		TriQuoteMaxAge:    time.Minute,
		EnableCEXCEX:      true,
		EnableDEXCEX:      true,
		EnableTriangular:  true,
	}
}

func TestEngine_CheckCEXCEX_DispatchesProfitableSpread(t *testing.T) {
	store := pricingDomain.NewStore()
	store.Update(pricingDomain.VenueBybit, "AMIUSDT", dd("0.99"), dd("1.00"), dd("500"), dd("500"))
	store.Update(pricingDomain.VenueMEXC, "AMIUSDT", dd("1.05"), dd("1.06"), dd("500"), dd("500"))

	executor := newFakeExecutor()
	engine := NewEngine(store, &fakeQuoteClient{}, executor, baseCfg(), testLogger())

	engine.checkCEXCEX(context.Background())
	executor.waitOne(t)

	executor.mu.Lock()
	defer executor.mu.Unlock()
	if len(executor.cexcex) != 1 {
		t.Fatalf("expected exactly one dispatched cex-cex opportunity, got %d", len(executor.cexcex))
	}
	if executor.cexcex[0].Direction != domain.DirectionBuyFirstSellSecond {
		t.Errorf("direction = %s, want buy-first-sell-second", executor.cexcex[0].Direction)
	}
}

func TestEngine_CheckCEXCEX_SkipsWhenQuotesMissing(t *testing.T) {
	store := pricingDomain.NewStore()
	executor := newFakeExecutor()
	engine := NewEngine(store, &fakeQuoteClient{}, executor, baseCfg(), testLogger())

	engine.checkCEXCEX(context.Background())

	select {
	case <-executor.done:
		t.Fatal("expected no dispatch with no quotes in the store")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEngine_VerifyCooldown_BlocksSecondCallWithinWindow(t *testing.T) {
	cfg := baseCfg()
	cfg.VerifyCooldown = time.Hour
	store := pricingDomain.NewStore()
	executor := newFakeExecutor()
	engine := NewEngine(store, &fakeQuoteClient{}, executor, cfg, testLogger())

	if engine.inCooldown("DEX_BUY_Bybit") {
		t.Fatal("expected no cooldown before first mark")
	}
	engine.markVerified("DEX_BUY_Bybit")
	if !engine.inCooldown("DEX_BUY_Bybit") {
		t.Fatal("expected cooldown immediately after marking")
	}
}

func TestEngine_CheckDEXCEX_SkipVerifyDispatchesImmediately(t *testing.T) {
	store := pricingDomain.NewStore()
	store.Update(pricingDomain.VenuePanora, "ami_usdt", dd("0.98"), dd("0.98"), dd("10000"), dd("10000"))
	store.Update(pricingDomain.VenueBybit, "AMIUSDT", dd("1.02"), dd("1.03"), dd("500"), dd("500"))

	cfg := baseCfg()
	cfg.SkipPanoraVerify = true
	executor := newFakeExecutor()
	quoteClient := &fakeQuoteClient{toAmount: dd("100")}
	engine := NewEngine(store, quoteClient, executor, cfg, testLogger())

	engine.checkDEXCEX(context.Background(), pricingDomain.VenueBybit, "Bybit", cfg.BybitFeeRate)
	executor.waitOne(t)

	executor.mu.Lock()
	defer executor.mu.Unlock()
	if len(executor.dexcex) != 1 {
		t.Fatalf("expected one dex-cex dispatch, got %d", len(executor.dexcex))
	}
}
