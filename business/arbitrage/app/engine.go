// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/aptosarb/arbitrage-bot/business/arbitrage/domain"
	pricingApp "github.com/aptosarb/arbitrage-bot/business/pricing/app"
	pricingDomain "github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/aptosarb/arbitrage-bot/business/arbitrage/app"
	meterName  = "github.com/aptosarb/arbitrage-bot/business/arbitrage/app"
)

// EngineConfig holds the symbols, addresses, fee rates and timing policy the
// Engine needs to run all three detection shapes.
type EngineConfig struct {
	// CEXSymbol is the venue-native pair both CEX feeds key the primary
	// token's spot market under (e.g. "AMIUSDT").
	CEXSymbol pricingDomain.Symbol
	// APTSymbol is the venue-native pair for the APT leg of the triangular
	// shape (e.g. "APTUSDT").
	APTSymbol pricingDomain.Symbol

	// DEXSymbol is the synthetic store key for the primary token's direct
	// DEX market against the quote asset (shape B).
	DEXSymbol pricingDomain.Symbol
	// DEXAPTToAMISymbol and DEXAMIToAPTSymbol are the synthetic store keys
	// the DEX poller publishes for the two triangular legs.
	DEXAPTToAMISymbol pricingDomain.Symbol
	DEXAMIToAPTSymbol pricingDomain.Symbol

	// AptAddr, AmiAddr, UsdtAddr are the on-chain addresses used to build
	// verification swap-quote requests.
	AptAddr, AmiAddr, UsdtAddr string

	BybitFeeRate  decimal.Decimal
	MEXCFeeRate   decimal.Decimal
	PanoraFeeRate decimal.Decimal

	MinProfit       decimal.Decimal
	TradeAmountUSDT decimal.Decimal

	CheckInterval     time.Duration
	VerifyCooldown    time.Duration
	SlippageTolerance decimal.Decimal // fraction, e.g. 0.005 for 0.5%
	SkipPanoraVerify  bool

	DexCexQuoteMaxAge time.Duration
	TriQuoteMaxAge    time.Duration
	CEXQuoteMaxAge    time.Duration

	EnableCEXCEX     bool
	EnableDEXCEX     bool
	EnableTriangular bool

	HeartbeatInterval time.Duration
}

// engineMetrics holds OTEL metric instruments for the engine.
type engineMetrics struct {
	opportunitiesDetected   metric.Int64Counter
	opportunitiesDispatched metric.Int64Counter
	verifySkipped           metric.Int64Counter
	netProfitUSDT           metric.Float64Histogram
	checkLatency            metric.Float64Histogram
}

// Engine is the ticker-driven loop that reads the shared price store, runs
// the three detection shapes against it, and dispatches profitable
// opportunities to the Executor. One Engine instance runs one detection
// loop; it holds no execution-side state beyond the verify cooldown clock.
type Engine struct {
	store       *pricingDomain.Store
	quoteClient pricingApp.QuoteClient
	calc        *ProfitCalculator
	executor    Executor
	cfg         EngineConfig
	logger      logger.LoggerInterface

	tracer  trace.Tracer
	metrics *engineMetrics

	lastVerify    map[string]time.Time
	lastHeartbeat time.Time
}

// NewEngine creates an Engine ready to Run.
func NewEngine(store *pricingDomain.Store, quoteClient pricingApp.QuoteClient, executor Executor, cfg EngineConfig, log logger.LoggerInterface) *Engine {
	e := &Engine{
		store:       store,
		quoteClient: quoteClient,
		calc:        NewProfitCalculator(cfg.MinProfit),
		executor:    executor,
		cfg:         cfg,
		logger:      log,
		tracer:      otel.Tracer(tracerName),
		lastVerify:  make(map[string]time.Time),
	}
	if err := e.initMetrics(); err != nil {
		log.Error(context.Background(), "failed to initialize engine metrics", "error", err)
	}
	return e
}

func (e *Engine) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	e.metrics = &engineMetrics{}

	if e.metrics.opportunitiesDetected, err = meter.Int64Counter(
		"arbitrage_opportunities_detected_total",
		metric.WithDescription("Total number of profitable opportunities detected, before dispatch"),
	); err != nil {
		return err
	}
	if e.metrics.opportunitiesDispatched, err = meter.Int64Counter(
		"arbitrage_opportunities_dispatched_total",
		metric.WithDescription("Total number of opportunities dispatched to the executor"),
	); err != nil {
		return err
	}
	if e.metrics.verifySkipped, err = meter.Int64Counter(
		"arbitrage_verify_skipped_total",
		metric.WithDescription("Total number of detections skipped because a verify call is still in cooldown"),
	); err != nil {
		return err
	}
	if e.metrics.netProfitUSDT, err = meter.Float64Histogram(
		"arbitrage_net_profit_usdt",
		metric.WithDescription("Net profit in USDT at detection time"),
		metric.WithExplicitBucketBoundaries(-10, -1, 0, 1, 5, 10, 25, 50, 100),
	); err != nil {
		return err
	}
	if e.metrics.checkLatency, err = meter.Float64Histogram(
		"arbitrage_check_latency_ms",
		metric.WithDescription("Time to run one full detection sweep in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return err
	}
	return nil
}

// Run ticks at cfg.CheckInterval until ctx is cancelled, running every
// enabled detection shape on each tick.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info(ctx, "starting arbitrage engine",
		"cex_symbol", string(e.cfg.CEXSymbol),
		"cex_cex", e.cfg.EnableCEXCEX,
		"dex_cex", e.cfg.EnableDEXCEX,
		"triangular", e.cfg.EnableTriangular,
	)

	ticker := time.NewTicker(e.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info(ctx, "arbitrage engine stopping", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.tick")
	defer span.End()

	if e.cfg.EnableCEXCEX {
		e.checkCEXCEX(ctx)
	}
	if e.cfg.EnableDEXCEX {
		e.checkDEXCEX(ctx, pricingDomain.VenueBybit, "Bybit", e.cfg.BybitFeeRate)
		e.checkDEXCEX(ctx, pricingDomain.VenueMEXC, "MEXC", e.cfg.MEXCFeeRate)
	}
	if e.cfg.EnableTriangular {
		e.checkTriangular(ctx, pricingDomain.VenueBybit, "Bybit", e.cfg.BybitFeeRate)
		e.checkTriangular(ctx, pricingDomain.VenueMEXC, "MEXC", e.cfg.MEXCFeeRate)
	}

	if e.cfg.HeartbeatInterval > 0 && time.Since(e.lastHeartbeat) >= e.cfg.HeartbeatInterval {
		e.lastHeartbeat = time.Now()
		e.logHeartbeat(ctx)
	}

	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0
	if e.metrics != nil {
		e.metrics.checkLatency.Record(ctx, latencyMs)
	}
}

func (e *Engine) logHeartbeat(ctx context.Context) {
	bybit, bOK := e.store.GetFresh(e.cfg.CEXSymbol, pricingDomain.VenueBybit, e.cfg.CEXQuoteMaxAge)
	mexc, mOK := e.store.GetFresh(e.cfg.CEXSymbol, pricingDomain.VenueMEXC, e.cfg.CEXQuoteMaxAge)
	dex, dOK := e.store.GetFresh(e.cfg.DEXSymbol, pricingDomain.VenuePanora, e.cfg.DexCexQuoteMaxAge)

	e.logger.Info(ctx, "price heartbeat",
		"bybit_fresh", bOK, "bybit_bid", bybit.Bid.String(), "bybit_ask", bybit.Ask.String(),
		"mexc_fresh", mOK, "mexc_bid", mexc.Bid.String(), "mexc_ask", mexc.Ask.String(),
		"dex_fresh", dOK, "dex_price", dex.Ask.String(),
	)
}

// ---- Shape A: CEX-CEX ----

func (e *Engine) checkCEXCEX(ctx context.Context) {
	bybit, bOK := e.store.GetFresh(e.cfg.CEXSymbol, pricingDomain.VenueBybit, e.cfg.CEXQuoteMaxAge)
	mexc, mOK := e.store.GetFresh(e.cfg.CEXSymbol, pricingDomain.VenueMEXC, e.cfg.CEXQuoteMaxAge)
	if !bOK || !mOK {
		return
	}

	// Direction 1: buy Bybit ask, sell MEXC bid.
	if qty := decimal.Min(bybit.AskQty, mexc.BidQty); qty.IsPositive() {
		profit := e.calc.Calculate(bybit.Ask, mexc.Bid, qty, e.cfg.BybitFeeRate, e.cfg.MEXCFeeRate)
		e.recordDetection(ctx, domain.ShapeCEXCEX, profit)
		if profit.IsProfitable {
			e.dispatchCEXCEX(ctx, domain.DirectionBuyFirstSellSecond, pricingDomain.VenueBybit, pricingDomain.VenueMEXC, bybit.Ask, mexc.Bid, qty, profit)
		}
	}

	// Direction 2: buy MEXC ask, sell Bybit bid.
	if qty := decimal.Min(mexc.AskQty, bybit.BidQty); qty.IsPositive() {
		profit := e.calc.Calculate(mexc.Ask, bybit.Bid, qty, e.cfg.MEXCFeeRate, e.cfg.BybitFeeRate)
		e.recordDetection(ctx, domain.ShapeCEXCEX, profit)
		if profit.IsProfitable {
			e.dispatchCEXCEX(ctx, domain.DirectionBuySecondSellFirst, pricingDomain.VenueMEXC, pricingDomain.VenueBybit, mexc.Ask, bybit.Bid, qty, profit)
		}
	}
}

func (e *Engine) dispatchCEXCEX(ctx context.Context, dir domain.Direction, buyVenue, sellVenue pricingDomain.Venue, buyPrice, sellPrice, qty decimal.Decimal, profit *domain.ProfitResult) {
	opp := &domain.Opportunity{
		ID:         fmt.Sprintf("cexcex-%s-%d", dir, time.Now().UnixNano()),
		Shape:      domain.ShapeCEXCEX,
		Direction:  dir,
		Symbol:     e.cfg.CEXSymbol,
		BuyVenue:   buyVenue,
		SellVenue:  sellVenue,
		BuyPrice:   buyPrice,
		SellPrice:  sellPrice,
		Qty:        qty,
		Profit:     profit,
		DetectedAt: time.Now(),
	}
	e.logger.Info(ctx, "cex-cex opportunity detected",
		"direction", string(dir), "buy_venue", string(buyVenue), "sell_venue", string(sellVenue),
		"qty", qty.String(), "net_profit", profit.NetProfit.String(),
	)
	e.dispatch(ctx, opp, e.executor.ExecuteCEXCEX)
}

// ---- Shape B: DEX-CEX ----

func (e *Engine) checkDEXCEX(ctx context.Context, cexVenue pricingDomain.Venue, cexName string, cexFee decimal.Decimal) {
	dex, dOK := e.store.GetFresh(e.cfg.DEXSymbol, pricingDomain.VenuePanora, e.cfg.DexCexQuoteMaxAge)
	cex, cOK := e.store.GetFresh(e.cfg.CEXSymbol, cexVenue, e.cfg.CEXQuoteMaxAge)
	if !dOK || !cOK {
		return
	}

	// Direction 1: buy AMI on the DEX (ask), sell AMI on the CEX (bid).
	if qty := decimal.Min(dex.AskQty, cex.BidQty); qty.IsPositive() {
		estProfit := e.calc.Calculate(dex.Ask, cex.Bid, qty, e.cfg.PanoraFeeRate, cexFee)
		e.recordDetection(ctx, domain.ShapeDEXCEX, estProfit)
		if estProfit.IsProfitable {
			e.handleDEXCEXBuySide(ctx, cexVenue, cexName, cexFee, dex.Ask, cex.Bid, qty)
		}
	}

	// Direction 2: buy AMI on the CEX (ask), sell AMI on the DEX (bid).
	if qty := decimal.Min(cex.AskQty, dex.BidQty); qty.IsPositive() {
		estProfit := e.calc.Calculate(cex.Ask, dex.Bid, qty, cexFee, e.cfg.PanoraFeeRate)
		e.recordDetection(ctx, domain.ShapeDEXCEX, estProfit)
		if estProfit.IsProfitable {
			e.handleDEXCEXSellSide(ctx, cexVenue, cexName, cexFee, cex.Ask, dex.Bid, qty)
		}
	}
}

func (e *Engine) handleDEXCEXBuySide(ctx context.Context, cexVenue pricingDomain.Venue, cexName string, cexFee, dexAsk, cexBid, qty decimal.Decimal) {
	if e.cfg.SkipPanoraVerify {
		quote, err := e.quoteClient.GetSwapQuote(ctx, pricingApp.SwapQuoteRequest{
			FromAmount: qty.Mul(dexAsk),
			FromAddr:   e.cfg.UsdtAddr,
			ToAddr:     e.cfg.AmiAddr,
		})
		if err != nil {
			e.logger.Warn(ctx, "prefetch quote failed, skipping DEX-CEX buy-side dispatch", "cex", cexName, "error", err)
			return
		}
		profit := e.calc.Calculate(dexAsk, cexBid, qty, e.cfg.PanoraFeeRate, cexFee)
		e.dispatchDEXCEX(ctx, domain.DirectionBuyFirstSellSecond, pricingDomain.VenuePanora, cexVenue, dexAsk, cexBid, qty, profit, quote)
		return
	}

	key := "DEX_BUY_" + cexName
	if e.inCooldown(key) {
		if e.metrics != nil {
			e.metrics.verifySkipped.Add(ctx, 1)
		}
		return
	}
	e.markVerified(key)

	usdcToSpend := qty.Mul(dexAsk)
	quote, err := e.quoteClient.GetSwapQuote(ctx, pricingApp.SwapQuoteRequest{FromAmount: usdcToSpend, FromAddr: e.cfg.UsdtAddr, ToAddr: e.cfg.AmiAddr})
	if err != nil {
		e.logger.Warn(ctx, "verify quote failed for DEX-CEX buy-side", "cex", cexName, "error", err)
		return
	}
	if quote.ToAmount.IsZero() {
		return
	}
	verifiedPrice := usdcToSpend.Div(quote.ToAmount)

	profit := e.calc.Calculate(verifiedPrice, cexBid, qty, e.cfg.PanoraFeeRate, cexFee)
	if !profit.IsProfitable {
		e.logger.Debug(ctx, "DEX-CEX buy-side cancelled after verify", "cex", cexName, "verified_price", verifiedPrice.String())
		return
	}
	e.dispatchDEXCEX(ctx, domain.DirectionBuyFirstSellSecond, pricingDomain.VenuePanora, cexVenue, verifiedPrice, cexBid, qty, profit, quote)
}

func (e *Engine) handleDEXCEXSellSide(ctx context.Context, cexVenue pricingDomain.Venue, cexName string, cexFee, cexAsk, dexBid, qty decimal.Decimal) {
	if e.cfg.SkipPanoraVerify {
		quote, err := e.quoteClient.GetSwapQuote(ctx, pricingApp.SwapQuoteRequest{FromAmount: qty, FromAddr: e.cfg.AmiAddr, ToAddr: e.cfg.UsdtAddr})
		if err != nil {
			e.logger.Warn(ctx, "prefetch quote failed, skipping DEX-CEX sell-side dispatch", "cex", cexName, "error", err)
			return
		}
		profit := e.calc.Calculate(cexAsk, dexBid, qty, cexFee, e.cfg.PanoraFeeRate)
		e.dispatchDEXCEX(ctx, domain.DirectionBuySecondSellFirst, cexVenue, pricingDomain.VenuePanora, cexAsk, dexBid, qty, profit, quote)
		return
	}

	key := "DEX_SELL_" + cexName
	if e.inCooldown(key) {
		if e.metrics != nil {
			e.metrics.verifySkipped.Add(ctx, 1)
		}
		return
	}
	e.markVerified(key)

	quote, err := e.quoteClient.GetSwapQuote(ctx, pricingApp.SwapQuoteRequest{FromAmount: qty, FromAddr: e.cfg.AmiAddr, ToAddr: e.cfg.UsdtAddr})
	if err != nil {
		e.logger.Warn(ctx, "verify quote failed for DEX-CEX sell-side", "cex", cexName, "error", err)
		return
	}
	if qty.IsZero() {
		return
	}
	verifiedPrice := quote.ToAmount.Div(qty)

	profit := e.calc.Calculate(cexAsk, verifiedPrice, qty, cexFee, e.cfg.PanoraFeeRate)
	if !profit.IsProfitable {
		e.logger.Debug(ctx, "DEX-CEX sell-side cancelled after verify", "cex", cexName, "verified_price", verifiedPrice.String())
		return
	}
	e.dispatchDEXCEX(ctx, domain.DirectionBuySecondSellFirst, cexVenue, pricingDomain.VenuePanora, cexAsk, verifiedPrice, qty, profit, quote)
}

func (e *Engine) dispatchDEXCEX(ctx context.Context, dir domain.Direction, buyVenue, sellVenue pricingDomain.Venue, buyPrice, sellPrice, qty decimal.Decimal, profit *domain.ProfitResult, quote *pricingDomain.SwapQuote) {
	opp := &domain.Opportunity{
		ID:         fmt.Sprintf("dexcex-%s-%d", dir, time.Now().UnixNano()),
		Shape:      domain.ShapeDEXCEX,
		Direction:  dir,
		Symbol:     e.cfg.CEXSymbol,
		BuyVenue:   buyVenue,
		SellVenue:  sellVenue,
		BuyPrice:   buyPrice,
		SellPrice:  sellPrice,
		Qty:        qty,
		Profit:     profit,
		DEXQuote:   quote,
		DetectedAt: time.Now(),
	}
	e.logger.Info(ctx, "dex-cex opportunity detected",
		"direction", string(dir), "buy_venue", string(buyVenue), "sell_venue", string(sellVenue),
		"qty", qty.String(), "net_profit", profit.NetProfit.String(),
	)
	e.dispatch(ctx, opp, e.executor.ExecuteDEXCEX)
}

// ---- Shape C: Triangular ----

func (e *Engine) checkTriangular(ctx context.Context, cexVenue pricingDomain.Venue, cexName string, cexFee decimal.Decimal) {
	cexAMI, aOK := e.store.GetFresh(e.cfg.CEXSymbol, cexVenue, e.cfg.CEXQuoteMaxAge)
	cexAPT, pOK := e.store.GetFresh(e.cfg.APTSymbol, cexVenue, e.cfg.CEXQuoteMaxAge)
	if !aOK || !pOK {
		return
	}

	notional := e.cfg.TradeAmountUSDT

	// Direction 1: APT -> AMI. Buy APT on the CEX, swap APT->AMI on the
	// DEX, sell AMI back on the CEX.
	if dexAPTAMI, ok := e.store.GetFresh(e.cfg.DEXAPTToAMISymbol, pricingDomain.VenuePanora, e.cfg.TriQuoteMaxAge); ok {
		e.checkTriangularDirection(ctx, domain.DirectionTriAPTToAMI, cexVenue, cexName, cexFee,
			notional, cexAPT.Ask, cexAMI.Bid, dexAPTAMI.Ask, "TRI_DIR1_"+cexName, e.verifyAptToAmi)
	}

	// Direction 2: AMI -> APT. Buy AMI on the CEX, swap AMI->APT on the
	// DEX, sell APT back on the CEX.
	if dexAMIAPT, ok := e.store.GetFresh(e.cfg.DEXAMIToAPTSymbol, pricingDomain.VenuePanora, e.cfg.TriQuoteMaxAge); ok {
		e.checkTriangularDirection(ctx, domain.DirectionTriAMIToAPT, cexVenue, cexName, cexFee,
			notional, cexAMI.Ask, cexAPT.Bid, dexAMIAPT.Ask, "TRI_DIR2_"+cexName, e.verifyAmiToApt)
	}
}

// verifyFunc fetches a real swap quote for the DEX leg and returns the
// achieved rate (toAsset per fromAsset) along with the quote used.
type verifyFunc func(ctx context.Context, qtyFrom decimal.Decimal) (decimal.Decimal, *pricingDomain.SwapQuote, error)

func (e *Engine) checkTriangularDirection(
	ctx context.Context,
	dir domain.Direction,
	cexVenue pricingDomain.Venue,
	cexName string,
	cexFee decimal.Decimal,
	notional, cexBuyLegAsk, cexSellLegBid, dexAsk decimal.Decimal,
	cooldownKey string,
	verify verifyFunc,
) {
	qtyFromEst := notional.Div(cexBuyLegAsk)
	toEst := qtyFromEst.Mul(dexAsk)
	usdtOutEst := toEst.Mul(cexSellLegBid)
	feesEst := notional.Mul(cexFee).Add(notional.Mul(e.cfg.PanoraFeeRate)).Add(usdtOutEst.Mul(cexFee))
	profitEst := usdtOutEst.Sub(notional).Sub(feesEst)

	e.recordDetection(ctx, domain.ShapeTriangular, &domain.ProfitResult{NetProfit: profitEst, IsProfitable: profitEst.GreaterThan(e.cfg.MinProfit)})

	if profitEst.LessThanOrEqual(e.cfg.MinProfit) {
		return
	}

	if e.cfg.SkipPanoraVerify {
		quote, _, err := verify(ctx, qtyFromEst)
		if err != nil {
			e.logger.Warn(ctx, "prefetch quote failed, skipping triangular dispatch", "cex", cexName, "direction", string(dir), "error", err)
			return
		}
		e.dispatchTriangular(ctx, dir, cexVenue, cexName, cexBuyLegAsk, cexSellLegBid, qtyFromEst, profitEst, quote)
		return
	}

	if e.inCooldown(cooldownKey) {
		if e.metrics != nil {
			e.metrics.verifySkipped.Add(ctx, 1)
		}
		return
	}
	e.markVerified(cooldownKey)

	verifiedRate, quote, err := verify(ctx, qtyFromEst)
	if err != nil {
		e.logger.Warn(ctx, "verify quote failed for triangular leg", "cex", cexName, "direction", string(dir), "error", err)
		return
	}

	slippage := verifiedRate.Sub(dexAsk).Div(dexAsk)
	adjustedRate := verifiedRate
	if slippage.LessThan(e.cfg.SlippageTolerance.Neg()) {
		adjustedRate = dexAsk.Mul(decimal.NewFromInt(1).Sub(e.cfg.SlippageTolerance))
	}

	toOut := qtyFromEst.Mul(adjustedRate)
	usdtOut := toOut.Mul(cexSellLegBid)
	fees := notional.Mul(cexFee).Add(notional.Mul(e.cfg.PanoraFeeRate)).Add(usdtOut.Mul(cexFee))
	profit := usdtOut.Sub(notional).Sub(fees)

	if profit.LessThanOrEqual(e.cfg.MinProfit) {
		e.logger.Debug(ctx, "triangular opportunity cancelled after verify",
			"cex", cexName, "direction", string(dir), "slippage", slippage.String())
		return
	}

	e.dispatchTriangular(ctx, dir, cexVenue, cexName, cexBuyLegAsk, cexSellLegBid, qtyFromEst, profit, quote)
}

func (e *Engine) dispatchTriangular(ctx context.Context, dir domain.Direction, cexVenue pricingDomain.Venue, cexName string, buyPrice, sellPrice, qty, profit decimal.Decimal, quote *pricingDomain.SwapQuote) {
	result := &domain.ProfitResult{NetProfit: profit, GrossProfit: profit, IsProfitable: profit.GreaterThan(e.cfg.MinProfit)}
	opp := &domain.Opportunity{
		ID:         fmt.Sprintf("tri-%s-%d", dir, time.Now().UnixNano()),
		Shape:      domain.ShapeTriangular,
		Direction:  dir,
		Symbol:     e.cfg.CEXSymbol,
		BuyVenue:   cexVenue,
		SellVenue:  cexVenue,
		BuyPrice:   buyPrice,
		SellPrice:  sellPrice,
		Qty:        qty,
		Profit:     result,
		DEXQuote:   quote,
		DetectedAt: time.Now(),
	}
	e.logger.Info(ctx, "triangular opportunity detected",
		"direction", string(dir), "cex", cexName, "qty", qty.String(), "net_profit", profit.String(),
	)
	e.dispatch(ctx, opp, e.executor.ExecuteTriangular)
}

// ---- Verification ----

func (e *Engine) verifyPanoraBuy(ctx context.Context, qtyAMI, estimatedPrice decimal.Decimal) (decimal.Decimal, decimal.Decimal, *pricingDomain.SwapQuote, error) {
	usdcToSpend := qtyAMI.Mul(estimatedPrice)
	quote, err := e.quoteClient.GetSwapQuote(ctx, pricingApp.SwapQuoteRequest{FromAmount: usdcToSpend, FromAddr: e.cfg.UsdtAddr, ToAddr: e.cfg.AmiAddr})
	if err != nil {
		return decimal.Zero, decimal.Zero, nil, err
	}
	if quote.ToAmount.IsZero() {
		return decimal.Zero, decimal.Zero, nil, fmt.Errorf("arbitrage: zero ami out from buy-side verify quote")
	}
	return usdcToSpend.Div(quote.ToAmount), quote.ToAmount, quote, nil
}

func (e *Engine) verifyPanoraSell(ctx context.Context, qtyAMI decimal.Decimal) (decimal.Decimal, *pricingDomain.SwapQuote, error) {
	quote, err := e.quoteClient.GetSwapQuote(ctx, pricingApp.SwapQuoteRequest{FromAmount: qtyAMI, FromAddr: e.cfg.AmiAddr, ToAddr: e.cfg.UsdtAddr})
	if err != nil {
		return decimal.Zero, nil, err
	}
	if qtyAMI.IsZero() {
		return decimal.Zero, nil, fmt.Errorf("arbitrage: zero qty in sell-side verify")
	}
	return quote.ToAmount.Div(qtyAMI), quote, nil
}

func (e *Engine) verifyAptToAmi(ctx context.Context, qtyAPT decimal.Decimal) (decimal.Decimal, *pricingDomain.SwapQuote, error) {
	quote, err := e.quoteClient.GetSwapQuote(ctx, pricingApp.SwapQuoteRequest{FromAmount: qtyAPT, FromAddr: e.cfg.AptAddr, ToAddr: e.cfg.AmiAddr})
	if err != nil {
		return decimal.Zero, nil, err
	}
	if qtyAPT.IsZero() {
		return decimal.Zero, nil, fmt.Errorf("arbitrage: zero qty in apt-to-ami verify")
	}
	return quote.ToAmount.Div(qtyAPT), quote, nil
}

func (e *Engine) verifyAmiToApt(ctx context.Context, qtyAMI decimal.Decimal) (decimal.Decimal, *pricingDomain.SwapQuote, error) {
	quote, err := e.quoteClient.GetSwapQuote(ctx, pricingApp.SwapQuoteRequest{FromAmount: qtyAMI, FromAddr: e.cfg.AmiAddr, ToAddr: e.cfg.AptAddr})
	if err != nil {
		return decimal.Zero, nil, err
	}
	if qtyAMI.IsZero() {
		return decimal.Zero, nil, fmt.Errorf("arbitrage: zero qty in ami-to-apt verify")
	}
	return quote.ToAmount.Div(qtyAMI), quote, nil
}

// ---- Shared helpers ----

func (e *Engine) inCooldown(key string) bool {
	last, ok := e.lastVerify[key]
	if !ok {
		return false
	}
	return time.Since(last) < e.cfg.VerifyCooldown
}

func (e *Engine) markVerified(key string) {
	e.lastVerify[key] = time.Now()
}

func (e *Engine) recordDetection(ctx context.Context, shape domain.Shape, profit *domain.ProfitResult) {
	if e.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("shape", string(shape)))
	e.metrics.opportunitiesDetected.Add(ctx, 1, attrs)
	netFloat, _ := profit.NetProfit.Float64()
	e.metrics.netProfitUSDT.Record(ctx, netFloat, attrs)
}

// dispatch fires fn in its own goroutine with a fresh, independent context:
// the engine's tick context is scoped to one detection sweep and must not
// cancel an in-flight execution.
func (e *Engine) dispatch(ctx context.Context, opp *domain.Opportunity, fn func(context.Context, *domain.Opportunity) error) {
	if e.metrics != nil {
		e.metrics.opportunitiesDispatched.Add(ctx, 1, metric.WithAttributes(attribute.String("shape", string(opp.Shape))))
	}
	go func() {
		execCtx := context.Background()
		if err := fn(execCtx, opp); err != nil {
			e.logger.Error(execCtx, "opportunity execution failed", "shape", string(opp.Shape), "id", opp.ID, "error", err)
		}
	}()
}
