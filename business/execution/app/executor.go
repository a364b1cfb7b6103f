// Package app contains the execution context's application service: the
// Executor that turns a detected opportunity into orders, on-chain swaps,
// or a dry-run signal record.
package app

import (
	"context"
	"sync"
	"time"

	arbDomain "github.com/aptosarb/arbitrage-bot/business/arbitrage/domain"
	"github.com/aptosarb/arbitrage-bot/business/execution/domain"
	pricingApp "github.com/aptosarb/arbitrage-bot/business/pricing/app"
	pricingDomain "github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/apperror"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/aptosarb/arbitrage-bot/business/execution/app"
	meterName  = "github.com/aptosarb/arbitrage-bot/business/execution/app"
)

// ExecutorConfig carries the safety envelope the Executor enforces on every
// dispatched opportunity, independent of which venues are involved.
type ExecutorConfig struct {
	TradeAmountUSDT decimal.Decimal
	LegTimeout      time.Duration
	DryRun          bool
}

type executorMetrics struct {
	executions metric.Int64Counter
}

// Executor implements arbitrage/app.Executor: it is the outbound port the
// engine dispatches opportunities to.
type Executor struct {
	cfg         ExecutorConfig
	traders     map[string]CEXTrader // keyed by pricingDomain.Venue
	submitter   Submitter
	quoteClient pricingApp.QuoteClient
	signals     SignalWriter
	logger      logger.LoggerInterface
	tracer      trace.Tracer
	metrics     *executorMetrics

	triMu sync.Mutex // process-wide triangular-execution lock, TryLock semantics
}

// NewExecutor wires an Executor from its collaborators. traders is keyed by
// venue name ("bybit", "mexc").
func NewExecutor(cfg ExecutorConfig, traders map[string]CEXTrader, submitter Submitter, quoteClient pricingApp.QuoteClient, signals SignalWriter, log logger.LoggerInterface) (*Executor, error) {
	e := &Executor{
		cfg:         cfg,
		traders:     traders,
		submitter:   submitter,
		quoteClient: quoteClient,
		signals:     signals,
		logger:      log,
		tracer:      otel.Tracer(tracerName),
	}
	if err := e.initMetrics(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Executor) initMetrics() error {
	meter := otel.Meter(meterName)
	executions, err := meter.Int64Counter(
		"execution_tasks_total",
		metric.WithDescription("executor tasks by shape and outcome"),
	)
	if err != nil {
		return apperror.Internal(apperror.CodeInternalError, "execution.init_metrics", err)
	}
	e.metrics = &executorMetrics{executions: executions}
	return nil
}

func (e *Executor) recordOutcome(ctx context.Context, shape string, outcome domain.SignalOutcome) {
	e.metrics.executions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("shape", shape),
		attribute.String("outcome", string(outcome)),
	))
}

// safeQty caps qty at notional_cap/buyPrice, per the trade_amount_usdt
// envelope that bounds notional per leg regardless of how large the
// detected opportunity's liquidity looked.
func (e *Executor) safeQty(qty, buyPrice decimal.Decimal) decimal.Decimal {
	if buyPrice.IsZero() {
		return decimal.Zero
	}
	notionalCap := e.cfg.TradeAmountUSDT.Div(buyPrice)
	return decimal.Min(qty, notionalCap)
}

func (e *Executor) writeSignal(sig domain.Signal) {
	if e.signals == nil {
		return
	}
	if err := e.signals.Write(sig); err != nil {
		e.logger.Error(context.Background(), "failed to write signal record", "error", err.Error())
	}
}

func baseSignal(opp *arbDomain.Opportunity, buyVenue, sellVenue string) domain.Signal {
	return domain.Signal{
		Time:      time.Now(),
		Shape:     string(opp.Shape),
		Direction: string(opp.Direction),
		BuyVenue:  buyVenue,
		SellVenue: sellVenue,
		BuyPrice:  opp.BuyPrice,
		SellPrice: opp.SellPrice,
		NetProfit: opp.Profit.NetProfit,
	}
}

// ExecuteCEXCEX fires both CEX legs of a two-exchange opportunity concurrently.
func (e *Executor) ExecuteCEXCEX(ctx context.Context, opp *arbDomain.Opportunity) error {
	ctx, span := e.tracer.Start(ctx, "executor.execute_cex_cex")
	defer span.End()

	buyVenue := string(opp.BuyVenue)
	sellVenue := string(opp.SellVenue)

	qty := domain.FloorQty(e.safeQty(opp.Qty, opp.BuyPrice))
	sig := baseSignal(opp, buyVenue, sellVenue)
	sig.Qty = qty

	if qty.IsZero() {
		sig.Outcome = domain.SignalOutcomeAborted
		sig.Detail = "qty rounds to zero after safe-qty cap"
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return apperror.Validation(apperror.CodeInvalidQuote, "execution.cex_cex.zero_qty")
	}

	if e.cfg.DryRun {
		sig.Outcome = domain.SignalOutcomeDryRun
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return nil
	}

	buyTrader, ok := e.traders[buyVenue]
	if !ok {
		return apperror.Validation(apperror.CodeShapeDisabled, "execution.cex_cex.no_buy_trader")
	}
	sellTrader, ok := e.traders[sellVenue]
	if !ok {
		return apperror.Validation(apperror.CodeShapeDisabled, "execution.cex_cex.no_sell_trader")
	}

	symbol := domain.CoinSymbol(string(opp.Symbol)) + "USDT"

	legCtx, cancel := context.WithTimeout(ctx, e.cfg.LegTimeout)
	defer cancel()

	var buyRef, sellRef string
	var buyErr, sellErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		buyRef, buyErr = buyTrader.PlaceMarketOrder(legCtx, symbol, OrderSideBuy, qty)
	}()
	go func() {
		defer wg.Done()
		sellRef, sellErr = sellTrader.PlaceMarketOrder(legCtx, symbol, OrderSideSell, qty)
	}()
	wg.Wait()

	sig.BuyTxRef = buyRef
	sig.SellTxRef = sellRef

	switch {
	case buyErr == nil && sellErr == nil:
		sig.Outcome = domain.SignalOutcomeExecuted
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return nil
	case buyErr != nil && sellErr != nil:
		sig.Outcome = domain.SignalOutcomeFailed
		sig.Detail = "both legs failed"
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return apperror.External(apperror.CodeCEXAPIError, "execution.cex_cex.both_failed", buyErr)
	default:
		// Exactly one side filled: partial fill, no automatic hedge.
		sig.Outcome = domain.SignalOutcomeImbalance
		sig.Detail = "partial fill: exactly one leg succeeded, manual intervention required"
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		e.logger.Error(ctx, "cex-cex partial fill requires manual intervention",
			"buy_ref", buyRef, "sell_ref", sellRef, "buy_err", errString(buyErr), "sell_err", errString(sellErr))
		return apperror.New(apperror.CodePartialFill, apperror.WithMessage("exactly one cex-cex leg succeeded"))
	}
}

// ExecuteDEXCEX fires the DEX leg (using opp.DEXQuote if already fetched, or
// a fresh quote otherwise) and the single CEX leg concurrently.
func (e *Executor) ExecuteDEXCEX(ctx context.Context, opp *arbDomain.Opportunity) error {
	ctx, span := e.tracer.Start(ctx, "executor.execute_dex_cex")
	defer span.End()

	isDEXBuy := opp.BuyVenue == pricingDomain.VenuePanora
	var cexVenue string
	if isDEXBuy {
		cexVenue = string(opp.SellVenue)
	} else {
		cexVenue = string(opp.BuyVenue)
	}

	qty := domain.FloorQty(e.safeQty(opp.Qty, opp.BuyPrice))
	sig := baseSignal(opp, string(opp.BuyVenue), string(opp.SellVenue))
	sig.Qty = qty

	if qty.IsZero() {
		sig.Outcome = domain.SignalOutcomeAborted
		sig.Detail = "qty rounds to zero after safe-qty cap"
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return apperror.Validation(apperror.CodeInvalidQuote, "execution.dex_cex.zero_qty")
	}

	if e.cfg.DryRun {
		sig.Outcome = domain.SignalOutcomeDryRun
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return nil
	}

	cexTrader, ok := e.traders[cexVenue]
	if !ok {
		return apperror.Validation(apperror.CodeShapeDisabled, "execution.dex_cex.no_trader")
	}

	symbol := domain.CoinSymbol(string(opp.Symbol)) + "USDT"
	// DEX bought the base asset and the CEX leg sells it, or vice versa.
	side := OrderSideSell
	if !isDEXBuy {
		side = OrderSideBuy
	}

	legCtx, cancel := context.WithTimeout(ctx, e.cfg.LegTimeout)
	defer cancel()

	quote := opp.DEXQuote
	if quote == nil || quote.IsSynthetic {
		var err error
		quote, err = e.quoteClient.GetSwapQuote(legCtx, pricingApp.SwapQuoteRequest{
			FromAmount: opp.Qty,
			FromAddr:   quoteFromAddr(opp),
			ToAddr:     quoteToAddr(opp),
			ForceFresh: true,
		})
		if err != nil {
			sig.Outcome = domain.SignalOutcomeFailed
			sig.Detail = "failed to refresh dex quote before submit"
			e.writeSignal(sig)
			e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
			return apperror.External(apperror.CodePanoraQuoteFailed, "execution.dex_cex.refresh_quote", err)
		}
	}

	var dexRef string
	var cexRef string
	var dexErr, cexErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		dexRef, dexErr = e.submitter.Submit(legCtx, quote)
	}()
	go func() {
		defer wg.Done()
		cexRef, cexErr = cexTrader.PlaceMarketOrder(legCtx, symbol, side, qty)
	}()
	wg.Wait()

	sig.BuyTxRef, sig.SellTxRef = dexRef, cexRef
	if !isDEXBuy {
		sig.BuyTxRef, sig.SellTxRef = cexRef, dexRef
	}

	switch {
	case dexErr == nil && cexErr == nil:
		sig.Outcome = domain.SignalOutcomeExecuted
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return nil
	case dexErr != nil && cexErr != nil:
		sig.Outcome = domain.SignalOutcomeFailed
		sig.Detail = "both legs failed"
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return apperror.External(apperror.CodeAptosSubmitFailed, "execution.dex_cex.both_failed", dexErr)
	default:
		sig.Outcome = domain.SignalOutcomeImbalance
		sig.Detail = "partial fill: exactly one leg succeeded, manual intervention required"
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		e.logger.Error(ctx, "dex-cex partial fill requires manual intervention",
			"dex_ref", dexRef, "cex_ref", cexRef, "dex_err", errString(dexErr), "cex_err", errString(cexErr))
		return apperror.New(apperror.CodePartialFill, apperror.WithMessage("exactly one dex-cex leg succeeded"))
	}
}

// ExecuteTriangular runs the triangular opportunity under the process-wide
// execution lock: after the balance gate it submits the DEX swap, then places
// one CEX market sell against the pre-positioned hedge balance; the CEX buy
// leg of the detected path is not placed here. A second triangular signal
// arriving while the lock is held is dropped with a warning rather than queued.
func (e *Executor) ExecuteTriangular(ctx context.Context, opp *arbDomain.Opportunity) error {
	if !e.triMu.TryLock() {
		e.logger.Warn(ctx, "triangular execution already in flight, dropping signal",
			"direction", string(opp.Direction))
		return apperror.New(apperror.CodeShapeDisabled, apperror.WithMessage("triangular execution lock held"))
	}
	defer e.triMu.Unlock()

	ctx, span := e.tracer.Start(ctx, "executor.execute_triangular")
	defer span.End()

	cexVenue := string(opp.BuyVenue)
	qty := domain.FloorQty(e.safeQty(opp.Qty, opp.BuyPrice))
	sig := baseSignal(opp, cexVenue, cexVenue)
	sig.Qty = qty

	if qty.IsZero() {
		sig.Outcome = domain.SignalOutcomeAborted
		sig.Detail = "qty rounds to zero after safe-qty cap"
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return apperror.Validation(apperror.CodeInvalidQuote, "execution.triangular.zero_qty")
	}

	cexTrader, ok := e.traders[cexVenue]
	if !ok {
		return apperror.Validation(apperror.CodeShapeDisabled, "execution.triangular.no_trader")
	}

	// Balance gate: on-chain input token and pre-positioned CEX hedge asset.
	var fromAddr, toAddr string
	if opp.DEXQuote != nil {
		fromAddr, toAddr = opp.DEXQuote.FromAddr, opp.DEXQuote.ToAddr
	}
	gateOK := true
	gateDetail := ""
	if e.submitter != nil && fromAddr != "" {
		onChainBal, err := e.submitter.Balance(ctx, fromAddr)
		if err != nil || onChainBal.LessThan(opp.Qty) {
			gateOK = false
			gateDetail = "insufficient on-chain input token balance"
		}
	}
	if gateOK && toAddr != "" {
		hedgeAsset := domain.CoinSymbol(toAddr)
		hedgeBal, err := cexTrader.Balance(ctx, hedgeAsset)
		if err != nil || hedgeBal.LessThan(qty) {
			gateOK = false
			gateDetail = "insufficient pre-positioned cex hedge balance"
		}
	}

	if e.cfg.DryRun {
		sig.Outcome = domain.SignalOutcomeDryRun
		sig.Detail = gateDetail
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		// Dry-run triangular always returns success after the signal is
		// emitted, regardless of the balance-gate outcome.
		return nil
	}

	if !gateOK {
		sig.Outcome = domain.SignalOutcomeAborted
		sig.Detail = gateDetail
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return apperror.Validation(apperror.CodeInsufficientBalance, "execution.triangular."+gateDetail)
	}

	if opp.DEXQuote == nil {
		sig.Outcome = domain.SignalOutcomeAborted
		sig.Detail = "missing dex quote for triangular leg"
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return apperror.Validation(apperror.CodeInvalidQuote, "execution.triangular.no_quote")
	}

	legCtx, cancel := context.WithTimeout(ctx, e.cfg.LegTimeout)
	defer cancel()

	dexRef, dexErr := e.submitter.Submit(legCtx, opp.DEXQuote)
	sig.BuyTxRef = dexRef
	if dexErr != nil {
		sig.Outcome = domain.SignalOutcomeFailed
		sig.Detail = "dex leg failed, cex leg aborted: no unhedged position"
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		return apperror.External(apperror.CodeAptosSubmitFailed, "execution.triangular.dex_leg", dexErr)
	}

	symbol := domain.CoinSymbol(toAddr) + "USDT"
	cexRef, cexErr := cexTrader.PlaceMarketOrder(legCtx, symbol, OrderSideSell, qty)
	sig.SellTxRef = cexRef

	if cexErr != nil {
		sig.Outcome = domain.SignalOutcomeImbalance
		sig.Detail = "cex leg failed after successful dex swap, manual rebalance required"
		e.writeSignal(sig)
		e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
		e.logger.Error(ctx, "triangular position imbalance after dex success",
			"dex_ref", dexRef, "direction", string(opp.Direction))
		return apperror.New(apperror.CodePositionImbalance, apperror.WithMessage("cex leg failed after dex swap succeeded"))
	}

	sig.Outcome = domain.SignalOutcomeExecuted
	e.writeSignal(sig)
	e.recordOutcome(ctx, string(opp.Shape), sig.Outcome)
	return nil
}

// quoteFromAddr and quoteToAddr derive the DEX swap direction from whichever
// quote this opportunity last carried; they feed the re-fetch path, which
// runs when the dispatched DEXQuote is nil or synthetic (the engine attaches
// whatever GetSwapQuote returned, which can be a unit-price-cache quote).
func quoteFromAddr(opp *arbDomain.Opportunity) string {
	if opp.DEXQuote != nil {
		return opp.DEXQuote.FromAddr
	}
	return ""
}

func quoteToAddr(opp *arbDomain.Opportunity) string {
	if opp.DEXQuote != nil {
		return opp.DEXQuote.ToAddr
	}
	return ""
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
