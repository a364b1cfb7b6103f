// Package arbitrage implements the arbitrage bounded context: the detection
// engine that reads the shared price store, runs all three shapes against
// it, and dispatches profitable opportunities to the execution context.
package arbitrage

import (
	"context"
	"time"

	"github.com/aptosarb/arbitrage-bot/business/arbitrage/app"
	arbitrageDI "github.com/aptosarb/arbitrage-bot/business/arbitrage/di"
	executionDI "github.com/aptosarb/arbitrage-bot/business/execution/di"
	pricingApp "github.com/aptosarb/arbitrage-bot/business/pricing/app"
	pricingDI "github.com/aptosarb/arbitrage-bot/business/pricing/di"
	pricingDomain "github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/asset"
	"github.com/aptosarb/arbitrage-bot/internal/config"
	"github.com/aptosarb/arbitrage-bot/internal/di"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/aptosarb/arbitrage-bot/internal/monolith"
	"github.com/shopspring/decimal"
)

// Module implements the arbitrage bounded context.
type Module struct {
	engine *app.Engine
}

// RegisterServices registers the detection Engine with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbitrageDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		store := pricingDI.GetStore(sr)
		quoteClient := pricingDI.GetQuoteClient(sr)
		executor := executionDI.GetExecutor(sr)

		engCfg := buildEngineConfig(cfg)
		return app.NewEngine(store, quoteClient, executor, engCfg, log)
	})
	return nil
}

// Startup launches the engine's detection loop in the background; the loop
// runs until ctx is cancelled and logs its own tick errors, so Startup never
// blocks and never fails once the engine itself was constructed.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	engine := arbitrageDI.GetEngine(mono.Services())
	m.engine = engine

	go func() {
		if err := engine.Run(ctx); err != nil {
			log.Error(ctx, "arbitrage engine stopped", "error", err)
		}
	}()

	log.Info(ctx, "arbitrage module started")
	return nil
}

// buildEngineConfig derives the engine's symbol keys, addresses and timing
// policy from the loaded configuration. The primary CEX pair is the first
// entry of cfg.Bybit.Symbols that is not "APTUSDT" ("AMIUSDT" when there is
// none); the APT leg always trades against USDT.
func buildEngineConfig(cfg *config.Config) app.EngineConfig {
	cexSymbol := pricingDomain.Symbol("AMIUSDT")
	for _, s := range cfg.Bybit.Symbols {
		if s != "APTUSDT" {
			cexSymbol = pricingDomain.Symbol(s)
			break
		}
	}

	fromID := asset.NewAssetID(asset.NetworkAptos, cfg.Panora.FromTokenAddress)
	toID := asset.NewAssetID(asset.NetworkAptos, cfg.Panora.ToTokenAddress)
	aptID := asset.NewAssetID(asset.NetworkAptos, cfg.Panora.AptTokenAddress)

	return app.EngineConfig{
		CEXSymbol: cexSymbol,
		APTSymbol: pricingDomain.Symbol("APTUSDT"),

		DEXSymbol:         pricingApp.DEXSymbol(fromID, toID),
		DEXAPTToAMISymbol: pricingApp.DEXSymbol(aptID, fromID),
		DEXAMIToAPTSymbol: pricingApp.DEXSymbol(fromID, aptID),

		AptAddr:  cfg.Panora.AptTokenAddress,
		AmiAddr:  cfg.Panora.FromTokenAddress,
		UsdtAddr: cfg.Panora.ToTokenAddress,

		BybitFeeRate:  cfg.Bybit.FeeDecimal(),
		MEXCFeeRate:   cfg.MEXC.FeeDecimal(),
		PanoraFeeRate: cfg.Panora.FeeDecimal(),

		MinProfit:       cfg.Arbitrage.MinProfitThresholdDecimal(),
		TradeAmountUSDT: cfg.Arbitrage.TradeAmountDecimal(),

		CheckInterval:     cfg.Arbitrage.CheckInterval,
		VerifyCooldown:    secondsToDuration(cfg.Arbitrage.VerifyCooldownS),
		SlippageTolerance: cfg.Arbitrage.SlippageToleranceDecimal(),
		SkipPanoraVerify:  cfg.Panora.SkipVerify,

		DexCexQuoteMaxAge: secondsToDuration(cfg.Arbitrage.DexCexQuoteMaxAgeS),
		TriQuoteMaxAge:    secondsToDuration(cfg.Arbitrage.TriQuoteMaxAgeS),
		CEXQuoteMaxAge:    secondsToDuration(cfg.Arbitrage.ExecQuoteMaxAgeS),

		// Shapes are toggled by the credentials they need, not hardcoded on:
		// CEX-CEX needs both exchanges' trading keys; DEX-CEX and triangular
		// additionally need a wallet key to sign the on-chain swap leg.
		EnableCEXCEX:     cfg.CEXTradingEnabled(),
		EnableDEXCEX:     cfg.CEXTradingEnabled() && cfg.CanSignTransactions(),
		EnableTriangular: cfg.CEXTradingEnabled() && cfg.CanSignTransactions(),

		HeartbeatInterval: secondsToDuration(cfg.Arbitrage.HeartbeatIntervalS),
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(decimal.NewFromFloat(s).Mul(decimal.NewFromInt(int64(time.Second))).IntPart())
}
