package cex

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	executionApp "github.com/aptosarb/arbitrage-bot/business/execution/app"
	pricingDomain "github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/apperror"
	"github.com/aptosarb/arbitrage-bot/internal/httpclient"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
	"github.com/shopspring/decimal"
)

const (
	mexcTracerName = "mexc-trader"
	mexcMeterName  = "mexc-trader"

	mexcHTTPTimeout = 10 * time.Second
)

// MEXCConfig configures the MEXC private trading client.
type MEXCConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

type mexcMetrics struct {
	orders metric.Int64Counter
}

// MEXCTrader implements execution/app.CEXTrader against MEXC's v3 private
// order and account endpoints.
type MEXCTrader struct {
	cfg    MEXCConfig
	client httpclient.Client
	tracer trace.Tracer
	logger logger.LoggerInterface
	metric *mexcMetrics
}

// NewMEXCTrader builds a MEXC trading client.
func NewMEXCTrader(cfg MEXCConfig, log logger.LoggerInterface) (*MEXCTrader, error) {
	httpCli, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("mexc-trader"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(mexcHTTPTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("mexc trader: failed to create http client: %w", err)
	}

	meter := otel.Meter(mexcMeterName)
	orders, err := meter.Int64Counter("mexc_orders_total", metric.WithDescription("MEXC market orders placed, by outcome"))
	if err != nil {
		return nil, err
	}

	return &MEXCTrader{
		cfg:    cfg,
		client: httpCli,
		tracer: otel.Tracer(mexcTracerName),
		logger: log,
		metric: &mexcMetrics{orders: orders},
	}, nil
}

// Venue implements execution/app.CEXTrader.
func (t *MEXCTrader) Venue() pricingDomain.Venue { return pricingDomain.VenueMEXC }

type mexcOrderResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
}

// PlaceMarketOrder implements execution/app.CEXTrader.
func (t *MEXCTrader) PlaceMarketOrder(ctx context.Context, symbol string, side executionApp.OrderSide, qty decimal.Decimal) (string, error) {
	ctx, span := t.tracer.Start(ctx, "mexc_trader.place_market_order", trace.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("side", string(side)),
	))
	defer span.End()

	params := map[string]string{
		"symbol":    symbol,
		"side":      mexcSide(side),
		"type":      "MARKET",
		"quantity":  qty.String(),
		"timestamp": strconv.FormatInt(time.Now().UnixMilli(), 10),
	}

	var result mexcOrderResponse
	resp, err := t.signedRequest(ctx, "POST", "/api/v3/order", params, &result)
	if err != nil {
		t.metric.orders.Add(ctx, 1, attrOutcome("error"))
		return "", apperror.External(apperror.CodeCEXConnectionFailed, "mexc_trader.place_market_order", err)
	}
	if resp.IsError() || result.Code != 0 {
		t.metric.orders.Add(ctx, 1, attrOutcome("rejected"))
		return "", apperror.New(apperror.CodeCEXAPIError, apperror.WithContext(fmt.Sprintf("mexc order rejected: %s", result.Msg)))
	}

	t.metric.orders.Add(ctx, 1, attrOutcome("filled"))
	return result.OrderID, nil
}

type mexcBalanceEntry struct {
	Asset string `json:"asset"`
	Free  string `json:"free"`
}

type mexcAccountResponse struct {
	Balances []mexcBalanceEntry `json:"balances"`
	Code     int                `json:"code"`
	Msg      string             `json:"msg"`
}

// Balance implements execution/app.CEXTrader.
func (t *MEXCTrader) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(time.Now().UnixMilli(), 10),
	}

	var result mexcAccountResponse
	resp, err := t.signedRequest(ctx, "GET", "/api/v3/account", params, &result)
	if err != nil {
		return decimal.Zero, apperror.External(apperror.CodeCEXConnectionFailed, "mexc_trader.balance", err)
	}
	if resp.IsError() || result.Code != 0 {
		return decimal.Zero, apperror.New(apperror.CodeCEXAPIError, apperror.WithContext("mexc account query failed: "+result.Msg))
	}

	for _, b := range result.Balances {
		if b.Asset == asset {
			return decimal.NewFromString(b.Free)
		}
	}
	return decimal.Zero, nil
}

func mexcSide(side executionApp.OrderSide) string {
	if side == executionApp.OrderSideBuy {
		return "BUY"
	}
	return "SELL"
}

// signedRequest applies MEXC v3's HMAC-SHA256 query-string signature,
// appending the computed signature as its own query parameter.
func (t *MEXCTrader) signedRequest(ctx context.Context, method, path string, params map[string]string, result any) (*httpclient.Response, error) {
	queryString := buildQueryString(params)
	signature := hmacSHA256(t.cfg.APISecret, queryString)
	params["signature"] = signature

	req := t.client.NewRequest().
		SetHeader("X-MEXC-APIKEY", t.cfg.APIKey).
		SetResult(result)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	if method == "GET" {
		return req.Get(ctx, path)
	}
	return req.Post(ctx, path)
}
