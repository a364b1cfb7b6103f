// Package cex implements the execution context's CEXTrader port against
// Bybit and MEXC's private trading REST endpoints. Feed adapters in the
// pricing context stay read-only; these clients are the only place the bot
// places live orders.
package cex

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
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
	bybitTracerName = "bybit-trader"
	bybitMeterName  = "bybit-trader"

	bybitHTTPTimeout = 10 * time.Second
	bybitRecvWindow  = "5000"
)

// BybitConfig configures the Bybit private trading client.
type BybitConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

type bybitMetrics struct {
	orders metric.Int64Counter
}

// BybitTrader implements execution/app.CEXTrader against Bybit's v5 private
// order and wallet-balance endpoints.
type BybitTrader struct {
	cfg    BybitConfig
	client httpclient.Client
	tracer trace.Tracer
	logger logger.LoggerInterface
	metric *bybitMetrics
}

// NewBybitTrader builds a Bybit trading client.
func NewBybitTrader(cfg BybitConfig, log logger.LoggerInterface) (*BybitTrader, error) {
	httpCli, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("bybit-trader"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(bybitHTTPTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("bybit trader: failed to create http client: %w", err)
	}

	meter := otel.Meter(bybitMeterName)
	orders, err := meter.Int64Counter("bybit_orders_total", metric.WithDescription("Bybit market orders placed, by outcome"))
	if err != nil {
		return nil, err
	}

	return &BybitTrader{
		cfg:    cfg,
		client: httpCli,
		tracer: otel.Tracer(bybitTracerName),
		logger: log,
		metric: &bybitMetrics{orders: orders},
	}, nil
}

// Venue implements execution/app.CEXTrader.
func (t *BybitTrader) Venue() pricingDomain.Venue { return pricingDomain.VenueBybit }

type bybitOrderResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		OrderID string `json:"orderId"`
	} `json:"result"`
}

// PlaceMarketOrder implements execution/app.CEXTrader.
func (t *BybitTrader) PlaceMarketOrder(ctx context.Context, symbol string, side executionApp.OrderSide, qty decimal.Decimal) (string, error) {
	ctx, span := t.tracer.Start(ctx, "bybit_trader.place_market_order", trace.WithAttributes(
		attribute.String("symbol", symbol),
		attribute.String("side", string(side)),
	))
	defer span.End()

	body := map[string]any{
		"category":  "spot",
		"symbol":    symbol,
		"side":      bybitSide(side),
		"orderType": "Market",
		"qty":       qty.String(),
	}

	var result bybitOrderResponse
	resp, err := t.signedRequest(ctx, "POST", "/v5/order/create", nil, body, &result)
	if err != nil {
		t.metric.orders.Add(ctx, 1, attrOutcome("error"))
		return "", apperror.External(apperror.CodeCEXConnectionFailed, "bybit_trader.place_market_order", err)
	}
	if resp.IsError() || result.RetCode != 0 {
		t.metric.orders.Add(ctx, 1, attrOutcome("rejected"))
		return "", apperror.New(apperror.CodeCEXAPIError, apperror.WithContext(fmt.Sprintf("bybit order rejected: %s", result.RetMsg)))
	}

	t.metric.orders.Add(ctx, 1, attrOutcome("filled"))
	return result.Result.OrderID, nil
}

type bybitBalanceResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Coin []struct {
				Coin            string `json:"coin"`
				WalletBalance   string `json:"walletBalance"`
				AvailableToWithdraw string `json:"availableToWithdraw"`
			} `json:"coin"`
		} `json:"list"`
	} `json:"result"`
}

// Balance implements execution/app.CEXTrader.
func (t *BybitTrader) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	query := map[string]string{
		"accountType": "UNIFIED",
		"coin":        asset,
	}

	var result bybitBalanceResponse
	resp, err := t.signedRequest(ctx, "GET", "/v5/account/wallet-balance", query, nil, &result)
	if err != nil {
		return decimal.Zero, apperror.External(apperror.CodeCEXConnectionFailed, "bybit_trader.balance", err)
	}
	if resp.IsError() || result.RetCode != 0 {
		return decimal.Zero, apperror.New(apperror.CodeCEXAPIError, apperror.WithContext("bybit balance query failed: "+result.RetMsg))
	}

	for _, acct := range result.Result.List {
		for _, coin := range acct.Coin {
			if coin.Coin == asset {
				free := coin.AvailableToWithdraw
				if free == "" {
					free = coin.WalletBalance
				}
				return decimal.NewFromString(free)
			}
		}
	}
	return decimal.Zero, nil
}

func bybitSide(side executionApp.OrderSide) string {
	if side == executionApp.OrderSideBuy {
		return "Buy"
	}
	return "Sell"
}

// signedRequest applies Bybit v5's HMAC-SHA256 request signature:
// sign(timestamp + apiKey + recvWindow + queryStringOrBody).
func (t *BybitTrader) signedRequest(ctx context.Context, method, path string, query map[string]string, body map[string]any, result any) (*httpclient.Response, error) {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)

	var payload string
	req := t.client.NewRequest()
	if method == "GET" {
		payload = buildQueryString(query)
		for k, v := range query {
			req.SetQueryParam(k, v)
		}
	} else {
		payload = jsonCompact(body)
		req.SetBody(body)
	}

	signature := hmacSHA256(t.cfg.APISecret, ts+t.cfg.APIKey+bybitRecvWindow+payload)

	req.SetHeader("X-BAPI-API-KEY", t.cfg.APIKey).
		SetHeader("X-BAPI-TIMESTAMP", ts).
		SetHeader("X-BAPI-RECV-WINDOW", bybitRecvWindow).
		SetHeader("X-BAPI-SIGN", signature).
		SetResult(result)

	if method == "GET" {
		return req.Get(ctx, path)
	}
	return req.Post(ctx, path)
}

func hmacSHA256(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func attrOutcome(outcome string) metric.AddOption {
	return metric.WithAttributes(attribute.String("outcome", outcome))
}
