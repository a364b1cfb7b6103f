package panora

import (
	"time"

	"github.com/aptosarb/arbitrage-bot/business/pricing/domain"
	"github.com/aptosarb/arbitrage-bot/internal/apperror"
	"github.com/shopspring/decimal"
)

// txData mirrors the entry-function payload Panora embeds in a swap
// response, ready for the on-chain submitter's BCS encoder.
type txData struct {
	Function         string `json:"function"`
	TypeArguments     []string `json:"typeArguments"`
	FunctionArguments []any    `json:"functionArguments"`
}

// quoteResponse mirrors Panora's /swap response. The aggregator nests the
// quote under "quotes[0]" on some routes and returns it flat on others, so
// both shapes are decoded and reconciled by toDomainQuote.
type quoteResponse struct {
	FromTokenAmount string   `json:"fromTokenAmount"`
	ToTokenAmount   string   `json:"toTokenAmount"`
	TxData          *txData  `json:"txData"`
	Quotes          []struct {
		FromTokenAmount string  `json:"fromTokenAmount"`
		ToTokenAmount   string  `json:"toTokenAmount"`
		TxData          *txData `json:"txData"`
	} `json:"quotes"`
}

func (r quoteResponse) toDomainQuote(fromAddr, toAddr string, fromAmount decimal.Decimal) (*domain.SwapQuote, error) {
	toAmountStr := r.ToTokenAmount
	var td *txData
	if toAmountStr == "" && len(r.Quotes) > 0 {
		toAmountStr = r.Quotes[0].ToTokenAmount
		td = r.Quotes[0].TxData
	} else {
		td = r.TxData
	}
	if toAmountStr == "" {
		return nil, apperror.New(apperror.CodeQuoteParseFailure, apperror.WithContext("missing toTokenAmount"))
	}

	toAmount, err := decimal.NewFromString(toAmountStr)
	if err != nil {
		return nil, apperror.New(apperror.CodeQuoteParseFailure, apperror.WithCause(err), apperror.WithContext("toTokenAmount"))
	}
	if fromAmount.IsZero() {
		return nil, apperror.New(apperror.CodeInvalidQuote, apperror.WithContext("zero fromAmount"))
	}

	var payload *domain.SwapPayload
	if td != nil && td.Function != "" {
		payload = &domain.SwapPayload{
			Function:      td.Function,
			TypeArguments: td.TypeArguments,
			Arguments:     td.FunctionArguments,
		}
	}

	return &domain.SwapQuote{
		FromAddr:   fromAddr,
		ToAddr:     toAddr,
		FromAmount: fromAmount,
		ToAmount:   toAmount,
		UnitPrice:  toAmount.Div(fromAmount),
		Payload:    payload,
		FetchedAt:  time.Now(),
	}, nil
}
