// Package domain contains the core domain types for the execution context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalOutcome records what happened to a dispatched opportunity, whether
// it was actually submitted on-chain/to a CEX or only logged in dry-run.
type SignalOutcome string

const (
	SignalOutcomeDryRun    SignalOutcome = "dry_run"
	SignalOutcomeExecuted  SignalOutcome = "executed"
	SignalOutcomeAborted   SignalOutcome = "aborted"
	SignalOutcomeFailed    SignalOutcome = "failed"
	SignalOutcomeImbalance SignalOutcome = "position_imbalance"
)

// Signal is the append-only record written for every dispatched opportunity,
// live or dry-run. It is the sole persisted trace of what the bot decided
// to do; there is no database, so this file is the audit log.
type Signal struct {
	Time       time.Time       `json:"time"`
	Shape      string          `json:"shape"`
	Direction  string          `json:"direction"`
	BuyVenue   string          `json:"buy_venue"`
	SellVenue  string          `json:"sell_venue"`
	BuyPrice   decimal.Decimal `json:"buy_price"`
	SellPrice  decimal.Decimal `json:"sell_price"`
	Qty        decimal.Decimal `json:"qty"`
	NetProfit  decimal.Decimal `json:"net_profit"`
	Outcome    SignalOutcome   `json:"outcome"`
	Detail     string          `json:"detail,omitempty"`
	BuyTxRef   string          `json:"buy_tx_ref,omitempty"`
	SellTxRef  string          `json:"sell_tx_ref,omitempty"`
}
