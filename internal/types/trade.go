package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PurchaseType string

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

// Reason codes recorded on trades. Several sell conditions may fire on the
// same bar; the recorded reason follows a fixed precedence (stop loss first)
// and is informational only.
const (
	ReasonBuySignal     string = "buy_signal"
	ReasonStopLoss      string = "stop_loss"
	ReasonTakeProfit    string = "take_profit"
	ReasonTrailingStop  string = "trailing_stop"
	ReasonTrendBreak    string = "trend_breakdown"
	ReasonMACDDeadCross string = "macd_dead_cross"
	ReasonTimeStop      string = "time_stop"
)

// Trade is one executed fill in the append-only ledger. SELL trades carry
// the realized outcome of the round trip they close.
type Trade struct {
	TradeID  string       `csv:"trade_id" yaml:"trade_id"`
	Symbol   string       `csv:"symbol" yaml:"symbol"`
	Side     PurchaseType `csv:"side" yaml:"side"`
	Date     time.Time    `csv:"date" yaml:"date"`
	Price    float64      `csv:"price" yaml:"price"`
	Quantity float64      `csv:"quantity" yaml:"quantity"`
	// Amount is the cash delta of the fill with the commission folded in:
	// cost for buys, proceeds for sells.
	Amount float64 `csv:"amount" yaml:"amount"`
	Fee    float64 `csv:"fee" yaml:"fee"`
	Reason string  `csv:"reason" yaml:"reason"`
	// RealizedProfit, ProfitRate and HoldingDays are populated on SELL
	// trades only.
	RealizedProfit float64 `csv:"realized_profit" yaml:"realized_profit"`
	ProfitRate     float64 `csv:"profit_rate" yaml:"profit_rate"`
	HoldingDays    int     `csv:"holding_days" yaml:"holding_days"`
}

// Position is an open holding. Created when a buy executes while the
// instrument has no open position, mutated once per bar while open, and
// destroyed by the sell that closes it. At most one open Position per
// instrument exists at any simulated date.
type Position struct {
	Symbol     string    `csv:"symbol" yaml:"symbol"`
	EntryDate  time.Time `csv:"entry_date" yaml:"entry_date"`
	EntryPrice float64   `csv:"entry_price" yaml:"entry_price"`
	Quantity   float64   `csv:"quantity" yaml:"quantity"`
	// EntryCost is quantity x entry price plus the buy commission.
	EntryCost float64 `csv:"entry_cost" yaml:"entry_cost"`
	// HighSinceEntry is the highest high observed since (and including)
	// the entry bar. Drives the trailing stop.
	HighSinceEntry float64 `csv:"high_since_entry" yaml:"high_since_entry"`
	// BarsHeld counts trading days since entry; the entry bar itself is 0.
	BarsHeld int `csv:"bars_held" yaml:"bars_held"`
}

// MarkBar updates the running peak and holding-day counter with one more
// bar. Call exactly once per bar strictly after the entry bar.
func (p *Position) MarkBar(high float64) {
	if high > p.HighSinceEntry {
		p.HighSinceEntry = high
	}

	p.BarsHeld++
}

// UnrealizedReturn is the fractional return of the position at the given
// price, relative to the raw entry price (fees excluded, matching the
// signal-side exit rules).
func (p *Position) UnrealizedReturn(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}

	return price/p.EntryPrice - 1
}

// DrawdownFromPeak is the fractional drop of the given price from the
// running peak since entry.
func (p *Position) DrawdownFromPeak(price float64) float64 {
	if p.HighSinceEntry == 0 {
		return 0
	}

	return 1 - price/p.HighSinceEntry
}

// RealizedProfit computes the round-trip profit of closing the full
// position at the given proceeds, using decimal arithmetic so ledger rows
// survive the float round trip exactly.
func (p *Position) RealizedProfit(proceeds float64) float64 {
	proceedsDec := decimal.NewFromFloat(proceeds)
	costDec := decimal.NewFromFloat(p.EntryCost)
	out, _ := proceedsDec.Sub(costDec).Float64()

	return out
}
