package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents the current holding of one symbol. Positions are owned
// exclusively by the ledger and mutated only through fill reconciliation.
type Position struct {
	Symbol       string    `json:"symbol"`
	Quantity     float64   `json:"quantity"`
	AverageCost  float64   `json:"average_cost"`
	CurrentPrice float64   `json:"current_price"`
	OpenedAt     time.Time `json:"opened_at"`
	// StopPrice and TargetPrice are set when the position opens and checked
	// by the forced-exit pass. StopPrice ratchets up under the trailing rule.
	StopPrice   float64 `json:"stop_price"`
	TargetPrice float64 `json:"target_price"`
}

// MarketValue is quantity times the last marked price.
func (p *Position) MarketValue() float64 {
	v, _ := decimal.NewFromFloat(p.Quantity).Mul(decimal.NewFromFloat(p.CurrentPrice)).Float64()

	return v
}

// CostValue is quantity times the weighted average cost.
func (p *Position) CostValue() float64 {
	v, _ := decimal.NewFromFloat(p.Quantity).Mul(decimal.NewFromFloat(p.AverageCost)).Float64()

	return v
}

// UnrealizedPnL is the mark-to-market gain or loss on the open quantity.
func (p *Position) UnrealizedPnL() float64 {
	return p.MarketValue() - p.CostValue()
}

// UnrealizedPnLPct is the unrealized gain or loss as a percentage of cost.
func (p *Position) UnrealizedPnLPct() float64 {
	if p.AverageCost <= 0 {
		return 0
	}

	return (p.CurrentPrice/p.AverageCost - 1) * 100
}

// TradeRecord is one immutable row of the append-only audit trail, written
// exactly once per filled order.
type TradeRecord struct {
	Timestamp time.Time `json:"timestamp" csv:"timestamp"`
	Type      Side      `json:"type" csv:"type"`
	Code      string    `json:"code" csv:"code"`
	Quantity  float64   `json:"quantity" csv:"quantity"`
	Price     float64   `json:"price" csv:"price"`
	Amount    float64   `json:"amount" csv:"amount"`
	PnL       float64   `json:"pnl" csv:"pnl"`
	Fee       float64   `json:"fee" csv:"fee"`
	Reason    string    `json:"reason" csv:"reason"`
	// PortfolioValue is the total portfolio value after the fill applied.
	PortfolioValue float64 `json:"portfolio_value" csv:"portfolio_value"`
	OrderID        string  `json:"order_id" csv:"order_id"`
}
