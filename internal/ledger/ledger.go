// Package ledger tracks cash, open positions and realized performance. It is
// the single source of truth for portfolio state: the risk gate reads it
// through an immutable View and every mutation goes through ApplyFill or
// MarkToMarket. The ledger is owned by the evaluation loop and must never be
// mutated from broker callback goroutines; callbacks enqueue fill events that
// the loop applies in order, so no locking happens here.
package ledger

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// invariantTolerance absorbs float accumulation across decimal/float
// boundary conversions. Anything above it is treated as real corruption.
const invariantTolerance = 1e-4

// Ledger is the owned portfolio state for one account.
type Ledger struct {
	cfg  config.RiskConfig
	mode types.Mode
	log  *logger.Logger

	cash      float64
	positions map[string]*types.Position

	realizedPnL float64
	dailyPnL    float64
	totalFees   float64
	peakValue   float64

	closedTrades  int
	winningTrades int
}

// New creates a ledger holding the configured initial capital in cash.
func New(cfg config.RiskConfig, mode types.Mode, log *logger.Logger) *Ledger {
	return &Ledger{
		cfg:           cfg,
		mode:          mode,
		log:           log,
		cash:          cfg.InitialCapital,
		positions:     make(map[string]*types.Position),
		realizedPnL:   0,
		dailyPnL:      0,
		totalFees:     0,
		peakValue:     cfg.InitialCapital,
		closedTrades:  0,
		winningTrades: 0,
	}
}

// ApplyFill reconciles one filled order into cash and positions and returns
// the TradeRecord for the audit trail. Buys use weighted average cost; sells
// realize P&L against that average and shrink or remove the position.
func (l *Ledger) ApplyFill(order types.Order) (types.TradeRecord, error) {
	if order.Status != types.OrderStatusFilled {
		return types.TradeRecord{}, errors.Newf(errors.ErrCodeInvalidOrder,
			"cannot apply fill for order %s in status %s", order.ID, order.Status)
	}

	qty := decimal.NewFromFloat(order.FilledQuantity)
	price := decimal.NewFromFloat(order.FilledPrice)
	amount, _ := qty.Mul(price).Float64()

	record := types.TradeRecord{
		Timestamp:      order.Timestamp,
		Type:           order.Side,
		Code:           order.Symbol,
		Quantity:       order.FilledQuantity,
		Price:          order.FilledPrice,
		Amount:         amount,
		PnL:            0,
		Fee:            order.Fee,
		Reason:         order.Reason,
		PortfolioValue: 0,
		OrderID:        order.ID,
	}

	switch order.Side {
	case types.SideBuy:
		if amount+order.Fee > l.cash+invariantTolerance {
			return types.TradeRecord{}, errors.Newf(errors.ErrCodeInsufficientFunds,
				"fill cost %.2f exceeds cash %.2f", amount+order.Fee, l.cash)
		}

		l.cash -= amount + order.Fee
		l.applyBuy(order)

	case types.SideSell:
		pos, ok := l.positions[order.Symbol]
		if !ok || pos.Quantity < order.FilledQuantity-invariantTolerance {
			return types.TradeRecord{}, errors.Newf(errors.ErrCodeInsufficientShares,
				"sell fill for %s exceeds held quantity", order.Symbol)
		}

		pnl := l.applySell(pos, order)
		record.PnL = pnl
	}

	l.totalFees += order.Fee
	record.PortfolioValue = l.PortfolioValue()

	if err := l.checkInvariant(); err != nil {
		return types.TradeRecord{}, err
	}

	l.log.Info("Fill applied",
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("quantity", order.FilledQuantity),
		zap.Float64("price", order.FilledPrice),
		zap.Float64("pnl", record.PnL),
		zap.Float64("cash", l.cash),
	)

	return record, nil
}

func (l *Ledger) applyBuy(order types.Order) {
	pos, ok := l.positions[order.Symbol]
	if !ok {
		l.positions[order.Symbol] = &types.Position{
			Symbol:       order.Symbol,
			Quantity:     order.FilledQuantity,
			AverageCost:  order.FilledPrice,
			CurrentPrice: order.FilledPrice,
			OpenedAt:     order.Timestamp,
			StopPrice:    order.FilledPrice * (1 - l.cfg.StopLossPct),
			TargetPrice:  order.FilledPrice * (1 + l.cfg.TakeProfitPct),
		}

		return
	}

	// Weighted average cost over the combined quantity.
	oldCost := decimal.NewFromFloat(pos.Quantity).Mul(decimal.NewFromFloat(pos.AverageCost))
	newCost := decimal.NewFromFloat(order.FilledQuantity).Mul(decimal.NewFromFloat(order.FilledPrice))
	totalQty := pos.Quantity + order.FilledQuantity

	avg, _ := oldCost.Add(newCost).Div(decimal.NewFromFloat(totalQty)).Float64()

	pos.Quantity = totalQty
	pos.AverageCost = avg
	pos.CurrentPrice = order.FilledPrice
	pos.StopPrice = avg * (1 - l.cfg.StopLossPct)
	pos.TargetPrice = avg * (1 + l.cfg.TakeProfitPct)
}

func (l *Ledger) applySell(pos *types.Position, order types.Order) float64 {
	qty := decimal.NewFromFloat(order.FilledQuantity)
	price := decimal.NewFromFloat(order.FilledPrice)
	avg := decimal.NewFromFloat(pos.AverageCost)

	revenue, _ := qty.Mul(price).Float64()
	pnl, _ := price.Sub(avg).Mul(qty).Sub(decimal.NewFromFloat(order.Fee)).Float64()

	l.cash += revenue - order.Fee
	l.realizedPnL += pnl
	l.dailyPnL += pnl

	l.closedTrades++
	if pnl > 0 {
		l.winningTrades++
	}

	pos.Quantity -= order.FilledQuantity
	pos.CurrentPrice = order.FilledPrice

	if pos.Quantity <= invariantTolerance {
		delete(l.positions, pos.Symbol)
	}

	return pnl
}

// MarkToMarket refreshes current prices on open positions and advances the
// peak value used for drawdown accounting. Symbols missing from prices keep
// their last mark (a data gap never zeroes a position).
func (l *Ledger) MarkToMarket(prices map[string]float64) {
	for symbol, pos := range l.positions {
		if price, ok := prices[symbol]; ok && price > 0 {
			pos.CurrentPrice = price
		}
	}

	if v := l.PortfolioValue(); v > l.peakValue {
		l.peakValue = v
	}
}

// PortfolioValue is cash plus the marked value of every open position.
func (l *Ledger) PortfolioValue() float64 {
	return l.cash + l.PositionValue()
}

// PositionValue is the summed market value of open positions.
func (l *Ledger) PositionValue() float64 {
	total := decimal.Zero
	for _, pos := range l.positions {
		total = total.Add(decimal.NewFromFloat(pos.MarketValue()))
	}

	v, _ := total.Float64()

	return v
}

// Snapshot produces the externally visible portfolio state for this cycle.
// Holdings are sorted by code so snapshot sequences are reproducible.
func (l *Ledger) Snapshot(ts time.Time, halted bool) types.PortfolioSnapshot {
	positionValue := l.PositionValue()
	portfolioValue := l.cash + positionValue
	unrealized := l.unrealizedPnL()
	totalPnL := l.realizedPnL + unrealized

	holdings := make([]types.Holding, 0, len(l.positions))
	for _, pos := range l.positions {
		holdings = append(holdings, types.Holding{
			Code:             pos.Symbol,
			Quantity:         pos.Quantity,
			AverageCost:      pos.AverageCost,
			CurrentPrice:     pos.CurrentPrice,
			MarketValue:      pos.MarketValue(),
			UnrealizedPnL:    pos.UnrealizedPnL(),
			UnrealizedPnLPct: pos.UnrealizedPnLPct(),
			StopPrice:        pos.StopPrice,
			TargetPrice:      pos.TargetPrice,
		})
	}

	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Code < holdings[j].Code })

	return types.PortfolioSnapshot{
		Timestamp:      ts,
		PortfolioValue: portfolioValue,
		Cash:           l.cash,
		PositionValue:  positionValue,
		TotalPnL:       totalPnL,
		TotalPnLPct:    totalPnL / l.cfg.InitialCapital * 100,
		DailyPnL:       l.dailyPnL,
		PositionCount:  len(l.positions),
		WinRate:        l.WinRate(),
		Mode:           l.mode,
		Holdings:       holdings,
		Halted:         halted,
	}
}

// WinRate is closed-profitable-trades over total closed trades, in percent.
func (l *Ledger) WinRate() float64 {
	if l.closedTrades == 0 {
		return 0
	}

	return float64(l.winningTrades) / float64(l.closedTrades) * 100
}

// ResetDaily zeroes the daily P&L. Called only at the session boundary.
func (l *Ledger) ResetDaily() {
	l.dailyPnL = 0
	l.log.Info("Daily P&L reset")
}

// TrailStop raises a position's stop price. Used by the risk manager's
// trailing rule; the ledger only validates the ratchet direction.
func (l *Ledger) TrailStop(symbol string, stopPrice float64) {
	pos, ok := l.positions[symbol]
	if !ok {
		return
	}

	if stopPrice > pos.StopPrice {
		pos.StopPrice = stopPrice
		l.log.Debug("Trailing stop raised",
			zap.String("symbol", symbol),
			zap.Float64("stop_price", stopPrice),
		)
	}
}

func (l *Ledger) unrealizedPnL() float64 {
	total := decimal.Zero
	for _, pos := range l.positions {
		total = total.Add(decimal.NewFromFloat(pos.UnrealizedPnL()))
	}

	v, _ := total.Float64()

	return v
}

// checkInvariant verifies the accounting identity
//
//	cash + position value == initial capital + realized P&L + unrealized P&L - fees
//
// after each mutation. A violation means the audit trail can no longer be
// trusted, so it is fatal: the engine halts rather than continue silently.
func (l *Ledger) checkInvariant() error {
	left := l.cash + l.PositionValue()
	right := l.cfg.InitialCapital + l.realizedPnL + l.unrealizedPnL() - l.totalFees

	if math.Abs(left-right) > invariantTolerance {
		l.log.Error("Ledger invariant violated",
			zap.Float64("cash_plus_positions", left),
			zap.Float64("capital_plus_pnl", right),
		)

		return errors.Newf(errors.ErrCodeLedgerInvariant,
			"portfolio value %.4f does not reconcile with capital and P&L %.4f", left, right)
	}

	return nil
}
