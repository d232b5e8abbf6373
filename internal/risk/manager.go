// Package risk enforces capital limits between signal composition and order
// submission. Every entry and exit signal passes through the gate; the gate
// never creates signals of its own except for forced exits, which protect
// open positions regardless of what the composer says.
package risk

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/ledger"
	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/types"
)

// entryCashReserve keeps a buffer inside the sizing budget so a buy plus its
// fee never exhausts cash exactly to zero.
const entryCashReserve = 0.95

// Decision is the outcome of one gate evaluation. A rejected decision
// carries the reason of the first gate that failed; gates after it are not
// evaluated, so rejection reasons are deterministic.
type Decision struct {
	Approved bool
	Intent   types.OrderIntent
	Reason   string
}

// StopAdjustment instructs the ledger to raise a trailing stop. The gate is
// pure over a View, so ratchets are returned rather than applied.
type StopAdjustment struct {
	Symbol    string
	StopPrice float64
}

// Manager is the risk gate. It holds the halt latch; all other state it
// evaluates lives in the ledger View passed per call.
type Manager struct {
	cfg config.RiskConfig
	log *logger.Logger

	halted     bool
	haltReason string
}

// NewManager creates a risk manager with the halt latch released.
func NewManager(cfg config.RiskConfig, log *logger.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// Halted reports whether the drawdown kill-switch has latched.
func (m *Manager) Halted() bool {
	return m.halted
}

// HaltReason is the reason recorded when the latch tripped.
func (m *Manager) HaltReason() string {
	return m.haltReason
}

// Halt latches the kill-switch. Once latched, only forced exits pass until
// ResetHalt is called explicitly; the system never un-halts on its own.
func (m *Manager) Halt(reason string) {
	if m.halted {
		return
	}

	m.halted = true
	m.haltReason = reason
	m.log.Warn("Trading halted", zap.String("reason", reason))
}

// ResetHalt releases the kill-switch. Intended for operator intervention,
// never called from the evaluation loop.
func (m *Manager) ResetHalt() {
	m.halted = false
	m.haltReason = ""
	m.log.Info("Trading halt reset")
}

// Approve runs a composed signal through the gate and, when it passes,
// returns the sized order intent. HOLD signals are never approved.
func (m *Manager) Approve(signal types.Signal, price float64, view ledger.View) Decision {
	switch signal.Action {
	case types.SignalActionBuy:
		return m.approveEntry(signal, price, view)
	case types.SignalActionSell:
		return m.approveExit(signal, price, view)
	default:
		return Decision{Approved: false, Reason: "hold"}
	}
}

// approveEntry applies the entry gates in their fixed order; the first
// failing gate rejects and later gates are not evaluated.
func (m *Manager) approveEntry(signal types.Signal, price float64, view ledger.View) Decision {
	if m.halted {
		return m.reject(signal, types.IntentReasonDrawdownHalt)
	}

	if view.DailyPnLPct() <= -m.cfg.DailyLossLimitPct {
		return m.reject(signal, types.IntentReasonDailyLossLimit)
	}

	if view.Drawdown() >= m.cfg.MaxDrawdownPct {
		m.Halt(types.IntentReasonDrawdownHalt)

		return m.reject(signal, types.IntentReasonDrawdownHalt)
	}

	if view.HasPosition(signal.Symbol) {
		return m.reject(signal, types.IntentReasonAlreadyHolding)
	}

	if view.PositionCount() >= m.cfg.MaxPositions {
		return m.reject(signal, types.IntentReasonPositionCountCap)
	}

	if view.CashRatio() < m.cfg.MinCashPct {
		return m.reject(signal, types.IntentReasonMinCashFloor)
	}

	quantity := m.sizeEntry(price, view)
	if quantity < 1 {
		return m.reject(signal, types.IntentReasonBelowMinQuantity)
	}

	return Decision{
		Approved: true,
		Intent: types.OrderIntent{
			Symbol:    signal.Symbol,
			Side:      types.SideBuy,
			Quantity:  quantity,
			PriceHint: price,
			Reason:    types.IntentReasonEntry,
			Timestamp: signal.Timestamp,
		},
	}
}

// approveExit passes composed SELL signals for held symbols. Exits are never
// blocked by the daily-loss breaker or the halt latch; blocking an exit can
// only increase risk.
func (m *Manager) approveExit(signal types.Signal, price float64, view ledger.View) Decision {
	pos, ok := view.Positions[signal.Symbol]
	if !ok {
		return m.reject(signal, "no open position")
	}

	return Decision{
		Approved: true,
		Intent: types.OrderIntent{
			Symbol:    signal.Symbol,
			Side:      types.SideSell,
			Quantity:  pos.Quantity,
			PriceHint: price,
			Reason:    types.IntentReasonExitSignal,
			Timestamp: signal.Timestamp,
		},
	}
}

// sizeEntry computes the whole-share quantity for an entry: the per-position
// budget is the smaller of max_position_pct of portfolio value and the cash
// reserve fraction of available cash.
func (m *Manager) sizeEntry(price float64, view ledger.View) float64 {
	if price <= 0 {
		return 0
	}

	budget := math.Min(view.PortfolioValue*m.cfg.MaxPositionPct, view.Cash*entryCashReserve)

	return math.Floor(budget / price)
}

// CheckExits scans open positions for stop-loss, take-profit and trailing
// conditions. Forced exits take priority over composed signals for the same
// symbol and bypass every entry gate. Positions are scanned in symbol order
// so the resulting intents are deterministic.
func (m *Manager) CheckExits(view ledger.View, prices map[string]float64, ts time.Time) ([]types.OrderIntent, []StopAdjustment) {
	symbols := make([]string, 0, len(view.Positions))
	for symbol := range view.Positions {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	var (
		intents     []types.OrderIntent
		adjustments []StopAdjustment
	)

	for _, symbol := range symbols {
		pos := view.Positions[symbol]

		price, ok := prices[symbol]
		if !ok || price <= 0 {
			price = pos.CurrentPrice
		}

		if price <= 0 {
			continue
		}

		if reason, forced := m.forcedExitReason(pos, price); forced {
			m.log.Info("Forced exit",
				zap.String("symbol", symbol),
				zap.String("reason", reason),
				zap.Float64("price", price),
				zap.Float64("stop_price", pos.StopPrice),
			)

			intents = append(intents, types.OrderIntent{
				Symbol:    symbol,
				Side:      types.SideSell,
				Quantity:  pos.Quantity,
				PriceHint: price,
				Reason:    reason,
				Timestamp: ts,
			})

			continue
		}

		if adj, ok := m.trailAdjustment(pos, price); ok {
			adjustments = append(adjustments, adj)
		}
	}

	return intents, adjustments
}

// forcedExitReason checks the exit conditions in priority order: stop-loss
// (which covers a ratcheted trailing stop), then take-profit.
func (m *Manager) forcedExitReason(pos types.Position, price float64) (string, bool) {
	if pos.StopPrice > 0 && price <= pos.StopPrice {
		if pos.StopPrice > pos.AverageCost*(1-m.cfg.StopLossPct)+1e-9 {
			return types.IntentReasonTrailingStop, true
		}

		return types.IntentReasonStopLoss, true
	}

	if pos.TargetPrice > 0 && price >= pos.TargetPrice {
		return types.IntentReasonTakeProfit, true
	}

	return "", false
}

// trailAdjustment arms the trailing stop once unrealized gain reaches the
// activation threshold and ratchets it upward with price. Stops only rise.
func (m *Manager) trailAdjustment(pos types.Position, price float64) (StopAdjustment, bool) {
	if pos.AverageCost <= 0 {
		return StopAdjustment{}, false
	}

	gainPct := (price - pos.AverageCost) / pos.AverageCost * 100
	if gainPct < m.cfg.TrailingActivatePct {
		return StopAdjustment{}, false
	}

	candidate := price * (1 - m.cfg.TrailingStopPct)
	if candidate <= pos.StopPrice {
		return StopAdjustment{}, false
	}

	return StopAdjustment{Symbol: pos.Symbol, StopPrice: candidate}, true
}

// reject logs and returns a rejected decision with the gate's reason.
func (m *Manager) reject(signal types.Signal, reason string) Decision {
	m.log.Debug("Entry rejected",
		zap.String("symbol", signal.Symbol),
		zap.String("reason", reason),
	)

	return Decision{Approved: false, Reason: reason}
}
