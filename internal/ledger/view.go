package ledger

import "github.com/sentra-lab/sentra-trading/internal/types"

// View is an immutable copy of the ledger state handed to the risk gate.
// Risk decisions are pure functions of a View, which keeps them testable
// without a live ledger and guarantees the gate cannot mutate state.
type View struct {
	InitialCapital float64
	Cash           float64
	PositionValue  float64
	PortfolioValue float64
	DailyPnL       float64
	PeakValue      float64
	Positions      map[string]types.Position
}

// View snapshots the current state into an independent copy.
func (l *Ledger) View() View {
	positions := make(map[string]types.Position, len(l.positions))
	for symbol, pos := range l.positions {
		positions[symbol] = *pos
	}

	positionValue := l.PositionValue()

	return View{
		InitialCapital: l.cfg.InitialCapital,
		Cash:           l.cash,
		PositionValue:  positionValue,
		PortfolioValue: l.cash + positionValue,
		DailyPnL:       l.dailyPnL,
		PeakValue:      l.peakValue,
		Positions:      positions,
	}
}

// DailyPnLPct is today's realized P&L as a fraction of initial capital.
func (v View) DailyPnLPct() float64 {
	if v.InitialCapital == 0 {
		return 0
	}

	return v.DailyPnL / v.InitialCapital
}

// Drawdown is the fractional decline from the historical peak value.
func (v View) Drawdown() float64 {
	if v.PeakValue <= 0 {
		return 0
	}

	return (v.PeakValue - v.PortfolioValue) / v.PeakValue
}

// CashRatio is the fraction of the portfolio held in cash.
func (v View) CashRatio() float64 {
	if v.PortfolioValue <= 0 {
		return 0
	}

	return v.Cash / v.PortfolioValue
}

// HasPosition reports whether a position is open for the symbol.
func (v View) HasPosition(symbol string) bool {
	_, ok := v.Positions[symbol]

	return ok
}

// PositionCount is the number of open positions.
func (v View) PositionCount() int {
	return len(v.Positions)
}
