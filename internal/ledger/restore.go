package ledger

import (
	"go.uber.org/zap"

	"github.com/sentra-lab/sentra-trading/internal/types"
)

// Restore seeds the ledger from a persisted snapshot so a restarted live
// session continues from its last known state instead of from pristine
// capital. Realized P&L is recovered from the accounting identity; fees are
// folded into it because the snapshot does not carry them separately.
func (l *Ledger) Restore(snap types.PortfolioSnapshot) {
	l.cash = snap.Cash
	l.dailyPnL = snap.DailyPnL
	l.positions = make(map[string]*types.Position, len(snap.Holdings))

	for _, h := range snap.Holdings {
		l.positions[h.Code] = &types.Position{
			Symbol:       h.Code,
			Quantity:     h.Quantity,
			AverageCost:  h.AverageCost,
			CurrentPrice: h.CurrentPrice,
			OpenedAt:     snap.Timestamp,
			StopPrice:    h.StopPrice,
			TargetPrice:  h.TargetPrice,
		}
	}

	l.totalFees = 0
	l.realizedPnL = l.cash + l.PositionValue() - l.cfg.InitialCapital - l.unrealizedPnL()

	if v := l.PortfolioValue(); v > l.peakValue {
		l.peakValue = v
	}

	l.log.Info("Ledger restored from snapshot",
		zap.Time("as_of", snap.Timestamp),
		zap.Float64("cash", l.cash),
		zap.Int("positions", len(l.positions)),
	)
}
