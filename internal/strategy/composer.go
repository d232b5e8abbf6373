// Package strategy combines indicator snapshots into discrete trading
// signals. The composer is deterministic: given the same snapshot sequence
// it produces the same signal sequence, which is what makes replayed and
// live runs comparable.
package strategy

import (
	"fmt"
	"strings"

	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/types"
)

// maxScore is the highest reachable directional score, used to normalize
// signal strength into [0,1].
const maxScore = 7.0

// Composer turns per-symbol indicator snapshots into BUY/SELL/HOLD signals.
// It remembers the previous snapshot per symbol for crossover detection.
type Composer struct {
	cfg  config.IndicatorConfig
	prev map[string]types.IndicatorSnapshot
}

// NewComposer creates a composer with empty crossover history.
func NewComposer(cfg config.IndicatorConfig) *Composer {
	return &Composer{
		cfg:  cfg,
		prev: make(map[string]types.IndicatorSnapshot),
	}
}

// Compose evaluates one snapshot against the previous one and returns the
// signal for this evaluation tick. Warmup snapshots and first observations
// always resolve to HOLD.
func (c *Composer) Compose(snap types.IndicatorSnapshot) types.Signal {
	prev, hasPrev := c.prev[snap.Symbol]
	c.prev[snap.Symbol] = snap

	hold := types.Signal{
		Symbol:    snap.Symbol,
		Timestamp: snap.Timestamp,
		Action:    types.SignalActionHold,
		Strength:  0,
		Reason:    "hold",
	}

	if snap.Warmup || !hasPrev || prev.Warmup {
		hold.Reason = "insufficient history"

		return hold
	}

	goldenCross := prev.ShortMA <= prev.LongMA && snap.ShortMA > snap.LongMA
	deadCross := prev.ShortMA >= prev.LongMA && snap.ShortMA < snap.LongMA
	macdBullish := snap.MACD > snap.MACDSignal
	macdMomentumDown := snap.MACDHist < prev.MACDHist
	rsiOverbought := snap.RSI > c.cfg.RSIOverbought
	rsiOversold := snap.RSI < c.cfg.RSIOversold
	upperBandBreach := snap.Close >= snap.BBUpper
	volumeSurge := snap.VolumeRatio >= c.cfg.VolumeSurgeRatio

	var reasons []string

	buyScore := 0.0
	sellScore := 0.0

	if goldenCross {
		buyScore += 3
		reasons = append(reasons, fmt.Sprintf("golden cross (MA%d>MA%d)", c.cfg.ShortMAPeriod, c.cfg.LongMAPeriod))
	}

	if deadCross {
		sellScore += 3
		reasons = append(reasons, fmt.Sprintf("dead cross (MA%d<MA%d)", c.cfg.ShortMAPeriod, c.cfg.LongMAPeriod))
	}

	if snap.ShortMA > snap.LongMA {
		buyScore++
	} else {
		sellScore++
	}

	if rsiOversold {
		buyScore += 2
		reasons = append(reasons, fmt.Sprintf("RSI oversold (%.1f)", snap.RSI))
	} else if rsiOverbought {
		sellScore += 2
		reasons = append(reasons, fmt.Sprintf("RSI overbought (%.1f)", snap.RSI))
	}

	if macdBullish && snap.MACDHist > prev.MACDHist {
		buyScore++
		reasons = append(reasons, "MACD rising")
	} else if !macdBullish && macdMomentumDown {
		sellScore++
		reasons = append(reasons, "MACD falling")
	}

	if snap.Close <= snap.BBLower*1.01 {
		buyScore++
		reasons = append(reasons, "lower band touch")
	} else if snap.Close >= snap.BBUpper*0.99 {
		sellScore++
		reasons = append(reasons, "upper band touch")
	}

	if volumeSurge {
		reasons = append(reasons, fmt.Sprintf("volume surge (%.1fx)", snap.VolumeRatio))
	}

	// Entry and exit triggers. A buy needs the crossover confirmed by both
	// filters; a sell fires on any one of its triggers. The overbought and
	// band-breach triggers are independently sufficient, so the reason
	// records which one fired.
	buyTriggered := goldenCross && !rsiOverbought && macdBullish

	sellTriggered := false

	switch {
	case deadCross:
		sellTriggered = true
	case rsiOverbought:
		sellTriggered = true
	case upperBandBreach && macdMomentumDown:
		sellTriggered = true

		reasons = append(reasons, "upper band breach with momentum down")
	}

	// Conflicting triggers resolve to HOLD.
	if buyTriggered == sellTriggered {
		return hold
	}

	signal := types.Signal{
		Symbol:    snap.Symbol,
		Timestamp: snap.Timestamp,
		Action:    types.SignalActionHold,
		Strength:  0,
		Reason:    strings.Join(reasons, " | "),
	}

	if buyTriggered {
		signal.Action = types.SignalActionBuy
		signal.Strength = clamp01(buyScore / maxScore)
	} else {
		signal.Action = types.SignalActionSell
		signal.Strength = clamp01(sellScore / maxScore)
	}

	return signal
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}
