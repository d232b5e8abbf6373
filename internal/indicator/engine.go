// Package indicator computes technical indicators from rolling price windows.
// All calculations are pure functions of the window: no clocks, no I/O, no
// hidden state, so the same bars always produce the same snapshot in live
// trading and in replay.
package indicator

import (
	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// Engine derives an IndicatorSnapshot per symbol per bar from the trailing
// window, using the configured lookback periods.
type Engine struct {
	cfg config.IndicatorConfig
}

// NewEngine creates an indicator engine for the given lookback configuration.
func NewEngine(cfg config.IndicatorConfig) *Engine {
	return &Engine{cfg: cfg}
}

// MinBars is the window length required for a full (non-warmup) snapshot.
func (e *Engine) MinBars() int {
	return e.cfg.MaxLookback()
}

// Compute derives a snapshot from the window. A window shorter than the
// longest lookback yields a neutral warmup snapshot rather than an error:
// "not enough history yet" is itself a decision-relevant state that the
// composer maps to HOLD.
func (e *Engine) Compute(window []types.PriceBar) (types.IndicatorSnapshot, error) {
	if len(window) == 0 {
		return types.IndicatorSnapshot{}, errors.New(errors.ErrCodeDataGap, "empty price window")
	}

	latest := window[len(window)-1]

	if len(window) < e.MinBars() {
		return neutralSnapshot(latest), nil
	}

	shortMA, err := SMA(window, e.cfg.ShortMAPeriod)
	if err != nil {
		return types.IndicatorSnapshot{}, err
	}

	longMA, err := SMA(window, e.cfg.LongMAPeriod)
	if err != nil {
		return types.IndicatorSnapshot{}, err
	}

	rsi, err := RSI(window, e.cfg.RSIPeriod)
	if err != nil {
		return types.IndicatorSnapshot{}, err
	}

	macd, err := MACD(window, e.cfg.MACDFastPeriod, e.cfg.MACDSlowPeriod, e.cfg.MACDSignalPeriod)
	if err != nil {
		return types.IndicatorSnapshot{}, err
	}

	bands, err := BollingerBands(window, e.cfg.BollingerPeriod, e.cfg.BollingerStdDev)
	if err != nil {
		return types.IndicatorSnapshot{}, err
	}

	return types.IndicatorSnapshot{
		Symbol:      latest.Symbol,
		Timestamp:   latest.Timestamp,
		Close:       latest.Close,
		ShortMA:     shortMA,
		LongMA:      longMA,
		RSI:         rsi,
		MACD:        macd.MACD,
		MACDSignal:  macd.Signal,
		MACDHist:    macd.Histogram,
		BBUpper:     bands.Upper,
		BBLower:     bands.Lower,
		VolumeRatio: VolumeRatio(window, e.cfg.VolumeMAPeriod),
		Warmup:      false,
	}, nil
}

// neutralSnapshot is the HOLD-biased value used below minimum history.
func neutralSnapshot(latest types.PriceBar) types.IndicatorSnapshot {
	return types.IndicatorSnapshot{
		Symbol:      latest.Symbol,
		Timestamp:   latest.Timestamp,
		Close:       latest.Close,
		ShortMA:     latest.Close,
		LongMA:      latest.Close,
		RSI:         NeutralRSI,
		MACD:        0,
		MACDSignal:  0,
		MACDHist:    0,
		BBUpper:     latest.Close,
		BBLower:     latest.Close,
		VolumeRatio: 1.0,
		Warmup:      true,
	}
}
