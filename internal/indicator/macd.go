package indicator

import (
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// MACDResult holds the MACD line, its signal line and the histogram for the
// last bar of the window.
type MACDResult struct {
	MACD      float64
	Signal    float64
	Histogram float64
}

// MACD computes the moving average convergence divergence: the difference of
// a fast and a slow EMA, with a signal line as an EMA of that difference.
func MACD(window []types.PriceBar, fastPeriod, slowPeriod, signalPeriod int) (MACDResult, error) {
	if fastPeriod >= slowPeriod {
		return MACDResult{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"fast period (%d) must be less than slow period (%d)", fastPeriod, slowPeriod)
	}

	required := slowPeriod + signalPeriod
	if len(window) < required {
		return MACDResult{}, errors.NewInsufficientHistoryError(required, len(window), symbolOf(window),
			"not enough bars for MACD")
	}

	closes := make([]float64, len(window))
	for i, bar := range window {
		closes[i] = bar.Close
	}

	fastSeries, err := emaSeries(closes, fastPeriod, symbolOf(window))
	if err != nil {
		return MACDResult{}, err
	}

	slowSeries, err := emaSeries(closes, slowPeriod, symbolOf(window))
	if err != nil {
		return MACDResult{}, err
	}

	// Align the fast series to the slow series: both end at the last bar.
	offset := len(fastSeries) - len(slowSeries)

	macdLine := make([]float64, len(slowSeries))
	for i := range slowSeries {
		macdLine[i] = fastSeries[i+offset] - slowSeries[i]
	}

	signalSeries, err := emaSeries(macdLine, signalPeriod, symbolOf(window))
	if err != nil {
		return MACDResult{}, err
	}

	last := len(signalSeries) - 1
	macdOffset := len(macdLine) - len(signalSeries)

	return MACDResult{
		MACD:      macdLine[macdOffset+last],
		Signal:    signalSeries[last],
		Histogram: macdLine[macdOffset+last] - signalSeries[last],
	}, nil
}
