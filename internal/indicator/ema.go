package indicator

import (
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// EMA calculates the exponential moving average of closing prices over the
// window, seeded with the SMA of the first period bars.
func EMA(window []types.PriceBar, period int) (float64, error) {
	closes := make([]float64, len(window))
	for i, bar := range window {
		closes[i] = bar.Close
	}

	series, err := emaSeries(closes, period, symbolOf(window))
	if err != nil {
		return 0, err
	}

	return series[len(series)-1], nil
}

// emaSeries returns the EMA value at every index from period-1 onward.
// The returned slice is aligned with values[period-1:].
func emaSeries(values []float64, period int, symbol string) ([]float64, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "period must be positive, got %d", period)
	}

	if len(values) < period {
		return nil, errors.NewInsufficientHistoryError(period, len(values), symbol,
			"not enough bars for EMA")
	}

	// Seed with the SMA of the first period values.
	seed := 0.0
	for _, v := range values[:period] {
		seed += v
	}

	seed /= float64(period)

	multiplier := 2.0 / (float64(period) + 1.0)
	series := make([]float64, 0, len(values)-period+1)
	series = append(series, seed)

	prev := seed
	for _, v := range values[period:] {
		prev = (v-prev)*multiplier + prev
		series = append(series, prev)
	}

	return series, nil
}
