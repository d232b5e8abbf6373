package indicator

import (
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// SMA calculates the simple moving average of closing prices over the last
// period bars of the window.
func SMA(window []types.PriceBar, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be positive, got %d", period)
	}

	if len(window) < period {
		return 0, errors.NewInsufficientHistoryError(period, len(window), symbolOf(window),
			"not enough bars for SMA")
	}

	sum := 0.0
	for _, bar := range window[len(window)-period:] {
		sum += bar.Close
	}

	return sum / float64(period), nil
}

// VolumeRatio is the last bar's volume over the rolling mean volume of the
// preceding period bars. Returns 1.0 when there is not enough history or the
// mean is zero, which reads as "no surge".
func VolumeRatio(window []types.PriceBar, period int) float64 {
	if period <= 0 || len(window) < period+1 {
		return 1.0
	}

	sum := 0.0
	for _, bar := range window[len(window)-period-1 : len(window)-1] {
		sum += bar.Volume
	}

	mean := sum / float64(period)
	if mean <= 0 {
		return 1.0
	}

	return window[len(window)-1].Volume / mean
}

func symbolOf(window []types.PriceBar) string {
	if len(window) == 0 {
		return ""
	}

	return window[0].Symbol
}
