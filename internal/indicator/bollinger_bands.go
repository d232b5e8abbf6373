package indicator

import (
	"math"

	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// BollingerResult holds the three bands for the latest bar.
type BollingerResult struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands calculates a moving average plus and minus stdDev standard
// deviations over the last period closing prices.
func BollingerBands(window []types.PriceBar, period int, stdDev float64) (BollingerResult, error) {
	if period <= 0 {
		return BollingerResult{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"period must be positive, got %d", period)
	}

	if len(window) < period {
		return BollingerResult{}, errors.NewInsufficientHistoryError(period, len(window), symbolOf(window),
			"not enough bars for Bollinger Bands")
	}

	slice := window[len(window)-period:]

	mean := 0.0
	for _, bar := range slice {
		mean += bar.Close
	}

	mean /= float64(period)

	variance := 0.0
	for _, bar := range slice {
		diff := bar.Close - mean
		variance += diff * diff
	}

	sigma := math.Sqrt(variance / float64(period))

	return BollingerResult{
		Upper:  mean + stdDev*sigma,
		Middle: mean,
		Lower:  mean - stdDev*sigma,
	}, nil
}
