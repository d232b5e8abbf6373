package indicator

import (
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// NeutralRSI is the value reported when there is not enough history for a
// real calculation. 50 is directionally neutral so a warmup window biases
// the composer toward HOLD.
const NeutralRSI = 50.0

// RSI calculates the Relative Strength Index over the last period price
// changes using Wilder smoothing. The result is clamped to [0,100].
func RSI(window []types.PriceBar, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be positive, got %d", period)
	}

	if len(window) < period+1 {
		return NeutralRSI, errors.NewInsufficientHistoryError(period+1, len(window), symbolOf(window),
			"not enough bars for RSI")
	}

	gains := make([]float64, 0, len(window)-1)
	losses := make([]float64, 0, len(window)-1)

	for i := 1; i < len(window); i++ {
		change := window[i].Close - window[i-1].Close
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	avgGain := 0.0
	avgLoss := 0.0

	// First average over the initial period.
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Subsequent averages use Wilder's smoothing method.
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	if avgLoss == 0 {
		// No losses at all: saturated upward, unless there were no gains
		// either, in which case the price never moved.
		if avgGain == 0 {
			return NeutralRSI, nil
		}

		return 100, nil
	}

	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))

	if rsi < 0 {
		rsi = 0
	} else if rsi > 100 {
		rsi = 100
	}

	return rsi, nil
}
