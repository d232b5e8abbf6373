package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

func barsFromCloses(closes ...float64) []types.PriceBar {
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	bars := make([]types.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = types.PriceBar{
			Symbol:    "005930",
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}

	return bars
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name     string
		closes   []float64
		period   int
		expected float64
		wantErr  bool
	}{
		{
			name:     "average of last period",
			closes:   []float64{1, 2, 3, 4, 5},
			period:   3,
			expected: 4,
		},
		{
			name:     "full window",
			closes:   []float64{10, 20, 30},
			period:   3,
			expected: 20,
		},
		{
			name:    "not enough bars",
			closes:  []float64{1, 2},
			period:  3,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := SMA(barsFromCloses(tc.closes...), tc.period)

			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInsufficientHistoryError(err))

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tc.expected, result, 1e-9)
		})
	}
}

func TestRSI(t *testing.T) {
	t.Run("all gains saturate at 100", func(t *testing.T) {
		rsi, err := RSI(barsFromCloses(1, 2, 3, 4, 5, 6, 7, 8), 5)
		require.NoError(t, err)
		assert.InDelta(t, 100, rsi, 1e-9)
	})

	t.Run("all losses saturate at 0", func(t *testing.T) {
		rsi, err := RSI(barsFromCloses(8, 7, 6, 5, 4, 3, 2, 1), 5)
		require.NoError(t, err)
		assert.InDelta(t, 0, rsi, 1e-9)
	})

	t.Run("flat prices are neutral", func(t *testing.T) {
		rsi, err := RSI(barsFromCloses(5, 5, 5, 5, 5, 5), 5)
		require.NoError(t, err)
		assert.InDelta(t, NeutralRSI, rsi, 1e-9)
	})

	t.Run("insufficient history returns neutral with error", func(t *testing.T) {
		rsi, err := RSI(barsFromCloses(1, 2, 3), 14)
		require.Error(t, err)
		assert.True(t, errors.IsInsufficientHistoryError(err))
		assert.InDelta(t, NeutralRSI, rsi, 1e-9)
	})
}

func TestBollingerBands(t *testing.T) {
	t.Run("constant prices collapse the bands", func(t *testing.T) {
		result, err := BollingerBands(barsFromCloses(10, 10, 10, 10, 10), 5, 2.0)
		require.NoError(t, err)
		assert.InDelta(t, 10, result.Upper, 1e-9)
		assert.InDelta(t, 10, result.Middle, 1e-9)
		assert.InDelta(t, 10, result.Lower, 1e-9)
	})

	t.Run("bands are symmetric around the mean", func(t *testing.T) {
		result, err := BollingerBands(barsFromCloses(8, 9, 10, 11, 12), 5, 2.0)
		require.NoError(t, err)
		assert.InDelta(t, 10, result.Middle, 1e-9)
		assert.InDelta(t, result.Middle-result.Lower, result.Upper-result.Middle, 1e-9)
		assert.Greater(t, result.Upper, result.Middle)
	})
}

func TestMACD(t *testing.T) {
	t.Run("constant prices produce zero lines", func(t *testing.T) {
		closes := make([]float64, 40)
		for i := range closes {
			closes[i] = 100
		}

		result, err := MACD(barsFromCloses(closes...), 12, 26, 9)
		require.NoError(t, err)
		assert.InDelta(t, 0, result.MACD, 1e-9)
		assert.InDelta(t, 0, result.Signal, 1e-9)
		assert.InDelta(t, 0, result.Histogram, 1e-9)
	})

	t.Run("rising prices turn the macd positive", func(t *testing.T) {
		closes := make([]float64, 40)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}

		result, err := MACD(barsFromCloses(closes...), 12, 26, 9)
		require.NoError(t, err)
		assert.Greater(t, result.MACD, 0.0)
	})

	t.Run("fast period must be below slow", func(t *testing.T) {
		_, err := MACD(barsFromCloses(1, 2, 3), 26, 12, 9)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidParameter, errors.GetCode(err))
	})
}

func TestEngineCompute(t *testing.T) {
	cfg := config.Default("005930").Indicator
	engine := NewEngine(cfg)

	t.Run("empty window is a data gap", func(t *testing.T) {
		_, err := engine.Compute(nil)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeDataGap, errors.GetCode(err))
	})

	t.Run("short window yields neutral warmup snapshot", func(t *testing.T) {
		snapshot, err := engine.Compute(barsFromCloses(100, 101, 102))
		require.NoError(t, err)
		assert.True(t, snapshot.Warmup)
		assert.InDelta(t, 102, snapshot.Close, 1e-9)
		assert.InDelta(t, 102, snapshot.ShortMA, 1e-9)
		assert.InDelta(t, NeutralRSI, snapshot.RSI, 1e-9)
		assert.InDelta(t, 1.0, snapshot.VolumeRatio, 1e-9)
	})

	t.Run("full window yields a complete snapshot", func(t *testing.T) {
		closes := make([]float64, engine.MinBars())
		for i := range closes {
			closes[i] = 100 + float64(i%7)
		}

		snapshot, err := engine.Compute(barsFromCloses(closes...))
		require.NoError(t, err)
		assert.False(t, snapshot.Warmup)
		assert.Equal(t, "005930", snapshot.Symbol)
		assert.Greater(t, snapshot.BBUpper, snapshot.BBLower)
		assert.GreaterOrEqual(t, snapshot.RSI, 0.0)
		assert.LessOrEqual(t, snapshot.RSI, 100.0)
	})

	t.Run("same window always yields the same snapshot", func(t *testing.T) {
		closes := make([]float64, engine.MinBars())
		for i := range closes {
			closes[i] = 100 + float64(i%5)
		}

		first, err := engine.Compute(barsFromCloses(closes...))
		require.NoError(t, err)

		second, err := engine.Compute(barsFromCloses(closes...))
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
}
