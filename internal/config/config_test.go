package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
watchlist:
  - "005930"
  - "000660"
`))
	require.NoError(t, err)

	assert.Equal(t, types.ModeMock, cfg.Mode)
	assert.Equal(t, "Asia/Seoul", cfg.Timezone)
	assert.InDelta(t, 1_000_000, cfg.Risk.InitialCapital, 1e-9)
	assert.InDelta(t, 0.20, cfg.Risk.MaxPositionPct, 1e-9)
	assert.Equal(t, 5, cfg.Risk.MaxPositions)
	assert.InDelta(t, 0.01, cfg.Risk.StopLossPct, 1e-9)
	assert.InDelta(t, 0.03, cfg.Risk.TakeProfitPct, 1e-9)
	assert.Equal(t, 5, cfg.Indicator.ShortMAPeriod)
	assert.Equal(t, 20, cfg.Indicator.LongMAPeriod)
	assert.Equal(t, 3, cfg.Order.MaxSubmitAttempts)
	assert.Equal(t, "kiwoom", cfg.Order.Commission)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
mode: live
watchlist: ["005930"]
risk:
  initial_capital: 5000000
  max_positions: 3
`))
	require.NoError(t, err)

	assert.Equal(t, types.ModeLive, cfg.Mode)
	assert.InDelta(t, 5_000_000, cfg.Risk.InitialCapital, 1e-9)
	assert.Equal(t, 3, cfg.Risk.MaxPositions)
	// Untouched fields keep their defaults.
	assert.InDelta(t, 0.01, cfg.Risk.StopLossPct, 1e-9)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "empty watchlist",
			yaml: `watchlist: []`,
		},
		{
			name: "invalid mode",
			yaml: "mode: paper\nwatchlist: [\"005930\"]",
		},
		{
			name: "short ma not below long ma",
			yaml: "watchlist: [\"005930\"]\nindicator:\n  short_ma_period: 20\n  long_ma_period: 20",
		},
		{
			name: "macd fast not below slow",
			yaml: "watchlist: [\"005930\"]\nindicator:\n  macd_fast_period: 26\n  macd_slow_period: 26",
		},
		{
			name: "unknown timezone",
			yaml: "watchlist: [\"005930\"]\ntimezone: Mars/Olympus",
		},
		{
			name: "negative capital",
			yaml: "watchlist: [\"005930\"]\nrisk:\n  initial_capital: -1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
		})
	}
}

func TestMaxLookback(t *testing.T) {
	cfg := Default("005930").Indicator

	// With defaults the MACD chain (26 slow + 9 signal) is the longest.
	assert.Equal(t, 35, cfg.MaxLookback())

	cfg.LongMAPeriod = 60
	assert.Equal(t, 60, cfg.MaxLookback())
}

func TestLocation(t *testing.T) {
	cfg := Default("005930")
	assert.Equal(t, "Asia/Seoul", cfg.Location().String())
}

func TestSchema(t *testing.T) {
	schema, err := Schema()
	require.NoError(t, err)

	assert.True(t, strings.Contains(schema, "sentra-trading-config"))
	assert.True(t, strings.Contains(schema, "initial_capital"))
	assert.True(t, strings.Contains(schema, "watchlist"))
}
