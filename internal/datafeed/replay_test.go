package datafeed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/types"
)

const testBarsCSV = `symbol,timestamp,open,high,low,close,volume
005930,2026-03-02 09:30:00,100,101,99,100.5,1000
000660,2026-03-02 09:30:00,50,51,49,50.5,2000
005930,2026-03-02 09:31:00,100.5,102,100,101.5,1100
035720,2026-03-02 09:31:00,30,31,29,30.5,3000
000660,2026-03-02 09:31:00,50.5,51.5,50,51,2100
`

func writeTestCSV(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(testBarsCSV), 0o644))

	return path
}

func collect(t *testing.T, feed Feed) []types.PriceBar {
	t.Helper()

	var bars []types.PriceBar

	for bar, err := range feed.Bars(context.Background()) {
		require.NoError(t, err)
		bars = append(bars, bar)
	}

	return bars
}

func TestReplayFeedOrdersByTimestampThenSymbol(t *testing.T) {
	feed, err := NewReplayFeed(writeTestCSV(t), nil, logger.NewNopLogger())
	require.NoError(t, err)
	defer feed.Close()

	bars := collect(t, feed)
	require.Len(t, bars, 5)

	assert.Equal(t, "000660", bars[0].Symbol)
	assert.Equal(t, "005930", bars[1].Symbol)
	assert.Equal(t, "000660", bars[2].Symbol)
	assert.Equal(t, "005930", bars[3].Symbol)
	assert.Equal(t, "035720", bars[4].Symbol)

	assert.True(t, bars[1].Timestamp.Before(bars[2].Timestamp))
	assert.InDelta(t, 100.5, bars[1].Close, 1e-9)
}

func TestReplayFeedFiltersWatchlist(t *testing.T) {
	feed, err := NewReplayFeed(writeTestCSV(t), []string{"005930"}, logger.NewNopLogger())
	require.NoError(t, err)
	defer feed.Close()

	count, err := feed.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, bar := range collect(t, feed) {
		assert.Equal(t, "005930", bar.Symbol)
	}
}

func TestReplayFeedIsRepeatable(t *testing.T) {
	path := writeTestCSV(t)

	run := func() []types.PriceBar {
		feed, err := NewReplayFeed(path, nil, logger.NewNopLogger())
		require.NoError(t, err)
		defer feed.Close()

		return collect(t, feed)
	}

	assert.Equal(t, run(), run())
}

func TestReplayFeedHonorsContextCancel(t *testing.T) {
	feed, err := NewReplayFeed(writeTestCSV(t), nil, logger.NewNopLogger())
	require.NoError(t, err)
	defer feed.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen int

	for _, err := range feed.Bars(ctx) {
		if err != nil {
			break
		}

		seen++

		cancel()
	}

	assert.Less(t, seen, 5)
}

func TestReplayFeedMissingFile(t *testing.T) {
	_, err := NewReplayFeed(filepath.Join(t.TempDir(), "missing.csv"), nil, logger.NewNopLogger())
	assert.Error(t, err)
}
