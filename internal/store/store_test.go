package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/types"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
	now   time.Time
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	store, err := NewStore(config.StoreConfig{}, logger.NewNopLogger())
	s.Require().NoError(err)

	s.store = store
	s.now = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
}

func (s *StoreTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *StoreTestSuite) snapshot(ts time.Time, value float64) types.PortfolioSnapshot {
	return types.PortfolioSnapshot{
		Timestamp:      ts,
		PortfolioValue: value,
		Cash:           value - 100_000,
		PositionValue:  100_000,
		TotalPnL:       value - 1_000_000,
		TotalPnLPct:    (value - 1_000_000) / 1_000_000 * 100,
		DailyPnL:       500,
		PositionCount:  1,
		WinRate:        50,
		Mode:           types.ModeMock,
		Holdings: []types.Holding{
			{
				Code:         "005930",
				Quantity:     10,
				AverageCost:  10_000,
				CurrentPrice: 10_000,
				MarketValue:  100_000,
				StopPrice:    9_900,
				TargetPrice:  10_300,
			},
		},
	}
}

func (s *StoreTestSuite) TestLatestSnapshotEmptyStore() {
	latest, err := s.store.LatestSnapshot()
	s.Require().NoError(err)
	s.Assert().True(latest.IsNone())
}

func (s *StoreTestSuite) TestSnapshotRoundTrip() {
	s.Require().NoError(s.store.WriteSnapshot(s.snapshot(s.now, 1_005_000)))
	s.Require().NoError(s.store.WriteSnapshot(s.snapshot(s.now.Add(time.Minute), 1_010_000)))

	latest, err := s.store.LatestSnapshot()
	s.Require().NoError(err)
	s.Require().True(latest.IsSome())

	snap := latest.Unwrap()
	s.Assert().InDelta(1_010_000, snap.PortfolioValue, 1e-6)
	s.Assert().Equal(types.ModeMock, snap.Mode)
	s.Require().Len(snap.Holdings, 1)
	s.Assert().Equal("005930", snap.Holdings[0].Code)
	s.Assert().InDelta(9_900, snap.Holdings[0].StopPrice, 1e-6)
}

func (s *StoreTestSuite) TestTradesNewestFirst() {
	for i, symbol := range []string{"005930", "000660", "035720"} {
		s.Require().NoError(s.store.WriteTrade(types.TradeRecord{
			Timestamp:      s.now.Add(time.Duration(i) * time.Minute),
			Type:           types.SideBuy,
			Code:           symbol,
			Quantity:       10,
			Price:          10_000,
			Amount:         100_000,
			Reason:         types.IntentReasonEntry,
			PortfolioValue: 1_000_000,
			OrderID:        symbol + "-order",
		}))
	}

	trades, err := s.store.Trades(0)
	s.Require().NoError(err)
	s.Require().Len(trades, 3)
	s.Assert().Equal("035720", trades[0].Code)
	s.Assert().Equal("005930", trades[2].Code)

	limited, err := s.store.Trades(2)
	s.Require().NoError(err)
	s.Assert().Len(limited, 2)
}

func (s *StoreTestSuite) TestExportParquet() {
	s.Require().NoError(s.store.WriteSnapshot(s.snapshot(s.now, 1_000_000)))
	s.Require().NoError(s.store.WriteTrade(types.TradeRecord{
		Timestamp: s.now,
		Type:      types.SideBuy,
		Code:      "005930",
		Quantity:  10,
		Price:     10_000,
		Amount:    100_000,
		OrderID:   "ord-1",
	}))

	dir := s.T().TempDir()
	s.Require().NoError(s.store.ExportParquet(dir))

	s.Assert().FileExists(dir + "/snapshots.parquet")
	s.Assert().FileExists(dir + "/trades.parquet")
}
