package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

type LedgerTestSuite struct {
	suite.Suite
	ledger *Ledger
	now    time.Time
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (s *LedgerTestSuite) SetupTest() {
	s.ledger = New(config.Default("005930").Risk, types.ModeMock, logger.NewNopLogger())
	s.now = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
}

func (s *LedgerTestSuite) filledOrder(side types.Side, symbol string, qty, price, fee float64) types.Order {
	return types.Order{
		ID:             "ord-" + symbol + "-" + string(side),
		Symbol:         symbol,
		Side:           side,
		Quantity:       qty,
		Price:          price,
		Status:         types.OrderStatusFilled,
		Reason:         types.IntentReasonEntry,
		Timestamp:      s.now,
		FilledQuantity: qty,
		FilledPrice:    price,
		Fee:            fee,
	}
}

func (s *LedgerTestSuite) TestBuyOpensPosition() {
	record, err := s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "005930", 10, 10_000, 15))
	s.Require().NoError(err)

	s.Assert().InDelta(1_000_000-100_000-15, s.ledger.View().Cash, 1e-6)
	s.Assert().InDelta(100_000, record.Amount, 1e-6)
	s.Assert().Zero(record.PnL)

	view := s.ledger.View()
	s.Require().True(view.HasPosition("005930"))

	pos := view.Positions["005930"]
	s.Assert().InDelta(10, pos.Quantity, 1e-9)
	s.Assert().InDelta(10_000, pos.AverageCost, 1e-9)
	s.Assert().InDelta(9_900, pos.StopPrice, 1e-6)
	s.Assert().InDelta(10_300, pos.TargetPrice, 1e-6)
}

func (s *LedgerTestSuite) TestSecondBuyAveragesCost() {
	_, err := s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "005930", 10, 10_000, 0))
	s.Require().NoError(err)

	order := s.filledOrder(types.SideBuy, "005930", 10, 12_000, 0)
	order.ID = "ord-second"

	_, err = s.ledger.ApplyFill(order)
	s.Require().NoError(err)

	pos := s.ledger.View().Positions["005930"]
	s.Assert().InDelta(20, pos.Quantity, 1e-9)
	s.Assert().InDelta(11_000, pos.AverageCost, 1e-9)
	s.Assert().InDelta(11_000*0.99, pos.StopPrice, 1e-6)
}

func (s *LedgerTestSuite) TestSellRealizesPnL() {
	_, err := s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "005930", 10, 10_000, 0))
	s.Require().NoError(err)

	record, err := s.ledger.ApplyFill(s.filledOrder(types.SideSell, "005930", 10, 10_500, 20))
	s.Require().NoError(err)

	// (10,500 - 10,000) * 10 - 20 fee.
	s.Assert().InDelta(4_980, record.PnL, 1e-6)

	view := s.ledger.View()
	s.Assert().False(view.HasPosition("005930"))
	s.Assert().InDelta(4_980, view.DailyPnL, 1e-6)
	s.Assert().InDelta(100.0, s.ledger.WinRate(), 1e-9)
}

func (s *LedgerTestSuite) TestLosingSellCountsAgainstWinRate() {
	_, err := s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "005930", 10, 10_000, 0))
	s.Require().NoError(err)

	_, err = s.ledger.ApplyFill(s.filledOrder(types.SideSell, "005930", 10, 9_500, 0))
	s.Require().NoError(err)

	s.Assert().InDelta(0.0, s.ledger.WinRate(), 1e-9)
	s.Assert().InDelta(-5_000, s.ledger.View().DailyPnL, 1e-6)
}

func (s *LedgerTestSuite) TestBuyBeyondCashIsRejected() {
	_, err := s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "005930", 1_000, 10_000, 0))
	s.Require().Error(err)
	s.Assert().Equal(errors.ErrCodeInsufficientFunds, errors.GetCode(err))
}

func (s *LedgerTestSuite) TestSellWithoutPositionIsRejected() {
	_, err := s.ledger.ApplyFill(s.filledOrder(types.SideSell, "005930", 10, 10_000, 0))
	s.Require().Error(err)
	s.Assert().Equal(errors.ErrCodeInsufficientShares, errors.GetCode(err))
}

func (s *LedgerTestSuite) TestNonFilledOrderIsRejected() {
	order := s.filledOrder(types.SideBuy, "005930", 10, 10_000, 0)
	order.Status = types.OrderStatusSubmitted

	_, err := s.ledger.ApplyFill(order)
	s.Require().Error(err)
	s.Assert().Equal(errors.ErrCodeInvalidOrder, errors.GetCode(err))
}

func (s *LedgerTestSuite) TestMarkToMarketAdvancesPeak() {
	_, err := s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "005930", 10, 10_000, 0))
	s.Require().NoError(err)

	s.ledger.MarkToMarket(map[string]float64{"005930": 12_000})

	view := s.ledger.View()
	s.Assert().InDelta(1_020_000, view.PortfolioValue, 1e-6)
	s.Assert().InDelta(1_020_000, view.PeakValue, 1e-6)

	// A decline moves the value but not the peak.
	s.ledger.MarkToMarket(map[string]float64{"005930": 11_000})

	view = s.ledger.View()
	s.Assert().InDelta(1_010_000, view.PortfolioValue, 1e-6)
	s.Assert().InDelta(1_020_000, view.PeakValue, 1e-6)
}

func (s *LedgerTestSuite) TestMarkToMarketKeepsLastPriceOnGap() {
	_, err := s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "005930", 10, 10_000, 0))
	s.Require().NoError(err)

	s.ledger.MarkToMarket(map[string]float64{})

	pos := s.ledger.View().Positions["005930"]
	s.Assert().InDelta(10_000, pos.CurrentPrice, 1e-9)
}

func (s *LedgerTestSuite) TestSnapshotReconciles() {
	_, err := s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "005930", 10, 10_000, 15))
	s.Require().NoError(err)

	_, err = s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "000660", 5, 20_000, 15))
	s.Require().NoError(err)

	snapshot := s.ledger.Snapshot(s.now, false)

	s.Assert().InDelta(snapshot.Cash+snapshot.PositionValue, snapshot.PortfolioValue, 1e-6)
	s.Assert().Equal(2, snapshot.PositionCount)
	s.Require().Len(snapshot.Holdings, 2)
	// Holdings are sorted by code.
	s.Assert().Equal("000660", snapshot.Holdings[0].Code)
	s.Assert().Equal("005930", snapshot.Holdings[1].Code)
	s.Assert().Equal(types.ModeMock, snapshot.Mode)
}

func (s *LedgerTestSuite) TestResetDailyKeepsTotals() {
	_, err := s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "005930", 10, 10_000, 0))
	s.Require().NoError(err)

	_, err = s.ledger.ApplyFill(s.filledOrder(types.SideSell, "005930", 10, 10_500, 0))
	s.Require().NoError(err)

	before := s.ledger.Snapshot(s.now, false)
	s.Require().InDelta(5_000, before.DailyPnL, 1e-6)

	s.ledger.ResetDaily()

	after := s.ledger.Snapshot(s.now, false)
	s.Assert().Zero(after.DailyPnL)
	s.Assert().InDelta(before.TotalPnL, after.TotalPnL, 1e-9)
}

func (s *LedgerTestSuite) TestTrailStopOnlyRaises() {
	_, err := s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "005930", 10, 10_000, 0))
	s.Require().NoError(err)

	s.ledger.TrailStop("005930", 10_100)
	s.Assert().InDelta(10_100, s.ledger.View().Positions["005930"].StopPrice, 1e-9)

	s.ledger.TrailStop("005930", 9_000)
	s.Assert().InDelta(10_100, s.ledger.View().Positions["005930"].StopPrice, 1e-9)

	// Unknown symbols are ignored.
	s.ledger.TrailStop("999999", 1)
}

func (s *LedgerTestSuite) TestRestoreFromSnapshot() {
	_, err := s.ledger.ApplyFill(s.filledOrder(types.SideBuy, "005930", 10, 10_000, 15))
	s.Require().NoError(err)

	s.ledger.MarkToMarket(map[string]float64{"005930": 10_200})
	snapshot := s.ledger.Snapshot(s.now, false)

	restored := New(config.Default("005930").Risk, types.ModeMock, logger.NewNopLogger())
	restored.Restore(snapshot)

	view := restored.View()
	s.Assert().InDelta(snapshot.Cash, view.Cash, 1e-6)
	s.Assert().InDelta(snapshot.PortfolioValue, view.PortfolioValue, 1e-6)
	s.Require().True(view.HasPosition("005930"))
	s.Assert().InDelta(10, view.Positions["005930"].Quantity, 1e-9)

	// A restored ledger still satisfies the accounting identity.
	next := s.filledOrder(types.SideSell, "005930", 10, 10_200, 0)
	_, err = restored.ApplyFill(next)
	s.Assert().NoError(err)
}

func TestViewIsACopy(t *testing.T) {
	book := New(config.Default("005930").Risk, types.ModeMock, logger.NewNopLogger())

	_, err := book.ApplyFill(types.Order{
		ID:             "ord-1",
		Symbol:         "005930",
		Side:           types.SideBuy,
		Quantity:       10,
		Price:          10_000,
		Status:         types.OrderStatusFilled,
		Timestamp:      time.Now(),
		FilledQuantity: 10,
		FilledPrice:    10_000,
	})
	if err != nil {
		t.Fatal(err)
	}

	view := book.View()
	view.Positions["005930"] = types.Position{Symbol: "005930", Quantity: 999}
	view.Cash = 0

	fresh := book.View()
	assert.InDelta(t, 10, fresh.Positions["005930"].Quantity, 1e-9)
	assert.InDelta(t, 900_000, fresh.Cash, 1e-6)
}
