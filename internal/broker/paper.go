package broker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/sentra-lab/sentra-trading/internal/broker/commission"
	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

const executionBuffer = 256

// PaperBroker simulates executions against the most recent bar per symbol.
// Fills are a pure function of submitted order and last observed price, so
// a replayed bar sequence produces the same execution reports every run.
type PaperBroker struct {
	cfg        config.OrderConfig
	commission commission.CommissionFee
	log        *logger.Logger

	mu         sync.Mutex
	lastPrices map[string]float64
	executions chan types.ExecutionReport
	closed     bool

	// emitPartial splits each fill into a half-quantity report followed by
	// the full cumulative report. duplicateFinal re-sends the final report.
	// Both exist to drive the lifecycle controller's reconciliation paths.
	emitPartial    bool
	duplicateFinal bool
}

// NewPaperBroker creates a paper broker with the given fee schedule.
func NewPaperBroker(cfg config.OrderConfig, fee commission.CommissionFee, log *logger.Logger) *PaperBroker {
	return &PaperBroker{
		cfg:        cfg,
		commission: fee,
		log:        log,
		lastPrices: make(map[string]float64),
		executions: make(chan types.ExecutionReport, executionBuffer),
	}
}

// SetEmitPartial makes every fill arrive as two cumulative reports.
func (b *PaperBroker) SetEmitPartial(v bool) { b.emitPartial = v }

// SetDuplicateFinal makes the final report of every fill arrive twice.
func (b *PaperBroker) SetDuplicateFinal(v bool) { b.duplicateFinal = v }

// Connect is a no-op for the paper venue.
func (b *PaperBroker) Connect(ctx context.Context) error {
	return nil
}

// OnBar records the latest price for a symbol. The evaluation loop calls it
// for every bar before submitting orders for that cycle.
func (b *PaperBroker) OnBar(bar types.PriceBar) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastPrices[bar.Symbol] = bar.Close
}

// SubmitOrder fills the order immediately at the last observed price
// adjusted for slippage. An order for a symbol with no observed price is
// rejected through the executions channel, mirroring how a live venue
// rejects asynchronously.
func (b *PaperBroker) SubmitOrder(ctx context.Context, order types.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New(errors.ErrCodeSubmissionFailure, "paper broker is closed")
	}

	price, ok := b.lastPrices[order.Symbol]
	if !ok || price <= 0 {
		b.emit(types.ExecutionReport{
			OrderID:   order.ID,
			Symbol:    order.Symbol,
			Status:    types.OrderStatusRejected,
			Reason:    "no market price",
			Timestamp: order.Timestamp,
		})

		return nil
	}

	fillPrice := price
	if order.Side == types.SideBuy {
		fillPrice = price * (1 + b.cfg.SlippagePct)
	} else {
		fillPrice = price * (1 - b.cfg.SlippagePct)
	}

	fee := b.commission.Calculate(fillPrice*order.Quantity, order.Side)

	if b.emitPartial && order.Quantity >= 2 {
		half := float64(int(order.Quantity / 2))
		b.emit(types.ExecutionReport{
			OrderID:            order.ID,
			Symbol:             order.Symbol,
			Status:             types.OrderStatusPartiallyFilled,
			CumulativeQuantity: half,
			AveragePrice:       fillPrice,
			Fee:                b.commission.Calculate(fillPrice*half, order.Side),
			Timestamp:          order.Timestamp,
		})
	}

	final := types.ExecutionReport{
		OrderID:            order.ID,
		Symbol:             order.Symbol,
		Status:             types.OrderStatusFilled,
		CumulativeQuantity: order.Quantity,
		AveragePrice:       fillPrice,
		Fee:                fee,
		Timestamp:          order.Timestamp,
	}

	b.emit(final)

	if b.duplicateFinal {
		b.emit(final)
	}

	b.log.Debug("Paper fill",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.Float64("price", fillPrice),
		zap.Float64("quantity", order.Quantity),
		zap.Float64("fee", fee),
	)

	return nil
}

// CancelOrder is accepted but has no effect: paper fills are immediate, so
// there is never an open order to cancel.
func (b *PaperBroker) CancelOrder(ctx context.Context, orderID string) error {
	return nil
}

// Executions streams simulated fill reports.
func (b *PaperBroker) Executions() <-chan types.ExecutionReport {
	return b.executions
}

// Close closes the executions channel. Further submits are rejected.
func (b *PaperBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.executions)
	}

	return nil
}

func (b *PaperBroker) emit(report types.ExecutionReport) {
	select {
	case b.executions <- report:
	default:
		b.log.Error("Execution buffer full, report dropped",
			zap.String("order_id", report.OrderID))
	}
}
