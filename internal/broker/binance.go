package broker

import (
	"context"
	"strconv"
	"sync"

	"github.com/adshao/go-binance/v2"
	"go.uber.org/zap"

	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// binanceQuantityPrecision is the decimal precision used when formatting
// order quantities. Symbol-specific LOT_SIZE filters would be stricter; 8
// decimals is the Binance maximum and works for whole-share quantities.
const binanceQuantityPrecision = 8

// BinanceBroker executes orders on Binance spot via market orders. Reports
// are synthesized from the create-order response: market orders fill (or
// reject) synchronously, and the response carries the executed fills.
type BinanceBroker struct {
	client *binance.Client
	log    *logger.Logger

	mu         sync.Mutex
	executions chan types.ExecutionReport
	// venueIDs maps our order ids to the venue's numeric ids for cancels.
	venueIDs map[string]venueOrder
	closed   bool
}

type venueOrder struct {
	symbol string
	id     int64
}

// NewBinanceBroker creates a live broker from API credentials.
func NewBinanceBroker(apiKey, secretKey string, log *logger.Logger) *BinanceBroker {
	return &BinanceBroker{
		client:     binance.NewClient(apiKey, secretKey),
		log:        log,
		executions: make(chan types.ExecutionReport, executionBuffer),
		venueIDs:   make(map[string]venueOrder),
	}
}

// Connect verifies the credentials by fetching the account.
func (b *BinanceBroker) Connect(ctx context.Context) error {
	if _, err := b.client.NewGetAccountService().Do(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeBrokerAuthFailed, "binance authentication failed", err)
	}

	b.log.Info("Connected to Binance")

	return nil
}

// SubmitOrder places a market order and emits the resulting report. Network
// and rate-limit failures return a transient error so the lifecycle
// controller can retry; venue rejections are reported asynchronously like
// every other terminal state.
func (b *BinanceBroker) SubmitOrder(ctx context.Context, order types.Order) error {
	side := binance.SideTypeBuy
	if order.Side == types.SideSell {
		side = binance.SideTypeSell
	}

	resp, err := b.client.NewCreateOrderService().
		Symbol(order.Symbol).
		Side(side).
		Type(binance.OrderTypeMarket).
		Quantity(strconv.FormatFloat(order.Quantity, 'f', binanceQuantityPrecision, 64)).
		NewClientOrderID(order.ID).
		Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBrokerTransient, "binance order submission failed", err)
	}

	b.mu.Lock()
	b.venueIDs[order.ID] = venueOrder{symbol: order.Symbol, id: resp.OrderID}
	b.mu.Unlock()

	report := types.ExecutionReport{
		OrderID:   order.ID,
		Symbol:    order.Symbol,
		Status:    mapBinanceStatus(resp.Status),
		Timestamp: order.Timestamp,
	}

	executed, err := strconv.ParseFloat(resp.ExecutedQuantity, 64)
	if err == nil {
		report.CumulativeQuantity = executed
	}

	report.AveragePrice, report.Fee = aggregateFills(resp.Fills)

	b.emit(report)

	b.log.Info("Binance order submitted",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("status", string(resp.Status)),
	)

	return nil
}

// CancelOrder cancels an open order previously submitted in this session.
func (b *BinanceBroker) CancelOrder(ctx context.Context, orderID string) error {
	b.mu.Lock()
	venue, ok := b.venueIDs[orderID]
	b.mu.Unlock()

	if !ok {
		return errors.Newf(errors.ErrCodeOrderNotFound, "unknown order id %s", orderID)
	}

	_, err := b.client.NewCancelOrderService().
		Symbol(venue.symbol).
		OrderID(venue.id).
		Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeBrokerTransient, "binance cancel failed", err)
	}

	b.emit(types.ExecutionReport{
		OrderID: orderID,
		Symbol:  venue.symbol,
		Status:  types.OrderStatusCancelled,
	})

	return nil
}

// Executions streams venue reports.
func (b *BinanceBroker) Executions() <-chan types.ExecutionReport {
	return b.executions
}

// Close closes the executions channel.
func (b *BinanceBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.executions)
	}

	return nil
}

func (b *BinanceBroker) emit(report types.ExecutionReport) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	select {
	case b.executions <- report:
	default:
		b.log.Error("Execution buffer full, report dropped",
			zap.String("order_id", report.OrderID))
	}
}

func mapBinanceStatus(status binance.OrderStatusType) types.OrderStatus {
	switch status {
	case binance.OrderStatusTypeFilled:
		return types.OrderStatusFilled
	case binance.OrderStatusTypePartiallyFilled:
		return types.OrderStatusPartiallyFilled
	case binance.OrderStatusTypeRejected, binance.OrderStatusTypeExpired:
		return types.OrderStatusRejected
	case binance.OrderStatusTypeCanceled:
		return types.OrderStatusCancelled
	default:
		return types.OrderStatusSubmitted
	}
}

// aggregateFills reduces the per-fill list of a create-order response to a
// quantity-weighted average price and a total fee.
func aggregateFills(fills []*binance.Fill) (avgPrice, totalFee float64) {
	var totalQty, totalNotional float64

	for _, fill := range fills {
		price, err := strconv.ParseFloat(fill.Price, 64)
		if err != nil {
			continue
		}

		qty, err := strconv.ParseFloat(fill.Quantity, 64)
		if err != nil {
			continue
		}

		if fee, err := strconv.ParseFloat(fill.Commission, 64); err == nil {
			totalFee += fee
		}

		totalQty += qty
		totalNotional += price * qty
	}

	if totalQty > 0 {
		avgPrice = totalNotional / totalQty
	}

	return avgPrice, totalFee
}
