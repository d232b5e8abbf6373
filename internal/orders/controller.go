// Package orders owns the order lifecycle between risk approval and ledger
// settlement. The controller is the only component that talks to the broker:
// it submits approved intents with bounded retries and reconciles the
// asynchronous execution reports back into order state. Reports use
// cumulative quantities, so duplicates and replays are detected here and a
// completed order is surfaced exactly once.
package orders

import (
	"context"
	"sort"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sentra-lab/sentra-trading/internal/broker"
	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// Controller tracks open orders and drives their state machine:
//
//	PENDING -> SUBMITTED -> PARTIALLY_FILLED -> FILLED
//	                     \-> REJECTED / CANCELLED
//
// It is owned by the evaluation loop; broker reports are drained by the loop
// and fed in through HandleExecution, so no locking happens here.
type Controller struct {
	cfg    config.OrderConfig
	broker broker.Broker
	log    *logger.Logger

	open map[string]*types.Order
}

// NewController creates a controller with no open orders.
func NewController(cfg config.OrderConfig, b broker.Broker, log *logger.Logger) *Controller {
	return &Controller{
		cfg:    cfg,
		broker: b,
		log:    log,
		open:   make(map[string]*types.Order),
	}
}

// Submit turns a risk-approved intent into an order and sends it to the
// broker. Transient broker failures are retried up to the configured attempt
// count with constant backoff; exhausting the attempts marks the order
// REJECTED with a submission-failure reason and returns the error. The
// returned order reflects the post-submission state either way.
func (c *Controller) Submit(ctx context.Context, intent types.OrderIntent) (types.Order, error) {
	if err := intent.Validate(); err != nil {
		return types.Order{}, err
	}

	order := types.Order{
		ID:        uuid.NewString(),
		Symbol:    intent.Symbol,
		Side:      intent.Side,
		Quantity:  intent.Quantity,
		Price:     intent.PriceHint,
		Status:    types.OrderStatusPending,
		Reason:    intent.Reason,
		Timestamp: intent.Timestamp,
	}

	submitCtx, cancel := context.WithTimeout(ctx, c.cfg.SubmitTimeout)
	defer cancel()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(c.cfg.SubmitBackoff),
			uint64(c.cfg.MaxSubmitAttempts-1),
		),
		submitCtx,
	)

	err := backoff.Retry(func() error {
		err := c.broker.SubmitOrder(submitCtx, order)
		if err != nil && !errors.IsTransient(err) {
			return backoff.Permanent(err)
		}

		return err
	}, policy)
	if err != nil {
		order.Status = types.OrderStatusRejected
		order.Reason = types.IntentReasonSubmissionFail

		c.log.Error("Order submission failed",
			zap.String("order_id", order.ID),
			zap.String("symbol", order.Symbol),
			zap.Error(err),
		)

		return order, errors.Wrap(errors.ErrCodeSubmissionFailure, "order submission failed", err)
	}

	order.Status = types.OrderStatusSubmitted
	c.open[order.ID] = &order

	c.log.Info("Order submitted",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("quantity", order.Quantity),
		zap.String("reason", order.Reason),
	)

	return order, nil
}

// HandleExecution folds one broker report into the matching open order and
// reports whether the order reached a terminal state with this report. The
// fold is idempotent: a report whose cumulative quantity does not advance
// the order, or a report for an id that is no longer open, changes nothing.
// A terminal order is returned exactly once and then forgotten, so the
// caller applies at most one ledger fill per order.
func (c *Controller) HandleExecution(report types.ExecutionReport) (types.Order, bool, error) {
	order, ok := c.open[report.OrderID]
	if !ok {
		// Either a duplicate terminal report or a venue echo for an order
		// this session never created. Both are safe to drop.
		c.log.Debug("Report for unknown order ignored",
			zap.String("order_id", report.OrderID),
			zap.String("status", string(report.Status)),
		)

		return types.Order{}, false, nil
	}

	if err := validateTransition(order.Status, report.Status); err != nil {
		return types.Order{}, false, err
	}

	if report.CumulativeQuantity > order.Quantity+1e-9 {
		return types.Order{}, false, errors.Newf(errors.ErrCodeInvalidOrder,
			"report for order %s exceeds order quantity: %.4f > %.4f",
			order.ID, report.CumulativeQuantity, order.Quantity)
	}

	// Stale or duplicate progress report: cumulative quantity did not
	// advance and the status is not terminal.
	if !report.Status.IsTerminal() && report.CumulativeQuantity <= order.FilledQuantity {
		return types.Order{}, false, nil
	}

	if report.CumulativeQuantity > order.FilledQuantity {
		order.FilledQuantity = report.CumulativeQuantity
		order.FilledPrice = report.AveragePrice
		order.Fee = report.Fee
	}

	order.Status = report.Status
	if report.Status == types.OrderStatusRejected && report.Reason != "" {
		order.Reason = report.Reason
	}

	if !report.Status.IsTerminal() {
		return types.Order{}, false, nil
	}

	delete(c.open, order.ID)

	c.log.Info("Order completed",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.String("status", string(order.Status)),
		zap.Float64("filled_quantity", order.FilledQuantity),
		zap.Float64("filled_price", order.FilledPrice),
	)

	return *order, true, nil
}

// OpenOrders returns the in-flight orders sorted by id.
func (c *Controller) OpenOrders() []types.Order {
	result := make([]types.Order, 0, len(c.open))
	for _, order := range c.open {
		result = append(result, *order)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result
}

// HasOpenOrder reports whether an in-flight order exists for the symbol.
// The evaluation loop uses it to avoid stacking orders on one symbol.
func (c *Controller) HasOpenOrder(symbol string) bool {
	for _, order := range c.open {
		if order.Symbol == symbol {
			return true
		}
	}

	return false
}

// CancelOpen cancels every in-flight order. Used when draining for halt or
// shutdown; the cancellations themselves complete through HandleExecution.
func (c *Controller) CancelOpen(ctx context.Context) error {
	for _, order := range c.OpenOrders() {
		if err := c.broker.CancelOrder(ctx, order.ID); err != nil {
			return errors.Wrapf(errors.ErrCodeSubmissionFailure, err,
				"failed to cancel order %s", order.ID)
		}
	}

	return nil
}

// validateTransition rejects report statuses that cannot follow the order's
// current status. Terminal states never transition again; that case is
// handled earlier because terminal orders leave the open map.
func validateTransition(from types.OrderStatus, to types.OrderStatus) error {
	allowed := map[types.OrderStatus][]types.OrderStatus{
		types.OrderStatusSubmitted: {
			types.OrderStatusSubmitted,
			types.OrderStatusPartiallyFilled,
			types.OrderStatusFilled,
			types.OrderStatusRejected,
			types.OrderStatusCancelled,
		},
		types.OrderStatusPartiallyFilled: {
			types.OrderStatusPartiallyFilled,
			types.OrderStatusFilled,
			types.OrderStatusCancelled,
		},
	}

	for _, status := range allowed[from] {
		if status == to {
			return nil
		}
	}

	return errors.Newf(errors.ErrCodeInvalidTransition,
		"illegal order transition %s -> %s", from, to)
}
