package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

type Side string

type OrderStatus string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusSubmitted       OrderStatus = "SUBMITTED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// IsTerminal reports whether the status ends the order lifecycle.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusFilled, OrderStatusRejected, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

const (
	IntentReasonEntry            = "entry_signal"
	IntentReasonExitSignal       = "exit_signal"
	IntentReasonStopLoss         = "stop_loss"
	IntentReasonTakeProfit       = "take_profit"
	IntentReasonTrailingStop     = "trailing_stop"
	IntentReasonPositionCountCap = "position-count cap"
	IntentReasonDailyLossLimit   = "daily-loss limit"
	IntentReasonDrawdownHalt     = "drawdown kill-switch"
	IntentReasonAlreadyHolding   = "already holding"
	IntentReasonMinCashFloor     = "min-cash floor"
	IntentReasonBelowMinQuantity = "below minimum quantity"
	IntentReasonSubmissionFail   = "submission failure"
)

// OrderIntent is a risk-approved, not-yet-submitted order. It is created by
// the risk gate and consumed by the order lifecycle controller.
type OrderIntent struct {
	Symbol    string    `json:"symbol" validate:"required"`
	Side      Side      `json:"side" validate:"required,oneof=BUY SELL"`
	Quantity  float64   `json:"quantity" validate:"required,gt=0"`
	PriceHint float64   `json:"price_hint" validate:"gte=0"`
	Reason    string    `json:"reason" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// Order is an intent that has entered the broker lifecycle. It is owned by
// the order lifecycle controller until terminal, then folded into the ledger
// as a TradeRecord.
type Order struct {
	ID        string      `json:"id" validate:"required,uuid"`
	Symbol    string      `json:"symbol" validate:"required"`
	Side      Side        `json:"side" validate:"required,oneof=BUY SELL"`
	Quantity  float64     `json:"quantity" validate:"required,gt=0"`
	Price     float64     `json:"price" validate:"gte=0"`
	Status    OrderStatus `json:"status"`
	Reason    string      `json:"reason"`
	Timestamp time.Time   `json:"timestamp"`
	// FilledQuantity is the cumulative executed quantity reported so far.
	FilledQuantity float64 `json:"filled_quantity"`
	// FilledPrice is the average execution price over all fills.
	FilledPrice float64 `json:"filled_price"`
	Fee         float64 `json:"fee"`
}

// ExecutionReport is an asynchronous broker notification keyed by order id.
// Quantities are cumulative so duplicated or out-of-order reports can be
// detected and applied idempotently.
type ExecutionReport struct {
	OrderID string      `json:"order_id"`
	Symbol  string      `json:"symbol"`
	Status  OrderStatus `json:"status"`
	// CumulativeQuantity is the total quantity executed for the order so far.
	CumulativeQuantity float64   `json:"cumulative_quantity"`
	AveragePrice       float64   `json:"average_price"`
	Fee                float64   `json:"fee"`
	Reason             string    `json:"reason"`
	Timestamp          time.Time `json:"timestamp"`
}

var validate = validator.New()

// Validate validates the OrderIntent struct.
func (i *OrderIntent) Validate() error {
	if err := validate.Struct(i); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidIntent, "invalid order intent", err)
	}

	return nil
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}
