// Package broker defines the execution venue abstraction and its two
// implementations: a deterministic paper broker for replay and mock trading,
// and a Binance-backed live broker. The order lifecycle controller is the
// only consumer; it submits orders and reads asynchronous execution reports
// from the Executions channel.
package broker

import (
	"context"

	"github.com/sentra-lab/sentra-trading/internal/types"
)

// Broker is an execution venue. Implementations deliver fills exclusively
// through Executions so that live and paper runs share one code path in the
// lifecycle controller.
type Broker interface {
	// Connect authenticates and establishes any streams the venue needs.
	Connect(ctx context.Context) error
	// SubmitOrder sends an order to the venue. A nil return means accepted,
	// not filled; fills arrive later as ExecutionReports.
	SubmitOrder(ctx context.Context, order types.Order) error
	// CancelOrder cancels an open order by id.
	CancelOrder(ctx context.Context, orderID string) error
	// Executions streams fill and rejection reports. The channel is closed
	// by Close.
	Executions() <-chan types.ExecutionReport
	// Close releases venue resources and closes the executions channel.
	Close() error
}
