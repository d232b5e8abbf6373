// Package datafeed delivers price bars to the evaluation loop. The replay
// feed and the live feed implement the same iterator interface, so the
// engine is identical in both modes; only the bar source differs.
package datafeed

import (
	"context"
	"iter"

	"github.com/sentra-lab/sentra-trading/internal/types"
)

// Feed is an ordered stream of price bars. Bars must be yielded in
// non-decreasing timestamp order; the replay feed additionally orders bars
// with equal timestamps by symbol so replays are bit-identical.
type Feed interface {
	// Bars returns a single-use iterator over the feed. Iteration stops
	// when the feed is exhausted, the context is cancelled, or the consumer
	// breaks out of the loop.
	Bars(ctx context.Context) iter.Seq2[types.PriceBar, error]
	// Close releases the underlying source.
	Close() error
}
