// Package engine runs the evaluation loop that connects the data feed to
// the rest of the system. Each evaluation cycle covers all bars sharing one
// timestamp: drain broker reports, update windows, run forced exits, compose
// and rank signals, submit approved orders, mark to market and emit a
// snapshot. The loop never reads the wall clock for decisions; all time
// comes from bar timestamps, which is what makes a replayed run reproduce a
// live one exactly.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sentra-lab/sentra-trading/internal/broker"
	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/datafeed"
	"github.com/sentra-lab/sentra-trading/internal/indicator"
	"github.com/sentra-lab/sentra-trading/internal/ledger"
	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/orders"
	"github.com/sentra-lab/sentra-trading/internal/risk"
	"github.com/sentra-lab/sentra-trading/internal/session"
	"github.com/sentra-lab/sentra-trading/internal/store"
	"github.com/sentra-lab/sentra-trading/internal/strategy"
	"github.com/sentra-lab/sentra-trading/internal/types"
	"github.com/sentra-lab/sentra-trading/pkg/errors"
)

// barObserver is implemented by brokers that price fills from the latest
// bar. The live broker does not need bars, so the assertion is optional.
type barObserver interface {
	OnBar(types.PriceBar)
}

// Engine wires the feed, indicator engine, composer, risk gate, lifecycle
// controller, ledger and store into one evaluation loop.
type Engine struct {
	cfg *config.Config
	log *logger.Logger

	feed       datafeed.Feed
	broker     broker.Broker
	indicators *indicator.Engine
	composer   *strategy.Composer
	risk       *risk.Manager
	ledger     *ledger.Ledger
	controller *orders.Controller
	store      *store.Store
	tracker    *session.Tracker

	windows map[string][]types.PriceBar
	prices  map[string]float64

	// onCycle is invoked after each completed cycle, onBar for every bar
	// consumed; the backtest command hooks its progress bar on the latter.
	onCycle func(types.PortfolioSnapshot)
	onBar   func(types.PriceBar)
}

// Deps carries the collaborators the engine orchestrates.
type Deps struct {
	Feed       datafeed.Feed
	Broker     broker.Broker
	Ledger     *ledger.Ledger
	Risk       *risk.Manager
	Controller *orders.Controller
	Store      *store.Store
}

// New creates an engine over the given collaborators.
func New(cfg *config.Config, deps Deps, log *logger.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		log:        log,
		feed:       deps.Feed,
		broker:     deps.Broker,
		indicators: indicator.NewEngine(cfg.Indicator),
		composer:   strategy.NewComposer(cfg.Indicator),
		risk:       deps.Risk,
		ledger:     deps.Ledger,
		controller: deps.Controller,
		store:      deps.Store,
		tracker:    session.NewTracker(cfg.Location()),
		windows:    make(map[string][]types.PriceBar),
		prices:     make(map[string]float64),
	}
}

// SetCycleCallback registers a callback invoked with each cycle snapshot.
func (e *Engine) SetCycleCallback(fn func(types.PortfolioSnapshot)) {
	e.onCycle = fn
}

// SetBarCallback registers a callback invoked for every consumed bar.
func (e *Engine) SetBarCallback(fn func(types.PriceBar)) {
	e.onBar = fn
}

// Run consumes the feed until it is exhausted or the context is cancelled.
// Bars sharing a timestamp form one evaluation cycle. A ledger invariant
// violation aborts the run; every other per-cycle failure is logged and the
// loop continues with the next cycle.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.broker.Connect(ctx); err != nil {
		return err
	}

	if err := e.seedLedger(); err != nil {
		return err
	}

	var (
		cycleTime time.Time
		cycleBars []types.PriceBar
	)

	for bar, err := range e.feed.Bars(ctx) {
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeFeedCorrupted) {
				e.log.Warn("Skipping corrupt bar", zap.Error(err))

				continue
			}

			return err
		}

		if !bar.Timestamp.Equal(cycleTime) && len(cycleBars) > 0 {
			if err := e.evaluate(ctx, cycleTime, cycleBars); err != nil {
				return err
			}

			cycleBars = cycleBars[:0]
		}

		cycleTime = bar.Timestamp
		cycleBars = append(cycleBars, bar)

		if ctx.Err() != nil {
			break
		}
	}

	if len(cycleBars) > 0 && ctx.Err() == nil {
		if err := e.evaluate(ctx, cycleTime, cycleBars); err != nil {
			return err
		}
	}

	return e.shutdown(ctx)
}

// evaluate runs one evaluation cycle over the bars of a single timestamp.
func (e *Engine) evaluate(ctx context.Context, ts time.Time, bars []types.PriceBar) error {
	if e.tracker.Observe(ts) {
		e.ledger.ResetDaily()
	}

	if err := e.drainExecutions(); err != nil {
		return err
	}

	e.ingest(bars)

	e.ledger.MarkToMarket(e.prices)

	signals := e.composeSignals(bars)

	if err := e.runExits(ctx, ts, signals); err != nil {
		return err
	}

	if err := e.runEntries(ctx, signals); err != nil {
		return err
	}

	// Paper fills land synchronously, so draining here settles this
	// cycle's orders before the snapshot. Live fills settle next cycle.
	if err := e.drainExecutions(); err != nil {
		return err
	}

	e.ledger.MarkToMarket(e.prices)

	snapshot := e.ledger.Snapshot(ts, e.risk.Halted())
	if err := e.store.WriteSnapshot(snapshot); err != nil {
		e.log.Error("Failed to persist snapshot", zap.Error(err))
	}

	if e.onCycle != nil {
		e.onCycle(snapshot)
	}

	return nil
}

// ingest folds the cycle's bars into the rolling windows and price map.
func (e *Engine) ingest(bars []types.PriceBar) {
	capacity := e.indicators.MinBars() + 1

	for _, bar := range bars {
		window := append(e.windows[bar.Symbol], bar)
		if len(window) > capacity {
			window = window[len(window)-capacity:]
		}

		e.windows[bar.Symbol] = window
		e.prices[bar.Symbol] = bar.Close

		if observer, ok := e.broker.(barObserver); ok {
			observer.OnBar(bar)
		}

		if e.onBar != nil {
			e.onBar(bar)
		}
	}
}

// composeSignals runs the indicator engine and composer per updated symbol.
// A symbol with no bar this cycle composes nothing, which leaves its
// positions protected only by the forced-exit pass at last known prices.
func (e *Engine) composeSignals(bars []types.PriceBar) []types.Signal {
	signals := make([]types.Signal, 0, len(bars))

	for _, bar := range bars {
		snapshot, err := e.indicators.Compute(e.windows[bar.Symbol])
		if err != nil {
			e.log.Warn("Indicator computation skipped",
				zap.String("symbol", bar.Symbol),
				zap.Error(err),
			)

			continue
		}

		signals = append(signals, e.composer.Compose(snapshot))
	}

	return signals
}

// runExits submits forced exits first, then composed SELL signals. Forced
// exits win conflicts: a symbol that already has a forced exit in flight
// never also gets a signal exit.
func (e *Engine) runExits(ctx context.Context, ts time.Time, signals []types.Signal) error {
	view := e.ledger.View()

	forced, adjustments := e.risk.CheckExits(view, e.prices, ts)

	for _, adj := range adjustments {
		e.ledger.TrailStop(adj.Symbol, adj.StopPrice)
	}

	exiting := make(map[string]bool, len(forced))

	for _, intent := range forced {
		if e.controller.HasOpenOrder(intent.Symbol) {
			continue
		}

		exiting[intent.Symbol] = true

		if err := e.submit(ctx, intent); err != nil {
			return err
		}
	}

	for _, signal := range signals {
		if signal.Action != types.SignalActionSell || exiting[signal.Symbol] {
			continue
		}

		if e.controller.HasOpenOrder(signal.Symbol) {
			continue
		}

		decision := e.risk.Approve(signal, e.prices[signal.Symbol], e.ledger.View())
		if !decision.Approved {
			continue
		}

		if err := e.submit(ctx, decision.Intent); err != nil {
			return err
		}
	}

	return nil
}

// runEntries ranks BUY candidates by strength and feeds them through the
// gate in order. The working view is adjusted after each approval so that
// later candidates see the cash and slots already committed this cycle.
func (e *Engine) runEntries(ctx context.Context, signals []types.Signal) error {
	candidates := make([]types.Signal, 0, len(signals))

	for _, signal := range signals {
		if signal.Action == types.SignalActionBuy {
			candidates = append(candidates, signal)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	view := e.ledger.View()

	for _, signal := range types.RankSignals(candidates) {
		if e.controller.HasOpenOrder(signal.Symbol) {
			continue
		}

		price := e.prices[signal.Symbol]

		decision := e.risk.Approve(signal, price, view)
		if !decision.Approved {
			e.log.Info("Entry rejected",
				zap.String("symbol", signal.Symbol),
				zap.String("reason", decision.Reason),
			)

			continue
		}

		if err := e.submit(ctx, decision.Intent); err != nil {
			return err
		}

		view = commitIntent(view, decision.Intent)
	}

	return nil
}

// commitIntent reserves an approved entry in the working view so the rest
// of the cycle's candidates cannot spend the same cash or slot.
func commitIntent(view ledger.View, intent types.OrderIntent) ledger.View {
	cost := intent.Quantity * intent.PriceHint

	view.Cash -= cost
	view.PositionValue += cost
	view.Positions[intent.Symbol] = types.Position{
		Symbol:       intent.Symbol,
		Quantity:     intent.Quantity,
		AverageCost:  intent.PriceHint,
		CurrentPrice: intent.PriceHint,
		OpenedAt:     intent.Timestamp,
	}

	return view
}

// submit hands an intent to the lifecycle controller. Submission failure is
// terminal for the intent but not for the run.
func (e *Engine) submit(ctx context.Context, intent types.OrderIntent) error {
	if _, err := e.controller.Submit(ctx, intent); err != nil {
		if errors.HasCode(err, errors.ErrCodeSubmissionFailure) {
			e.log.Error("Intent dropped after submission failure",
				zap.String("symbol", intent.Symbol),
				zap.String("side", string(intent.Side)),
			)

			return nil
		}

		return err
	}

	return nil
}

// drainExecutions applies every report currently queued by the broker.
// Completed fills settle into the ledger and the audit trail exactly once;
// an invariant violation propagates and aborts the run.
func (e *Engine) drainExecutions() error {
	for {
		select {
		case report, ok := <-e.broker.Executions():
			if !ok {
				return nil
			}

			order, done, err := e.controller.HandleExecution(report)
			if err != nil {
				e.log.Error("Execution report rejected", zap.Error(err))

				continue
			}

			if !done || order.Status != types.OrderStatusFilled {
				continue
			}

			record, err := e.ledger.ApplyFill(order)
			if err != nil {
				if errors.HasCode(err, errors.ErrCodeLedgerInvariant) {
					return err
				}

				e.log.Error("Fill not applied",
					zap.String("order_id", order.ID),
					zap.Error(err),
				)

				continue
			}

			if err := e.store.WriteTrade(record); err != nil {
				e.log.Error("Failed to persist trade", zap.Error(err))
			}
		default:
			return nil
		}
	}
}

// seedLedger restores state from the latest persisted snapshot, if any.
func (e *Engine) seedLedger() error {
	latest, err := e.store.LatestSnapshot()
	if err != nil {
		return err
	}

	if latest.IsSome() {
		e.ledger.Restore(latest.Unwrap())
	}

	return nil
}

// shutdown cancels in-flight orders, settles what the broker still reports
// and exports results when configured.
func (e *Engine) shutdown(ctx context.Context) error {
	if err := e.controller.CancelOpen(ctx); err != nil {
		e.log.Error("Failed to cancel open orders", zap.Error(err))
	}

	if err := e.drainExecutions(); err != nil {
		return err
	}

	if dir := e.cfg.Store.ResultsDir; dir != "" {
		if err := e.store.ExportParquet(dir); err != nil {
			return err
		}
	}

	e.log.Info("Engine stopped",
		zap.Float64("portfolio_value", e.ledger.PortfolioValue()),
		zap.Float64("win_rate", e.ledger.WinRate()),
	)

	return nil
}
