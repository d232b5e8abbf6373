// Command trader runs the trading engine in live or backtest mode.
//
// Live mode streams bars from the configured websocket endpoint and executes
// through Binance; backtest mode replays a historical file through the paper
// broker. Both modes run the same engine, which is what makes backtest
// results representative of live behavior.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/sentra-lab/sentra-trading/internal/broker"
	"github.com/sentra-lab/sentra-trading/internal/broker/commission"
	"github.com/sentra-lab/sentra-trading/internal/config"
	"github.com/sentra-lab/sentra-trading/internal/datafeed"
	"github.com/sentra-lab/sentra-trading/internal/engine"
	"github.com/sentra-lab/sentra-trading/internal/ledger"
	"github.com/sentra-lab/sentra-trading/internal/logger"
	"github.com/sentra-lab/sentra-trading/internal/orders"
	"github.com/sentra-lab/sentra-trading/internal/risk"
	"github.com/sentra-lab/sentra-trading/internal/store"
	"github.com/sentra-lab/sentra-trading/internal/types"
)

func main() {
	cmd := &cli.Command{
		Name:  "trader",
		Usage: "Signal-driven equity trading engine",
		Commands: []*cli.Command{
			liveCommand(),
			backtestCommand(),
			schemaCommand(),
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Path to the YAML configuration file",
		Required: true,
	}
}

func debugFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "debug",
		Usage: "Console logging with debug output",
	}
}

func newLogger(cmd *cli.Command) (*logger.Logger, error) {
	if cmd.Bool("debug") {
		return logger.NewDevelopmentLogger()
	}

	return logger.NewLogger()
}

func liveCommand() *cli.Command {
	return &cli.Command{
		Name:  "live",
		Usage: "Trade live against the configured broker",
		Flags: []cli.Flag{configFlag(), debugFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}

			cfg.Mode = types.ModeLive

			log, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			feed := datafeed.NewWebsocketFeed(cfg.Feed.URL, cfg.Watchlist, log)
			defer feed.Close()

			brk := broker.NewBinanceBroker(
				os.Getenv("BINANCE_API_KEY"),
				os.Getenv("BINANCE_SECRET_KEY"),
				log,
			)

			return runEngine(ctx, cfg, feed, brk, log, nil)
		},
	}
}

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Replay historical bars through the paper broker",
		Flags: []cli.Flag{
			configFlag(),
			debugFlag(),
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Historical bars file (parquet or CSV); overrides the config",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return err
			}

			cfg.Mode = types.ModeMock

			if data := cmd.String("data"); data != "" {
				cfg.Feed.DataPath = data
			}

			log, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			feed, err := datafeed.NewReplayFeed(cfg.Feed.DataPath, cfg.Watchlist, log)
			if err != nil {
				return err
			}
			defer feed.Close()

			total, err := feed.Count()
			if err != nil {
				return err
			}

			bar := progressbar.Default(int64(total), "backtest")

			fee := commission.GetCommissionFeeHandler(commission.Broker(cfg.Order.Commission))
			brk := broker.NewPaperBroker(cfg.Order, fee, log)

			return runEngine(ctx, cfg, feed, brk, log, func(eng *engine.Engine) {
				eng.SetBarCallback(func(types.PriceBar) {
					_ = bar.Add(1)
				})
			})
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the configuration JSON schema",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			schema, err := config.Schema()
			if err != nil {
				return err
			}

			fmt.Println(schema)

			return nil
		},
	}
}

// runEngine wires the collaborators and runs the evaluation loop until the
// feed ends or the context is cancelled by SIGINT/SIGTERM.
func runEngine(
	ctx context.Context,
	cfg *config.Config,
	feed datafeed.Feed,
	brk broker.Broker,
	log *logger.Logger,
	configure func(*engine.Engine),
) error {
	db, err := store.NewStore(cfg.Store, log)
	if err != nil {
		return err
	}
	defer db.Close()

	defer brk.Close()

	book := ledger.New(cfg.Risk, cfg.Mode, log)
	gate := risk.NewManager(cfg.Risk, log)
	controller := orders.NewController(cfg.Order, brk, log)

	eng := engine.New(cfg, engine.Deps{
		Feed:       feed,
		Broker:     brk,
		Ledger:     book,
		Risk:       gate,
		Controller: controller,
		Store:      db,
	}, log)

	if configure != nil {
		configure(eng)
	}

	log.Info("Starting engine",
		zap.String("mode", string(cfg.Mode)),
		zap.Strings("watchlist", cfg.Watchlist),
	)

	return eng.Run(ctx)
}
