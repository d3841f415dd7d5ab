package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trading-robot/internal/gateway"
	"trading-robot/internal/market"
	"trading-robot/internal/notify"
	"trading-robot/internal/optionsrisk"
	"trading-robot/internal/position"
	"trading-robot/internal/regime"
	"trading-robot/internal/risk"
	"trading-robot/internal/robot"
	"trading-robot/internal/strategy"
	"trading-robot/pkg/utils"
)

func newRunCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the trading engine until interrupted",
		Long: `Start the continuous trading loop. The engine marks positions to
market, applies the exit policy, refreshes the market regime and the
option chain, and opens new positions while capacity allows.

Orders go through the paper gateway; market data follows trading.mode.
Stop with Ctrl-C; open positions are left to the next session's
square-off rules.`,
		Example: `  trading-robot run
  TRADING_MODE=sim trading-robot run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			cfg := app.Config
			logger := app.Logger

			analyzer := market.NewAnalyzer(app.Feed, app.Sentiment, logger)
			positions := position.NewManager(app.Feed, logger)

			r := robot.New(robot.Deps{
				Config:     cfg,
				Feed:       app.Feed,
				Technicals: app.Technicals,
				Analyzer:   analyzer,
				Classifier: regime.NewClassifier(logger),
				Generators: []robot.Generator{
					strategy.NewIntradayGenerator(cfg.Policy),
					strategy.NewOptionsGenerator(cfg.Policy, cfg.Trading.IndexSymbols),
				},
				Scorer:    strategy.NewScorer(cfg.Policy, logger),
				Positions: positions,
				Risk:      risk.NewManager(cfg.Policy, cfg.Session, logger),
				Gateway:   gateway.NewPaperGateway(cfg.Trading.Capital, logger),
				Options:   optionsrisk.NewEngine(cfg.Options, logger),
				Journal:   app.Journal,
				Notifier:  notify.NewTerminal(),
				Logger:    logger,
			})

			output.Bold("Trading Robot")
			output.Printf("  Mode:      %s\n", cfg.Trading.Mode)
			output.Printf("  Capital:   %s\n", utils.FormatIndianCurrency(cfg.Trading.Capital))
			output.Printf("  Watchlist: %v\n", cfg.Trading.Watchlist)
			output.Println()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if err := r.Start(ctx); err != nil {
				output.Error("Failed to start: %v", err)
				return err
			}
			output.Success("Engine started, press Ctrl-C to stop")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				output.Println()
				output.Info("Received %s, shutting down", sig)
			case <-ctx.Done():
			}

			if err := r.Stop(); err != nil {
				return err
			}

			printSessionStats(output, r)
			return nil
		},
	}
}

func printSessionStats(output *Output, r *robot.Robot) {
	stats := r.Stats()

	output.Println()
	output.Bold("Session Summary")
	output.Printf("  Trades:       %d (%d wins, %.1f%% win rate)\n",
		stats.TotalTrades, stats.WinningTrades, stats.WinRate())
	output.Printf("  Capital:      %s -> %s\n",
		utils.FormatIndianCurrency(stats.StartingCapital),
		utils.FormatIndianCurrency(stats.CurrentCapital))
	output.Printf("  Session P&L:  %s\n", output.FormatPnL(stats.CurrentCapital-stats.StartingCapital))
	output.Printf("  Max drawdown: %.2f%%\n", stats.MaxDrawdown)
}
