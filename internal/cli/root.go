// Package cli provides the command-line interface for the trading robot.
package cli

import (
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"trading-robot/internal/config"
	"trading-robot/internal/feed"
	"trading-robot/internal/logging"
	"trading-robot/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies shared across commands.
type App struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Feed       feed.PriceFeed
	Technicals feed.TechnicalProvider
	Sentiment  feed.SentimentProvider
	Journal    store.Journal
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.IsSimMode() {
		sim := feed.NewSimulatedFeed(defaultBasePrices(cfg), time.Now().UnixNano())
		app.Feed = sim
		app.Technicals = sim
		logger.Debug().Msg("Simulated feed initialized")
	} else {
		kite := feed.NewKiteFeed(cfg.Credentials.Kite.APIKey, cfg.Credentials.Kite.AccessToken)
		app.Feed = kite
		app.Technicals = feed.NewIndicatorEngine(kite)
		logger.Debug().Msg("Kite Connect feed initialized")
	}

	if cfg.Credentials.OpenAI.APIKey != "" {
		app.Sentiment = feed.NewOpenAISentiment(cfg.Credentials.OpenAI.APIKey, cfg.Credentials.OpenAI.Model)
		logger.Debug().Str("model", cfg.Credentials.OpenAI.Model).Msg("OpenAI sentiment provider initialized")
	}

	dbPath := filepath.Join(config.DefaultConfigDir(), "robot.db")
	journal, err := store.NewSQLiteJournal(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open session journal, trades will not be persisted")
	} else {
		app.Journal = journal
		logger.Debug().Str("path", dbPath).Msg("Session journal initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "trading-robot",
		Short: "Continuous trading decision engine for NSE intraday and index options",
		Long: `trading-robot is a continuously running decision engine for the Indian
stock market. It analyzes market conditions, classifies the statistical
regime, generates and scores entry signals, and manages open positions
through trailing stops, profit booking and hard exits.

Use 'trading-robot run' to start the engine against simulated or live data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/trading-robot)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newQuoteCmd(app))
	rootCmd.AddCommand(newRegimeCmd(app))
	rootCmd.AddCommand(newGreeksCmd(app))
	rootCmd.AddCommand(newChainCmd(app))

	return rootCmd
}

// defaultBasePrices seeds the simulated walk with plausible levels for
// the configured symbols.
func defaultBasePrices(cfg *config.Config) map[string]float64 {
	known := map[string]float64{
		"NIFTY":     24500,
		"BANKNIFTY": 52000,
		"FINNIFTY":  23500,
		"RELIANCE":  2900,
		"HDFCBANK":  1650,
		"INFY":      1550,
		"TCS":       3900,
		"ICICIBANK": 1200,
	}

	prices := make(map[string]float64)
	symbols := append([]string{}, cfg.Trading.Watchlist...)
	symbols = append(symbols, cfg.Trading.IndexSymbols...)
	for _, s := range symbols {
		if base, ok := known[s]; ok {
			prices[s] = base
		} else {
			prices[s] = 1000
		}
	}
	return prices
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("trading-robot v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Trading")
	output.Printf("  Mode:          %s\n", cfg.Trading.Mode)
	output.Printf("  Capital:       %.0f\n", cfg.Trading.Capital)
	output.Printf("  Watchlist:     %v\n", cfg.Trading.Watchlist)
	output.Printf("  Indices:       %v\n", cfg.Trading.IndexSymbols)
	output.Println()

	output.Bold("Session")
	output.Printf("  Tick:          %s\n", cfg.Session.TickInterval())
	output.Printf("  Regime:        %s\n", cfg.Session.RegimeInterval())
	output.Printf("  Options:       %s\n", cfg.Session.OptionsInterval())
	output.Printf("  Square-off:    %02d:%02d IST\n", cfg.Session.SquareOffHour, cfg.Session.SquareOffMinute)
	output.Println()

	output.Bold("Policy")
	output.Printf("  RSI bands:     %.0f / %.0f\n", cfg.Policy.RSIOversold, cfg.Policy.RSIOverbought)
	output.Printf("  Stop:          %.1fx ATR, reward:risk %.1f\n", cfg.Policy.StopATRMultiple, cfg.Policy.RewardRiskRatio)
	output.Printf("  Risk/trade:    %.1f%%\n", cfg.Policy.RiskPerTradePercent)
	output.Printf("  Max loss:      %.1f%%\n", cfg.Policy.MaxLossPercent)
	output.Printf("  Max positions: %d\n", cfg.Policy.MaxOpenPositions)
	output.Println()

	output.Bold("Options")
	output.Printf("  Risk-free:     %.2f%%\n", cfg.Options.RiskFreeRate*100)
	output.Printf("  Strike step:   %.0f\n", cfg.Options.StrikeStep)
	output.Printf("  Ladder:        ±%d strikes\n", cfg.Options.LadderSize)
	output.Printf("  Underlyings:   %v\n", cfg.Options.Underlyings)
}
