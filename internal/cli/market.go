package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trading-robot/internal/regime"
	"trading-robot/pkg/utils"
)

func newQuoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote SYMBOL...",
		Short: "Show current quotes",
		Args:  cobra.MinimumNArgs(1),
		Example: `  trading-robot quote RELIANCE
  trading-robot quote NIFTY BANKNIFTY --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if output.IsJSON() {
				quotes := make(map[string]interface{}, len(args))
				for _, symbol := range args {
					q, err := app.Feed.GetQuote(cmd.Context(), strings.ToUpper(symbol))
					if err != nil {
						return err
					}
					quotes[q.Symbol] = q
				}
				return output.JSON(quotes)
			}

			table := NewTable(output, "SYMBOL", "LTP", "CHANGE", "RANGE", "VOLUME")
			for _, symbol := range args {
				q, err := app.Feed.GetQuote(cmd.Context(), strings.ToUpper(symbol))
				if err != nil {
					output.Warning("%s: %v", symbol, err)
					continue
				}
				table.AddRow(
					q.Symbol,
					fmt.Sprintf("%.2f", q.LTP),
					output.FormatPercent(q.ChangePercent),
					fmt.Sprintf("%.2f - %.2f", q.Low, q.High),
					utils.FormatQuantity(q.Volume),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newRegimeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regime [SYMBOL]",
		Short: "Classify the current market regime",
		Long: `Classify the market regime from recent candles using the Hurst
exponent and the ATR slope, and show the capital allocation preset the
engine would adopt for it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			symbol := "NIFTY"
			if len(args) > 0 {
				symbol = strings.ToUpper(args[0])
			} else if len(app.Config.Trading.IndexSymbols) > 0 {
				symbol = app.Config.Trading.IndexSymbols[0]
			}

			hours, _ := cmd.Flags().GetInt("hours")
			now := time.Now()
			candles, err := app.Feed.GetHistorical(cmd.Context(), symbol, "5minute", now.Add(-time.Duration(hours)*time.Hour), now)
			if err != nil {
				return err
			}

			classifier := regime.NewClassifier(app.Logger)
			reg := classifier.Classify(candles)
			alloc := regime.AllocationFor(reg.Type)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":     symbol,
					"regime":     reg,
					"allocation": alloc,
				})
			}

			output.Bold("Market Regime: %s", symbol)
			output.Printf("  Regime:       %s (strength %.2f)\n", reg.Type, reg.Strength)
			output.Printf("  Hurst:        %.3f\n", reg.HurstExponent)
			output.Printf("  ATR slope:    %+.3f\n", reg.ATRSlope)
			output.Printf("  Volatility:   %s\n", reg.VolatilityRegime)
			output.Println()

			output.Bold("Allocation Preset")
			output.Printf("  Buckets:      %.0f%% conservative / %.0f%% moderate / %.0f%% aggressive\n",
				alloc.ConservativePercent, alloc.ModeratePercent, alloc.AggressivePercent)
			output.Printf("  Max positions: %d\n", alloc.MaxPositions)
			output.Printf("  Risk/trade:    %.1f%%\n", alloc.RiskPerTradePercent)
			return nil
		},
	}

	cmd.Flags().Int("hours", 6, "lookback window in hours")
	return cmd
}
