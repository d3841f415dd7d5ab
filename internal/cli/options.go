package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trading-robot/internal/greeks"
	"trading-robot/internal/models"
	"trading-robot/internal/optionsrisk"
	"trading-robot/pkg/utils"
)

func newGreeksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "greeks",
		Short: "Price an option and compute its Greeks",
		Long: `One-shot Black-Scholes pricing. Theta is per calendar day, vega per
1% volatility move, rho per 1% rate move.`,
		Example: `  trading-robot greeks --spot 24500 --strike 24600 --days 7 --iv 18
  trading-robot greeks --spot 24500 --strike 24400 --days 7 --iv 18 --type PE --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			spot, _ := cmd.Flags().GetFloat64("spot")
			strike, _ := cmd.Flags().GetFloat64("strike")
			days, _ := cmd.Flags().GetFloat64("days")
			iv, _ := cmd.Flags().GetFloat64("iv")
			optType, _ := cmd.Flags().GetString("type")

			g, err := greeks.Calculate(greeks.Input{
				Spot:         spot,
				Strike:       strike,
				TimeToExpiry: days / 365,
				RiskFreeRate: app.Config.Options.RiskFreeRate,
				Volatility:   iv / 100,
				OptionType:   models.OptionType(strings.ToUpper(optType)),
			})
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(g)
			}

			output.Bold("%s strike %.0f (%.0f days, IV %.1f%%)", strings.ToUpper(optType), strike, days, iv)
			output.Printf("  Price:  %.2f\n", g.Price)
			output.Printf("  Delta:  %+.4f\n", g.Delta)
			output.Printf("  Gamma:  %.4f\n", g.Gamma)
			output.Printf("  Theta:  %+.2f /day\n", g.Theta)
			output.Printf("  Vega:   %.2f /1%% vol\n", g.Vega)
			output.Printf("  Rho:    %+.2f /1%% rate\n", g.Rho)
			return nil
		},
	}

	cmd.Flags().Float64("spot", 0, "underlying spot price (required)")
	cmd.Flags().Float64("strike", 0, "strike price (required)")
	cmd.Flags().Float64("days", 7, "days to expiry")
	cmd.Flags().Float64("iv", 18, "implied volatility percent")
	cmd.Flags().String("type", "CE", "option type: CE or PE")
	cmd.MarkFlagRequired("spot")
	cmd.MarkFlagRequired("strike")

	return cmd
}

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain [UNDERLYING]",
		Short: "Build and display an option strike ladder",
		Long: `Fetch the underlying's spot price, build the strike ladder around the
ATM strike and show Greeks, per-contract risk and recommendations for
every contract.`,
		Args: cobra.MaximumNArgs(1),
		Example: `  trading-robot chain
  trading-robot chain BANKNIFTY --iv 22`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			underlying := "NIFTY"
			if len(args) > 0 {
				underlying = strings.ToUpper(args[0])
			} else if len(app.Config.Options.Underlyings) > 0 {
				underlying = app.Config.Options.Underlyings[0]
			}

			quote, err := app.Feed.GetQuote(cmd.Context(), underlying)
			if err != nil {
				return err
			}

			iv, _ := cmd.Flags().GetFloat64("iv")
			now := time.Now()
			tte := utils.YearsUntil(now, utils.NextExpiry(now))

			engine := optionsrisk.NewEngine(app.Config.Options, app.Logger)
			chain, err := engine.BuildChain(underlying, quote.LTP, iv, tte)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(chain)
			}

			output.Bold("%s option chain (spot %.2f, IV %.1f%%, expiry %s)",
				underlying, quote.LTP, iv, utils.NextExpiry(now).Format("02 Jan"))
			output.Println()

			table := NewTable(output, "CONTRACT", "PRICE", "DELTA", "GAMMA", "THETA", "VEGA", "RISK", "VIEW")
			for _, c := range chain {
				table.AddRow(
					c.Symbol,
					fmt.Sprintf("%.2f", c.Greeks.Price),
					fmt.Sprintf("%+.3f", c.Greeks.Delta),
					fmt.Sprintf("%.4f", c.Greeks.Gamma),
					fmt.Sprintf("%+.2f", c.Greeks.Theta),
					fmt.Sprintf("%.2f", c.Greeks.Vega),
					output.RiskBadge(c.RiskLevel),
					output.Recommendation(c.Recommendation),
				)
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().Float64("iv", 18, "implied volatility percent for the ladder")
	return cmd
}
