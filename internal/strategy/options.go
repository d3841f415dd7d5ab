package strategy

import (
	"fmt"
	"time"

	"trading-robot/internal/config"
	"trading-robot/internal/models"
)

// StrategyOptions is the name tag carried by options-strategy signals.
const StrategyOptions = "options"

// OptionsGenerator produces premium-selling or volatility-buying signals
// on index symbols only.
type OptionsGenerator struct {
	policy  config.PolicyConfig
	indices map[string]bool
	now     func() time.Time
}

// NewOptionsGenerator creates an options signal generator restricted to
// the given index symbols.
func NewOptionsGenerator(policy config.PolicyConfig, indexSymbols []string) *OptionsGenerator {
	indices := make(map[string]bool, len(indexSymbols))
	for _, s := range indexSymbols {
		indices[s] = true
	}
	return &OptionsGenerator{policy: policy, indices: indices, now: time.Now}
}

// SetClock overrides the generator's clock, for tests.
func (g *OptionsGenerator) SetClock(now func() time.Time) {
	g.now = now
}

// Name returns the strategy name.
func (g *OptionsGenerator) Name() string {
	return StrategyOptions
}

// Generate emits an Iron Condor signal in low-volatility sideways
// conditions, a Straddle signal when volatility is high with neutral
// sentiment, and nothing otherwise. Non-index symbols never signal.
// Sizing is unused: options trade in fixed single lots.
func (g *OptionsGenerator) Generate(symbol string, price float64, cond *models.MarketCondition, tech *models.TechnicalSnapshot, sizing Sizing) *models.TradingSignal {
	if !g.indices[symbol] || price <= 0 || cond == nil {
		return nil
	}

	switch {
	case cond.Trend == models.TrendSideways && cond.Volatility == models.VolatilityLow:
		// Range-bound and quiet: sell premium.
		return &models.TradingSignal{
			Symbol:      symbol,
			Action:      models.ActionSell,
			OrderType:   models.OrderTypeLimit,
			Quantity:    1, // lots
			Price:       price,
			Reason:      fmt.Sprintf("Iron Condor: sideways %s in low volatility", symbol),
			Strategy:    StrategyOptions,
			RiskLevel:   models.RiskGradeLow,
			GeneratedAt: g.now(),
		}

	case (cond.Volatility == models.VolatilityHigh || cond.Volatility == models.VolatilityExtreme) &&
		cond.Sentiment == models.SentimentNeutral:
		// Big moves expected, direction unknown: buy volatility.
		return &models.TradingSignal{
			Symbol:      symbol,
			Action:      models.ActionBuy,
			OrderType:   models.OrderTypeMarket,
			Quantity:    1, // lots
			Price:       price,
			Reason:      fmt.Sprintf("Straddle: high volatility on %s with neutral sentiment", symbol),
			Strategy:    StrategyOptions,
			RiskLevel:   models.RiskGradeHigh,
			GeneratedAt: g.now(),
		}
	}

	return nil
}
