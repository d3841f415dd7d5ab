// Package strategy implements the signal generators and signal scorer.
package strategy

import (
	"fmt"
	"math"
	"time"

	"trading-robot/internal/config"
	"trading-robot/internal/models"
)

// StrategyIntraday is the name tag carried by intraday momentum signals.
const StrategyIntraday = "intraday"

// Sizing carries the capital and risk fraction used to size an entry.
// RiskPercent follows the active regime allocation; a zero value falls
// back to the policy default.
type Sizing struct {
	Capital     float64
	RiskPercent float64
}

// IntradayGenerator produces momentum signals from trend, moving-average
// position and RSI.
type IntradayGenerator struct {
	policy config.PolicyConfig
	now    func() time.Time
}

// NewIntradayGenerator creates an intraday signal generator.
func NewIntradayGenerator(policy config.PolicyConfig) *IntradayGenerator {
	return &IntradayGenerator{policy: policy, now: time.Now}
}

// SetClock overrides the generator's clock, for tests.
func (g *IntradayGenerator) SetClock(now func() time.Time) {
	g.now = now
}

// Name returns the strategy name.
func (g *IntradayGenerator) Name() string {
	return StrategyIntraday
}

// Generate returns at most one candidate signal for the symbol, or nil
// when conditions do not line up.
func (g *IntradayGenerator) Generate(symbol string, price float64, cond *models.MarketCondition, tech *models.TechnicalSnapshot, sizing Sizing) *models.TradingSignal {
	if price <= 0 || tech == nil || cond == nil {
		return nil
	}
	if tech.ATR <= 0 {
		return nil
	}

	switch {
	case cond.Trend == models.TrendBullish &&
		price > tech.MovingAverages.Short &&
		tech.RSI < g.policy.RSIOverbought:
		return g.build(symbol, models.ActionBuy, price, tech.ATR, sizing,
			fmt.Sprintf("Bullish trend, price above MA, RSI %.1f not overbought", tech.RSI))

	case cond.Trend == models.TrendBearish &&
		price < tech.MovingAverages.Short &&
		tech.RSI > g.policy.RSIOversold:
		return g.build(symbol, models.ActionSell, price, tech.ATR, sizing,
			fmt.Sprintf("Bearish trend, price below MA, RSI %.1f not oversold", tech.RSI))
	}

	return nil
}

func (g *IntradayGenerator) build(symbol string, action models.SignalAction, price, atr float64, sizing Sizing, reason string) *models.TradingSignal {
	stopDistance := g.policy.StopATRMultiple * atr
	targetDistance := stopDistance * g.policy.RewardRiskRatio

	var stop, target float64
	if action == models.ActionBuy {
		stop = price - stopDistance
		target = price + targetDistance
	} else {
		stop = price + stopDistance
		target = price - targetDistance
	}

	riskPercent := sizing.RiskPercent
	if riskPercent <= 0 {
		riskPercent = g.policy.RiskPerTradePercent
	}
	qty := positionSize(sizing.Capital, riskPercent, stopDistance)
	if qty <= 0 {
		// A zero-quantity order is worse than no signal.
		return nil
	}

	return &models.TradingSignal{
		Symbol:      symbol,
		Action:      action,
		OrderType:   models.OrderTypeMarket,
		Quantity:    qty,
		Price:       price,
		StopLoss:    stop,
		Target:      target,
		Reason:      reason,
		Strategy:    StrategyIntraday,
		RiskLevel:   models.RiskGradeMedium,
		GeneratedAt: g.now(),
	}
}

// positionSize computes quantity such that a move to the stop loses the
// configured fraction of capital.
func positionSize(capital, riskPercent, stopDistance float64) int {
	if stopDistance <= 0 || capital <= 0 {
		return 0
	}
	riskAmount := capital * riskPercent / 100
	return int(math.Floor(riskAmount / stopDistance))
}
