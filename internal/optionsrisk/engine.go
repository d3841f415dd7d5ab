// Package optionsrisk prices a strike ladder and aggregates portfolio
// option risk from Greeks.
package optionsrisk

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trading-robot/internal/config"
	"trading-robot/internal/greeks"
	"trading-robot/internal/models"
)

// Per-contract extremity thresholds. Each flag contributes 2 points to
// an 8-point risk scale.
const (
	gammaExtremity = 0.002
	thetaExtremity = -10.0
	vegaExtremity  = 20.0
	ivExtremity    = 40.0 // percent
)

// Portfolio aggregate thresholds for the additive risk score.
const (
	portfolioDeltaLimit = 100.0
	portfolioGammaLimit = 0.05
	portfolioThetaLimit = -500.0
	portfolioVegaLimit  = 500.0
)

// Engine recomputes an option chain and portfolio Greeks risk on its own
// cycle, independent of the trading tick.
type Engine struct {
	cfg    config.OptionsConfig
	logger zerolog.Logger
	now    func() time.Time

	mu    sync.RWMutex
	chain []models.OptionsGreeksData
}

// NewEngine creates an options risk engine.
func NewEngine(cfg config.OptionsConfig, logger zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, logger: logger, now: time.Now}
}

// SetClock overrides the engine's clock, for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// BuildChain prices calls and puts across a strike ladder centred on
// spot and caches the result. ivPercent is the volatility sample in
// percent, timeToExpiry in years.
func (e *Engine) BuildChain(underlying string, spot, ivPercent, timeToExpiry float64) ([]models.OptionsGreeksData, error) {
	if spot <= 0 {
		return nil, fmt.Errorf("spot must be positive, got %v", spot)
	}

	atm := math.Round(spot/e.cfg.StrikeStep) * e.cfg.StrikeStep
	now := e.now()

	var chain []models.OptionsGreeksData
	for i := -e.cfg.LadderSize; i <= e.cfg.LadderSize; i++ {
		strike := atm + float64(i)*e.cfg.StrikeStep
		if strike <= 0 {
			continue
		}

		for _, ot := range []models.OptionType{models.OptionCall, models.OptionPut} {
			g, err := greeks.Calculate(greeks.Input{
				Spot:         spot,
				Strike:       strike,
				TimeToExpiry: timeToExpiry,
				RiskFreeRate: e.cfg.RiskFreeRate,
				Volatility:   ivPercent / 100,
				OptionType:   ot,
			})
			if err != nil {
				return nil, err
			}

			chain = append(chain, models.OptionsGreeksData{
				Symbol:            fmt.Sprintf("%s%d%s", underlying, int(strike), ot),
				Underlying:        underlying,
				StrikePrice:       strike,
				OptionType:        ot,
				Greeks:            g,
				ImpliedVolatility: ivPercent,
				TimeToExpiry:      timeToExpiry,
				RiskLevel:         classifyContractRisk(g, ivPercent),
				Recommendation:    recommend(ot, strike, spot, ivPercent, g.Theta),
				ComputedAt:        now,
			})
		}
	}

	e.mu.Lock()
	e.chain = chain
	e.mu.Unlock()

	e.logger.Debug().
		Str("underlying", underlying).
		Float64("spot", spot).
		Float64("iv", ivPercent).
		Int("contracts", len(chain)).
		Msg("Option chain recomputed")

	return chain, nil
}

// Chain returns the most recently computed ladder.
func (e *Engine) Chain() []models.OptionsGreeksData {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]models.OptionsGreeksData, len(e.chain))
	copy(out, e.chain)
	return out
}

// classifyContractRisk accumulates extremity points (0-8) across the
// gamma, theta, vega and IV flags.
func classifyContractRisk(g models.OptionGreeks, ivPercent float64) models.RiskLevel {
	points := 0
	if g.Gamma > gammaExtremity {
		points += 2
	}
	if g.Theta < thetaExtremity {
		points += 2
	}
	if g.Vega > vegaExtremity {
		points += 2
	}
	if ivPercent > ivExtremity {
		points += 2
	}

	switch {
	case points < 2:
		return models.RiskLow
	case points < 4:
		return models.RiskMedium
	case points < 6:
		return models.RiskHigh
	default:
		return models.RiskExtreme
	}
}

// recommend derives a trading view from moneyness and implied volatility.
// Cheap in-the-money contracts with mild decay rate as strong buys;
// expensive out-of-the-money contracts as sells.
func recommend(ot models.OptionType, strike, spot, ivPercent, theta float64) models.TradingRecommendation {
	var itm bool
	if ot == models.OptionCall {
		itm = strike < spot
	} else {
		itm = strike > spot
	}

	switch {
	case itm && ivPercent < 20 && theta > -5:
		return models.RecStrongBuy
	case itm && ivPercent < 30:
		return models.RecBuy
	case !itm && ivPercent > 40:
		return models.RecStrongSell
	case !itm && ivPercent > 30:
		return models.RecSell
	default:
		return models.RecHold
	}
}

// PortfolioRisk aggregates quantity-weighted Greeks across holdings and
// scores the book. The assumed stress is a 2% underlying move.
func (e *Engine) PortfolioRisk(holdings []models.OptionHolding, spot float64) *models.PortfolioGreeksRisk {
	total := greeks.Portfolio(holdings)

	risk := &models.PortfolioGreeksRisk{
		TotalDelta:    total.Delta,
		TotalGamma:    total.Gamma,
		TotalTheta:    total.Theta,
		TotalVega:     total.Vega,
		TotalRho:      total.Rho,
		GammaExposure: gammaExposure(total.Gamma),
		ComputedAt:    e.now(),
	}

	score := 50.0
	if math.Abs(total.Delta) > portfolioDeltaLimit {
		score += 15
		risk.HedgingRecommendations = append(risk.HedgingRecommendations,
			fmt.Sprintf("Delta %.1f beyond ±%.0f: hedge with futures or offsetting options", total.Delta, portfolioDeltaLimit))
	}
	if math.Abs(total.Gamma) > portfolioGammaLimit {
		score += 15
		risk.HedgingRecommendations = append(risk.HedgingRecommendations,
			fmt.Sprintf("Gamma %.4f beyond ±%.2f: reduce near-expiry ATM exposure", total.Gamma, portfolioGammaLimit))
	}
	if total.Theta < portfolioThetaLimit {
		score += 10
		risk.HedgingRecommendations = append(risk.HedgingRecommendations,
			fmt.Sprintf("Theta %.1f below %.0f: daily decay is outsized, trim long premium", total.Theta, portfolioThetaLimit))
	}
	if math.Abs(total.Vega) > portfolioVegaLimit {
		score += 10
		risk.HedgingRecommendations = append(risk.HedgingRecommendations,
			fmt.Sprintf("Vega %.1f beyond ±%.0f: exposure to a volatility shift is high", total.Vega, portfolioVegaLimit))
	}

	risk.RiskScore = clamp(score, 0, 100)

	move := spot * 0.02
	risk.MaxDrawdownRisk = math.Abs(total.Delta)*move + 0.5*math.Abs(total.Gamma)*move*move

	return risk
}

func gammaExposure(totalGamma float64) models.GammaExposure {
	g := math.Abs(totalGamma)
	switch {
	case g < 0.01:
		return models.GammaLow
	case g < 0.05:
		return models.GammaMedium
	case g < 0.1:
		return models.GammaHigh
	default:
		return models.GammaExtreme
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
