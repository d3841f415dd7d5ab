// Package regime classifies market regime from historical price data.
package regime

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"trading-robot/internal/models"
)

const (
	minHurstPoints = 20
	atrPeriod      = 14
	minATRValues   = 10
)

// Classifier computes Hurst-exponent and ATR-slope based regime
// classification over a historical candle window.
type Classifier struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewClassifier creates a regime classifier.
func NewClassifier(logger zerolog.Logger) *Classifier {
	return &Classifier{logger: logger, now: time.Now}
}

// SetClock overrides the classifier's clock, for tests.
func (c *Classifier) SetClock(now func() time.Time) {
	c.now = now
}

// Classify computes the market regime from a candle window.
func (c *Classifier) Classify(candles []models.Candle) *models.MarketRegime {
	closes := make([]float64, len(candles))
	for i, cd := range candles {
		closes[i] = cd.Close
	}

	hurst := HurstExponent(closes)
	slope := ATRSlope(candles)
	volRegime := classifyVolRegime(annualizedVolatility(closes))

	regimeType, strength := mapRegime(hurst, slope)

	regime := &models.MarketRegime{
		Type:             regimeType,
		Strength:         strength,
		HurstExponent:    hurst,
		ATRSlope:         slope,
		VolatilityRegime: volRegime,
		ComputedAt:       c.now(),
	}

	c.logger.Debug().
		Str("regime", string(regimeType)).
		Float64("hurst", hurst).
		Float64("atr_slope", slope).
		Float64("strength", strength).
		Str("vol_regime", string(volRegime)).
		Msg("Regime classified")

	return regime
}

// HurstExponent estimates trend persistence via rescaled-range analysis
// of log-returns. Fewer than 20 points returns the no-trend default 0.5.
func HurstExponent(prices []float64) float64 {
	if len(prices) < minHurstPoints {
		return 0.5
	}

	returns := logReturns(prices)
	n := len(returns)
	if n == 0 {
		return 0.5
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(n)

	// Cumulative deviation series and its range.
	cum := 0.0
	minCum, maxCum := math.Inf(1), math.Inf(-1)
	variance := 0.0
	for _, r := range returns {
		cum += r - mean
		if cum < minCum {
			minCum = cum
		}
		if cum > maxCum {
			maxCum = cum
		}
		variance += (r - mean) * (r - mean)
	}

	rangeRS := maxCum - minCum
	stddev := math.Sqrt(variance / float64(n))
	if stddev == 0 || rangeRS == 0 {
		return 0.5
	}

	return math.Log(rangeRS/stddev) / math.Log(float64(n))
}

// ATRSlope measures the volatility trend as the relative difference
// between the mean ATR of the latest 5 bars and the preceding 5.
// Returns 0 when fewer than 10 ATR values are available.
func ATRSlope(candles []models.Candle) float64 {
	atrs := atrSeries(candles, atrPeriod)
	if len(atrs) < minATRValues {
		return 0
	}

	recent := mean(atrs[len(atrs)-5:])
	prior := mean(atrs[len(atrs)-10 : len(atrs)-5])
	if prior == 0 {
		return 0
	}
	return (recent - prior) / prior
}

// atrSeries computes a rolling simple-average ATR over the candle window.
// The first value requires period+1 candles.
func atrSeries(candles []models.Candle, period int) []float64 {
	if len(candles) < period+1 {
		return nil
	}

	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		trs = append(trs, trueRange(candles[i], candles[i-1].Close))
	}

	atrs := make([]float64, 0, len(trs)-period+1)
	for i := period; i <= len(trs); i++ {
		atrs = append(atrs, mean(trs[i-period:i]))
	}
	return atrs
}

func trueRange(c models.Candle, prevClose float64) float64 {
	tr := c.High - c.Low
	if d := math.Abs(c.High - prevClose); d > tr {
		tr = d
	}
	if d := math.Abs(c.Low - prevClose); d > tr {
		tr = d
	}
	return tr
}

// annualizedVolatility is the stddev of log-returns scaled by sqrt(252).
func annualizedVolatility(prices []float64) float64 {
	returns := logReturns(prices)
	if len(returns) < 2 {
		return 0
	}

	m := mean(returns)
	variance := 0.0
	for _, r := range returns {
		variance += (r - m) * (r - m)
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(252)
}

func classifyVolRegime(annualVol float64) models.VolRegime {
	switch {
	case annualVol < 0.15:
		return models.VolRegimeLow
	case annualVol > 0.30:
		return models.VolRegimeHigh
	default:
		return models.VolRegimeMedium
	}
}

// mapRegime maps (Hurst, ATR-slope) to a regime type with a strength
// score proportional to distance past the classification boundary.
func mapRegime(hurst, slope float64) (models.RegimeType, float64) {
	switch {
	case hurst > 0.6 && slope > 0.1:
		return models.RegimeTrendingBull, clamp01((hurst - 0.6) / 0.4)
	case hurst > 0.6 && slope < -0.1:
		return models.RegimeTrendingBear, clamp01((hurst - 0.6) / 0.4)
	case hurst < 0.4 && math.Abs(slope) < 0.05:
		return models.RegimeSidewaysLowVol, clamp01((0.4 - hurst) / 0.4)
	case hurst < 0.4 && math.Abs(slope) > 0.1:
		return models.RegimeSidewaysHighVol, clamp01((0.4 - hurst) / 0.4)
	default:
		return models.RegimeVolatileUncertain, clamp01(1 - math.Abs(hurst-0.5)/0.5)
	}
}

// AllocationFor returns the capital allocation preset for a regime type.
func AllocationFor(regimeType models.RegimeType) models.DynamicAllocation {
	switch regimeType {
	case models.RegimeTrendingBull:
		return models.DynamicAllocation{
			ConservativePercent: 20,
			ModeratePercent:     40,
			AggressivePercent:   40,
			MaxPositions:        7,
			RiskPerTradePercent: 1.2,
		}
	case models.RegimeTrendingBear:
		return models.DynamicAllocation{
			ConservativePercent: 40,
			ModeratePercent:     40,
			AggressivePercent:   20,
			MaxPositions:        5,
			RiskPerTradePercent: 1.0,
		}
	case models.RegimeSidewaysLowVol:
		return models.DynamicAllocation{
			ConservativePercent: 50,
			ModeratePercent:     35,
			AggressivePercent:   15,
			MaxPositions:        6,
			RiskPerTradePercent: 1.0,
		}
	case models.RegimeSidewaysHighVol:
		return models.DynamicAllocation{
			ConservativePercent: 60,
			ModeratePercent:     30,
			AggressivePercent:   10,
			MaxPositions:        5,
			RiskPerTradePercent: 0.9,
		}
	default: // volatile_uncertain
		return models.DynamicAllocation{
			ConservativePercent: 70,
			ModeratePercent:     25,
			AggressivePercent:   5,
			MaxPositions:        4,
			RiskPerTradePercent: 0.8,
		}
	}
}

func logReturns(prices []float64) []float64 {
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}
	return returns
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
