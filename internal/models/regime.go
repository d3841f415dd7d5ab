package models

import "time"

// RegimeType classifies the statistical market regime.
type RegimeType string

const (
	RegimeTrendingBull     RegimeType = "TRENDING_BULL"
	RegimeTrendingBear     RegimeType = "TRENDING_BEAR"
	RegimeSidewaysLowVol   RegimeType = "SIDEWAYS_LOW_VOL"
	RegimeSidewaysHighVol  RegimeType = "SIDEWAYS_HIGH_VOL"
	RegimeVolatileUncertain RegimeType = "VOLATILE_UNCERTAIN"
)

// VolRegime buckets annualized return volatility.
type VolRegime string

const (
	VolRegimeLow    VolRegime = "LOW"
	VolRegimeMedium VolRegime = "MEDIUM"
	VolRegimeHigh   VolRegime = "HIGH"
)

// MarketRegime is the output of the regime classifier.
type MarketRegime struct {
	Type             RegimeType
	Strength         float64 // [0,1]
	HurstExponent    float64
	ATRSlope         float64
	VolatilityRegime VolRegime
	ComputedAt       time.Time
}

// DynamicAllocation is the capital allocation preset selected by a regime.
// Percentages are across strategy buckets and sum to 100.
type DynamicAllocation struct {
	ConservativePercent float64
	ModeratePercent     float64
	AggressivePercent   float64
	MaxPositions        int
	RiskPerTradePercent float64
}
