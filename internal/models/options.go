package models

import "time"

// OptionType distinguishes calls and puts.
type OptionType string

const (
	OptionCall OptionType = "CE"
	OptionPut  OptionType = "PE"
)

// RiskLevel classifies a single option contract's risk.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskExtreme RiskLevel = "EXTREME"
)

// TradingRecommendation is the per-contract view derived from moneyness and IV.
type TradingRecommendation string

const (
	RecStrongBuy  TradingRecommendation = "STRONG_BUY"
	RecBuy        TradingRecommendation = "BUY"
	RecHold       TradingRecommendation = "HOLD"
	RecSell       TradingRecommendation = "SELL"
	RecStrongSell TradingRecommendation = "STRONG_SELL"
)

// OptionGreeks holds an option's price sensitivities.
// Theta is per calendar day, vega per 1% volatility move and rho per 1%
// rate move; delta/gamma are raw Black-Scholes values.
type OptionGreeks struct {
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
	Price float64
}

// OptionsGreeksData is one strike-ladder entry recomputed on every
// options-engine cycle from a fresh spot and volatility sample.
type OptionsGreeksData struct {
	Symbol            string // underlying + strike + type, e.g. NIFTY24500CE
	Underlying        string
	StrikePrice       float64
	OptionType        OptionType
	Greeks            OptionGreeks
	ImpliedVolatility float64 // percent
	Volume            int64
	OpenInterest      int64
	TimeToExpiry      float64 // years
	RiskLevel         RiskLevel
	Recommendation    TradingRecommendation
	ComputedAt        time.Time
}

// GammaExposure buckets portfolio gamma risk.
type GammaExposure string

const (
	GammaLow     GammaExposure = "LOW"
	GammaMedium  GammaExposure = "MEDIUM"
	GammaHigh    GammaExposure = "HIGH"
	GammaExtreme GammaExposure = "EXTREME"
)

// OptionHolding is a held option position declared to the risk engine.
type OptionHolding struct {
	Symbol   string
	Quantity int // negative for short
	Greeks   OptionGreeks
}

// PortfolioGreeksRisk aggregates quantity-weighted Greeks across held
// option positions.
type PortfolioGreeksRisk struct {
	TotalDelta             float64
	TotalGamma             float64
	TotalTheta             float64
	TotalVega              float64
	TotalRho               float64
	RiskScore              float64 // [0,100]
	GammaExposure          GammaExposure
	HedgingRecommendations []string
	MaxDrawdownRisk        float64 // currency, estimated worst-case loss
	ComputedAt             time.Time
}
