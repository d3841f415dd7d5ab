package models

import "time"

// RiskGrade is an optional coarse risk label attached to a signal.
type RiskGrade string

const (
	RiskGradeLow    RiskGrade = "LOW"
	RiskGradeMedium RiskGrade = "MEDIUM"
	RiskGradeHigh   RiskGrade = "HIGH"
)

// TradingSignal is a candidate trade proposed by a strategy.
// A signal has no lifecycle of its own: within the tick that produced it,
// it is either converted into a Position or discarded.
type TradingSignal struct {
	Symbol      string
	Action      SignalAction
	OrderType   OrderType
	Quantity    int
	Price       float64 // required for limit orders
	StopLoss    float64
	Target      float64
	Confidence  float64 // [0, 0.95]
	Reason      string
	Strategy    string
	RiskLevel   RiskGrade
	SignalScore float64 // [0, 100]
	GeneratedAt time.Time
}

// ScoreBreakdown details the sub-scores that produced a signal score.
type ScoreBreakdown struct {
	Technical  float64 // 0-40
	Volume     float64 // 0-25
	Sentiment  float64 // 0-20
	Volatility float64 // 0-15
	Total      float64 // 0-100
}
