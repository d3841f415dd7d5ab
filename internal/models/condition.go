package models

import "time"

// Trend represents the short-horizon price trend.
type Trend string

const (
	TrendBullish  Trend = "BULLISH"
	TrendBearish  Trend = "BEARISH"
	TrendSideways Trend = "SIDEWAYS"
)

// VolatilityLevel buckets the current volatility estimate.
type VolatilityLevel string

const (
	VolatilityLow     VolatilityLevel = "LOW"
	VolatilityMedium  VolatilityLevel = "MEDIUM"
	VolatilityHigh    VolatilityLevel = "HIGH"
	VolatilityExtreme VolatilityLevel = "EXTREME"
)

// VolumeLevel buckets current volume against its rolling average.
type VolumeLevel string

const (
	VolumeLow         VolumeLevel = "LOW"
	VolumeNormal      VolumeLevel = "NORMAL"
	VolumeHigh        VolumeLevel = "HIGH"
	VolumeExceptional VolumeLevel = "EXCEPTIONAL"
)

// Sentiment buckets the market sentiment score.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// TimeOfDay represents the trading-session sub-window.
type TimeOfDay string

const (
	TimePreOpen   TimeOfDay = "PRE_OPEN"
	TimeOpening   TimeOfDay = "OPENING"
	TimeMorning   TimeOfDay = "MORNING"
	TimeAfternoon TimeOfDay = "AFTERNOON"
	TimeClosing   TimeOfDay = "CLOSING"
)

// DayType classifies the calendar day.
type DayType string

const (
	DayNormal DayType = "NORMAL"
	DayExpiry DayType = "EXPIRY"
	DayResult DayType = "RESULT_DAY"
	DayEvent  DayType = "EVENT_DAY"
)

// MarketCondition is an immutable per-tick snapshot of market state.
// It is recomputed every tick and consumed by the signal generators
// within that tick.
type MarketCondition struct {
	Symbol     string
	Trend      Trend
	Volatility VolatilityLevel
	Volume     VolumeLevel
	Sentiment  Sentiment
	TimeOfDay  TimeOfDay
	DayType    DayType
	Timestamp  time.Time
}
