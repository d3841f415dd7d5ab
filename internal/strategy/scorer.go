package strategy

import (
	"math"

	"github.com/rs/zerolog"

	"trading-robot/internal/config"
	"trading-robot/internal/models"
)

// ConfidenceCeiling is the hard upper bound on signal confidence.
// No signal is ever fully certain.
const ConfidenceCeiling = 0.95

// Scorer grades candidate signals against market context and accepts or
// rejects them against a per-strategy threshold.
type Scorer struct {
	policy config.PolicyConfig
	logger zerolog.Logger
}

// NewScorer creates a signal scorer.
func NewScorer(policy config.PolicyConfig, logger zerolog.Logger) *Scorer {
	return &Scorer{policy: policy, logger: logger}
}

// Score grades the signal, fills in SignalScore and Confidence, and
// returns whether it passes the strategy's acceptance threshold.
// Structurally inconsistent signals (stop or target on the wrong side
// of the entry price) are rejected outright.
func (s *Scorer) Score(sig *models.TradingSignal, cond *models.MarketCondition, tech *models.TechnicalSnapshot, quote *models.Quote) (models.ScoreBreakdown, bool) {
	var bd models.ScoreBreakdown
	if sig == nil || sig.Action == models.ActionHold {
		return bd, false
	}

	if !consistent(sig) {
		s.logger.Warn().
			Str("symbol", sig.Symbol).
			Str("action", string(sig.Action)).
			Float64("price", sig.Price).
			Float64("stop", sig.StopLoss).
			Float64("target", sig.Target).
			Msg("Signal rejected: stop or target on wrong side of entry")
		return bd, false
	}

	bd.Technical = technicalScore(sig, tech)
	bd.Volume = volumeScore(quote)
	bd.Sentiment = sentimentScore(sig, cond)
	bd.Volatility = volatilityScore(cond)
	bd.Total = bd.Technical + bd.Volume + bd.Sentiment + bd.Volatility

	sig.SignalScore = bd.Total
	sig.Confidence = math.Min(bd.Total/100, ConfidenceCeiling)

	threshold := s.policy.ScoreThreshold(sig.Strategy)
	accepted := bd.Total > threshold

	if !accepted {
		s.logger.Info().
			Str("symbol", sig.Symbol).
			Str("strategy", sig.Strategy).
			Float64("score", bd.Total).
			Float64("threshold", threshold).
			Msg("Signal rejected: score below threshold")
	}

	return bd, accepted
}

// consistent verifies stop and target sit on the correct side of entry.
// Zero stop/target (options strategies) are treated as unset.
func consistent(sig *models.TradingSignal) bool {
	if sig.Price <= 0 {
		return false
	}
	if sig.Action == models.ActionBuy {
		if sig.StopLoss != 0 && sig.StopLoss >= sig.Price {
			return false
		}
		if sig.Target != 0 && sig.Target <= sig.Price {
			return false
		}
	} else {
		if sig.StopLoss != 0 && sig.StopLoss <= sig.Price {
			return false
		}
		if sig.Target != 0 && sig.Target >= sig.Price {
			return false
		}
	}
	return true
}

// technicalScore awards up to 40 points for indicator confluence with
// the signal direction.
func technicalScore(sig *models.TradingSignal, tech *models.TechnicalSnapshot) float64 {
	if tech == nil {
		return 0
	}

	score := 0.0
	buy := sig.Action == models.ActionBuy

	// RSI extremes aligned with direction.
	switch {
	case buy && tech.RSI < 35:
		score += 15
	case buy && tech.RSI < 50:
		score += 8
	case !buy && tech.RSI > 65:
		score += 15
	case !buy && tech.RSI > 50:
		score += 8
	}

	// MACD histogram agreement.
	if (buy && tech.MACD.Histogram > 0) || (!buy && tech.MACD.Histogram < 0) {
		score += 10
	}

	// Bollinger position: room to run toward the far band.
	if tech.Bollinger.Middle > 0 {
		if (buy && sig.Price < tech.Bollinger.Middle) || (!buy && sig.Price > tech.Bollinger.Middle) {
			score += 7
		}
	}

	// Moving-average alignment.
	if (buy && tech.MovingAverages.Short > tech.MovingAverages.Long) ||
		(!buy && tech.MovingAverages.Short < tech.MovingAverages.Long) {
		score += 8
	}

	return math.Min(score, 40)
}

// volumeScore awards up to 25 points scaled by volume versus average.
func volumeScore(quote *models.Quote) float64 {
	if quote == nil || quote.AvgVolume <= 0 {
		return 0
	}
	ratio := float64(quote.Volume) / float64(quote.AvgVolume)
	return math.Min(ratio/2*25, 25)
}

// sentimentScore awards up to 20 points for sentiment alignment.
func sentimentScore(sig *models.TradingSignal, cond *models.MarketCondition) float64 {
	if cond == nil {
		return 10
	}
	buy := sig.Action == models.ActionBuy
	switch {
	case buy && cond.Sentiment == models.SentimentPositive,
		!buy && cond.Sentiment == models.SentimentNegative:
		return 20
	case cond.Sentiment == models.SentimentNeutral:
		return 10
	default:
		return 0
	}
}

// volatilityScore awards up to 15 points, rewarding the moderate band
// where stops are neither too tight nor too wide.
func volatilityScore(cond *models.MarketCondition) float64 {
	if cond == nil {
		return 0
	}
	switch cond.Volatility {
	case models.VolatilityMedium:
		return 15
	case models.VolatilityLow, models.VolatilityHigh:
		return 8
	default: // extreme
		return 2
	}
}
