// Package market classifies current market conditions per symbol.
package market

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"trading-robot/internal/models"
	"trading-robot/pkg/utils"
)

// QuoteProvider supplies current quotes.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// SentimentProvider supplies a market sentiment score in [0, 1].
type SentimentProvider interface {
	GetMarketSentiment(ctx context.Context) (float64, error)
}

// Analyzer builds a MarketCondition snapshot per symbol per tick.
type Analyzer struct {
	quotes    QuoteProvider
	sentiment SentimentProvider
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAnalyzer creates a condition analyzer. A nil sentiment provider
// yields neutral sentiment.
func NewAnalyzer(quotes QuoteProvider, sentiment SentimentProvider, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		quotes:    quotes,
		sentiment: sentiment,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the analyzer's clock, for tests.
func (a *Analyzer) SetClock(now func() time.Time) {
	a.now = now
}

// Analyze classifies the current market condition for symbol.
// Sentiment failures degrade to neutral rather than failing the tick.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (*models.MarketCondition, error) {
	q, err := a.quotes.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	now := a.now()
	cond := &models.MarketCondition{
		Symbol:     symbol,
		Trend:      classifyTrend(q.ChangePercent),
		Volatility: classifyVolatility(q),
		Volume:     classifyVolume(q),
		Sentiment:  a.classifySentiment(ctx),
		TimeOfDay:  utils.TimeOfDayAt(now),
		DayType:    utils.DayTypeAt(now),
		Timestamp:  now,
	}

	a.logger.Debug().
		Str("symbol", symbol).
		Str("trend", string(cond.Trend)).
		Str("volatility", string(cond.Volatility)).
		Str("volume", string(cond.Volume)).
		Str("sentiment", string(cond.Sentiment)).
		Msg("Market condition computed")

	return cond, nil
}

func classifyTrend(changePercent float64) models.Trend {
	switch {
	case changePercent > 0.5:
		return models.TrendBullish
	case changePercent < -0.5:
		return models.TrendBearish
	default:
		return models.TrendSideways
	}
}

// classifyVolatility uses the intraday range relative to the open.
func classifyVolatility(q *models.Quote) models.VolatilityLevel {
	if q.Open <= 0 {
		return models.VolatilityMedium
	}
	rangePercent := (q.High - q.Low) / q.Open * 100
	switch {
	case rangePercent < 1.0:
		return models.VolatilityLow
	case rangePercent < 2.0:
		return models.VolatilityMedium
	case rangePercent < 3.5:
		return models.VolatilityHigh
	default:
		return models.VolatilityExtreme
	}
}

// classifyVolume compares current volume against the rolling average.
func classifyVolume(q *models.Quote) models.VolumeLevel {
	if q.AvgVolume <= 0 {
		return models.VolumeNormal
	}
	ratio := float64(q.Volume) / float64(q.AvgVolume)
	switch {
	case ratio < 0.5:
		return models.VolumeLow
	case ratio < 1.5:
		return models.VolumeNormal
	case ratio < 2.5:
		return models.VolumeHigh
	default:
		return models.VolumeExceptional
	}
}

func (a *Analyzer) classifySentiment(ctx context.Context) models.Sentiment {
	if a.sentiment == nil {
		return models.SentimentNeutral
	}
	score, err := a.sentiment.GetMarketSentiment(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("Sentiment unavailable, defaulting to neutral")
		return models.SentimentNeutral
	}
	switch {
	case score > 0.6:
		return models.SentimentPositive
	case score < 0.4:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}
