// Package feed provides the market data sources: quotes, candles,
// technical snapshots and sentiment, in live and simulated flavors.
package feed

import (
	"context"
	"time"

	"trading-robot/internal/models"
)

// PriceFeed supplies real-time and historical market data.
type PriceFeed interface {
	// GetQuote returns the current quote for a symbol.
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)

	// GetHistorical returns OHLCV candles for the window.
	GetHistorical(ctx context.Context, symbol string, interval string, from, to time.Time) ([]models.Candle, error)

	// Subscribe registers a callback for streaming ticks on a symbol.
	Subscribe(symbol string, fn func(models.Tick)) error

	// Unsubscribe removes the streaming registration for a symbol.
	Unsubscribe(symbol string) error
}

// TechnicalProvider supplies indicator snapshots.
type TechnicalProvider interface {
	GetTechnicalIndicators(ctx context.Context, symbol string) (*models.TechnicalSnapshot, error)
}

// SentimentProvider supplies a market sentiment score in [0, 1].
type SentimentProvider interface {
	GetMarketSentiment(ctx context.Context) (float64, error)
}
