// Package store provides the session journal persistence.
package store

import (
	"context"

	"trading-robot/internal/models"
)

// Journal records closed trades and end-of-session statistics. It is a
// write-only audit trail; the engine never reads it back to make
// decisions.
type Journal interface {
	LogTrade(ctx context.Context, trade *models.Trade) error
	SaveDailyStats(ctx context.Context, stats *models.DailyTradingStats) error
	Close() error
}

// NopJournal discards everything, for tests and dry runs.
type NopJournal struct{}

// LogTrade implements Journal.
func (NopJournal) LogTrade(ctx context.Context, trade *models.Trade) error { return nil }

// SaveDailyStats implements Journal.
func (NopJournal) SaveDailyStats(ctx context.Context, stats *models.DailyTradingStats) error {
	return nil
}

// Close implements Journal.
func (NopJournal) Close() error { return nil }
