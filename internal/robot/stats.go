package robot

import (
	"sync"
	"time"

	"trading-robot/internal/models"
)

// StatsTracker maintains the session's trading statistics: realized
// trades on every close, drawdown on every mark-to-market.
type StatsTracker struct {
	mu    sync.Mutex
	stats models.DailyTradingStats
	peak  float64 // highest capital (realized + unrealized) seen
}

// NewStatsTracker starts a fresh session at the given capital.
func NewStatsTracker(startingCapital float64, date time.Time) *StatsTracker {
	return &StatsTracker{
		stats: models.DailyTradingStats{
			Date:            date,
			StartingCapital: startingCapital,
			CurrentCapital:  startingCapital,
		},
		peak: startingCapital,
	}
}

// RecordClose folds one realized trade into the session stats.
func (t *StatsTracker) RecordClose(pnl float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.TotalTrades++
	if pnl > 0 {
		t.stats.WinningTrades++
	}
	t.stats.CurrentCapital += pnl
	t.updateDrawdown(t.stats.CurrentCapital)
}

// Mark updates drawdown against the marked equity, i.e. realized
// capital plus unrealized P&L across open positions.
func (t *StatsTracker) Mark(unrealized float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.updateDrawdown(t.stats.CurrentCapital + unrealized)
}

func (t *StatsTracker) updateDrawdown(equity float64) {
	if equity > t.peak {
		t.peak = equity
	}
	if t.peak <= 0 {
		return
	}
	t.stats.CurrentDrawdown = (equity - t.peak) / t.peak * 100
	if t.stats.CurrentDrawdown < t.stats.MaxDrawdown {
		t.stats.MaxDrawdown = t.stats.CurrentDrawdown
	}
}

// Capital returns the current realized capital.
func (t *StatsTracker) Capital() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats.CurrentCapital
}

// Snapshot returns a copy of the session stats.
func (t *StatsTracker) Snapshot() models.DailyTradingStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
