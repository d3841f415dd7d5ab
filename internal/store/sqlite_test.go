package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-robot/internal/models"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLiteJournal(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err, "failed to open journal")
	t.Cleanup(func() { j.Close() })
	return j
}

func TestLogTrade(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	entry := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	trade := &models.Trade{
		PositionID: "POS_1",
		Symbol:     "RELIANCE",
		Action:     models.ActionBuy,
		Quantity:   100,
		EntryPrice: 2500,
		ExitPrice:  2550,
		PnL:        5000,
		PnLPercent: 2,
		Strategy:   "intraday",
		Reason:     "Target/Trailing Stop",
		EntryTime:  entry,
		ExitTime:   entry.Add(90 * time.Minute),
	}

	require.NoError(t, j.LogTrade(ctx, trade))

	var count int
	var reason string
	var partial int
	err := j.db.QueryRow(`SELECT COUNT(*), MAX(reason), MAX(partial) FROM trades WHERE symbol = ?`, "RELIANCE").
		Scan(&count, &reason, &partial)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "Target/Trailing Stop", reason)
	assert.Equal(t, 0, partial)
}

func TestLogPartialTrade(t *testing.T) {
	j := newTestJournal(t)

	trade := &models.Trade{
		PositionID: "POS_2", Symbol: "INFY", Action: models.ActionBuy,
		Quantity: 40, EntryPrice: 1500, ExitPrice: 1545,
		PnL: 1800, PnLPercent: 3, Strategy: "intraday",
		Reason: "Partial profit booking", Partial: true,
		EntryTime: time.Now(), ExitTime: time.Now(),
	}
	require.NoError(t, j.LogTrade(context.Background(), trade))

	var partial int
	err := j.db.QueryRow(`SELECT partial FROM trades WHERE position_id = ?`, "POS_2").Scan(&partial)
	require.NoError(t, err)
	assert.Equal(t, 1, partial, "partial flag must round-trip")
}

func TestSaveDailyStatsUpsert(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	stats := &models.DailyTradingStats{
		Date:            time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC),
		TotalTrades:     3,
		WinningTrades:   2,
		MaxDrawdown:     -1.2,
		StartingCapital: 1000000,
		CurrentCapital:  1012000,
	}
	require.NoError(t, j.SaveDailyStats(ctx, stats))

	// Same session saved again later must update in place.
	stats.TotalTrades = 5
	stats.CurrentCapital = 1020000
	require.NoError(t, j.SaveDailyStats(ctx, stats))

	var rows, total int
	var capital float64
	err := j.db.QueryRow(`SELECT COUNT(*), MAX(total_trades), MAX(current_capital) FROM daily_stats`).
		Scan(&rows, &total, &capital)
	require.NoError(t, err)
	assert.Equal(t, 1, rows, "upsert must not add a second row")
	assert.Equal(t, 5, total)
	assert.Equal(t, float64(1020000), capital)
}
