package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trading-robot/internal/models"
)

// SQLiteJournal implements Journal over a local SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal opens (or creates) the journal database at dbPath.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}
	return j, nil
}

func (j *SQLiteJournal) initSchema() error {
	schema := `
	-- Closed and partially-booked trades
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		position_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		action TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		pnl REAL NOT NULL,
		pnl_percent REAL NOT NULL,
		strategy TEXT NOT NULL,
		reason TEXT NOT NULL,
		partial INTEGER NOT NULL DEFAULT 0,
		entry_time DATETIME NOT NULL,
		exit_time DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_exit_time ON trades(exit_time);

	-- One row per trading session
	CREATE TABLE IF NOT EXISTS daily_stats (
		date TEXT PRIMARY KEY,
		total_trades INTEGER NOT NULL,
		winning_trades INTEGER NOT NULL,
		max_drawdown REAL NOT NULL,
		starting_capital REAL NOT NULL,
		current_capital REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := j.db.Exec(schema)
	return err
}

// LogTrade appends one closed or partially-booked trade.
func (j *SQLiteJournal) LogTrade(ctx context.Context, trade *models.Trade) error {
	partial := 0
	if trade.Partial {
		partial = 1
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades (position_id, symbol, action, quantity, entry_price,
			exit_price, pnl, pnl_percent, strategy, reason, partial, entry_time, exit_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.PositionID, trade.Symbol, string(trade.Action), trade.Quantity,
		trade.EntryPrice, trade.ExitPrice, trade.PnL, trade.PnLPercent,
		trade.Strategy, trade.Reason, partial, trade.EntryTime, trade.ExitTime,
	)
	if err != nil {
		return fmt.Errorf("failed to log trade for %s: %w", trade.Symbol, err)
	}
	return nil
}

// SaveDailyStats upserts the session row for the stats date.
func (j *SQLiteJournal) SaveDailyStats(ctx context.Context, stats *models.DailyTradingStats) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO daily_stats (date, total_trades, winning_trades, max_drawdown,
			starting_capital, current_capital)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			total_trades = excluded.total_trades,
			winning_trades = excluded.winning_trades,
			max_drawdown = excluded.max_drawdown,
			current_capital = excluded.current_capital`,
		stats.Date.Format("2006-01-02"), stats.TotalTrades, stats.WinningTrades,
		stats.MaxDrawdown, stats.StartingCapital, stats.CurrentCapital,
	)
	if err != nil {
		return fmt.Errorf("failed to save daily stats: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
