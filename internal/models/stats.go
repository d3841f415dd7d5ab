package models

import "time"

// DailyTradingStats tracks session-level performance. It is reset at
// session start, updated on every position close and every mark-to-market.
type DailyTradingStats struct {
	Date            time.Time
	TotalTrades     int
	WinningTrades   int
	MaxDrawdown     float64 // most-negative cumulative return seen, percent
	CurrentDrawdown float64 // percent
	StartingCapital float64
	CurrentCapital  float64
}

// WinRate returns the winning-trade percentage for the session.
func (s *DailyTradingStats) WinRate() float64 {
	if s.TotalTrades == 0 {
		return 0
	}
	return float64(s.WinningTrades) / float64(s.TotalTrades) * 100
}
