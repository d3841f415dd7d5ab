package models

import "time"

// Position is an open trade owned by the position manager.
// All mutation happens from within a single orchestrator tick, so fields
// are not individually locked; the manager guards the open set.
type Position struct {
	ID           string
	Symbol       string
	Action       SignalAction // BUY or SELL, never HOLD
	Quantity     int          // >0 while open; only ever decreases
	EntryPrice   float64
	CurrentPrice float64
	StopLoss     float64 // moves only in the position's favor once trailing
	OriginalStop float64 // fixed at entry, for reporting
	Target       float64
	PnL          float64
	PnLPercent   float64
	Strategy     string
	EntryTime    time.Time

	// Risk-manager state
	TrailingActive     bool // one-way false -> true
	ProfitBookingLevel int  // 0, 1 or 2; monotonically increasing

	// Risk metadata
	Sector          string
	LiquidityScore  float64
	CorrelationRisk float64
}

// MarkToMarket refreshes the derived P&L fields from a new price.
func (p *Position) MarkToMarket(price float64) {
	p.CurrentPrice = price
	if p.Action == ActionBuy {
		p.PnL = (p.CurrentPrice - p.EntryPrice) * float64(p.Quantity)
	} else {
		p.PnL = (p.EntryPrice - p.CurrentPrice) * float64(p.Quantity)
	}
	notional := p.EntryPrice * float64(p.Quantity)
	if notional > 0 {
		p.PnLPercent = p.PnL / notional * 100
	}
}

// Trade is the record of a closed (or partially closed) position, reported
// once to the stats aggregator and the session journal.
type Trade struct {
	PositionID string
	Symbol     string
	Action     SignalAction
	Quantity   int
	EntryPrice float64
	ExitPrice  float64
	PnL        float64
	PnLPercent float64
	Strategy   string
	Reason     string
	EntryTime  time.Time
	ExitTime   time.Time
	Partial    bool
}
