// Package risk enforces the per-position exit policy: hard stops,
// time-based exits, trailing stops and partial profit booking.
package risk

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"trading-robot/internal/config"
	"trading-robot/internal/models"
	"trading-robot/pkg/utils"
)

// Exit reasons reported to statistics and notifications.
const (
	ReasonMaxLoss   = "Risk management - Max loss exceeded"
	ReasonScalpTime = "Time exit - scalping hold limit"
	ReasonSquareOff = "Time exit - intraday square-off"
	ReasonStopLoss  = "Stop Loss"
	ReasonTarget    = "Target/Trailing Stop"
	ReasonBookedOut = "Profit booking - full exit"
)

// Assessment is the outcome of reviewing one open position for one tick.
// Exactly one close reason is reported even when several conditions are
// simultaneously true.
type Assessment struct {
	Close        bool
	Reason       string
	BookQuantity int // partial profit-booking quantity, 0 when none
}

// Manager applies the exit policy to open positions.
type Manager struct {
	policy  config.PolicyConfig
	session config.SessionConfig
	logger  zerolog.Logger
}

// NewManager creates a risk manager.
func NewManager(policy config.PolicyConfig, session config.SessionConfig, logger zerolog.Logger) *Manager {
	return &Manager{policy: policy, session: session, logger: logger}
}

// Review evaluates one position at the given instant. It mutates the
// position's trailing stop, booking level and quantity in place and
// returns the action the caller must execute.
//
// Check priority: hard loss, then time exits, then booking and trailing,
// then stop/target touch.
func (m *Manager) Review(p *models.Position, now time.Time) Assessment {
	if p == nil || p.Quantity <= 0 {
		return Assessment{}
	}

	// 1. Hard loss limit overrides everything.
	if p.PnLPercent <= -m.policy.MaxLossPercent {
		return Assessment{Close: true, Reason: ReasonMaxLoss}
	}

	// 2. Time-based exits.
	if p.Strategy == "scalping" {
		held := now.Sub(p.EntryTime)
		if held >= time.Duration(m.policy.ScalpingMaxHoldMinutes)*time.Minute {
			return Assessment{Close: true, Reason: ReasonScalpTime}
		}
	}
	if p.Strategy == "intraday" && m.pastSquareOff(now) {
		return Assessment{Close: true, Reason: ReasonSquareOff}
	}

	// 3. Partial profit booking, at most one level transition per tick.
	if book := m.bookProfit(p); book > 0 {
		if p.Quantity == 0 {
			// The final level booked the whole position. Hand the full
			// quantity back so the caller's exit order is non-empty.
			p.Quantity = book
			return Assessment{Close: true, Reason: ReasonBookedOut}
		}
		// Booking and trailing can coexist within a tick.
		m.updateTrailing(p)
		return Assessment{BookQuantity: book}
	}

	// 4. Trailing stop maintenance.
	m.updateTrailing(p)

	// 5. Stop or target touched.
	if m.exitTouched(p) {
		if p.PnL < 0 {
			return Assessment{Close: true, Reason: ReasonStopLoss}
		}
		return Assessment{Close: true, Reason: ReasonTarget}
	}

	return Assessment{}
}

func (m *Manager) pastSquareOff(now time.Time) bool {
	deadline := utils.SquareOffTimeAt(now, m.session.SquareOffHour, m.session.SquareOffMinute)
	return !now.In(utils.IndiaLocation).Before(deadline)
}

// bookProfit applies one booking-level transition when its profit gate
// is reached, reducing quantity in place. Returns the booked quantity.
func (m *Manager) bookProfit(p *models.Position) int {
	var fraction float64
	switch {
	case p.ProfitBookingLevel == 0 && p.PnLPercent >= m.policy.BookingLevel1Percent:
		fraction = m.policy.BookingLevel1Fraction
	case p.ProfitBookingLevel == 1 && p.PnLPercent >= m.policy.BookingLevel2Percent:
		fraction = m.policy.BookingLevel2Fraction
	default:
		return 0
	}

	book := int(math.Floor(float64(p.Quantity) * fraction))
	if book <= 0 {
		return 0
	}

	p.Quantity -= book
	p.ProfitBookingLevel++

	m.logger.Info().
		Str("position_id", p.ID).
		Str("symbol", p.Symbol).
		Int("booked", book).
		Int("remaining", p.Quantity).
		Int("level", p.ProfitBookingLevel).
		Float64("pnl_percent", p.PnLPercent).
		Msg("Partial profit booked")

	return book
}

// updateTrailing activates the trailing stop at the configured gain and
// ratchets it. The stop only ever moves in the position's favor.
func (m *Manager) updateTrailing(p *models.Position) {
	if !p.TrailingActive {
		if p.PnLPercent < m.policy.TrailingActivatePercent {
			return
		}
		p.TrailingActive = true
		// Move to breakeven on activation.
		m.moveStop(p, p.EntryPrice)
	}

	distance := m.trailingDistance(p.PnLPercent)
	var candidate float64
	if p.Action == models.ActionBuy {
		candidate = p.CurrentPrice * (1 - distance/100)
	} else {
		candidate = p.CurrentPrice * (1 + distance/100)
	}
	m.moveStop(p, candidate)
}

// trailingDistance widens with profit so winners get room to run.
func (m *Manager) trailingDistance(pnlPercent float64) float64 {
	switch {
	case pnlPercent > m.policy.TrailingWidestThreshold:
		return m.policy.TrailingWidestPercent
	case pnlPercent > m.policy.TrailingWideThreshold:
		return m.policy.TrailingWidePercent
	default:
		return m.policy.TrailingBasePercent
	}
}

// moveStop applies candidate only when it is more favorable than the
// current stop.
func (m *Manager) moveStop(p *models.Position, candidate float64) {
	if p.Action == models.ActionBuy {
		if candidate > p.StopLoss {
			p.StopLoss = candidate
		}
	} else {
		if p.StopLoss == 0 || candidate < p.StopLoss {
			p.StopLoss = candidate
		}
	}
}

func (m *Manager) exitTouched(p *models.Position) bool {
	if p.Action == models.ActionBuy {
		if p.StopLoss > 0 && p.CurrentPrice <= p.StopLoss {
			return true
		}
		if p.Target > 0 && p.CurrentPrice >= p.Target {
			return true
		}
	} else {
		if p.StopLoss > 0 && p.CurrentPrice >= p.StopLoss {
			return true
		}
		if p.Target > 0 && p.CurrentPrice <= p.Target {
			return true
		}
	}
	return false
}
