// Package position owns the mutable set of open positions.
package position

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trading-robot/internal/models"
)

// PriceSource supplies current prices for mark-to-market.
type PriceSource interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// Manager holds the open position set. All mutations happen from within
// a single orchestrator tick, but the lock keeps read paths (CLI views)
// safe to call concurrently.
type Manager struct {
	mu        sync.RWMutex
	positions map[string]*models.Position
	prices    PriceSource
	logger    zerolog.Logger
	now       func() time.Time
	seq       int
}

// NewManager creates a position manager.
func NewManager(prices PriceSource, logger zerolog.Logger) *Manager {
	return &Manager{
		positions: make(map[string]*models.Position),
		prices:    prices,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the manager's clock, for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Create converts an accepted signal into an open position.
// Hold signals produce nothing: (nil, nil), not an error.
func (m *Manager) Create(sig *models.TradingSignal) (*models.Position, error) {
	if sig == nil || sig.Action == models.ActionHold {
		return nil, nil
	}
	if sig.Quantity <= 0 {
		return nil, fmt.Errorf("position quantity must be positive, got %d", sig.Quantity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	now := m.now()
	p := &models.Position{
		ID:           fmt.Sprintf("POS_%d_%d", now.UnixNano(), m.seq),
		Symbol:       sig.Symbol,
		Action:       sig.Action,
		Quantity:     sig.Quantity,
		EntryPrice:   sig.Price,
		CurrentPrice: sig.Price,
		StopLoss:     sig.StopLoss,
		OriginalStop: sig.StopLoss,
		Target:       sig.Target,
		Strategy:     sig.Strategy,
		EntryTime:    now,
	}
	m.positions[p.ID] = p

	m.logger.Info().
		Str("position_id", p.ID).
		Str("symbol", p.Symbol).
		Str("action", string(p.Action)).
		Int("quantity", p.Quantity).
		Float64("entry", p.EntryPrice).
		Float64("stop", p.StopLoss).
		Float64("target", p.Target).
		Str("strategy", p.Strategy).
		Msg("Position opened")

	return p, nil
}

// UpdatePrices marks every open position to market. A lookup failure
// for one symbol leaves that position at its last known price and never
// aborts the update for the rest.
func (m *Manager) UpdatePrices(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.positions {
		q, err := m.prices.GetQuote(ctx, p.Symbol)
		if err != nil {
			m.logger.Warn().
				Err(err).
				Str("symbol", p.Symbol).
				Float64("last_known", p.CurrentPrice).
				Msg("Price refresh failed, holding last known price")
			p.MarkToMarket(p.CurrentPrice)
			continue
		}
		p.MarkToMarket(q.LTP)
	}
}

// Close removes the position and returns it once for statistics.
// Closing an unknown id is a no-op reported through the boolean.
func (m *Manager) Close(id string) (*models.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.positions[id]
	if !ok {
		return nil, false
	}
	delete(m.positions, id)
	return p, true
}

// Get returns the open position with the given id.
func (m *Manager) Get(id string) (*models.Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[id]
	return p, ok
}

// Open returns a snapshot slice of all open positions.
func (m *Manager) Open() []*models.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p)
	}
	return out
}

// HasPosition reports whether any open position exists for symbol.
func (m *Manager) HasPosition(symbol string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.positions {
		if p.Symbol == symbol {
			return true
		}
	}
	return false
}

// Count returns the number of open positions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.positions)
}
