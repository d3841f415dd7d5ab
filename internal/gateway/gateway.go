// Package gateway defines the order-placement boundary and a paper
// trading implementation of it.
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trading-robot/internal/errors"
	"trading-robot/internal/models"
)

// OrderRequest is the order submitted to the gateway.
type OrderRequest struct {
	Symbol    string
	Action    models.SignalAction
	OrderType models.OrderType
	Quantity  int
	Price     float64 // required for limit orders
	StopLoss  float64
	Target    float64
	Product   models.ProductType
	Validity  string
}

// OrderResult is the gateway's acknowledgement. Fill price is not
// guaranteed; Status carries acceptance or rejection only.
type OrderResult struct {
	OrderID string
	Status  models.OrderStatus
}

// OrderGateway places orders with an external execution venue.
type OrderGateway interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
}

// PaperGateway simulates order acceptance against a cash balance.
// Market orders fill immediately at the request price.
type PaperGateway struct {
	mu      sync.Mutex
	cash    float64
	logger  zerolog.Logger
	now     func() time.Time
	seq     int
}

// NewPaperGateway creates a paper gateway with the given starting cash.
func NewPaperGateway(cash float64, logger zerolog.Logger) *PaperGateway {
	return &PaperGateway{cash: cash, logger: logger, now: time.Now}
}

// SetClock overrides the gateway's clock, for tests.
func (g *PaperGateway) SetClock(now func() time.Time) {
	g.now = now
}

// PlaceOrder validates and accepts the order, debiting cash for buys
// and crediting it for sells.
func (g *PaperGateway) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	if req.Quantity <= 0 {
		return nil, errors.NewOrderError("", req.Symbol, string(req.Action), "quantity must be positive", nil)
	}
	if req.OrderType == models.OrderTypeLimit && req.Price <= 0 {
		return nil, errors.NewOrderError("", req.Symbol, string(req.Action), "limit order requires a price", nil)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	orderID := fmt.Sprintf("PAPER_%d_%d", g.now().Unix(), g.seq)

	notional := req.Price * float64(req.Quantity)
	if req.Action == models.ActionBuy {
		if notional > g.cash {
			g.logger.Warn().
				Str("order_id", orderID).
				Str("symbol", req.Symbol).
				Float64("notional", notional).
				Float64("cash", g.cash).
				Msg("Paper order rejected: insufficient funds")
			return &OrderResult{OrderID: orderID, Status: models.OrderRejected},
				errors.Wrap(errors.ErrInsufficientFunds, req.Symbol)
		}
		g.cash -= notional
	} else {
		g.cash += notional
	}

	g.logger.Info().
		Str("order_id", orderID).
		Str("symbol", req.Symbol).
		Str("action", string(req.Action)).
		Int("quantity", req.Quantity).
		Float64("price", req.Price).
		Msg("Paper order filled")

	return &OrderResult{OrderID: orderID, Status: models.OrderComplete}, nil
}

// Cash returns the remaining simulated balance.
func (g *PaperGateway) Cash() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cash
}
