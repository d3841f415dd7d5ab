// Package robot runs the top-level trading control loop.
package robot

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"trading-robot/internal/config"
	"trading-robot/internal/errors"
	"trading-robot/internal/feed"
	"trading-robot/internal/gateway"
	"trading-robot/internal/logging"
	"trading-robot/internal/market"
	"trading-robot/internal/models"
	"trading-robot/internal/notify"
	"trading-robot/internal/optionsrisk"
	"trading-robot/internal/position"
	"trading-robot/internal/regime"
	"trading-robot/internal/risk"
	"trading-robot/internal/store"
	"trading-robot/internal/strategy"
	"trading-robot/pkg/utils"
)

// Generator is the common shape of the signal generators.
type Generator interface {
	Name() string
	Generate(symbol string, price float64, cond *models.MarketCondition, tech *models.TechnicalSnapshot, sizing strategy.Sizing) *models.TradingSignal
}

// Deps bundles the collaborators the robot drives.
type Deps struct {
	Config     *config.Config
	Feed       feed.PriceFeed
	Technicals feed.TechnicalProvider
	Analyzer   *market.Analyzer
	Classifier *regime.Classifier
	Generators []Generator
	Scorer     *strategy.Scorer
	Positions  *position.Manager
	Risk       *risk.Manager
	Gateway    gateway.OrderGateway
	Options    *optionsrisk.Engine
	Journal    store.Journal
	Notifier   notify.Notifier
	Logger     zerolog.Logger
}

// Robot owns the trading session: one serialized control loop that
// refreshes market state, applies the risk policy and opens positions.
type Robot struct {
	deps  Deps
	stats *StatsTracker

	mu            sync.Mutex
	running       bool
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	now           func() time.Time
	recentEntries []time.Time
	allocation    models.DynamicAllocation
}

// New creates a robot from its collaborators.
func New(deps Deps) *Robot {
	if deps.Journal == nil {
		deps.Journal = store.NopJournal{}
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}

	return &Robot{
		deps:  deps,
		stats: NewStatsTracker(deps.Config.Trading.Capital, time.Now()),
		now:   time.Now,
		allocation: models.DynamicAllocation{
			MaxPositions:        deps.Config.Policy.MaxOpenPositions,
			RiskPerTradePercent: deps.Config.Policy.RiskPerTradePercent,
		},
	}
}

// SetClock overrides the robot's clock, for tests.
func (r *Robot) SetClock(now func() time.Time) {
	r.now = now
}

// Stats returns the current session statistics.
func (r *Robot) Stats() models.DailyTradingStats {
	return r.stats.Snapshot()
}

// Running reports whether the control loop is active.
func (r *Robot) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Start launches the control loop. Starting outside exchange trading
// hours is a configuration error, not a wait.
func (r *Robot) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.ErrRobotRunning
	}
	if !utils.IsMarketOpen(r.now()) {
		return errors.ErrMarketClosed
	}

	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(1)
	go r.run(loopCtx)

	r.deps.Logger.Info().
		Str("mode", r.deps.Config.Trading.Mode).
		Strs("watchlist", r.deps.Config.Trading.Watchlist).
		Float64("capital", r.deps.Config.Trading.Capital).
		Msg("Robot started")
	return nil
}

// Stop cancels the loop and waits for any in-flight tick to finish, so
// no position is left half-updated.
func (r *Robot) Stop() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return errors.ErrRobotStopped
	}
	cancel := r.cancel
	r.mu.Unlock()

	cancel()
	r.wg.Wait()

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	stats := r.stats.Snapshot()
	if err := r.deps.Journal.SaveDailyStats(context.Background(), &stats); err != nil {
		r.deps.Logger.Warn().Err(err).Msg("Failed to journal daily stats")
	}

	r.deps.Logger.Info().Msg("Robot stopped")
	return nil
}

// run is the serialized control loop. The trading tick, regime refresh
// and options refresh share one goroutine, so a tick never overlaps
// another and the lower-frequency work never mutates positions.
func (r *Robot) run(ctx context.Context) {
	defer r.wg.Done()

	session := r.deps.Config.Session
	tick := time.NewTicker(session.TickInterval())
	regimeTick := time.NewTicker(session.RegimeInterval())
	optionsTick := time.NewTicker(session.OptionsInterval())
	defer tick.Stop()
	defer regimeTick.Stop()
	defer optionsTick.Stop()

	// Prime the regime before the first trading tick.
	r.refreshRegime(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			r.tick(ctx)
		case <-regimeTick.C:
			r.refreshRegime(ctx)
		case <-optionsTick.C:
			r.refreshOptions(ctx)
		}
	}
}

// tick is one pass of the trading loop: mark, manage risk, then look
// for new entries if capacity allows.
func (r *Robot) tick(ctx context.Context) {
	now := r.now()

	r.deps.Positions.UpdatePrices(ctx)
	r.reviewPositions(ctx, now)

	var unrealized float64
	for _, p := range r.deps.Positions.Open() {
		unrealized += p.PnL
	}
	r.stats.Mark(unrealized)

	if !r.hasCapacity(now) {
		return
	}
	r.generateEntries(ctx, now)
}

// reviewPositions applies the exit policy to every open position.
func (r *Robot) reviewPositions(ctx context.Context, now time.Time) {
	for _, p := range r.deps.Positions.Open() {
		assessment := r.deps.Risk.Review(p, now)

		switch {
		case assessment.Close:
			r.closePosition(ctx, p, assessment.Reason, now)
		case assessment.BookQuantity > 0:
			r.bookPartial(ctx, p, assessment.BookQuantity, now)
		}
	}
}

func (r *Robot) closePosition(ctx context.Context, p *models.Position, reason string, now time.Time) {
	if _, err := r.deps.Gateway.PlaceOrder(ctx, exitOrder(p, p.Quantity)); err != nil {
		r.deps.Logger.Error().Err(err).
			Str("position_id", p.ID).
			Str("symbol", p.Symbol).
			Msg("Exit order failed, will retry next tick")
		return
	}

	closed, ok := r.deps.Positions.Close(p.ID)
	if !ok {
		return
	}

	r.stats.RecordClose(closed.PnL)
	logging.LogExit(r.deps.Logger, closed.ID, closed.Symbol, reason, closed.PnL)
	r.deps.Notifier.PositionClosed(closed, reason)

	if err := r.deps.Journal.LogTrade(ctx, tradeRecord(closed, closed.Quantity, closed.PnL, reason, false, now)); err != nil {
		r.deps.Logger.Warn().Err(err).Msg("Failed to journal closed trade")
	}
}

func (r *Robot) bookPartial(ctx context.Context, p *models.Position, quantity int, now time.Time) {
	if _, err := r.deps.Gateway.PlaceOrder(ctx, exitOrder(p, quantity)); err != nil {
		// The risk manager already reduced the position; restore it so
		// booking retries cleanly on the next tick.
		p.Quantity += quantity
		p.ProfitBookingLevel--
		r.deps.Logger.Error().Err(err).
			Str("position_id", p.ID).
			Str("symbol", p.Symbol).
			Msg("Booking order failed, level restored")
		return
	}

	var bookedPnL float64
	if p.Action == models.ActionBuy {
		bookedPnL = (p.CurrentPrice - p.EntryPrice) * float64(quantity)
	} else {
		bookedPnL = (p.EntryPrice - p.CurrentPrice) * float64(quantity)
	}
	r.stats.RecordClose(bookedPnL)

	if err := r.deps.Journal.LogTrade(ctx, tradeRecord(p, quantity, bookedPnL, "Partial profit booking", true, now)); err != nil {
		r.deps.Logger.Warn().Err(err).Msg("Failed to journal partial booking")
	}

	r.deps.Logger.Info().
		Str("position_id", p.ID).
		Str("symbol", p.Symbol).
		Int("booked", quantity).
		Int("remaining", p.Quantity).
		Float64("pnl", bookedPnL).
		Msg("Partial profit executed")
}

// hasCapacity gates new entries on open-position count and on entry
// velocity: at most 2 entries inside any 5 minute window.
func (r *Robot) hasCapacity(now time.Time) bool {
	if r.deps.Positions.Count() >= r.maxPositions() {
		return false
	}

	window := time.Duration(r.deps.Config.Policy.RecentEntryWindowMinutes) * time.Minute
	kept := r.recentEntries[:0]
	for _, e := range r.recentEntries {
		if now.Sub(e) < window {
			kept = append(kept, e)
		}
	}
	r.recentEntries = kept

	return len(r.recentEntries) < r.deps.Config.Policy.MaxRecentEntries
}

func (r *Robot) maxPositions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.allocation.MaxPositions > 0 {
		return r.allocation.MaxPositions
	}
	return r.deps.Config.Policy.MaxOpenPositions
}

func (r *Robot) riskPerTrade() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.allocation.RiskPerTradePercent > 0 {
		return r.allocation.RiskPerTradePercent
	}
	return r.deps.Config.Policy.RiskPerTradePercent
}

// generateEntries runs the generators over the watchlist and submits
// accepted signals. A failure on one symbol never blocks the rest.
func (r *Robot) generateEntries(ctx context.Context, now time.Time) {
	sizing := strategy.Sizing{
		Capital:     r.stats.Capital(),
		RiskPercent: r.riskPerTrade(),
	}

	symbols := append([]string{}, r.deps.Config.Trading.Watchlist...)
	symbols = append(symbols, r.deps.Config.Trading.IndexSymbols...)

	for _, symbol := range symbols {
		if r.deps.Positions.HasPosition(symbol) {
			continue
		}

		cond, err := r.deps.Analyzer.Analyze(ctx, symbol)
		if err != nil {
			r.deps.Logger.Warn().Err(err).Str("symbol", symbol).Msg("Condition refresh failed, skipping symbol")
			continue
		}

		quote, err := r.deps.Feed.GetQuote(ctx, symbol)
		if err != nil {
			continue
		}

		tech, err := r.deps.Technicals.GetTechnicalIndicators(ctx, symbol)
		if err != nil {
			r.deps.Logger.Warn().Err(err).Str("symbol", symbol).Msg("Technical snapshot failed, skipping symbol")
			continue
		}

		for _, gen := range r.deps.Generators {
			sig := gen.Generate(symbol, quote.LTP, cond, tech, sizing)
			if sig == nil {
				continue
			}

			if _, accepted := r.deps.Scorer.Score(sig, cond, tech, quote); !accepted {
				continue
			}

			logging.LogSignal(r.deps.Logger, sig.Symbol, string(sig.Action), sig.Strategy, sig.SignalScore, sig.Confidence)
			if r.submitSignal(ctx, sig, now) {
				break // one position per symbol
			}
		}

		if !r.hasCapacity(now) {
			return
		}
	}
}

// submitSignal places the order and opens the position on acceptance.
func (r *Robot) submitSignal(ctx context.Context, sig *models.TradingSignal, now time.Time) bool {
	res, err := r.deps.Gateway.PlaceOrder(ctx, gateway.OrderRequest{
		Symbol:    sig.Symbol,
		Action:    sig.Action,
		OrderType: sig.OrderType,
		Quantity:  sig.Quantity,
		Price:     sig.Price,
		StopLoss:  sig.StopLoss,
		Target:    sig.Target,
		Product:   models.ProductType(r.deps.Config.Trading.Product),
		Validity:  "DAY",
	})
	if err != nil || res.Status != models.OrderComplete {
		r.deps.Logger.Warn().Err(err).
			Str("symbol", sig.Symbol).
			Str("strategy", sig.Strategy).
			Msg("Order not accepted, signal discarded")
		return false
	}

	p, err := r.deps.Positions.Create(sig)
	if err != nil || p == nil {
		return false
	}

	r.recentEntries = append(r.recentEntries, now)
	r.deps.Notifier.TradeOpened(p)
	return true
}

// refreshRegime reclassifies the market regime from recent history on
// the primary index and adopts its allocation preset.
func (r *Robot) refreshRegime(ctx context.Context) {
	indices := r.deps.Config.Trading.IndexSymbols
	if len(indices) == 0 || r.deps.Classifier == nil {
		return
	}

	now := r.now()
	candles, err := r.deps.Feed.GetHistorical(ctx, indices[0], "5minute", now.Add(-6*time.Hour), now)
	if err != nil {
		r.deps.Logger.Warn().Err(err).Msg("Regime refresh failed, keeping previous allocation")
		return
	}

	reg := r.deps.Classifier.Classify(candles)
	alloc := regime.AllocationFor(reg.Type)

	r.mu.Lock()
	r.allocation = alloc
	r.mu.Unlock()

	r.deps.Logger.Info().
		Str("regime", string(reg.Type)).
		Float64("strength", reg.Strength).
		Int("max_positions", alloc.MaxPositions).
		Float64("risk_per_trade", alloc.RiskPerTradePercent).
		Msg("Allocation updated from regime")
}

// refreshOptions recomputes the option chain for each configured
// underlying from a fresh spot sample.
func (r *Robot) refreshOptions(ctx context.Context) {
	if r.deps.Options == nil {
		return
	}

	now := r.now()
	tte := utils.YearsUntil(now, utils.NextExpiry(now))

	for _, underlying := range r.deps.Config.Options.Underlyings {
		quote, err := r.deps.Feed.GetQuote(ctx, underlying)
		if err != nil {
			continue
		}

		iv := impliedVolEstimate(quote)
		if _, err := r.deps.Options.BuildChain(underlying, quote.LTP, iv, tte); err != nil {
			r.deps.Logger.Warn().Err(err).Str("underlying", underlying).Msg("Option chain refresh failed")
		}
	}
}

// impliedVolEstimate derives a rough annualized IV sample (percent)
// from the day's realized range.
func impliedVolEstimate(q *models.Quote) float64 {
	if q.Open <= 0 {
		return 18
	}
	dayRange := (q.High - q.Low) / q.Open
	iv := dayRange * 100 * 16 // sqrt(252) scaling of a daily range proxy
	if iv < 10 {
		iv = 10
	}
	if iv > 80 {
		iv = 80
	}
	return iv
}

func exitOrder(p *models.Position, quantity int) gateway.OrderRequest {
	action := models.ActionSell
	if p.Action == models.ActionSell {
		action = models.ActionBuy
	}
	return gateway.OrderRequest{
		Symbol:    p.Symbol,
		Action:    action,
		OrderType: models.OrderTypeMarket,
		Quantity:  quantity,
		Price:     p.CurrentPrice,
		Product:   models.ProductMIS,
		Validity:  "DAY",
	}
}

func tradeRecord(p *models.Position, quantity int, pnl float64, reason string, partial bool, now time.Time) *models.Trade {
	return &models.Trade{
		PositionID: p.ID,
		Symbol:     p.Symbol,
		Action:     p.Action,
		Quantity:   quantity,
		EntryPrice: p.EntryPrice,
		ExitPrice:  p.CurrentPrice,
		PnL:        pnl,
		PnLPercent: p.PnLPercent,
		Strategy:   p.Strategy,
		Reason:     reason,
		Partial:    partial,
		EntryTime:  p.EntryTime,
		ExitTime:   now,
	}
}
