package feed

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"trading-robot/internal/models"
)

// SimulatedFeed generates prices as a bounded random walk per symbol.
// It keeps the decision and risk logic exercisable without a broker
// session and implements both PriceFeed and TechnicalProvider.
type SimulatedFeed struct {
	mu      sync.Mutex
	rng     *rand.Rand
	state   map[string]*walkState
	subs    map[string]func(models.Tick)
	now     func() time.Time
	maxStep float64 // per-tick move cap, fraction of price
}

type walkState struct {
	base    float64
	price   float64
	high    float64
	low     float64
	history []float64
	volume  int64
}

// NewSimulatedFeed creates a simulated feed seeded with base prices per
// symbol.
func NewSimulatedFeed(basePrices map[string]float64, seed int64) *SimulatedFeed {
	f := &SimulatedFeed{
		rng:     rand.New(rand.NewSource(seed)),
		state:   make(map[string]*walkState),
		subs:    make(map[string]func(models.Tick)),
		now:     time.Now,
		maxStep: 0.003,
	}
	for symbol, base := range basePrices {
		f.state[symbol] = &walkState{
			base:    base,
			price:   base,
			high:    base,
			low:     base,
			history: []float64{base},
			volume:  100000,
		}
	}
	return f
}

// SetClock overrides the feed's clock, for tests.
func (f *SimulatedFeed) SetClock(now func() time.Time) {
	f.now = now
}

// GetQuote advances the walk one step and returns the resulting quote.
func (f *SimulatedFeed) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.stateFor(symbol)
	if err != nil {
		return nil, err
	}
	f.step(s)

	change := s.price - s.base
	return &models.Quote{
		Symbol:        symbol,
		LTP:           s.price,
		Open:          s.base,
		High:          s.high,
		Low:           s.low,
		Close:         s.base,
		Volume:        s.volume,
		AvgVolume:     100000,
		Change:        change,
		ChangePercent: change / s.base * 100,
		Timestamp:     f.now(),
	}, nil
}

// GetHistorical synthesizes candles from the walk history, padding with
// fresh steps when the window is longer than the recorded history.
func (f *SimulatedFeed) GetHistorical(ctx context.Context, symbol string, interval string, from, to time.Time) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.stateFor(symbol)
	if err != nil {
		return nil, err
	}

	const points = 60
	for len(s.history) < points {
		f.step(s)
	}

	hist := s.history[len(s.history)-points:]
	candles := make([]models.Candle, len(hist))
	span := to.Sub(from) / time.Duration(len(hist))
	for i, p := range hist {
		r := p * 0.002 * (1 + f.rng.Float64())
		candles[i] = models.Candle{
			Timestamp: from.Add(time.Duration(i) * span),
			Open:      p,
			High:      p + r,
			Low:       p - r,
			Close:     p,
			Volume:    s.volume,
		}
	}
	return candles, nil
}

// GetTechnicalIndicators derives a plausible snapshot from the walk.
func (f *SimulatedFeed) GetTechnicalIndicators(ctx context.Context, symbol string) (*models.TechnicalSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, err := f.stateFor(symbol)
	if err != nil {
		return nil, err
	}

	shortMA := tailMean(s.history, 9)
	longMA := tailMean(s.history, 21)
	atr := s.price * 0.008

	return &models.TechnicalSnapshot{
		Symbol: symbol,
		RSI:    f.syntheticRSI(s),
		MACD: models.MACDValue{
			Value:     shortMA - longMA,
			Signal:    (shortMA - longMA) * 0.8,
			Histogram: (shortMA - longMA) * 0.2,
		},
		MovingAverages: models.MovingAverages{Short: shortMA, Long: longMA},
		Bollinger: models.BollingerBands{
			Upper:  longMA * 1.02,
			Middle: longMA,
			Lower:  longMA * 0.98,
		},
		ATR:       atr,
		Timestamp: f.now(),
	}, nil
}

// Subscribe registers a tick callback. The simulated feed delivers ticks
// only through explicit Advance calls, keeping tests deterministic.
func (f *SimulatedFeed) Subscribe(symbol string, fn func(models.Tick)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.stateFor(symbol); err != nil {
		return err
	}
	f.subs[symbol] = fn
	return nil
}

// Unsubscribe removes the streaming registration for a symbol.
func (f *SimulatedFeed) Unsubscribe(symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, symbol)
	return nil
}

// Advance steps every symbol once and delivers ticks to subscribers.
func (f *SimulatedFeed) Advance() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for symbol, s := range f.state {
		f.step(s)
		if fn, ok := f.subs[symbol]; ok {
			fn(models.Tick{
				Symbol:    symbol,
				LTP:       s.price,
				Open:      s.base,
				High:      s.high,
				Low:       s.low,
				Volume:    s.volume,
				Timestamp: f.now(),
			})
		}
	}
}

func (f *SimulatedFeed) stateFor(symbol string) (*walkState, error) {
	s, ok := f.state[symbol]
	if !ok {
		// Unknown symbols join the walk at a generic base price.
		s = &walkState{base: 1000, price: 1000, high: 1000, low: 1000, history: []float64{1000}, volume: 100000}
		f.state[symbol] = s
	}
	return s, nil
}

// step advances the walk by one bounded increment and keeps the price
// within ±5% of its base so the simulation stays plausible intraday.
func (f *SimulatedFeed) step(s *walkState) {
	move := (f.rng.Float64()*2 - 1) * f.maxStep
	next := s.price * (1 + move)

	lower, upper := s.base*0.95, s.base*1.05
	next = math.Max(lower, math.Min(upper, next))

	s.price = next
	s.high = math.Max(s.high, next)
	s.low = math.Min(s.low, next)
	s.history = append(s.history, next)
	if len(s.history) > 500 {
		s.history = s.history[len(s.history)-500:]
	}
	s.volume += int64(f.rng.Intn(5000))
}

// syntheticRSI maps the price's position within its bounded band to an
// RSI-like 0-100 value.
func (f *SimulatedFeed) syntheticRSI(s *walkState) float64 {
	lower, upper := s.base*0.95, s.base*1.05
	pos := (s.price - lower) / (upper - lower)
	return 20 + pos*60
}

func tailMean(vals []float64, n int) float64 {
	if len(vals) == 0 {
		return 0
	}
	if len(vals) < n {
		n = len(vals)
	}
	sum := 0.0
	for _, v := range vals[len(vals)-n:] {
		sum += v
	}
	return sum / float64(n)
}
