package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"trading-robot/internal/errors"
	"trading-robot/internal/models"
	"trading-robot/pkg/utils"
)

// KiteFeed implements PriceFeed over the Kite Connect REST API.
// Quote lookups are retried with backoff; a persistent failure falls
// back to the last quote seen for the symbol.
type KiteFeed struct {
	client   *kiteconnect.Client
	exchange string
	retry    utils.RetryConfig

	mu        sync.RWMutex
	lastQuote map[string]*models.Quote
	tokens    map[string]int // symbol -> instrument token
	subs      map[string]func(models.Tick)
	volMean   map[string]float64 // running mean of observed volume
	volCount  map[string]int
}

// NewKiteFeed creates a live feed for an authenticated Kite session.
func NewKiteFeed(apiKey, accessToken string) *KiteFeed {
	client := kiteconnect.New(apiKey)
	client.SetAccessToken(accessToken)

	return &KiteFeed{
		client:    client,
		exchange:  "NSE",
		retry:     utils.DefaultRetryConfig(),
		lastQuote: make(map[string]*models.Quote),
		tokens:    make(map[string]int),
		subs:      make(map[string]func(models.Tick)),
		volMean:   make(map[string]float64),
		volCount:  make(map[string]int),
	}
}

// SetInstrumentToken registers the instrument token for a symbol, needed
// for historical data lookups.
func (f *KiteFeed) SetInstrumentToken(symbol string, token int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[symbol] = token
}

// GetQuote returns the current quote, retrying transient failures and
// falling back to the last known quote when the API stays down.
func (f *KiteFeed) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	instrument := fmt.Sprintf("%s:%s", f.exchange, symbol)

	quote, err := utils.RetryWithResult(ctx, f.retry, func() (*models.Quote, error) {
		quotes, err := f.client.GetQuote(instrument)
		if err != nil {
			return nil, fmt.Errorf("kite quote %s: %w", symbol, err)
		}
		q, ok := quotes[instrument]
		if !ok {
			return nil, errors.Wrap(errors.ErrSymbolNotFound, symbol)
		}

		changePercent := 0.0
		if q.OHLC.Close != 0 {
			changePercent = q.NetChange / q.OHLC.Close * 100
		}
		return &models.Quote{
			Symbol:        symbol,
			LTP:           q.LastPrice,
			Open:          q.OHLC.Open,
			High:          q.OHLC.High,
			Low:           q.OHLC.Low,
			Close:         q.OHLC.Close,
			Volume:        int64(q.Volume),
			Change:        q.NetChange,
			ChangePercent: changePercent,
			Timestamp:     q.LastTradeTime.Time,
		}, nil
	})
	if err != nil {
		f.mu.RLock()
		last, ok := f.lastQuote[symbol]
		f.mu.RUnlock()
		if ok {
			return last, nil
		}
		return nil, errors.NewDataError("quote", symbol, "lookup failed with no cached fallback", err)
	}

	f.mu.Lock()
	// The REST quote carries no volume average; maintain a running mean
	// of observed session volume as the comparison baseline.
	f.volCount[symbol]++
	n := float64(f.volCount[symbol])
	f.volMean[symbol] += (float64(quote.Volume) - f.volMean[symbol]) / n
	quote.AvgVolume = int64(f.volMean[symbol])
	f.lastQuote[symbol] = quote
	f.mu.Unlock()
	return quote, nil
}

// GetHistorical fetches OHLCV candles via the Kite historical API.
func (f *KiteFeed) GetHistorical(ctx context.Context, symbol string, interval string, from, to time.Time) ([]models.Candle, error) {
	f.mu.RLock()
	token, ok := f.tokens[symbol]
	f.mu.RUnlock()
	if !ok {
		return nil, errors.NewDataError("historical", symbol, "no instrument token registered", nil)
	}

	return utils.RetryWithResult(ctx, f.retry, func() ([]models.Candle, error) {
		data, err := f.client.GetHistoricalData(token, interval, from, to, false, false)
		if err != nil {
			return nil, fmt.Errorf("kite historical %s: %w", symbol, err)
		}

		candles := make([]models.Candle, len(data))
		for i, d := range data {
			candles[i] = models.Candle{
				Timestamp: d.Date.Time,
				Open:      d.Open,
				High:      d.High,
				Low:       d.Low,
				Close:     d.Close,
				Volume:    int64(d.Volume),
			}
		}
		return candles, nil
	})
}

// Subscribe registers a tick callback. The REST feed polls rather than
// streams; callbacks fire from Poll.
func (f *KiteFeed) Subscribe(symbol string, fn func(models.Tick)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[symbol] = fn
	return nil
}

// Unsubscribe removes the streaming registration for a symbol.
func (f *KiteFeed) Unsubscribe(symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, symbol)
	return nil
}

// Poll fetches quotes for all subscribed symbols and delivers them as
// ticks. Per-symbol failures are skipped, not propagated.
func (f *KiteFeed) Poll(ctx context.Context) {
	f.mu.RLock()
	symbols := make([]string, 0, len(f.subs))
	for s := range f.subs {
		symbols = append(symbols, s)
	}
	f.mu.RUnlock()

	for _, symbol := range symbols {
		q, err := f.GetQuote(ctx, symbol)
		if err != nil {
			continue
		}

		f.mu.RLock()
		fn, ok := f.subs[symbol]
		f.mu.RUnlock()
		if ok {
			fn(models.Tick{
				Symbol:    symbol,
				LTP:       q.LTP,
				Open:      q.Open,
				High:      q.High,
				Low:       q.Low,
				Close:     q.Close,
				Volume:    q.Volume,
				Timestamp: q.Timestamp,
			})
		}
	}
}
