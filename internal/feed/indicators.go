package feed

import (
	"context"
	"math"
	"time"

	"trading-robot/internal/errors"
	"trading-robot/internal/models"
)

// Indicator periods. RSI and ATR use Wilder smoothing, MACD the usual
// 12/26/9 EMAs, Bollinger a 20-period SMA with 2 standard deviations.
const (
	rsiPeriod        = 14
	atrIndPeriod     = 14
	macdFastPeriod   = 12
	macdSlowPeriod   = 26
	macdSignalPeriod = 9
	bollingerPeriod  = 20
	bollingerStdDev  = 2.0
	shortMAPeriod    = 9
	longMAPeriod     = 21

	snapshotLookback = 6 * time.Hour
	snapshotInterval = "5minute"
)

// minCandles is the shortest history that yields every indicator.
const minCandles = macdSlowPeriod + macdSignalPeriod

// IndicatorEngine computes technical snapshots from historical candles.
// It turns any PriceFeed into a TechnicalProvider.
type IndicatorEngine struct {
	feed PriceFeed
	now  func() time.Time
}

// NewIndicatorEngine creates an indicator engine over the given feed.
func NewIndicatorEngine(feed PriceFeed) *IndicatorEngine {
	return &IndicatorEngine{feed: feed, now: time.Now}
}

// SetClock overrides the engine's clock, for tests.
func (e *IndicatorEngine) SetClock(now func() time.Time) {
	e.now = now
}

// GetTechnicalIndicators fetches recent candles and computes the full
// snapshot for the symbol.
func (e *IndicatorEngine) GetTechnicalIndicators(ctx context.Context, symbol string) (*models.TechnicalSnapshot, error) {
	now := e.now()
	candles, err := e.feed.GetHistorical(ctx, symbol, snapshotInterval, now.Add(-snapshotLookback), now)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching candles for %s", symbol)
	}
	return Snapshot(symbol, candles, now)
}

// Snapshot computes a technical snapshot from the given candles.
func Snapshot(symbol string, candles []models.Candle, at time.Time) (*models.TechnicalSnapshot, error) {
	if len(candles) < minCandles {
		return nil, errors.NewDataError("technicals", symbol, "insufficient candles for indicators", nil)
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	macdLine, signalLine := macd(closes)
	upper, middle, lower := bollinger(closes)

	return &models.TechnicalSnapshot{
		Symbol: symbol,
		RSI:    rsi(closes),
		MACD: models.MACDValue{
			Value:     macdLine,
			Signal:    signalLine,
			Histogram: macdLine - signalLine,
		},
		MovingAverages: models.MovingAverages{
			Short: sma(closes, shortMAPeriod),
			Long:  sma(closes, longMAPeriod),
		},
		Bollinger: models.BollingerBands{
			Upper:  upper,
			Middle: middle,
			Lower:  lower,
		},
		ATR:       atr(candles),
		Timestamp: at,
	}, nil
}

// rsi returns the latest Wilder-smoothed RSI value.
func rsi(closes []float64) float64 {
	var avgGain, avgLoss float64
	for i := 1; i <= rsiPeriod; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= rsiPeriod
	avgLoss /= rsiPeriod

	for i := rsiPeriod + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(rsiPeriod-1) + gain) / rsiPeriod
		avgLoss = (avgLoss*(rsiPeriod-1) + loss) / rsiPeriod
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ema returns the full EMA series; entries before period-1 are zero.
func ema(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	result := make([]float64, len(values))
	multiplier := 2.0 / float64(period+1)

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	result[period-1] = seed / float64(period)

	for i := period; i < len(values); i++ {
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}
	return result
}

// macd returns the latest MACD line and signal line values.
func macd(closes []float64) (line, signal float64) {
	fast := ema(closes, macdFastPeriod)
	slow := ema(closes, macdSlowPeriod)

	diff := make([]float64, 0, len(closes)-macdSlowPeriod+1)
	for i := macdSlowPeriod - 1; i < len(closes); i++ {
		diff = append(diff, fast[i]-slow[i])
	}

	signalSeries := ema(diff, macdSignalPeriod)
	line = diff[len(diff)-1]
	if signalSeries != nil {
		signal = signalSeries[len(signalSeries)-1]
	}
	return line, signal
}

// bollinger returns the latest upper, middle and lower band values.
func bollinger(closes []float64) (upper, middle, lower float64) {
	window := closes[len(closes)-bollingerPeriod:]
	middle = sma(closes, bollingerPeriod)

	var variance float64
	for _, v := range window {
		d := v - middle
		variance += d * d
	}
	sd := math.Sqrt(variance / bollingerPeriod)

	return middle + bollingerStdDev*sd, middle, middle - bollingerStdDev*sd
}

// sma returns the mean of the last period closes.
func sma(closes []float64, period int) float64 {
	if len(closes) < period {
		period = len(closes)
	}
	var sum float64
	for _, v := range closes[len(closes)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// atr returns the latest Wilder-smoothed average true range.
func atr(candles []models.Candle) float64 {
	tr := make([]float64, len(candles))
	tr[0] = candles[0].High - candles[0].Low
	for i := 1; i < len(candles); i++ {
		tr[i] = trueRange(candles[i], candles[i-1])
	}

	var value float64
	for _, v := range tr[:atrIndPeriod] {
		value += v
	}
	value /= atrIndPeriod

	for i := atrIndPeriod; i < len(tr); i++ {
		value = (value*(atrIndPeriod-1) + tr[i]) / atrIndPeriod
	}
	return value
}

func trueRange(current, previous models.Candle) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - previous.Close)
	lc := math.Abs(current.Low - previous.Close)
	return math.Max(hl, math.Max(hc, lc))
}
