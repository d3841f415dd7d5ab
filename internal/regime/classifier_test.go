package regime

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"trading-robot/internal/models"
)

// trendingPrices builds a series whose log-returns grow linearly, a
// strongly trend-persistent shape.
func trendingPrices(n int) []float64 {
	prices := make([]float64, n)
	prices[0] = 100
	for i := 1; i < n; i++ {
		r := 0.001 * float64(i)
		prices[i] = prices[i-1] * math.Exp(r)
	}
	return prices
}

func TestHurstExponentTrendingSeries(t *testing.T) {
	h := HurstExponent(trendingPrices(30))
	if h <= 0.5 {
		t.Errorf("Hurst on trending 30-point series = %v, want > 0.5", h)
	}
}

func TestHurstExponentShortSeries(t *testing.T) {
	prices := trendingPrices(19)
	if h := HurstExponent(prices); h != 0.5 {
		t.Errorf("Hurst on 19-point series = %v, want no-trend default 0.5", h)
	}
	if h := HurstExponent(nil); h != 0.5 {
		t.Errorf("Hurst on empty series = %v, want 0.5", h)
	}
}

func TestHurstExponentFlatSeries(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 250
	}
	if h := HurstExponent(prices); h != 0.5 {
		t.Errorf("Hurst on flat series = %v, want 0.5 (zero stddev)", h)
	}
}

func TestATRSlopeInsufficientData(t *testing.T) {
	candles := makeCandles(20, func(i int) float64 { return 5 })
	if s := ATRSlope(candles); s != 0 {
		t.Errorf("ATR slope with <10 ATR values = %v, want 0", s)
	}
	if s := ATRSlope(nil); s != 0 {
		t.Errorf("ATR slope on empty input = %v, want 0", s)
	}
}

func TestATRSlopeWideningRanges(t *testing.T) {
	// Bar range triples across the window: volatility is expanding.
	candles := makeCandles(40, func(i int) float64 { return 5 + float64(i)*0.4 })
	if s := ATRSlope(candles); s <= 0 {
		t.Errorf("ATR slope on widening ranges = %v, want positive", s)
	}
}

func TestATRSlopeContractingRanges(t *testing.T) {
	candles := makeCandles(40, func(i int) float64 { return 20 - float64(i)*0.4 })
	if s := ATRSlope(candles); s >= 0 {
		t.Errorf("ATR slope on contracting ranges = %v, want negative", s)
	}
}

func makeCandles(n int, barRange func(i int) float64) []models.Candle {
	candles := make([]models.Candle, n)
	base := time.Date(2025, 6, 11, 9, 15, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		r := barRange(i)
		mid := 1000.0
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * 5 * time.Minute),
			Open:      mid,
			High:      mid + r/2,
			Low:       mid - r/2,
			Close:     mid,
			Volume:    100000,
		}
	}
	return candles
}

func TestMapRegime(t *testing.T) {
	tests := []struct {
		name  string
		hurst float64
		slope float64
		want  models.RegimeType
	}{
		{"trending bull", 0.7, 0.2, models.RegimeTrendingBull},
		{"trending bear", 0.7, -0.2, models.RegimeTrendingBear},
		{"sideways low vol", 0.3, 0.02, models.RegimeSidewaysLowVol},
		{"sideways high vol", 0.3, 0.15, models.RegimeSidewaysHighVol},
		{"uncertain near random walk", 0.5, 0.0, models.RegimeVolatileUncertain},
		{"high hurst flat slope is uncertain", 0.7, 0.0, models.RegimeVolatileUncertain},
		{"low hurst middling slope is uncertain", 0.3, 0.07, models.RegimeVolatileUncertain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, strength := mapRegime(tt.hurst, tt.slope)
			if got != tt.want {
				t.Errorf("mapRegime(%v, %v) = %s, want %s", tt.hurst, tt.slope, got, tt.want)
			}
			if strength < 0 || strength > 1 {
				t.Errorf("strength = %v, want within [0,1]", strength)
			}
		})
	}
}

func TestStrengthBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("strength always in [0,1]", prop.ForAll(
		func(hurst, slope float64) bool {
			_, strength := mapRegime(hurst, slope)
			return strength >= 0 && strength <= 1
		},
		gen.Float64Range(-0.5, 1.5),
		gen.Float64Range(-1, 1),
	))

	properties.TestingRun(t)
}

func TestClassifyTrendingSeries(t *testing.T) {
	prices := trendingPrices(40)
	candles := make([]models.Candle, len(prices))
	base := time.Date(2025, 6, 11, 9, 15, 0, 0, time.UTC)
	for i, p := range prices {
		r := 2 + float64(i)*0.5 // widening ranges alongside the trend
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * 5 * time.Minute),
			Open:      p,
			High:      p + r,
			Low:       p - r,
			Close:     p,
			Volume:    100000,
		}
	}

	c := NewClassifier(zerolog.Nop())
	regime := c.Classify(candles)

	if regime.HurstExponent <= 0.5 {
		t.Errorf("hurst = %v, want > 0.5 for trending series", regime.HurstExponent)
	}
	if regime.ATRSlope <= 0 {
		t.Errorf("atr slope = %v, want positive for widening ranges", regime.ATRSlope)
	}
	if regime.Strength < 0 || regime.Strength > 1 {
		t.Errorf("strength = %v, want within [0,1]", regime.Strength)
	}
}

func TestAllocationPresets(t *testing.T) {
	types := []models.RegimeType{
		models.RegimeTrendingBull,
		models.RegimeTrendingBear,
		models.RegimeSidewaysLowVol,
		models.RegimeSidewaysHighVol,
		models.RegimeVolatileUncertain,
	}

	for _, rt := range types {
		t.Run(string(rt), func(t *testing.T) {
			alloc := AllocationFor(rt)
			total := alloc.ConservativePercent + alloc.ModeratePercent + alloc.AggressivePercent
			if math.Abs(total-100) > 1e-9 {
				t.Errorf("bucket percentages sum to %v, want 100", total)
			}
			if alloc.MaxPositions < 4 || alloc.MaxPositions > 7 {
				t.Errorf("max positions = %d, want 4-7", alloc.MaxPositions)
			}
			if alloc.RiskPerTradePercent < 0.8 || alloc.RiskPerTradePercent > 1.2 {
				t.Errorf("risk per trade = %v, want 0.8-1.2", alloc.RiskPerTradePercent)
			}
		})
	}

	// Uncertain regime must be the most defensive preset.
	uncertain := AllocationFor(models.RegimeVolatileUncertain)
	bull := AllocationFor(models.RegimeTrendingBull)
	if uncertain.MaxPositions >= bull.MaxPositions {
		t.Error("uncertain regime should allow fewer positions than trending bull")
	}
	if uncertain.RiskPerTradePercent >= bull.RiskPerTradePercent {
		t.Error("uncertain regime should risk less per trade than trending bull")
	}
}
