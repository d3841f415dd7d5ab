package strategy

import (
	"math"
	"testing"
	"time"

	"trading-robot/internal/config"
	"trading-robot/internal/models"
)

// lakh10 is the default test sizing: 10 lakh capital at policy risk.
var lakh10 = Sizing{Capital: 1000000}

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 11, 10, 30, 0, 0, time.UTC)
	}
}

func bullishCondition() *models.MarketCondition {
	return &models.MarketCondition{
		Symbol:     "RELIANCE",
		Trend:      models.TrendBullish,
		Volatility: models.VolatilityMedium,
		Volume:     models.VolumeHigh,
		Sentiment:  models.SentimentPositive,
		TimeOfDay:  models.TimeMorning,
		DayType:    models.DayNormal,
	}
}

func bearishCondition() *models.MarketCondition {
	c := bullishCondition()
	c.Trend = models.TrendBearish
	c.Sentiment = models.SentimentNegative
	return c
}

func snapshot(rsi, shortMA, atr float64) *models.TechnicalSnapshot {
	return &models.TechnicalSnapshot{
		RSI:            rsi,
		MovingAverages: models.MovingAverages{Short: shortMA, Long: shortMA * 0.99},
		ATR:            atr,
	}
}

func TestIntradayBuySignal(t *testing.T) {
	g := NewIntradayGenerator(config.DefaultPolicy())
	g.SetClock(fixedClock())

	price := 2500.0
	atr := 20.0
	sig := g.Generate("RELIANCE", price, bullishCondition(), snapshot(55, 2480, atr), lakh10)
	if sig == nil {
		t.Fatal("expected buy signal, got nil")
	}

	if sig.Action != models.ActionBuy {
		t.Errorf("action = %s, want BUY", sig.Action)
	}

	wantStop := price - 1.5*atr
	if math.Abs(sig.StopLoss-wantStop) > 1e-9 {
		t.Errorf("stop = %v, want %v (entry - 1.5 ATR)", sig.StopLoss, wantStop)
	}

	wantTarget := price + 1.5*atr*1.5
	if math.Abs(sig.Target-wantTarget) > 1e-9 {
		t.Errorf("target = %v, want %v (1:1.5 reward:risk)", sig.Target, wantTarget)
	}

	// 1% of 10L capital risked over a 30-point stop distance.
	wantQty := int(math.Floor(1000000 * 0.01 / (1.5 * atr)))
	if sig.Quantity != wantQty {
		t.Errorf("quantity = %d, want %d", sig.Quantity, wantQty)
	}
}

func TestIntradaySellSignal(t *testing.T) {
	g := NewIntradayGenerator(config.DefaultPolicy())
	g.SetClock(fixedClock())

	price := 2500.0
	atr := 20.0
	sig := g.Generate("RELIANCE", price, bearishCondition(), snapshot(45, 2520, atr), lakh10)
	if sig == nil {
		t.Fatal("expected sell signal, got nil")
	}

	if sig.Action != models.ActionSell {
		t.Errorf("action = %s, want SELL", sig.Action)
	}
	if sig.StopLoss <= price {
		t.Errorf("sell stop = %v, want above entry %v", sig.StopLoss, price)
	}
	if sig.Target >= price {
		t.Errorf("sell target = %v, want below entry %v", sig.Target, price)
	}
}

func TestIntradayNoSignalConditions(t *testing.T) {
	g := NewIntradayGenerator(config.DefaultPolicy())
	g.SetClock(fixedClock())

	tests := []struct {
		name  string
		price float64
		cond  *models.MarketCondition
		tech  *models.TechnicalSnapshot
	}{
		{"overbought RSI blocks buy", 2500, bullishCondition(), snapshot(70, 2480, 20)},
		{"RSI at threshold blocks buy", 2500, bullishCondition(), snapshot(65, 2480, 20)},
		{"price below MA blocks buy", 2500, bullishCondition(), snapshot(55, 2520, 20)},
		{"oversold RSI blocks sell", 2500, bearishCondition(), snapshot(30, 2520, 20)},
		{"sideways trend", 2500, &models.MarketCondition{Trend: models.TrendSideways}, snapshot(55, 2480, 20)},
		{"zero ATR", 2500, bullishCondition(), snapshot(55, 2480, 0)},
		{"nil snapshot", 2500, bullishCondition(), nil},
		{"zero price", 0, bullishCondition(), snapshot(55, 2480, 20)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if sig := g.Generate("RELIANCE", tt.price, tt.cond, tt.tech, lakh10); sig != nil {
				t.Errorf("expected no signal, got %+v", sig)
			}
		})
	}
}

func TestIntradayZeroQuantitySuppressed(t *testing.T) {
	g := NewIntradayGenerator(config.DefaultPolicy())
	g.SetClock(fixedClock())

	// Tiny capital: 1% risk cannot cover even one share over the stop distance.
	sig := g.Generate("RELIANCE", 2500, bullishCondition(), snapshot(55, 2480, 20), Sizing{Capital: 1000})
	if sig != nil {
		t.Errorf("expected no signal when computed quantity is zero, got qty=%d", sig.Quantity)
	}
}

func TestOptionsGeneratorIndexOnly(t *testing.T) {
	g := NewOptionsGenerator(config.DefaultPolicy(), []string{"NIFTY", "BANKNIFTY"})
	g.SetClock(fixedClock())

	cond := &models.MarketCondition{
		Trend:      models.TrendSideways,
		Volatility: models.VolatilityLow,
		Sentiment:  models.SentimentNeutral,
	}

	if sig := g.Generate("RELIANCE", 2500, cond, nil, lakh10); sig != nil {
		t.Error("non-index symbol must never produce an options signal")
	}
	if sig := g.Generate("NIFTY", 24500, cond, nil, lakh10); sig == nil {
		t.Error("expected Iron Condor signal on index in low-vol sideways market")
	}
}

func TestOptionsGeneratorStrategies(t *testing.T) {
	g := NewOptionsGenerator(config.DefaultPolicy(), []string{"NIFTY"})
	g.SetClock(fixedClock())

	tests := []struct {
		name       string
		cond       *models.MarketCondition
		wantSignal bool
		wantAction models.SignalAction
	}{
		{
			"iron condor in quiet sideways market",
			&models.MarketCondition{Trend: models.TrendSideways, Volatility: models.VolatilityLow, Sentiment: models.SentimentNeutral},
			true, models.ActionSell,
		},
		{
			"straddle in high vol with neutral sentiment",
			&models.MarketCondition{Trend: models.TrendBullish, Volatility: models.VolatilityHigh, Sentiment: models.SentimentNeutral},
			true, models.ActionBuy,
		},
		{
			"no signal in high vol with directional sentiment",
			&models.MarketCondition{Trend: models.TrendBullish, Volatility: models.VolatilityHigh, Sentiment: models.SentimentPositive},
			false, "",
		},
		{
			"no signal in medium vol sideways market",
			&models.MarketCondition{Trend: models.TrendSideways, Volatility: models.VolatilityMedium, Sentiment: models.SentimentNeutral},
			false, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := g.Generate("NIFTY", 24500, tt.cond, nil, lakh10)
			if tt.wantSignal {
				if sig == nil {
					t.Fatal("expected signal, got nil")
				}
				if sig.Action != tt.wantAction {
					t.Errorf("action = %s, want %s", sig.Action, tt.wantAction)
				}
				if sig.Strategy != StrategyOptions {
					t.Errorf("strategy = %s, want %s", sig.Strategy, StrategyOptions)
				}
			} else if sig != nil {
				t.Errorf("expected no signal, got %+v", sig)
			}
		})
	}
}
