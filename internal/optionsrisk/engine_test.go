package optionsrisk

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"trading-robot/internal/config"
	"trading-robot/internal/models"
)

func newTestEngine() *Engine {
	e := NewEngine(config.OptionsConfig{
		RiskFreeRate: 0.065,
		StrikeStep:   50,
		LadderSize:   5,
	}, zerolog.Nop())
	e.SetClock(func() time.Time {
		return time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC)
	})
	return e
}

func TestBuildChainLadder(t *testing.T) {
	e := newTestEngine()

	chain, err := e.BuildChain("NIFTY", 24510, 18, 14.0/365)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 11 strikes, a call and a put each.
	if len(chain) != 22 {
		t.Fatalf("chain size = %d, want 22", len(chain))
	}

	// Ladder centres on the nearest strike-step multiple.
	var strikes []float64
	for _, c := range chain {
		if c.OptionType == models.OptionCall {
			strikes = append(strikes, c.StrikePrice)
		}
	}
	if strikes[0] != 24250 || strikes[len(strikes)-1] != 24750 {
		t.Errorf("ladder spans %v to %v, want 24250 to 24750", strikes[0], strikes[len(strikes)-1])
	}

	for _, c := range chain {
		if !strings.HasPrefix(c.Symbol, "NIFTY") || !strings.HasSuffix(c.Symbol, string(c.OptionType)) {
			t.Errorf("malformed contract symbol %q", c.Symbol)
		}
		if c.Greeks.Price < 0 {
			t.Errorf("%s priced negative: %v", c.Symbol, c.Greeks.Price)
		}
		if c.RiskLevel == "" || c.Recommendation == "" {
			t.Errorf("%s missing classification", c.Symbol)
		}
	}

	// The cached chain matches the returned one.
	if got := e.Chain(); len(got) != len(chain) {
		t.Errorf("cached chain size = %d, want %d", len(got), len(chain))
	}
}

func TestBuildChainInvalidSpot(t *testing.T) {
	e := newTestEngine()
	if _, err := e.BuildChain("NIFTY", 0, 18, 14.0/365); err == nil {
		t.Fatal("expected error for zero spot")
	}
}

func TestClassifyContractRisk(t *testing.T) {
	tests := []struct {
		name string
		g    models.OptionGreeks
		iv   float64
		want models.RiskLevel
	}{
		{"benign contract", models.OptionGreeks{Gamma: 0.0005, Theta: -2, Vega: 8}, 15, models.RiskLow},
		{"one flag", models.OptionGreeks{Gamma: 0.003, Theta: -2, Vega: 8}, 15, models.RiskMedium},
		{"two flags", models.OptionGreeks{Gamma: 0.003, Theta: -15, Vega: 8}, 15, models.RiskHigh},
		{"three flags", models.OptionGreeks{Gamma: 0.003, Theta: -15, Vega: 25}, 15, models.RiskExtreme},
		{"all flags", models.OptionGreeks{Gamma: 0.003, Theta: -15, Vega: 25}, 45, models.RiskExtreme},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyContractRisk(tt.g, tt.iv); got != tt.want {
				t.Errorf("risk = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRecommendations(t *testing.T) {
	spot := 24500.0

	tests := []struct {
		name   string
		ot     models.OptionType
		strike float64
		iv     float64
		theta  float64
		want   models.TradingRecommendation
	}{
		{"cheap ITM call with mild decay", models.OptionCall, 24000, 15, -3, models.RecStrongBuy},
		{"ITM call moderate IV", models.OptionCall, 24000, 25, -8, models.RecBuy},
		{"OTM call in expensive vol", models.OptionCall, 25000, 45, -6, models.RecStrongSell},
		{"OTM call in elevated vol", models.OptionCall, 25000, 35, -6, models.RecSell},
		{"OTM call in cheap vol", models.OptionCall, 25000, 15, -3, models.RecHold},
		{"ITM put is strike above spot", models.OptionPut, 25000, 15, -3, models.RecStrongBuy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := recommend(tt.ot, tt.strike, spot, tt.iv, tt.theta); got != tt.want {
				t.Errorf("recommendation = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPortfolioRiskQuietBook(t *testing.T) {
	e := newTestEngine()

	holdings := []models.OptionHolding{
		{Symbol: "NIFTY24500CE", Quantity: 50, Greeks: models.OptionGreeks{Delta: 0.5, Gamma: 0.0004, Theta: -4, Vega: 4}},
		{Symbol: "NIFTY24500PE", Quantity: 50, Greeks: models.OptionGreeks{Delta: -0.5, Gamma: 0.0004, Theta: -4, Vega: 4}},
	}

	risk := e.PortfolioRisk(holdings, 24500)

	if risk.TotalDelta != 0 {
		t.Errorf("straddle delta = %v, want 0", risk.TotalDelta)
	}
	if risk.RiskScore != 50 {
		t.Errorf("quiet book risk score = %v, want base 50", risk.RiskScore)
	}
	if len(risk.HedgingRecommendations) != 0 {
		t.Errorf("quiet book should have no hedging recommendations, got %v", risk.HedgingRecommendations)
	}
	if risk.GammaExposure != models.GammaMedium {
		t.Errorf("gamma exposure = %s, want %s for 0.04 total gamma", risk.GammaExposure, models.GammaMedium)
	}
	if risk.MaxDrawdownRisk <= 0 {
		t.Error("drawdown risk should be positive for a non-empty book")
	}
}

func TestPortfolioRiskStressedBook(t *testing.T) {
	e := newTestEngine()

	holdings := []models.OptionHolding{
		{Symbol: "NIFTY24500CE", Quantity: 500, Greeks: models.OptionGreeks{Delta: 0.6, Gamma: 0.001, Theta: -5, Vega: 12}},
	}

	risk := e.PortfolioRisk(holdings, 24500)

	// Delta 300, gamma 0.5, theta -2500, vega 6000: every limit exceeded.
	if risk.RiskScore != 100 {
		t.Errorf("stressed book risk score = %v, want capped 100", risk.RiskScore)
	}
	if len(risk.HedgingRecommendations) != 4 {
		t.Errorf("expected 4 hedging recommendations, got %d: %v",
			len(risk.HedgingRecommendations), risk.HedgingRecommendations)
	}
	if risk.GammaExposure != models.GammaExtreme {
		t.Errorf("gamma exposure = %s, want EXTREME", risk.GammaExposure)
	}
}

func TestPortfolioRiskEmptyBook(t *testing.T) {
	e := newTestEngine()

	risk := e.PortfolioRisk(nil, 24500)
	if risk.RiskScore != 50 {
		t.Errorf("empty book risk score = %v, want 50", risk.RiskScore)
	}
	if risk.MaxDrawdownRisk != 0 {
		t.Errorf("empty book drawdown = %v, want 0", risk.MaxDrawdownRisk)
	}
	if risk.GammaExposure != models.GammaLow {
		t.Errorf("empty book gamma exposure = %s, want LOW", risk.GammaExposure)
	}
}
