package risk

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"trading-robot/internal/config"
	"trading-robot/internal/models"
	"trading-robot/pkg/utils"
)

func newTestManager() *Manager {
	cfg := config.Default()
	return NewManager(cfg.Policy, cfg.Session, zerolog.Nop())
}

// sessionTime returns a weekday instant well inside trading hours.
func sessionTime(hour, minute int) time.Time {
	return time.Date(2025, 6, 11, hour, minute, 0, 0, utils.IndiaLocation)
}

func buyPosition(entry float64, qty int) *models.Position {
	p := &models.Position{
		ID:           "POS_TEST_1",
		Symbol:       "RELIANCE",
		Action:       models.ActionBuy,
		Quantity:     qty,
		EntryPrice:   entry,
		CurrentPrice: entry,
		StopLoss:     entry * 0.97,
		OriginalStop: entry * 0.97,
		Target:       entry * 1.05,
		Strategy:     "intraday",
		EntryTime:    sessionTime(10, 0),
	}
	return p
}

func TestHardLossOverridesEverything(t *testing.T) {
	m := newTestManager()

	p := buyPosition(100, 10)
	p.TrailingActive = true
	p.ProfitBookingLevel = 1
	p.MarkToMarket(94) // -6%

	a := m.Review(p, sessionTime(11, 0))
	if !a.Close {
		t.Fatal("expected close on -6% loss")
	}
	if a.Reason != ReasonMaxLoss {
		t.Errorf("reason = %q, want %q", a.Reason, ReasonMaxLoss)
	}
}

func TestHardLossBoundary(t *testing.T) {
	m := newTestManager()

	p := buyPosition(100, 10)
	p.MarkToMarket(95.01) // -4.99%, inside the limit
	if a := m.Review(p, sessionTime(11, 0)); a.Close && a.Reason == ReasonMaxLoss {
		t.Error("loss inside the 5% limit must not trigger the hard stop")
	}

	p2 := buyPosition(100, 10)
	p2.StopLoss = 0     // isolate the hard-loss rule from the stop touch
	p2.MarkToMarket(95) // exactly -5%
	a := m.Review(p2, sessionTime(11, 0))
	if !a.Close || a.Reason != ReasonMaxLoss {
		t.Errorf("loss of exactly 5%% must close with %q, got %+v", ReasonMaxLoss, a)
	}
}

func TestScalpingTimeExit(t *testing.T) {
	m := newTestManager()

	p := buyPosition(100, 10)
	p.Strategy = "scalping"
	p.EntryTime = sessionTime(10, 0)
	p.MarkToMarket(100.2)

	if a := m.Review(p, sessionTime(10, 29)); a.Close {
		t.Errorf("scalp held 29m should stay open, got close %q", a.Reason)
	}

	a := m.Review(p, sessionTime(10, 30))
	if !a.Close || a.Reason != ReasonScalpTime {
		t.Errorf("scalp held 30m must close with %q, got %+v", ReasonScalpTime, a)
	}
}

func TestIntradaySquareOff(t *testing.T) {
	m := newTestManager()

	p := buyPosition(100, 10)
	p.MarkToMarket(100.5)

	if a := m.Review(p, sessionTime(15, 9)); a.Close {
		t.Errorf("before square-off should stay open, got close %q", a.Reason)
	}

	a := m.Review(p, sessionTime(15, 10))
	if !a.Close || a.Reason != ReasonSquareOff {
		t.Errorf("at square-off must close with %q, got %+v", ReasonSquareOff, a)
	}

	// Options positions are not squared off by this rule.
	opt := buyPosition(100, 10)
	opt.Strategy = "options"
	opt.MarkToMarket(100.5)
	if a := m.Review(opt, sessionTime(15, 10)); a.Close && a.Reason == ReasonSquareOff {
		t.Error("non-intraday strategy must not be squared off")
	}
}

func TestTrailingActivationAtBreakeven(t *testing.T) {
	m := newTestManager()

	p := buyPosition(100, 10)
	p.MarkToMarket(101) // +1%: activation gate

	a := m.Review(p, sessionTime(11, 0))
	if a.Close {
		t.Fatalf("unexpected close: %q", a.Reason)
	}
	if !p.TrailingActive {
		t.Fatal("trailing should activate at +1%")
	}
	if p.StopLoss != 100 {
		t.Errorf("stop = %v, want breakeven 100 on activation", p.StopLoss)
	}
}

func TestTrailingStopNeverRetreats(t *testing.T) {
	m := newTestManager()

	p := buyPosition(100, 10)
	prices := []float64{101, 102.5, 104, 103, 101.5, 106, 104.5}

	prevStop := p.StopLoss
	for _, price := range prices {
		p.MarkToMarket(price)
		a := m.Review(p, sessionTime(11, 0))
		if p.StopLoss < prevStop {
			t.Fatalf("stop retreated from %v to %v at price %v", prevStop, p.StopLoss, price)
		}
		prevStop = p.StopLoss
		if a.Close {
			break
		}
	}
}

func TestTrailingDistanceWidensWithProfit(t *testing.T) {
	m := newTestManager()

	if d := m.trailingDistance(1.5); d != 1.5 {
		t.Errorf("distance at 1.5%% profit = %v, want 1.5", d)
	}
	if d := m.trailingDistance(4); d != 2.0 {
		t.Errorf("distance at 4%% profit = %v, want 2.0", d)
	}
	if d := m.trailingDistance(6); d != 2.5 {
		t.Errorf("distance at 6%% profit = %v, want 2.5", d)
	}
}

func TestSellTrailingMovesDown(t *testing.T) {
	m := newTestManager()

	p := &models.Position{
		ID: "POS_TEST_2", Symbol: "INFY",
		Action: models.ActionSell, Quantity: 10,
		EntryPrice: 100, CurrentPrice: 100,
		StopLoss: 103, OriginalStop: 103, Target: 95,
		Strategy: "intraday", EntryTime: sessionTime(10, 0),
	}

	p.MarkToMarket(98.5) // +1.5% for a short
	m.Review(p, sessionTime(11, 0))
	if !p.TrailingActive {
		t.Fatal("trailing should be active")
	}
	if p.StopLoss > 100 {
		t.Errorf("short stop = %v, want at or below breakeven 100", p.StopLoss)
	}

	stopAfterGain := p.StopLoss
	p.MarkToMarket(99.5) // price moves against the short
	m.Review(p, sessionTime(11, 0))
	if p.StopLoss > stopAfterGain {
		t.Errorf("short stop moved up from %v to %v", stopAfterGain, p.StopLoss)
	}
}

func TestProfitBookingLevels(t *testing.T) {
	m := newTestManager()

	p := buyPosition(100, 100)
	p.MarkToMarket(103) // +3%

	a := m.Review(p, sessionTime(11, 0))
	if a.Close {
		t.Fatalf("unexpected close: %q", a.Reason)
	}
	if a.BookQuantity != 40 {
		t.Errorf("level-1 booking = %d, want 40%% of 100", a.BookQuantity)
	}
	if p.Quantity != 60 || p.ProfitBookingLevel != 1 {
		t.Errorf("after level 1: qty=%d level=%d, want 60/1", p.Quantity, p.ProfitBookingLevel)
	}

	p.MarkToMarket(106) // +6%
	a = m.Review(p, sessionTime(11, 5))
	if a.BookQuantity != 30 {
		t.Errorf("level-2 booking = %d, want 50%% of 60", a.BookQuantity)
	}
	if p.Quantity != 30 || p.ProfitBookingLevel != 2 {
		t.Errorf("after level 2: qty=%d level=%d, want 30/2", p.Quantity, p.ProfitBookingLevel)
	}

	// No further booking levels exist.
	p.MarkToMarket(110)
	a = m.Review(p, sessionTime(11, 10))
	if a.BookQuantity != 0 {
		t.Errorf("no third booking level, got %d", a.BookQuantity)
	}
}

func TestBookingSkipsLevelOneGate(t *testing.T) {
	m := newTestManager()

	// Price gaps straight to +6%: only the level-1 transition fires this
	// tick, level 2 follows on a later tick.
	p := buyPosition(100, 100)
	p.MarkToMarket(106)

	a := m.Review(p, sessionTime(11, 0))
	if a.BookQuantity != 40 || p.ProfitBookingLevel != 1 {
		t.Errorf("first tick at +6%%: book=%d level=%d, want 40/1", a.BookQuantity, p.ProfitBookingLevel)
	}

	a = m.Review(p, sessionTime(11, 1))
	if a.BookQuantity != 30 || p.ProfitBookingLevel != 2 {
		t.Errorf("second tick at +6%%: book=%d level=%d, want 30/2", a.BookQuantity, p.ProfitBookingLevel)
	}
}

func TestFullBookingClosesPosition(t *testing.T) {
	cfg := config.Default()
	cfg.Policy.BookingLevel2Fraction = 1.0
	m := NewManager(cfg.Policy, cfg.Session, zerolog.Nop())

	p := buyPosition(100, 100)
	p.MarkToMarket(103)
	m.Review(p, sessionTime(11, 0)) // level 1 books 40

	p.MarkToMarket(106)
	a := m.Review(p, sessionTime(11, 5))
	if !a.Close || a.Reason != ReasonBookedOut {
		t.Fatalf("full booking: got %+v, want close %q", a, ReasonBookedOut)
	}
	if a.BookQuantity != 0 {
		t.Errorf("book quantity = %d, want 0 on the booked-out close", a.BookQuantity)
	}
	if p.Quantity != 60 {
		t.Errorf("quantity = %d, want the whole 60 kept for the exit order", p.Quantity)
	}
	if p.ProfitBookingLevel != 2 {
		t.Errorf("booking level = %d, want 2", p.ProfitBookingLevel)
	}
}

func TestStopAndTargetReasons(t *testing.T) {
	m := newTestManager()

	p := buyPosition(100, 10)
	p.MarkToMarket(96.9) // below the 97 stop, -3.1%
	a := m.Review(p, sessionTime(11, 0))
	if !a.Close || a.Reason != ReasonStopLoss {
		t.Errorf("stop touch in loss: got %+v, want close %q", a, ReasonStopLoss)
	}

	p2 := buyPosition(100, 10)
	p2.Target = 102.5 // below the first booking gate
	p2.MarkToMarket(102.5)
	a = m.Review(p2, sessionTime(11, 0))
	if !a.Close || a.Reason != ReasonTarget {
		t.Errorf("target touch: got %+v, want close %q", a, ReasonTarget)
	}
}

func TestTrailingStopExitInProfit(t *testing.T) {
	m := newTestManager()

	p := buyPosition(100, 10)
	p.Target = 120 // far away so the trailing stop is what exits

	p.MarkToMarket(104)
	m.Review(p, sessionTime(11, 0)) // trailing active, stop ratcheted up

	p.MarkToMarket(p.StopLoss - 0.01)
	a := m.Review(p, sessionTime(11, 1))
	if !a.Close {
		t.Fatal("expected close on trailing stop touch")
	}
	if a.Reason != ReasonTarget {
		t.Errorf("profitable trailing exit reason = %q, want %q", a.Reason, ReasonTarget)
	}
}

func TestRiskInvariantsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	m := newTestManager()

	properties.Property("stop never retreats, booking level never decreases, quantity never grows", prop.ForAll(
		func(pricePaths []float64) bool {
			p := buyPosition(100, 100)
			p.Target = 1000 // keep the position alive across the path

			prevStop := p.StopLoss
			prevLevel := p.ProfitBookingLevel
			prevQty := p.Quantity

			for _, price := range pricePaths {
				p.MarkToMarket(price)
				a := m.Review(p, sessionTime(11, 0))

				if p.StopLoss < prevStop {
					return false
				}
				if p.ProfitBookingLevel < prevLevel {
					return false
				}
				if p.Quantity > prevQty {
					return false
				}

				prevStop = p.StopLoss
				prevLevel = p.ProfitBookingLevel
				prevQty = p.Quantity

				if a.Close {
					break
				}
			}
			return true
		},
		gen.SliceOfN(30, gen.Float64Range(95.5, 112)),
	))

	properties.TestingRun(t)
}
