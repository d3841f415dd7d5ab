// Package greeks implements Black-Scholes option pricing and Greeks.
package greeks

import (
	"math"

	"trading-robot/internal/errors"
	"trading-robot/internal/models"
)

// Input holds the pricing inputs for a single option contract.
type Input struct {
	Spot         float64 // underlying price
	Strike       float64
	TimeToExpiry float64 // years
	RiskFreeRate float64 // annualized, e.g. 0.065
	Volatility   float64 // annualized, e.g. 0.18
	OptionType   models.OptionType
}

// Calculate prices the option and computes its Greeks under the
// Black-Scholes model. Theta is converted to per-calendar-day, vega to
// per-1%-vol and rho to per-1%-rate. Delta and gamma are rounded to
// four decimals, the rest to two.
func Calculate(in Input) (models.OptionGreeks, error) {
	var g models.OptionGreeks

	if in.Spot <= 0 {
		return g, errors.NewValidationError("spot", in.Spot, "must be positive")
	}
	if in.Strike <= 0 {
		return g, errors.NewValidationError("strike", in.Strike, "must be positive")
	}
	if in.TimeToExpiry <= 0 {
		return g, errors.NewValidationError("time_to_expiry", in.TimeToExpiry, "must be positive")
	}
	if in.Volatility <= 0 {
		return g, errors.NewValidationError("volatility", in.Volatility, "must be positive")
	}

	sqrtT := math.Sqrt(in.TimeToExpiry)
	d1 := (math.Log(in.Spot/in.Strike) + (in.RiskFreeRate+in.Volatility*in.Volatility/2)*in.TimeToExpiry) / (in.Volatility * sqrtT)
	d2 := d1 - in.Volatility*sqrtT

	discount := math.Exp(-in.RiskFreeRate * in.TimeToExpiry)
	nd1 := normCDF(d1)
	nd2 := normCDF(d2)
	pd1 := normPDF(d1)

	var price, delta, theta, rho float64
	switch in.OptionType {
	case models.OptionPut:
		price = in.Strike*discount*normCDF(-d2) - in.Spot*normCDF(-d1)
		delta = nd1 - 1
		theta = -in.Spot*pd1*in.Volatility/(2*sqrtT) + in.RiskFreeRate*in.Strike*discount*normCDF(-d2)
		rho = -in.Strike * in.TimeToExpiry * discount * normCDF(-d2)
	default: // call
		price = in.Spot*nd1 - in.Strike*discount*nd2
		delta = nd1
		theta = -in.Spot*pd1*in.Volatility/(2*sqrtT) - in.RiskFreeRate*in.Strike*discount*nd2
		rho = in.Strike * in.TimeToExpiry * discount * nd2
	}

	gamma := pd1 / (in.Spot * in.Volatility * sqrtT)
	vega := in.Spot * pd1 * sqrtT

	g.Price = round2(price)
	g.Delta = round4(delta)
	g.Gamma = round4(gamma)
	g.Theta = round2(theta / 365) // per calendar day
	g.Vega = round2(vega / 100)   // per 1% vol move
	g.Rho = round2(rho / 100)     // per 1% rate move
	return g, nil
}

// Portfolio aggregates quantity-weighted Greeks across holdings.
// Short positions carry negative quantities.
func Portfolio(holdings []models.OptionHolding) models.OptionGreeks {
	var total models.OptionGreeks
	for _, h := range holdings {
		q := float64(h.Quantity)
		total.Delta += q * h.Greeks.Delta
		total.Gamma += q * h.Greeks.Gamma
		total.Theta += q * h.Greeks.Theta
		total.Vega += q * h.Greeks.Vega
		total.Rho += q * h.Greeks.Rho
		total.Price += q * h.Greeks.Price
	}
	return total
}

// normCDF is the standard normal cumulative distribution, via the
// Abramowitz-Stegun rational approximation of erf.
func normCDF(x float64) float64 {
	return 0.5 * (1 + erfApprox(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

func erfApprox(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}

	const (
		a1 = 0.254829592
		a2 = -0.284496736
		a3 = 1.421413741
		a4 = -1.453152027
		a5 = 1.061405429
		p  = 0.3275911
	)

	t := 1.0 / (1.0 + p*x)
	y := 1.0 - (((((a5*t+a4)*t)+a3)*t+a2)*t+a1)*t*math.Exp(-x*x)
	return sign * y
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
