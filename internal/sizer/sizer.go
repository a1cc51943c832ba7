package sizer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/model"
)

// Config holds the sizing policy. Every constant here is tunable; the
// Kelly multiplier and the confidence→win-probability slope in particular
// are policy, not derivable values.
type Config struct {
	KellyMultiplier      float64         // e.g. 0.25 for quarter-Kelly
	MaxPositionFraction  float64         // cap per position, fraction of equity
	MaxAggregateFraction float64         // cap on total open exposure
	MinConfidence        float64         // below this, size to zero
	WinSlope             float64         // confidence to win-probability stretch
	StopLossFraction     float64         // stop distance from entry
	LotSize              decimal.Decimal // tradable quantity granularity
}

// DefaultConfig returns conservative defaults: quarter-Kelly, 10% per
// position, 50% aggregate, 2:1 assumed payoff handled by the caller.
func DefaultConfig() Config {
	return Config{
		KellyMultiplier:      0.25,
		MaxPositionFraction:  0.10,
		MaxAggregateFraction: 0.50,
		MinConfidence:        0.30,
		WinSlope:             0.40,
		StopLossFraction:     0.05,
		LotSize:              decimal.NewFromInt(1),
	}
}

// Account is a consistent snapshot of equity and open exposure, taken from
// the risk manager's single-writer state.
type Account struct {
	Equity       decimal.Decimal
	OpenExposure decimal.Decimal
}

// Estimate is the historical win-rate/payoff estimate for the active
// regime and strategy.
type Estimate struct {
	PayoffRatio float64 // average win / average loss, > 0
}

// KellyFraction computes f* = W - (1-W)/R. Negative results mean no edge
// and clamp to zero; the configured cap is applied by the caller.
func KellyFraction(winProb, payoffRatio float64) float64 {
	if payoffRatio <= 0 {
		return 0
	}
	f := winProb - (1.0-winProb)/payoffRatio
	if f < 0 {
		return 0
	}
	return f
}

// WinProbability stretches verdict confidence onto a win-probability
// estimate: 0.5 at zero confidence, rising linearly by WinSlope, never past
// 0.9. This mapping is a tested, tunable boundary.
func (c Config) WinProbability(confidence float64) float64 {
	w := 0.5 + c.WinSlope*confidence
	if w > 0.9 {
		w = 0.9
	}
	return w
}

// regimeBudget scales the risk budget per regime: volatile markets trade
// smaller, calm trending markets keep the full budget.
func regimeBudget(r model.Regime) float64 {
	switch r {
	case model.RegimeVolatile:
		return 0.5
	case model.RegimeTrendingBearish:
		return 0.75
	default:
		return 1.0
	}
}

// Size converts a fused signal into a SizedOrder against the account
// snapshot. Signals below MinConfidence, Neutral signals, and accounts with
// no remaining aggregate headroom all size to a zero order (no trade), not
// an error. Quantity is floor-rounded to the configured lot size: rounding
// happens exactly once, here.
func (c Config) Size(sig *model.OverallSignal, acct Account, est Estimate, price decimal.Decimal) (model.SizedOrder, error) {
	if price.Sign() <= 0 {
		return model.SizedOrder{}, model.WrapStage("sizer", fmt.Errorf("non-positive price for %s", sig.Symbol))
	}

	order := model.SizedOrder{Symbol: sig.Symbol}
	if sig.Signal == model.Neutral || sig.Confidence < c.MinConfidence {
		return order, nil
	}

	side := model.SideBuy
	if sig.Signal < model.Neutral {
		side = model.SideSell
	}
	order.Side = side

	w := c.WinProbability(sig.Confidence)
	fraction := KellyFraction(w, est.PayoffRatio) * c.KellyMultiplier * regimeBudget(sig.Regime)
	if fraction > c.MaxPositionFraction {
		fraction = c.MaxPositionFraction
	}
	if fraction <= 0 {
		return order, nil
	}
	order.MaxRiskFraction = fraction

	notional := acct.Equity.Mul(decimal.NewFromFloat(fraction))

	// Aggregate exposure cap: shrink to the remaining headroom.
	maxAggregate := acct.Equity.Mul(decimal.NewFromFloat(c.MaxAggregateFraction))
	headroom := maxAggregate.Sub(acct.OpenExposure)
	if headroom.Sign() <= 0 {
		return model.SizedOrder{Symbol: sig.Symbol, Side: side}, nil
	}
	if notional.GreaterThan(headroom) {
		notional = headroom
	}

	lot := c.LotSize
	if lot.Sign() <= 0 {
		lot = decimal.NewFromInt(1)
	}
	quantity := notional.Div(price).Div(lot).Floor().Mul(lot)
	if quantity.Sign() <= 0 {
		return model.SizedOrder{Symbol: sig.Symbol, Side: side}, nil
	}

	order.Quantity = quantity
	order.TargetNotional = quantity.Mul(price)

	stop := decimal.NewFromFloat(c.StopLossFraction)
	if side == model.SideBuy {
		order.StopLoss = price.Mul(decimal.NewFromInt(1).Sub(stop))
	} else {
		order.StopLoss = price.Mul(decimal.NewFromInt(1).Add(stop))
	}
	return order, nil
}
