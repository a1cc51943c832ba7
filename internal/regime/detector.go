package regime

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"SignalDesk/internal/indicator"
	"SignalDesk/internal/model"
	"SignalDesk/internal/quant"
)

// MinBars is the smallest window Classify accepts.
const MinBars = 30

// Classification thresholds. Annualized volatility above volHigh reads as
// Volatile regardless of trend; below volLow with a flat slope reads Calm.
const (
	volHigh     = 0.35
	volLow      = 0.12
	trendSlope  = 0.0015 // normalized drift per bar
	narrowWidth = 0.04   // Bollinger width for range-bound confirmation
)

// Classify maps a price window onto one of the five regimes. Pure and
// stateless: hysteresis lives in Detector, not here.
func Classify(bars []model.Bar) (model.Regime, error) {
	if len(bars) < MinBars {
		return "", fmt.Errorf("regime: have %d bars, need %d: %w", len(bars), MinBars, model.ErrInsufficientData)
	}

	closes := model.Closes(bars)
	returns := model.Returns(bars)
	annVol := quant.AnnualizedVolatility(returns, quant.PeriodsPerYear)

	// Trend strength: least-squares slope of the close series, normalized
	// by the mean price so it is comparable across symbols.
	xs := make([]float64, len(closes))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, closes, nil, false)
	mean, _ := quant.MeanStd(closes)
	normSlope := 0.0
	if mean != 0 {
		normSlope = slope / mean
	}

	width := 0.0
	if boll, err := indicator.Bollinger(closes, 20, 2.0); err == nil {
		width = boll.Width
	}

	switch {
	case annVol > volHigh:
		return model.RegimeVolatile, nil
	case normSlope > trendSlope:
		return model.RegimeTrendingBullish, nil
	case normSlope < -trendSlope:
		return model.RegimeTrendingBearish, nil
	case annVol < volLow && math.Abs(normSlope) <= trendSlope && width < narrowWidth:
		return model.RegimeCalm, nil
	default:
		return model.RegimeRanging, nil
	}
}

// Detector smooths the stateless classifier with hysteresis: a newly
// observed regime must persist for minPersist consecutive evaluations
// before it replaces the prior label, so noise does not flap the regime.
type Detector struct {
	current    model.Regime
	candidate  model.Regime
	streak     int
	minPersist int
}

// NewDetector creates a Detector. minPersist < 1 is treated as 1
// (no hysteresis).
func NewDetector(minPersist int) *Detector {
	if minPersist < 1 {
		minPersist = 1
	}
	return &Detector{minPersist: minPersist}
}

// Observe classifies the window and applies hysteresis, returning the
// effective regime label.
func (d *Detector) Observe(bars []model.Bar) (model.Regime, error) {
	raw, err := Classify(bars)
	if err != nil {
		return d.current, err
	}
	return d.apply(raw), nil
}

func (d *Detector) apply(raw model.Regime) model.Regime {
	// First observation seeds the label directly.
	if d.current == "" {
		d.current = raw
		d.candidate = raw
		d.streak = d.minPersist
		return d.current
	}

	if raw == d.current {
		d.candidate = raw
		d.streak = d.minPersist
		return d.current
	}

	if raw == d.candidate {
		d.streak++
	} else {
		d.candidate = raw
		d.streak = 1
	}

	if d.streak >= d.minPersist {
		d.current = raw
	}
	return d.current
}

// Current returns the effective regime label without observing new data.
func (d *Detector) Current() model.Regime { return d.current }
