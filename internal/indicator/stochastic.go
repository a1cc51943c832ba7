package indicator

import (
	"fmt"

	"SignalDesk/internal/model"
)

// StochasticResult holds %K and its SMA-smoothed %D for the latest bar.
type StochasticResult struct {
	K float64
	D float64
}

// Stochastic computes the stochastic oscillator over kPeriod bars with a
// dPeriod simple moving average of %K.
func Stochastic(bars []model.Bar, kPeriod, dPeriod int) (StochasticResult, error) {
	if kPeriod <= 0 || dPeriod <= 0 {
		return StochasticResult{}, fmt.Errorf("stochastic: periods must be positive, got k=%d d=%d", kPeriod, dPeriod)
	}
	need := kPeriod + dPeriod - 1
	if len(bars) < need {
		return StochasticResult{}, fmt.Errorf("stochastic(%d,%d): have %d bars, need %d: %w",
			kPeriod, dPeriod, len(bars), need, model.ErrInsufficientData)
	}

	// %K for each of the last dPeriod bars.
	kValues := make([]float64, 0, dPeriod)
	for end := len(bars) - dPeriod + 1; end <= len(bars); end++ {
		window := bars[end-kPeriod : end]
		high := window[0].High
		low := window[0].Low
		for _, b := range window[1:] {
			if b.High.GreaterThan(high) {
				high = b.High
			}
			if b.Low.LessThan(low) {
				low = b.Low
			}
		}
		rng := high.Sub(low)
		if rng.IsZero() {
			kValues = append(kValues, 50.0)
			continue
		}
		c := bars[end-1].Close
		k := c.Sub(low).Div(rng).InexactFloat64() * 100.0
		kValues = append(kValues, k)
	}

	d := 0.0
	for _, k := range kValues {
		d += k
	}
	d /= float64(len(kValues))

	return StochasticResult{K: kValues[len(kValues)-1], D: d}, nil
}
