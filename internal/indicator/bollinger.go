package indicator

import (
	"fmt"
	"math"

	"SignalDesk/internal/model"
)

// BollingerResult holds the band values for the most recent bar.
type BollingerResult struct {
	Middle float64
	Upper  float64
	Lower  float64
	Width  float64 // (upper-lower)/middle, a volatility proxy
}

// Bollinger computes Bollinger Bands over the last `period` closes with the
// given standard-deviation multiplier.
func Bollinger(closes []float64, period int, stdDevs float64) (BollingerResult, error) {
	if period <= 1 {
		return BollingerResult{}, fmt.Errorf("bollinger: period must be > 1, got %d", period)
	}
	if len(closes) < period {
		return BollingerResult{}, fmt.Errorf("bollinger(%d): have %d closes: %w", period, len(closes), model.ErrInsufficientData)
	}

	window := closes[len(closes)-period:]
	mean := 0.0
	for _, v := range window {
		mean += v
	}
	mean /= float64(period)

	variance := 0.0
	for _, v := range window {
		d := v - mean
		variance += d * d
	}
	variance /= float64(period)
	sd := math.Sqrt(variance)

	res := BollingerResult{
		Middle: mean,
		Upper:  mean + stdDevs*sd,
		Lower:  mean - stdDevs*sd,
	}
	if mean != 0 {
		res.Width = (res.Upper - res.Lower) / mean
	}
	return res, nil
}
