package indicator

import (
	"fmt"

	"SignalDesk/internal/model"
)

// SMA computes the simple moving average of the last `period` values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("sma: period must be positive, got %d", period)
	}
	if len(values) < period {
		return 0, fmt.Errorf("sma(%d): have %d values: %w", period, len(values), model.ErrInsufficientData)
	}
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period), nil
}

// EMA computes the exponential moving average series over all values,
// seeded with the SMA of the first `period` values. The returned slice is
// aligned with the input from index period-1 onward.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("ema: period must be positive, got %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("ema(%d): have %d values: %w", period, len(values), model.ErrInsufficientData)
	}

	out := make([]float64, len(values))
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	out[period-1] = seed

	k := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1.0-k)
	}
	return out, nil
}
