package quant

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"SignalDesk/internal/model"
)

// MeanStd computes mean and sample standard deviation with Welford's
// single-pass update, which stays numerically stable over long series where
// naive sum-of-squares loses precision.
func MeanStd(values []float64) (mean, std float64) {
	var m, m2 float64
	for i, v := range values {
		delta := v - m
		m += delta / float64(i+1)
		m2 += delta * (v - m)
	}
	if len(values) < 2 {
		return m, 0
	}
	return m, math.Sqrt(m2 / float64(len(values)-1))
}

// AnnualizedSharpe computes the risk-free-zero Sharpe ratio scaled by
// sqrt(periodsPerYear).
func AnnualizedSharpe(returns []float64, periodsPerYear float64) float64 {
	mean, std := MeanStd(returns)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(periodsPerYear)
}

// AnnualizedVolatility is the sample standard deviation of returns scaled
// by sqrt(periodsPerYear).
func AnnualizedVolatility(returns []float64, periodsPerYear float64) float64 {
	_, std := MeanStd(returns)
	return std * math.Sqrt(periodsPerYear)
}

// MaxDrawdown returns the largest peak-to-trough decline of the close
// series as a positive fraction.
func MaxDrawdown(bars []model.Bar) float64 {
	if len(bars) == 0 {
		return 0
	}
	peak := bars[0].Close.InexactFloat64()
	maxDD := 0.0
	for _, b := range bars[1:] {
		c := b.Close.InexactFloat64()
		if c > peak {
			peak = c
			continue
		}
		if peak > 0 {
			dd := (peak - c) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// HistoricalVaR returns the one-period value-at-risk at the given
// confidence level (e.g. 0.95) as a positive fraction of notional.
func HistoricalVaR(returns []float64, confidence float64) (float64, error) {
	if len(returns) == 0 {
		return 0, fmt.Errorf("var: empty return series: %w", model.ErrInsufficientData)
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)
	q := stat.Quantile(1.0-confidence, stat.Empirical, sorted, nil)
	if q >= 0 {
		return 0, nil
	}
	return -q, nil
}

// Beta regresses the return series against a benchmark return series.
// Both series must be the same length and at least two periods long.
func Beta(returns, benchmark []float64) (float64, error) {
	if len(returns) != len(benchmark) {
		return 0, fmt.Errorf("beta: series length mismatch %d vs %d", len(returns), len(benchmark))
	}
	if len(returns) < 2 {
		return 0, fmt.Errorf("beta: need at least 2 periods: %w", model.ErrInsufficientData)
	}
	benchVar := stat.Variance(benchmark, nil)
	if benchVar == 0 {
		return 0, fmt.Errorf("beta: benchmark variance is zero: %w", model.ErrInsufficientData)
	}
	return stat.Covariance(returns, benchmark, nil) / benchVar, nil
}
