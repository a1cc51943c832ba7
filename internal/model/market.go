package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents a single candlestick bar. Prices and volume are exact
// decimals; bars are immutable once produced and strictly time-ordered.
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// Closes extracts the close prices as float64 for indicator math.
// Statistics are dimensionless; money never travels this path.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close.InexactFloat64()
	}
	return out
}

// Returns computes simple period-over-period returns from close prices.
// Requires at least two bars; the result has len(bars)-1 entries.
func Returns(bars []Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev.IsZero() {
			out = append(out, 0)
			continue
		}
		r := bars[i].Close.Sub(prev).Div(prev)
		out = append(out, r.InexactFloat64())
	}
	return out
}

// FundamentalsSnapshot holds the latest reported ratios for a symbol.
// Pointer fields distinguish "missing" from "zero"; missing fields degrade
// verdict confidence instead of failing the evaluation.
type FundamentalsSnapshot struct {
	Symbol         string
	PERatio        *float64
	SectorAvgPE    *float64
	ROE            *float64 // return on equity, fraction
	NetMargin      *float64 // fraction
	DebtToEquity   *float64
	CurrentRatio   *float64
	FreeCashFlow   *decimal.Decimal // trailing twelve months
	RevenueGrowth  *float64         // year over year, fraction
	AsOf           time.Time
}

// NewsItem is a single timestamped news article with a polarity score.
type NewsItem struct {
	PublishedAt time.Time
	Headline    string
	Source      string
	Polarity    float64 // -1.0 (bearish) ~ +1.0 (bullish)
}
