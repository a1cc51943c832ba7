package indicator

import (
	"fmt"
	"math"

	"SignalDesk/internal/model"
)

// MinBars is the longest lookback the engine requires. SMA50 dominates;
// MACD(12,26,9) needs 35 and RSI(14) needs 15.
const MinBars = 50

// Set holds every computed indicator for one bar window. EvaluateSet scores
// a Set without touching the bars again, which keeps the scoring rules
// testable in isolation.
type Set struct {
	Price    float64
	SMA20    float64
	SMA50    float64
	RSI14    float64
	MACD     MACDResult
	Boll     BollingerResult
	Stoch    StochasticResult
	Patterns []Pattern
}

// Per-indicator weights for the verdict score. They sum to 1.
var indicatorWeights = struct {
	rsi, macd, trend, boll, stoch, pattern float64
}{
	rsi:     0.20,
	macd:    0.25,
	trend:   0.20,
	boll:    0.10,
	stoch:   0.10,
	pattern: 0.15,
}

// Compute derives the full indicator Set from an ordered bar window.
// Returns ErrInsufficientData when fewer than MinBars bars are supplied.
func Compute(bars []model.Bar) (*Set, error) {
	if len(bars) < MinBars {
		return nil, fmt.Errorf("indicator: have %d bars, need %d: %w", len(bars), MinBars, model.ErrInsufficientData)
	}
	closes := model.Closes(bars)

	sma20, err := SMA(closes, 20)
	if err != nil {
		return nil, err
	}
	sma50, err := SMA(closes, 50)
	if err != nil {
		return nil, err
	}
	rsi, err := RSI(closes, 14)
	if err != nil {
		return nil, err
	}
	macd, err := MACD(closes, 12, 26, 9)
	if err != nil {
		return nil, err
	}
	boll, err := Bollinger(closes, 20, 2.0)
	if err != nil {
		return nil, err
	}
	stoch, err := Stochastic(bars, 14, 3)
	if err != nil {
		return nil, err
	}

	return &Set{
		Price:    closes[len(closes)-1],
		SMA20:    sma20,
		SMA50:    sma50,
		RSI14:    rsi,
		MACD:     macd,
		Boll:     boll,
		Stoch:    stoch,
		Patterns: DetectPatterns(bars),
	}, nil
}

// Evaluate computes indicators from the bar window and scores them into a
// technical AnalysisVerdict.
func Evaluate(bars []model.Bar) (*model.AnalysisVerdict, error) {
	set, err := Compute(bars)
	if err != nil {
		return nil, err
	}
	return EvaluateSet(set), nil
}

// EvaluateSet scores a computed indicator Set. Pure: the same Set always
// yields the same verdict. Each indicator contributes a score in [-1, +1];
// the weighted sum is stretched onto the [-3, +3] line and bucketed.
// Confidence is the weighted magnitude of agreement; ties land on Neutral.
func EvaluateSet(set *Set) *model.AnalysisVerdict {
	var rationale []string
	w := indicatorWeights

	rsiScore := scoreRSI(set.RSI14)
	if rsiScore > 0 {
		rationale = append(rationale, fmt.Sprintf("RSI %.0f oversold", set.RSI14))
	} else if rsiScore < 0 {
		rationale = append(rationale, fmt.Sprintf("RSI %.0f overbought", set.RSI14))
	}

	macdScore := 0.0
	switch {
	case set.MACD.BullishCross():
		macdScore = 1.0
		rationale = append(rationale, "MACD bullish cross")
	case set.MACD.BearishCross():
		macdScore = -1.0
		rationale = append(rationale, "MACD bearish cross")
	case set.MACD.Histogram > 0:
		macdScore = 0.4
		rationale = append(rationale, "MACD histogram positive")
	case set.MACD.Histogram < 0:
		macdScore = -0.4
		rationale = append(rationale, "MACD histogram negative")
	}

	trendScore := scoreTrend(set.Price, set.SMA20, set.SMA50)
	if trendScore > 0 {
		rationale = append(rationale, "price above moving averages")
	} else if trendScore < 0 {
		rationale = append(rationale, "price below moving averages")
	}

	bollScore := scoreBollinger(set.Price, set.Boll)
	if bollScore > 0 {
		rationale = append(rationale, "price near lower Bollinger band")
	} else if bollScore < 0 {
		rationale = append(rationale, "price near upper Bollinger band")
	}

	stochScore := 0.0
	switch {
	case set.Stoch.K < 20:
		stochScore = 1.0
		rationale = append(rationale, fmt.Sprintf("stochastic %%K %.0f oversold", set.Stoch.K))
	case set.Stoch.K > 80:
		stochScore = -1.0
		rationale = append(rationale, fmt.Sprintf("stochastic %%K %.0f overbought", set.Stoch.K))
	}

	patternScore := 0.0
	for _, p := range set.Patterns {
		if p.Bullish() {
			patternScore += 1.0
			rationale = append(rationale, fmt.Sprintf("bullish pattern %s", p))
		} else if p.Bearish() {
			patternScore -= 1.0
			rationale = append(rationale, fmt.Sprintf("bearish pattern %s", p))
		}
	}
	patternScore = clamp(patternScore, -1, 1)

	score := rsiScore*w.rsi + macdScore*w.macd + trendScore*w.trend +
		bollScore*w.boll + stochScore*w.stoch + patternScore*w.pattern

	confidence := math.Abs(rsiScore)*w.rsi + math.Abs(macdScore)*w.macd +
		math.Abs(trendScore)*w.trend + math.Abs(bollScore)*w.boll +
		math.Abs(stochScore)*w.stoch + math.Abs(patternScore)*w.pattern

	return &model.AnalysisVerdict{
		Signal:     model.SignalFromScore(score * 3.0),
		Confidence: clamp(confidence, 0, 1),
		Rationale:  rationale,
		Metrics: map[string]float64{
			"rsi14":      set.RSI14,
			"sma20":      set.SMA20,
			"sma50":      set.SMA50,
			"macd":       set.MACD.MACD,
			"macd_hist":  set.MACD.Histogram,
			"boll_width": set.Boll.Width,
			"stoch_k":    set.Stoch.K,
			"score":      score,
		},
	}
}

func scoreRSI(rsi float64) float64 {
	switch {
	case rsi < 30:
		return 1.0
	case rsi < 40:
		return 0.4
	case rsi > 70:
		return -1.0
	case rsi > 60:
		return -0.4
	default:
		return 0
	}
}

func scoreTrend(price, sma20, sma50 float64) float64 {
	switch {
	case price > sma20 && sma20 > sma50:
		return 1.0
	case price > sma20:
		return 0.5
	case price < sma20 && sma20 < sma50:
		return -1.0
	case price < sma20:
		return -0.5
	default:
		return 0
	}
}

func scoreBollinger(price float64, b BollingerResult) float64 {
	if b.Upper == b.Lower {
		return 0
	}
	// Position within the bands, 0 = lower, 1 = upper.
	pos := (price - b.Lower) / (b.Upper - b.Lower)
	switch {
	case pos <= 0.05:
		return 1.0
	case pos <= 0.2:
		return 0.5
	case pos >= 0.95:
		return -1.0
	case pos >= 0.8:
		return -0.5
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
