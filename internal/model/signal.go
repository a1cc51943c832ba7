package model

import "time"

// Signal is the seven-point trade-direction verdict.
type Signal int

const (
	StrongSell Signal = iota - 3
	Sell
	WeakSell
	Neutral
	WeakBuy
	Buy
	StrongBuy
)

func (s Signal) String() string {
	switch s {
	case StrongSell:
		return "STRONG_SELL"
	case Sell:
		return "SELL"
	case WeakSell:
		return "WEAK_SELL"
	case Neutral:
		return "NEUTRAL"
	case WeakBuy:
		return "WEAK_BUY"
	case Buy:
		return "BUY"
	case StrongBuy:
		return "STRONG_BUY"
	default:
		return "UNKNOWN"
	}
}

// Score maps the signal onto the [-3, +3] score line.
func (s Signal) Score() float64 { return float64(s) }

// SignalFromScore buckets a weighted score back onto the seven-point scale
// using symmetric thresholds at ±0.5, ±1.5 and ±2.5.
func SignalFromScore(score float64) Signal {
	switch {
	case score >= 2.5:
		return StrongBuy
	case score >= 1.5:
		return Buy
	case score >= 0.5:
		return WeakBuy
	case score <= -2.5:
		return StrongSell
	case score <= -1.5:
		return Sell
	case score <= -0.5:
		return WeakSell
	default:
		return Neutral
	}
}

// Source identifies which evaluator produced a verdict.
type Source string

const (
	SourceTechnical    Source = "technical"
	SourceFundamental  Source = "fundamental"
	SourceQuantitative Source = "quantitative"
	SourceSentiment    Source = "sentiment"
)

// AnalysisVerdict is the output of a single evaluator. Immutable once
// produced; consumed exactly once by the combiner.
type AnalysisVerdict struct {
	Signal     Signal
	Confidence float64 // 0.0 ~ 1.0
	Rationale  []string
	Metrics    map[string]float64
}

// SourceVerdict tags an evaluator result as available or unavailable so the
// combiner can renormalize weights instead of treating a missing source as a
// zero-confidence Neutral.
type SourceVerdict struct {
	Source  Source
	Verdict *AnalysisVerdict
	Err     error
}

// Available reports whether the evaluator produced a usable verdict.
func (sv SourceVerdict) Available() bool { return sv.Err == nil && sv.Verdict != nil }

// OverallSignal is the fused decision for one symbol. It is a pure function
// of its inputs and is never mutated after creation.
type OverallSignal struct {
	Symbol      string
	Signal      Signal
	Score       float64
	Confidence  float64
	Sources     []SourceVerdict
	Regime      Regime
	GeneratedAt time.Time
}
