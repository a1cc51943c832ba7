package combiner

import (
	"fmt"
	"time"

	"SignalDesk/internal/model"
)

// Weights is the fusion policy across the four evaluator sources. The
// defaults follow the documented 30/35/25/10 split; they are configuration,
// not derivable constants.
type Weights struct {
	Technical    float64 `yaml:"technical"`
	Fundamental  float64 `yaml:"fundamental"`
	Quantitative float64 `yaml:"quantitative"`
	Sentiment    float64 `yaml:"sentiment"`
}

// DefaultWeights returns the documented fusion split.
func DefaultWeights() Weights {
	return Weights{Technical: 0.30, Fundamental: 0.35, Quantitative: 0.25, Sentiment: 0.10}
}

func (w Weights) forSource(s model.Source) float64 {
	switch s {
	case model.SourceTechnical:
		return w.Technical
	case model.SourceFundamental:
		return w.Fundamental
	case model.SourceQuantitative:
		return w.Quantitative
	case model.SourceSentiment:
		return w.Sentiment
	default:
		return 0
	}
}

// regimeTilt deterministically shifts weight toward the source that reads
// the current regime best: trending markets favor the technical evaluator,
// volatile markets favor the quantitative one. The tilt is applied before
// renormalization, so the output is still a pure function of its inputs.
func regimeTilt(w Weights, regime model.Regime) Weights {
	switch regime {
	case model.RegimeTrendingBullish, model.RegimeTrendingBearish:
		w.Technical *= 1.2
	case model.RegimeVolatile:
		w.Quantitative *= 1.3
		w.Sentiment *= 0.7
	case model.RegimeCalm:
		w.Fundamental *= 1.15
	}
	return w
}

// Combine fuses the four source verdicts into one OverallSignal. Unavailable
// sources drop out and the remaining weights renormalize; they are never
// silently treated as zero-confidence Neutral. Combine is pure: identical
// inputs (including `now`) always produce an identical OverallSignal.
func Combine(symbol string, sources []model.SourceVerdict, regime model.Regime, weights Weights, now time.Time) (*model.OverallSignal, error) {
	tilted := regimeTilt(weights, regime)

	var totalWeight float64
	for _, sv := range sources {
		if sv.Available() {
			totalWeight += tilted.forSource(sv.Source)
		}
	}
	if totalWeight <= 0 {
		return nil, model.WrapStage("combiner",
			fmt.Errorf("no evaluator produced a verdict for %s: %w", symbol, model.ErrInsufficientData))
	}

	var score, confidence float64
	for _, sv := range sources {
		if !sv.Available() {
			continue
		}
		w := tilted.forSource(sv.Source) / totalWeight
		score += sv.Verdict.Signal.Score() * w
		confidence += sv.Verdict.Confidence * w
	}

	return &model.OverallSignal{
		Symbol:      symbol,
		Signal:      model.SignalFromScore(score),
		Score:       score,
		Confidence:  confidence,
		Sources:     sources,
		Regime:      regime,
		GeneratedAt: now,
	}, nil
}
