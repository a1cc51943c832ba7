package sentiment

import (
	"fmt"
	"math"
	"time"

	"SignalDesk/internal/model"
)

const (
	// HalfLife controls the exponential recency weighting: an article this
	// old contributes half as much as one published now.
	HalfLife = 24 * time.Hour

	// MinConfidence is the floor returned when no articles are available.
	MinConfidence = 0.05

	// fullConfidenceArticles is the article volume at which confidence
	// stops growing.
	fullConfidenceArticles = 20.0
)

// Evaluate aggregates recency-weighted news polarity into a verdict.
// Zero articles is not an error: it yields Neutral at MinConfidence.
// The evaluation is pure given the same items and reference time `now`.
func Evaluate(items []model.NewsItem, now time.Time) *model.AnalysisVerdict {
	if len(items) == 0 {
		return &model.AnalysisVerdict{
			Signal:     model.Neutral,
			Confidence: MinConfidence,
			Rationale:  []string{"no recent news"},
			Metrics:    map[string]float64{"articles": 0},
		}
	}

	var (
		weightedSum float64
		totalWeight float64
		positive    int
		negative    int
		neutral     int
	)
	for _, it := range items {
		age := now.Sub(it.PublishedAt)
		if age < 0 {
			age = 0
		}
		w := math.Exp2(-age.Hours() / HalfLife.Hours())
		weightedSum += it.Polarity * w
		totalWeight += w

		switch {
		case it.Polarity > 0.1:
			positive++
		case it.Polarity < -0.1:
			negative++
		default:
			neutral++
		}
	}

	netPolarity := 0.0
	if totalWeight > 0 {
		netPolarity = weightedSum / totalWeight
	}

	// Confidence scales with weighted article volume, capped at 1.
	volume := math.Min(totalWeight/fullConfidenceArticles, 1.0)
	confidence := math.Abs(netPolarity) * volume
	if confidence < MinConfidence {
		confidence = MinConfidence
	}

	return &model.AnalysisVerdict{
		Signal:     model.SignalFromScore(netPolarity * 3.0),
		Confidence: confidence,
		Rationale: []string{
			fmt.Sprintf("%d positive / %d negative / %d neutral articles", positive, negative, neutral),
			fmt.Sprintf("net polarity %+.2f", netPolarity),
		},
		Metrics: map[string]float64{
			"articles":     float64(len(items)),
			"net_polarity": netPolarity,
			"volume":       volume,
		},
	}
}
