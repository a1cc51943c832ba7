package newsfeed

import "strings"

// Headline polarity scoring: a small keyword lexicon. Crude but
// deterministic, which the decision pipeline requires; swapping in a better
// scorer only needs to keep this function pure.
var bullishTerms = []string{
	"beat", "beats", "surge", "surges", "rally", "record", "upgrade",
	"upgraded", "growth", "profit", "strong", "outperform", "raises",
	"buyback", "dividend", "expands", "wins", "soar", "soars", "bullish",
}

var bearishTerms = []string{
	"miss", "misses", "plunge", "plunges", "fall", "falls", "downgrade",
	"downgraded", "loss", "losses", "weak", "underperform", "cuts",
	"layoff", "layoffs", "lawsuit", "probe", "recall", "warns", "bearish",
	"bankruptcy", "default", "fraud",
}

// ScoreHeadline maps a headline to a polarity in [-1, +1] by net keyword
// hits. No hits scores 0 (neutral).
func ScoreHeadline(headline string) float64 {
	lower := strings.ToLower(headline)
	score := 0
	for _, t := range bullishTerms {
		if strings.Contains(lower, t) {
			score++
		}
	}
	for _, t := range bearishTerms {
		if strings.Contains(lower, t) {
			score--
		}
	}
	switch {
	case score >= 2:
		return 1.0
	case score == 1:
		return 0.5
	case score == -1:
		return -0.5
	case score <= -2:
		return -1.0
	default:
		return 0
	}
}
