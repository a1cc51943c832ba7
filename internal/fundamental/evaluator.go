package fundamental

import (
	"fmt"
	"math"

	"SignalDesk/internal/model"
)

// check maps one ratio to a bullish/bearish contribution in [-1, +1].
// The eval func reports ok=false when the underlying field is missing;
// missing checks contribute nothing to the score and proportionally drag
// confidence down, so a partial snapshot yields a valid but weaker verdict.
type check struct {
	name   string
	weight float64
	eval   func(*model.FundamentalsSnapshot) (score float64, ok bool)
}

// The weights sum to 1.0 across the full table.
var checks = []check{
	{"valuation", 0.20, scoreValuation},
	{"roe", 0.15, scoreROE},
	{"net_margin", 0.10, scoreNetMargin},
	{"leverage", 0.15, scoreLeverage},
	{"liquidity", 0.10, scoreLiquidity},
	{"free_cash_flow", 0.15, scoreFreeCashFlow},
	{"revenue_growth", 0.15, scoreRevenueGrowth},
}

// Evaluate scores a fundamentals snapshot into an AnalysisVerdict. A fully
// missing snapshot still returns a Neutral verdict at zero confidence; the
// wrapped ErrPartialData lets callers log the degradation without failing.
func Evaluate(snap *model.FundamentalsSnapshot) (*model.AnalysisVerdict, error) {
	var (
		score     float64
		agreement float64
		covered   float64
		rationale []string
		missing   []string
	)

	for _, c := range checks {
		s, ok := c.eval(snap)
		if !ok {
			missing = append(missing, c.name)
			continue
		}
		covered += c.weight
		score += s * c.weight
		agreement += math.Abs(s) * c.weight
		switch {
		case s > 0:
			rationale = append(rationale, fmt.Sprintf("%s bullish (%+.2f)", c.name, s))
		case s < 0:
			rationale = append(rationale, fmt.Sprintf("%s bearish (%+.2f)", c.name, s))
		}
	}

	verdict := &model.AnalysisVerdict{
		// Missing fields leave their weight out of the score, pulling the
		// magnitude toward Neutral rather than renormalizing over what is
		// present: a two-field snapshot should not read as StrongSell.
		Signal:     model.SignalFromScore(score * 3.0),
		Confidence: agreement,
		Rationale:  rationale,
		Metrics: map[string]float64{
			"score":    score,
			"coverage": covered,
		},
	}

	if len(missing) > 0 {
		verdict.Rationale = append(verdict.Rationale,
			fmt.Sprintf("confidence degraded, missing: %v", missing))
		return verdict, fmt.Errorf("fundamental: %d of %d checks missing: %w",
			len(missing), len(checks), model.ErrPartialData)
	}
	return verdict, nil
}

func scoreValuation(s *model.FundamentalsSnapshot) (float64, bool) {
	if s.PERatio == nil {
		return 0, false
	}
	pe := *s.PERatio
	if pe <= 0 {
		// Negative earnings.
		return -1, true
	}
	if s.SectorAvgPE != nil && *s.SectorAvgPE > 0 {
		rel := pe / *s.SectorAvgPE
		switch {
		case rel >= 2.0:
			return -1, true
		case rel >= 1.3:
			return -0.5, true
		case rel <= 0.7:
			return 1, true
		case rel <= 0.9:
			return 0.5, true
		}
		return 0, true
	}
	// Absolute fallback when no sector average is known.
	switch {
	case pe > 35:
		return -1, true
	case pe > 25:
		return -0.5, true
	case pe < 12:
		return 1, true
	case pe < 18:
		return 0.5, true
	}
	return 0, true
}

func scoreROE(s *model.FundamentalsSnapshot) (float64, bool) {
	if s.ROE == nil {
		return 0, false
	}
	switch roe := *s.ROE; {
	case roe > 0.20:
		return 1, true
	case roe > 0.12:
		return 0.5, true
	case roe < 0:
		return -1, true
	case roe < 0.05:
		return -0.5, true
	}
	return 0, true
}

func scoreNetMargin(s *model.FundamentalsSnapshot) (float64, bool) {
	if s.NetMargin == nil {
		return 0, false
	}
	switch m := *s.NetMargin; {
	case m > 0.20:
		return 1, true
	case m > 0.10:
		return 0.5, true
	case m < 0:
		return -1, true
	}
	return 0, true
}

func scoreLeverage(s *model.FundamentalsSnapshot) (float64, bool) {
	if s.DebtToEquity == nil {
		return 0, false
	}
	switch de := *s.DebtToEquity; {
	case de < 0.5:
		return 1, true
	case de < 1.0:
		return 0.5, true
	case de > 2.5:
		return -1, true
	case de > 1.5:
		return -0.5, true
	}
	return 0, true
}

func scoreLiquidity(s *model.FundamentalsSnapshot) (float64, bool) {
	if s.CurrentRatio == nil {
		return 0, false
	}
	switch cr := *s.CurrentRatio; {
	case cr > 2.0:
		return 1, true
	case cr > 1.5:
		return 0.5, true
	case cr < 1.0:
		return -1, true
	}
	return 0, true
}

func scoreFreeCashFlow(s *model.FundamentalsSnapshot) (float64, bool) {
	if s.FreeCashFlow == nil {
		return 0, false
	}
	if s.FreeCashFlow.IsNegative() {
		return -1, true
	}
	if s.FreeCashFlow.IsPositive() {
		return 0.5, true
	}
	return 0, true
}

func scoreRevenueGrowth(s *model.FundamentalsSnapshot) (float64, bool) {
	if s.RevenueGrowth == nil {
		return 0, false
	}
	switch g := *s.RevenueGrowth; {
	case g > 0.15:
		return 1, true
	case g > 0.05:
		return 0.5, true
	case g < 0:
		return -1, true
	}
	return 0, true
}
