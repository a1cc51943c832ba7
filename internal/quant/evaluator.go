package quant

import (
	"fmt"
	"math"

	"SignalDesk/internal/model"
)

// MinReturns is the shortest return series the evaluator accepts.
const MinReturns = 30

// PeriodsPerYear annualizes daily-bar statistics.
const PeriodsPerYear = 252.0

// Metrics holds the computed risk-adjusted return statistics.
type Metrics struct {
	Sharpe      float64
	Volatility  float64
	MaxDrawdown float64
	VaR95       float64
	Beta        float64
	HasBeta     bool
}

// Compute derives the full metric set from a bar window and an optional
// benchmark window. A nil or mismatched benchmark skips beta rather than
// failing; everything else requires MinReturns+1 bars.
func Compute(bars, benchmark []model.Bar) (*Metrics, error) {
	returns := model.Returns(bars)
	if len(returns) < MinReturns {
		return nil, fmt.Errorf("quant: have %d returns, need %d: %w", len(returns), MinReturns, model.ErrInsufficientData)
	}

	vaR, err := HistoricalVaR(returns, 0.95)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		Sharpe:      AnnualizedSharpe(returns, PeriodsPerYear),
		Volatility:  AnnualizedVolatility(returns, PeriodsPerYear),
		MaxDrawdown: MaxDrawdown(bars),
		VaR95:       vaR,
	}

	benchReturns := model.Returns(benchmark)
	if len(benchReturns) == len(returns) {
		if beta, err := Beta(returns, benchReturns); err == nil {
			m.Beta = beta
			m.HasBeta = true
		}
	}
	return m, nil
}

// Evaluate derives statistics and applies the rule table. Pure given the
// same bar windows.
func Evaluate(bars, benchmark []model.Bar) (*model.AnalysisVerdict, error) {
	m, err := Compute(bars, benchmark)
	if err != nil {
		return nil, err
	}
	return EvaluateMetrics(m), nil
}

// EvaluateMetrics applies the rule table to a computed metric set.
func EvaluateMetrics(m *Metrics) *model.AnalysisVerdict {
	var rationale []string

	sharpeScore := 0.0
	switch {
	case m.Sharpe > 1.5:
		sharpeScore = 1.0
		rationale = append(rationale, fmt.Sprintf("Sharpe %.2f excellent", m.Sharpe))
	case m.Sharpe > 1.0:
		sharpeScore = 0.8
		rationale = append(rationale, fmt.Sprintf("Sharpe %.2f strong", m.Sharpe))
	case m.Sharpe > 0.5:
		sharpeScore = 0.4
	case m.Sharpe < -0.5:
		sharpeScore = -1.0
		rationale = append(rationale, fmt.Sprintf("Sharpe %.2f poor", m.Sharpe))
	case m.Sharpe < 0:
		sharpeScore = -0.5
		rationale = append(rationale, fmt.Sprintf("Sharpe %.2f negative", m.Sharpe))
	}

	ddScore := 0.0
	switch {
	case m.MaxDrawdown < 0.10:
		ddScore = 0.5
	case m.MaxDrawdown > 0.30:
		ddScore = -1.0
		rationale = append(rationale, fmt.Sprintf("max drawdown %.0f%% severe", m.MaxDrawdown*100))
	case m.MaxDrawdown > 0.20:
		ddScore = -0.5
		rationale = append(rationale, fmt.Sprintf("max drawdown %.0f%% elevated", m.MaxDrawdown*100))
	}

	volScore := 0.0
	switch {
	case m.Volatility > 0.50:
		volScore = -1.0
		rationale = append(rationale, fmt.Sprintf("volatility %.0f%% extreme", m.Volatility*100))
	case m.Volatility > 0.30:
		volScore = -0.5
	case m.Volatility < 0.15:
		volScore = 0.3
	}

	varScore := 0.0
	switch {
	case m.VaR95 > 0.04:
		varScore = -1.0
		rationale = append(rationale, fmt.Sprintf("95%% VaR %.1f%% high", m.VaR95*100))
	case m.VaR95 > 0.025:
		varScore = -0.5
	case m.VaR95 < 0.01:
		varScore = 0.3
	}

	betaScore := 0.0
	if m.HasBeta {
		switch {
		case m.Beta > 1.5:
			betaScore = -0.5
			rationale = append(rationale, fmt.Sprintf("beta %.2f aggressive", m.Beta))
		case m.Beta < 0.7 && m.Beta > 0:
			betaScore = 0.3
		}
	}

	const (
		wSharpe = 0.35
		wDD     = 0.20
		wVol    = 0.15
		wVaR    = 0.15
		wBeta   = 0.15
	)

	score := sharpeScore*wSharpe + ddScore*wDD + volScore*wVol + varScore*wVaR + betaScore*wBeta
	confidence := math.Abs(sharpeScore)*wSharpe + math.Abs(ddScore)*wDD +
		math.Abs(volScore)*wVol + math.Abs(varScore)*wVaR + math.Abs(betaScore)*wBeta

	metrics := map[string]float64{
		"sharpe":       m.Sharpe,
		"volatility":   m.Volatility,
		"max_drawdown": m.MaxDrawdown,
		"var_95":       m.VaR95,
		"score":        score,
	}
	if m.HasBeta {
		metrics["beta"] = m.Beta
	}

	if confidence > 1 {
		confidence = 1
	}
	return &model.AnalysisVerdict{
		Signal:     model.SignalFromScore(score * 3.0),
		Confidence: confidence,
		Rationale:  rationale,
		Metrics:    metrics,
	}
}
