package model

// Regime classifies current market behavior. Computed per analysis cycle;
// logged but never persisted as mutable state.
type Regime string

const (
	RegimeTrendingBullish Regime = "TRENDING_BULLISH"
	RegimeTrendingBearish Regime = "TRENDING_BEARISH"
	RegimeRanging         Regime = "RANGING"
	RegimeVolatile        Regime = "VOLATILE"
	RegimeCalm            Regime = "CALM"
)
