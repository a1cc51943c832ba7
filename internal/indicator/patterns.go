package indicator

import "SignalDesk/internal/model"

// Pattern is a recognized candlestick formation.
type Pattern string

const (
	PatternHammer           Pattern = "HAMMER"
	PatternDoji             Pattern = "DOJI"
	PatternBullishEngulfing Pattern = "BULLISH_ENGULFING"
	PatternBearishEngulfing Pattern = "BEARISH_ENGULFING"
	PatternMorningStar      Pattern = "MORNING_STAR"
	PatternEveningStar      Pattern = "EVENING_STAR"
)

// Bullish reports whether the pattern carries a bullish bias.
func (p Pattern) Bullish() bool {
	switch p {
	case PatternHammer, PatternBullishEngulfing, PatternMorningStar:
		return true
	}
	return false
}

// Bearish reports whether the pattern carries a bearish bias.
func (p Pattern) Bearish() bool {
	switch p {
	case PatternBearishEngulfing, PatternEveningStar:
		return true
	}
	return false
}

// candle is the dimensionless shape of one bar, used by the predicates.
type candle struct {
	open, high, low, close float64
}

func newCandle(b model.Bar) candle {
	return candle{
		open:  b.Open.InexactFloat64(),
		high:  b.High.InexactFloat64(),
		low:   b.Low.InexactFloat64(),
		close: b.Close.InexactFloat64(),
	}
}

func (c candle) body() float64 {
	if c.close > c.open {
		return c.close - c.open
	}
	return c.open - c.close
}

func (c candle) fullRange() float64 { return c.high - c.low }

func (c candle) upperShadow() float64 {
	top := c.close
	if c.open > top {
		top = c.open
	}
	return c.high - top
}

func (c candle) lowerShadow() float64 {
	bottom := c.close
	if c.open < bottom {
		bottom = c.open
	}
	return bottom - c.low
}

func (c candle) bullish() bool { return c.close > c.open }
func (c candle) bearish() bool { return c.close < c.open }

// isDoji: body under 10% of the full range.
func isDoji(c candle) bool {
	r := c.fullRange()
	return r > 0 && c.body() < 0.1*r
}

// isHammer: small body at the top, lower shadow at least twice the body.
func isHammer(c candle) bool {
	r := c.fullRange()
	if r <= 0 {
		return false
	}
	b := c.body()
	return b > 0 && b < 0.35*r && c.lowerShadow() >= 2.0*b && c.upperShadow() <= b
}

// isBullishEngulfing: a bullish body that fully engulfs the prior bearish body.
func isBullishEngulfing(prev, cur candle) bool {
	return prev.bearish() && cur.bullish() &&
		cur.open <= prev.close && cur.close >= prev.open
}

func isBearishEngulfing(prev, cur candle) bool {
	return prev.bullish() && cur.bearish() &&
		cur.open >= prev.close && cur.close <= prev.open
}

// isMorningStar: long bearish bar, small-bodied middle bar, then a bullish
// bar closing above the midpoint of the first.
func isMorningStar(a, b, c candle) bool {
	if !a.bearish() || !c.bullish() {
		return false
	}
	if a.fullRange() <= 0 || b.body() >= 0.5*a.body() {
		return false
	}
	mid := (a.open + a.close) / 2.0
	return c.close > mid
}

func isEveningStar(a, b, c candle) bool {
	if !a.bullish() || !c.bearish() {
		return false
	}
	if a.fullRange() <= 0 || b.body() >= 0.5*a.body() {
		return false
	}
	mid := (a.open + a.close) / 2.0
	return c.close < mid
}

// DetectPatterns runs the fixed pattern catalogue over the last 1-3 bars.
func DetectPatterns(bars []model.Bar) []Pattern {
	var found []Pattern
	n := len(bars)
	if n == 0 {
		return nil
	}

	last := newCandle(bars[n-1])
	if isDoji(last) {
		found = append(found, PatternDoji)
	}
	if isHammer(last) {
		found = append(found, PatternHammer)
	}

	if n >= 2 {
		prev := newCandle(bars[n-2])
		if isBullishEngulfing(prev, last) {
			found = append(found, PatternBullishEngulfing)
		}
		if isBearishEngulfing(prev, last) {
			found = append(found, PatternBearishEngulfing)
		}
	}

	if n >= 3 {
		a := newCandle(bars[n-3])
		b := newCandle(bars[n-2])
		if isMorningStar(a, b, last) {
			found = append(found, PatternMorningStar)
		}
		if isEveningStar(a, b, last) {
			found = append(found, PatternEveningStar)
		}
	}

	return found
}
