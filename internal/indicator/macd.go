package indicator

import (
	"fmt"

	"SignalDesk/internal/model"
)

// MACDResult holds the last two points of the MACD triple so callers can
// detect a signal-line cross on the most recent bar.
type MACDResult struct {
	MACD       float64
	Signal     float64
	Histogram  float64
	PrevMACD   float64
	PrevSignal float64
}

// BullishCross reports a MACD line crossing above the signal line on the
// most recent bar.
func (m MACDResult) BullishCross() bool {
	return m.PrevMACD <= m.PrevSignal && m.MACD > m.Signal
}

// BearishCross reports a MACD line crossing below the signal line on the
// most recent bar.
func (m MACDResult) BearishCross() bool {
	return m.PrevMACD >= m.PrevSignal && m.MACD < m.Signal
}

// MACD computes the fast/slow/signal EMA triple. Requires at least
// slow+signal values.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 || fast >= slow {
		return MACDResult{}, fmt.Errorf("macd: invalid periods fast=%d slow=%d signal=%d", fast, slow, signal)
	}
	need := slow + signal
	if len(closes) < need {
		return MACDResult{}, fmt.Errorf("macd(%d,%d,%d): have %d closes, need %d: %w",
			fast, slow, signal, len(closes), need, model.ErrInsufficientData)
	}

	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return MACDResult{}, err
	}
	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return MACDResult{}, err
	}

	// MACD line is defined from index slow-1 onward.
	macdLine := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		macdLine = append(macdLine, fastEMA[i]-slowEMA[i])
	}

	signalLine, err := EMA(macdLine, signal)
	if err != nil {
		return MACDResult{}, err
	}

	n := len(macdLine)
	res := MACDResult{
		MACD:       macdLine[n-1],
		Signal:     signalLine[n-1],
		PrevMACD:   macdLine[n-2],
		PrevSignal: signalLine[n-2],
	}
	res.Histogram = res.MACD - res.Signal
	return res, nil
}
