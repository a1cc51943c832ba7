// Package report renders read-only text projections of engine state for
// the presentation layer (dashboards, bots). Nothing here mutates core
// state.
package report

import (
	"fmt"
	"strings"
	"time"

	"SignalDesk/internal/model"
)

// FormatSignal renders a fused signal with its per-source breakdown.
func FormatSignal(sig *model.OverallSignal) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s | %s (score %+.2f, confidence %.0f%%)\n",
		sig.Symbol, sig.Signal, sig.Score, sig.Confidence*100)
	fmt.Fprintf(&sb, "regime: %s | generated: %s\n", sig.Regime, sig.GeneratedAt.Format(time.RFC3339))

	for _, sv := range sig.Sources {
		if !sv.Available() {
			fmt.Fprintf(&sb, "  %-12s unavailable: %v\n", sv.Source, sv.Err)
			continue
		}
		fmt.Fprintf(&sb, "  %-12s %s (%.0f%%)", sv.Source, sv.Verdict.Signal, sv.Verdict.Confidence*100)
		if len(sv.Verdict.Rationale) > 0 {
			fmt.Fprintf(&sb, " | %s", strings.Join(sv.Verdict.Rationale, "; "))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatTradeResult renders one execution record.
func FormatTradeResult(res *model.TradeResult) string {
	return fmt.Sprintf("%s %s x%s @ %s | %s (order %s, key %s)",
		res.Side, res.Symbol, res.FillQuantity.String(), res.FillPrice.String(),
		res.Status, res.BrokerOrderID, res.IdempotencyKey)
}

// FormatRiskState renders the circuit-breaker status.
func FormatRiskState(st model.RiskState) string {
	var sb strings.Builder
	if st.Halted {
		fmt.Fprintf(&sb, "TRADING HALTED since %s: %s\n", st.HaltedAt.Format(time.RFC3339), st.HaltedReason)
	} else {
		sb.WriteString("trading active\n")
	}
	fmt.Fprintf(&sb, "exposure: %s | peak equity: %s | max drawdown seen: %.1f%%",
		st.CurrentExposure.String(), st.PeakEquity.String(), st.MaxDrawdownSeen*100)
	return sb.String()
}
