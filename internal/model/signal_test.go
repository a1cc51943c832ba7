package model

import "testing"

func TestSignalFromScore_Buckets(t *testing.T) {
	cases := []struct {
		score float64
		want  Signal
	}{
		{3.0, StrongBuy},
		{2.5, StrongBuy},
		{2.49, Buy},
		{1.5, Buy},
		{1.49, WeakBuy},
		{0.5, WeakBuy},
		{0.49, Neutral},
		{0, Neutral},
		{-0.49, Neutral},
		{-0.5, WeakSell},
		{-1.5, Sell},
		{-2.5, StrongSell},
		{-3.0, StrongSell},
	}
	for _, c := range cases {
		if got := SignalFromScore(c.score); got != c.want {
			t.Errorf("SignalFromScore(%.2f) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestSignal_ScoreRoundTrip(t *testing.T) {
	for s := StrongSell; s <= StrongBuy; s++ {
		if got := SignalFromScore(s.Score()); got != s {
			t.Errorf("SignalFromScore(%s.Score()) = %s", s, got)
		}
	}
}

func TestSignal_String(t *testing.T) {
	if StrongBuy.String() != "STRONG_BUY" || WeakSell.String() != "WEAK_SELL" {
		t.Errorf("unexpected names: %s, %s", StrongBuy, WeakSell)
	}
	if Signal(42).String() != "UNKNOWN" {
		t.Errorf("out-of-range signal should be UNKNOWN")
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	cases := []struct {
		status   OrderStatus
		terminal bool
	}{
		{StatusFilled, true},
		{StatusRejected, true},
		{StatusSubmitted, false},
		{StatusPartiallyFilled, false},
		{StatusFailed, false},
	}
	for _, c := range cases {
		if c.status.Terminal() != c.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", c.status, !c.terminal, c.terminal)
		}
	}
}

func TestSourceVerdict_Available(t *testing.T) {
	ok := SourceVerdict{Source: SourceTechnical, Verdict: &AnalysisVerdict{}}
	if !ok.Available() {
		t.Error("verdict with no error should be available")
	}
	missing := SourceVerdict{Source: SourceFundamental}
	if missing.Available() {
		t.Error("nil verdict should not be available")
	}
}
