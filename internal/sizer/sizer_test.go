package sizer

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/model"
)

func signal(sig model.Signal, conf float64, regime model.Regime) *model.OverallSignal {
	return &model.OverallSignal{Symbol: "AAPL", Signal: sig, Score: sig.Score(), Confidence: conf, Regime: regime}
}

func TestKellyFraction(t *testing.T) {
	cases := []struct {
		w, r, want float64
	}{
		{0.7, 2.6, 0.7 - 0.3/2.6},
		{0.5, 1.0, 0.0},
		{0.5, 0.5, 0.0}, // negative edge clamps to zero
		{0.9, 3.0, 0.9 - 0.1/3.0},
		{0.5, 0, 0.0}, // degenerate payoff
	}
	for _, c := range cases {
		got := KellyFraction(c.w, c.r)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("KellyFraction(%.2f, %.2f) = %.4f, want %.4f", c.w, c.r, got, c.want)
		}
	}
}

func TestKellyFraction_AlwaysBounded(t *testing.T) {
	for w := 0.0; w <= 1.0; w += 0.01 {
		for r := 0.1; r <= 5.0; r += 0.1 {
			f := KellyFraction(w, r)
			if f < 0 || f > 1 {
				t.Fatalf("KellyFraction(%.2f, %.2f) = %.4f outside [0, 1]", w, r, f)
			}
		}
	}
}

func TestWinProbability(t *testing.T) {
	c := DefaultConfig()
	if got := c.WinProbability(0); got != 0.5 {
		t.Errorf("zero confidence should map to coin flip, got %.2f", got)
	}
	if got := c.WinProbability(0.5); math.Abs(got-0.7) > 1e-9 {
		t.Errorf("WinProbability(0.5) = %.4f, want 0.70", got)
	}
	if got := c.WinProbability(1.0); got != 0.9 {
		t.Errorf("win probability must cap at 0.9, got %.2f", got)
	}
}

func TestSize_QuarterKellyWithCap(t *testing.T) {
	// W=0.7, R=2.6: full Kelly 58.5%, quarter Kelly 14.6%, capped at the
	// 10% position limit. On 10000 equity that is 1000 notional, 20 shares
	// at 50.
	cfg := DefaultConfig()
	acct := Account{Equity: decimal.NewFromInt(10000)}
	sig := signal(model.Buy, 0.5, model.RegimeRanging)

	order, err := cfg.Size(sig, acct, Estimate{PayoffRatio: 2.6}, decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Side != model.SideBuy {
		t.Errorf("expected BUY side, got %s", order.Side)
	}
	if !order.Quantity.Equal(decimal.NewFromInt(20)) {
		t.Errorf("quantity = %s, want 20", order.Quantity)
	}
	if !order.TargetNotional.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("notional = %s, want 1000", order.TargetNotional)
	}
	if order.MaxRiskFraction != cfg.MaxPositionFraction {
		t.Errorf("fraction should hit the position cap %.2f, got %.4f", cfg.MaxPositionFraction, order.MaxRiskFraction)
	}
}

func TestSize_BelowConfidenceThreshold(t *testing.T) {
	cfg := DefaultConfig()
	acct := Account{Equity: decimal.NewFromInt(10000)}
	sig := signal(model.Buy, 0.1, model.RegimeRanging)

	order, err := cfg.Size(sig, acct, Estimate{PayoffRatio: 2.0}, decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !order.IsZero() {
		t.Errorf("confidence below threshold must size to zero, got quantity %s", order.Quantity)
	}
}

func TestSize_NeutralSignal(t *testing.T) {
	cfg := DefaultConfig()
	order, err := cfg.Size(signal(model.Neutral, 0.9, model.RegimeRanging),
		Account{Equity: decimal.NewFromInt(10000)}, Estimate{PayoffRatio: 2.0}, decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !order.IsZero() {
		t.Errorf("NEUTRAL must size to zero regardless of confidence, got %s", order.Quantity)
	}
}

func TestSize_SellSideStopAbovePrice(t *testing.T) {
	cfg := DefaultConfig()
	price := decimal.NewFromInt(100)
	order, err := cfg.Size(signal(model.StrongSell, 0.8, model.RegimeRanging),
		Account{Equity: decimal.NewFromInt(10000)}, Estimate{PayoffRatio: 2.0}, price)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Side != model.SideSell {
		t.Errorf("bearish signal should sell, got %s", order.Side)
	}
	if !order.StopLoss.GreaterThan(price) {
		t.Errorf("sell stop must sit above entry: stop %s, price %s", order.StopLoss, price)
	}
}

func TestSize_BuyStopBelowPrice(t *testing.T) {
	cfg := DefaultConfig()
	price := decimal.NewFromInt(100)
	order, err := cfg.Size(signal(model.Buy, 0.8, model.RegimeRanging),
		Account{Equity: decimal.NewFromInt(10000)}, Estimate{PayoffRatio: 2.0}, price)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !order.StopLoss.LessThan(price) {
		t.Errorf("buy stop must sit below entry: stop %s, price %s", order.StopLoss, price)
	}
}

func TestSize_AggregateHeadroomExhausted(t *testing.T) {
	cfg := DefaultConfig()
	acct := Account{
		Equity:       decimal.NewFromInt(10000),
		OpenExposure: decimal.NewFromInt(5000), // already at the 50% cap
	}
	order, err := cfg.Size(signal(model.Buy, 0.8, model.RegimeRanging), acct,
		Estimate{PayoffRatio: 2.0}, decimal.NewFromInt(50))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !order.IsZero() {
		t.Errorf("no aggregate headroom must size to zero, got %s", order.Quantity)
	}
}

func TestSize_VolatileRegimeHalvesBudget(t *testing.T) {
	cfg := DefaultConfig()
	acct := Account{Equity: decimal.NewFromInt(10000)}
	est := Estimate{PayoffRatio: 2.6}
	price := decimal.NewFromInt(1)

	calm, err := cfg.Size(signal(model.Buy, 0.5, model.RegimeRanging), acct, est, price)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	volatile, err := cfg.Size(signal(model.Buy, 0.5, model.RegimeVolatile), acct, est, price)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !volatile.Quantity.LessThan(calm.Quantity) {
		t.Errorf("volatile regime should size smaller: %s vs %s", volatile.Quantity, calm.Quantity)
	}
}

func TestSize_LotRounding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LotSize = decimal.NewFromInt(10)
	acct := Account{Equity: decimal.NewFromInt(10000)}

	order, err := cfg.Size(signal(model.Buy, 0.5, model.RegimeRanging), acct,
		Estimate{PayoffRatio: 2.6}, decimal.NewFromInt(60))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1000 notional at 60 is 16.67 shares, floored to the 10-share lot.
	if !order.Quantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("quantity = %s, want 10 (floored to lot)", order.Quantity)
	}
	if !order.TargetNotional.Equal(decimal.NewFromInt(600)) {
		t.Errorf("notional = %s, want 600", order.TargetNotional)
	}
}

func TestSize_NonPositivePrice(t *testing.T) {
	cfg := DefaultConfig()
	if _, err := cfg.Size(signal(model.Buy, 0.8, model.RegimeRanging),
		Account{Equity: decimal.NewFromInt(10000)}, Estimate{PayoffRatio: 2.0}, decimal.Zero); err == nil {
		t.Error("expected an error for a non-positive price")
	}
}
