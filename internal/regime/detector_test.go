package regime

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/model"
)

func testBars(closes ...float64) []model.Bar {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Bar, len(closes))
	for i, c := range closes {
		d := decimal.NewFromFloat(c)
		out[i] = model.Bar{Time: start.AddDate(0, 0, i), Open: d, High: d, Low: d, Close: d}
	}
	return out
}

func trendingUp(n int) []model.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 0.5*float64(i)
	}
	return testBars(closes...)
}

func trendingDown(n int) []model.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 150 - 0.5*float64(i)
	}
	return testBars(closes...)
}

func choppy(n int) []model.Bar {
	closes := make([]float64, n)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100
		} else {
			closes[i] = 105
		}
	}
	return testBars(closes...)
}

func flat(n int) []model.Bar {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100
	}
	return testBars(closes...)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		bars []model.Bar
		want model.Regime
	}{
		{"steady uptrend", trendingUp(60), model.RegimeTrendingBullish},
		{"steady downtrend", trendingDown(60), model.RegimeTrendingBearish},
		{"violent chop", choppy(60), model.RegimeVolatile},
		{"flat tape", flat(60), model.RegimeCalm},
	}
	for _, c := range cases {
		got, err := Classify(c.bars)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}
		if got != c.want {
			t.Errorf("%s: classified as %s, want %s", c.name, got, c.want)
		}
	}
}

func TestClassify_InsufficientData(t *testing.T) {
	if _, err := Classify(trendingUp(10)); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestDetector_Hysteresis(t *testing.T) {
	d := NewDetector(2)

	// First observation seeds directly.
	got, err := d.Observe(trendingUp(60))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != model.RegimeTrendingBullish {
		t.Fatalf("seed observation should apply immediately, got %s", got)
	}

	// A single divergent observation must not flip the label.
	got, _ = d.Observe(choppy(60))
	if got != model.RegimeTrendingBullish {
		t.Errorf("one volatile window should not flip the regime, got %s", got)
	}

	// A second consecutive one does.
	got, _ = d.Observe(choppy(60))
	if got != model.RegimeVolatile {
		t.Errorf("two volatile windows should flip the regime, got %s", got)
	}
}

func TestDetector_FlappingStaysPut(t *testing.T) {
	d := NewDetector(2)
	d.Observe(trendingUp(60))

	// Alternating observations never build a streak, so the label holds.
	for i := 0; i < 4; i++ {
		d.Observe(choppy(60))
		d.Observe(trendingUp(60))
	}
	if d.Current() != model.RegimeTrendingBullish {
		t.Errorf("alternating windows should not flip the regime, got %s", d.Current())
	}
}

func TestDetector_ErrorKeepsLastLabel(t *testing.T) {
	d := NewDetector(1)
	d.Observe(trendingUp(60))
	got, err := d.Observe(trendingUp(5))
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if got != model.RegimeTrendingBullish {
		t.Errorf("a failed observation should keep the last label, got %s", got)
	}
}
