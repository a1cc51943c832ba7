package indicator

import (
	"errors"
	"math"
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

func TestSMA(t *testing.T) {
	got, err := SMA([]float64{1, 2, 3, 4, 5}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3.0 {
		t.Errorf("SMA = %.4f, want 3.0", got)
	}

	got, err = SMA([]float64{1, 2, 3, 4}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 3.5 {
		t.Errorf("SMA over last 2 = %.4f, want 3.5", got)
	}
}

func TestSMA_InsufficientData(t *testing.T) {
	if _, err := SMA([]float64{1, 2}, 5); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEMA_ConstantSeries(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 42.0
	}
	out, err := EMA(values, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 9; i < len(out); i++ {
		if math.Abs(out[i]-42.0) > 1e-9 {
			t.Fatalf("EMA of constant series diverged at %d: %.6f", i, out[i])
		}
	}
}

func TestRSI_Extremes(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	rsi, err := RSI(rising, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rsi != 100.0 {
		t.Errorf("all-gains series should give RSI 100, got %.2f", rsi)
	}

	falling := make([]float64, 20)
	for i := range falling {
		falling[i] = 100 - float64(i)
	}
	rsi, err = RSI(falling, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rsi != 0.0 {
		t.Errorf("all-losses series should give RSI 0, got %.2f", rsi)
	}
}

func TestRSI_InsufficientData(t *testing.T) {
	if _, err := RSI([]float64{1, 2, 3}, 14); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestMACD_CrossDetection(t *testing.T) {
	bull := MACDResult{PrevMACD: -0.5, PrevSignal: -0.2, MACD: 0.3, Signal: 0.1}
	if !bull.BullishCross() {
		t.Error("expected bullish cross")
	}
	if bull.BearishCross() {
		t.Error("did not expect bearish cross")
	}

	bear := MACDResult{PrevMACD: 0.5, PrevSignal: 0.2, MACD: -0.3, Signal: -0.1}
	if !bear.BearishCross() {
		t.Error("expected bearish cross")
	}

	flat := MACDResult{PrevMACD: 0.5, PrevSignal: 0.2, MACD: 0.6, Signal: 0.3}
	if flat.BullishCross() || flat.BearishCross() {
		t.Error("no cross expected when MACD stays above signal")
	}
}

func TestMACD_InsufficientData(t *testing.T) {
	closes := make([]float64, 30)
	if _, err := MACD(closes, 12, 26, 9); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData for 30 closes, got %v", err)
	}
}

func TestBollinger(t *testing.T) {
	constant := make([]float64, 20)
	for i := range constant {
		constant[i] = 50.0
	}
	res, err := Bollinger(constant, 20, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Upper != res.Lower || res.Width != 0 {
		t.Errorf("constant series should have zero-width bands, got %+v", res)
	}

	varied := make([]float64, 20)
	for i := range varied {
		varied[i] = 100 + float64(i%5)
	}
	res, err = Bollinger(varied, 20, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !(res.Lower < res.Middle && res.Middle < res.Upper) {
		t.Errorf("expected lower < middle < upper, got %+v", res)
	}
	if res.Width <= 0 {
		t.Errorf("expected positive width, got %.4f", res.Width)
	}
}

func TestStochastic(t *testing.T) {
	rising := make([]float64, 20)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	res, err := Stochastic(testBars(rising...), 14, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.K < 99.0 {
		t.Errorf("closing at the high of the range should give %%K near 100, got %.2f", res.K)
	}

	flat := make([]float64, 20)
	for i := range flat {
		flat[i] = 100.0
	}
	res, err = Stochastic(testBars(flat...), 14, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.K != 50.0 {
		t.Errorf("flat range should give %%K 50, got %.2f", res.K)
	}
}

func TestStochastic_InsufficientData(t *testing.T) {
	if _, err := Stochastic(testBars(1, 2, 3), 14, 3); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
