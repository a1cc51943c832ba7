package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/model"
)

func barAt(t time.Time) model.Bar {
	d := decimal.NewFromInt(100)
	return model.Bar{Time: t, Open: d, High: d, Low: d, Close: d}
}

func TestValidateBars(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	ordered := []model.Bar{barAt(base), barAt(base.AddDate(0, 0, 1)), barAt(base.AddDate(0, 0, 4))}
	if err := ValidateBars("AAPL", ordered); err != nil {
		t.Errorf("gapped but ordered bars are legal: %v", err)
	}

	duplicate := []model.Bar{barAt(base), barAt(base)}
	if err := ValidateBars("AAPL", duplicate); err == nil {
		t.Error("duplicate timestamps must fail validation")
	}

	reversed := []model.Bar{barAt(base.AddDate(0, 0, 1)), barAt(base)}
	if err := ValidateBars("AAPL", reversed); err == nil {
		t.Error("out-of-order bars must fail validation")
	}

	if err := ValidateBars("AAPL", nil); err != nil {
		t.Errorf("empty series is trivially ordered: %v", err)
	}
}

func TestFileFundamentals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fundamentals.json")
	content := `{"AAPL": {"PERatio": 28.5, "ROE": 1.5}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	f := NewFileFundamentals(path)
	snap, err := f.Fundamentals(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Symbol != "AAPL" {
		t.Errorf("symbol should be backfilled, got %q", snap.Symbol)
	}
	if snap.PERatio == nil || *snap.PERatio != 28.5 {
		t.Errorf("unexpected P/E: %v", snap.PERatio)
	}
	if snap.NetMargin != nil {
		t.Error("absent fields must stay nil, not zero")
	}
}

func TestFileFundamentals_MissingSymbol(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fundamentals.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	f := NewFileFundamentals(path)
	if _, err := f.Fundamentals(context.Background(), "ZZZZ"); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestFileFundamentals_MissingFile(t *testing.T) {
	f := NewFileFundamentals(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := f.Fundamentals(context.Background(), "AAPL"); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
