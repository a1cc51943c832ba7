package provider

import (
	"context"
	"fmt"

	"SignalDesk/internal/model"
)

// Provider supplies ordered bar history and fundamentals snapshots per
// symbol. Implementations fetch however they like; the pipeline only relies
// on the contract checked by ValidateBars.
type Provider interface {
	// Bars returns up to `limit` most recent bars for the symbol, oldest
	// first, strictly time-ordered with no duplicate timestamps.
	Bars(ctx context.Context, symbol string, limit int) ([]model.Bar, error)

	// Fundamentals returns the latest ratio snapshot. Sources without
	// fundamentals data return an error wrapping ErrInsufficientData; the
	// combiner then renormalizes over the remaining evaluators.
	Fundamentals(ctx context.Context, symbol string) (*model.FundamentalsSnapshot, error)
}

// ValidateBars enforces the provider contract: strict time order, no
// duplicate timestamps. Gaps are legal; lookback logic tolerates them.
func ValidateBars(symbol string, bars []model.Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return fmt.Errorf("provider: %s bars not strictly time-ordered at index %d (%s then %s)",
				symbol, i, bars[i-1].Time.Format("2006-01-02T15:04:05Z"), bars[i].Time.Format("2006-01-02T15:04:05Z"))
		}
	}
	return nil
}
