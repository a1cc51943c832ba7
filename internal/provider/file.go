package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"SignalDesk/internal/model"
)

// FileFundamentals reads fundamentals snapshots from a JSON file keyed by
// symbol, refreshed out-of-band by whatever populates the file. Missing
// symbols and missing fields degrade gracefully downstream.
type FileFundamentals struct {
	path string
}

func NewFileFundamentals(path string) *FileFundamentals {
	return &FileFundamentals{path: path}
}

func (f *FileFundamentals) Fundamentals(_ context.Context, symbol string) (*model.FundamentalsSnapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("fundamentals file %s missing: %w", f.path, model.ErrInsufficientData)
		}
		return nil, fmt.Errorf("read fundamentals file: %w", err)
	}

	var all map[string]*model.FundamentalsSnapshot
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse fundamentals file: %w", err)
	}

	snap, ok := all[symbol]
	if !ok || snap == nil {
		return nil, fmt.Errorf("no fundamentals for %s: %w", symbol, model.ErrInsufficientData)
	}
	snap.Symbol = symbol
	return snap, nil
}

// Combined layers a fundamentals source over a bar source so the pipeline
// sees one Provider.
type Combined struct {
	Barser interface {
		Bars(ctx context.Context, symbol string, limit int) ([]model.Bar, error)
	}
	Fundamentaler interface {
		Fundamentals(ctx context.Context, symbol string) (*model.FundamentalsSnapshot, error)
	}
}

func (c Combined) Bars(ctx context.Context, symbol string, limit int) ([]model.Bar, error) {
	return c.Barser.Bars(ctx, symbol, limit)
}

func (c Combined) Fundamentals(ctx context.Context, symbol string) (*model.FundamentalsSnapshot, error) {
	return c.Fundamentaler.Fundamentals(ctx, symbol)
}
