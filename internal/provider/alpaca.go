package provider

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"SignalDesk/internal/model"
)

// AlpacaProvider serves daily bars from the Alpaca market data API.
// Alpaca has no fundamentals endpoint, so Fundamentals always reports the
// source unavailable and the combiner renormalizes without it (pair this
// provider with a FileFundamentals source to fill the gap).
type AlpacaProvider struct {
	client *marketdata.Client
}

// NewAlpacaProvider creates a provider. Credentials come from the standard
// APCA_* environment variables when opts is empty.
func NewAlpacaProvider(opts marketdata.ClientOpts) *AlpacaProvider {
	return &AlpacaProvider{client: marketdata.NewClient(opts)}
}

func (p *AlpacaProvider) Bars(_ context.Context, symbol string, limit int) ([]model.Bar, error) {
	raw, err := p.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		TotalLimit: limit,
		Feed:       marketdata.IEX,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars %s: %w", symbol, err)
	}

	bars := make([]model.Bar, 0, len(raw))
	for _, b := range raw {
		bars = append(bars, model.Bar{
			Time:   b.Timestamp,
			Open:   decimal.NewFromFloat(b.Open),
			High:   decimal.NewFromFloat(b.High),
			Low:    decimal.NewFromFloat(b.Low),
			Close:  decimal.NewFromFloat(b.Close),
			Volume: decimal.NewFromInt(int64(b.Volume)),
		})
	}
	if err := ValidateBars(symbol, bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func (p *AlpacaProvider) Fundamentals(_ context.Context, symbol string) (*model.FundamentalsSnapshot, error) {
	return nil, fmt.Errorf("alpaca provides no fundamentals for %s: %w", symbol, model.ErrInsufficientData)
}
