package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskState is the process-wide circuit-breaker record. It is loaded from
// durable storage at startup, mutated only by the risk manager under a
// single-writer discipline, and never reset implicitly. Version increments
// on every write so readers can detect staleness.
type RiskState struct {
	Version         int64           `json:"version"`
	Halted          bool            `json:"halted"`
	HaltedReason    string          `json:"halted_reason,omitempty"`
	HaltedAt        time.Time       `json:"halted_at,omitempty"`
	CurrentExposure decimal.Decimal `json:"current_exposure"`
	PeakEquity      decimal.Decimal `json:"peak_equity"`
	MaxDrawdownSeen float64         `json:"max_drawdown_seen"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
