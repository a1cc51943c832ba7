package store

import "SignalDesk/internal/model"

// Store is the durable persistence boundary: trade results keyed by
// idempotency key, the single risk-state record, and an append-only
// decision log consumed read-only by the presentation layer.
type Store interface {
	// TradeResult returns the stored result for an idempotency key, or
	// (nil, nil) when no result exists yet.
	TradeResult(idempotencyKey string) (*model.TradeResult, error)

	// SaveTradeResult inserts or updates the result for its key. Writing a
	// result that conflicts with an existing record for the same key
	// (different symbol, side or quantity) fails with ErrInvariantViolation.
	SaveTradeResult(res *model.TradeResult) error

	// RiskState loads the persisted risk state, or a zero state if none
	// has been written yet.
	RiskState() (*model.RiskState, error)

	// SaveRiskState durably replaces the risk state record.
	SaveRiskState(st *model.RiskState) error

	// RecordDecision appends a fused signal to the decision log.
	RecordDecision(sig *model.OverallSignal) error

	Close() error
}
