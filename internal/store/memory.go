package store

import (
	"fmt"
	"sync"

	"SignalDesk/internal/model"
)

// MemoryStore is an in-memory Store used by tests and when no database is
// configured. It enforces the same idempotency invariants as SQLiteStore
// but does not survive restarts.
type MemoryStore struct {
	mu        sync.Mutex
	results   map[string]model.TradeResult
	riskState model.RiskState
	decisions []model.OverallSignal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]model.TradeResult)}
}

func (m *MemoryStore) TradeResult(idempotencyKey string) (*model.TradeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if res, ok := m.results[idempotencyKey]; ok {
		out := res
		return &out, nil
	}
	return nil, nil
}

func (m *MemoryStore) SaveTradeResult(res *model.TradeResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.results[res.IdempotencyKey]; ok {
		if existing.Symbol != res.Symbol || existing.Side != res.Side {
			return fmt.Errorf("idempotency key %s already maps to %s %s: %w",
				res.IdempotencyKey, existing.Side, existing.Symbol, model.ErrInvariantViolation)
		}
		if existing.Status.Terminal() && existing.Status != res.Status {
			return fmt.Errorf("idempotency key %s is terminal (%s), refusing %s: %w",
				res.IdempotencyKey, existing.Status, res.Status, model.ErrInvariantViolation)
		}
	}
	m.results[res.IdempotencyKey] = *res
	return nil
}

func (m *MemoryStore) RiskState() (*model.RiskState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.riskState
	return &st, nil
}

func (m *MemoryStore) SaveRiskState(st *model.RiskState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.riskState = *st
	return nil
}

func (m *MemoryStore) RecordDecision(sig *model.OverallSignal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, *sig)
	return nil
}

// Decisions returns a copy of the recorded decision log.
func (m *MemoryStore) Decisions() []model.OverallSignal {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.OverallSignal, len(m.decisions))
	copy(out, m.decisions)
	return out
}

func (m *MemoryStore) Close() error { return nil }
