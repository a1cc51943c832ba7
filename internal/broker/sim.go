package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/model"
)

// Sim is a deterministic in-process broker used for paper trading and
// tests. Orders fill immediately at the configured price. Failure modes are
// injectable: FailSubmits rejects the next N submissions before any order
// is created (retryable), and DropResponses loses the response of the next
// N submissions after the order was created (ambiguous outcome).
type Sim struct {
	mu            sync.Mutex
	fillPrice     decimal.Decimal
	orders        map[string]*OrderState // by idempotency reference
	seq           int
	failSubmits   int
	dropResponses int
	submitCalls   int
}

// NewSim creates a simulated broker filling every order at fillPrice.
func NewSim(fillPrice decimal.Decimal) *Sim {
	return &Sim{fillPrice: fillPrice, orders: make(map[string]*OrderState)}
}

// FailSubmits makes the next n SubmitOrder calls fail before submission.
func (s *Sim) FailSubmits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSubmits = n
}

// DropResponses makes the next n SubmitOrder calls create the order but
// lose the response, simulating a network failure after submission.
func (s *Sim) DropResponses(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropResponses = n
}

// SubmitCalls returns how many times SubmitOrder was invoked.
func (s *Sim) SubmitCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitCalls
}

// OrderCount returns how many distinct orders the broker has accepted.
func (s *Sim) OrderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *Sim) SubmitOrder(_ context.Context, req SubmitRequest) (*OrderState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitCalls++

	if s.failSubmits > 0 {
		s.failSubmits--
		return nil, fmt.Errorf("sim: connection refused: %w", model.ErrBrokerUnavailable)
	}

	// A resubmission under a known reference returns the existing order:
	// the reference is the dedupe key, exactly like a client order id.
	if existing, ok := s.orders[req.IdempotencyRef]; ok {
		out := *existing
		return &out, nil
	}

	s.seq++
	now := time.Now().UTC()
	order := &OrderState{
		OrderID:        fmt.Sprintf("sim-%06d", s.seq),
		Status:         model.StatusFilled,
		FilledQuantity: req.Quantity,
		FilledAvgPrice: s.fillPrice,
		SubmittedAt:    now,
		UpdatedAt:      now,
	}
	s.orders[req.IdempotencyRef] = order

	if s.dropResponses > 0 {
		s.dropResponses--
		return nil, fmt.Errorf("sim: connection reset after submit: %w", model.ErrAmbiguousExecution)
	}

	out := *order
	return &out, nil
}

func (s *Sim) LookupByReference(_ context.Context, idempotencyRef string) (*OrderState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.orders[idempotencyRef]; ok {
		out := *order
		return &out, nil
	}
	return nil, nil
}
