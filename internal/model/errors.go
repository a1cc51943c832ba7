package model

import (
	"errors"
	"fmt"
)

// Error taxonomy. Callers match these with errors.Is; every stage wraps them
// with enough context to identify which evaluator or stage failed.
var (
	// ErrInsufficientData means a series is shorter than the longest
	// required lookback. Recoverable: the symbol is reported unavailable
	// and the cycle continues with the others.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrPartialData means optional fields were missing and confidence was
	// degraded. Informational, never fatal.
	ErrPartialData = errors.New("partial data")

	// ErrTradingHalted is returned while the risk circuit breaker is open.
	// Cleared only by an explicit administrative reset.
	ErrTradingHalted = errors.New("trading halted")

	// ErrBrokerUnavailable is a transient broker failure before submission.
	// Safe to retry with the same idempotency key.
	ErrBrokerUnavailable = errors.New("broker unavailable")

	// ErrAmbiguousExecution means the broker call failed after submission
	// but before a response was recorded. The executor must reconcile via
	// broker lookup before any retry.
	ErrAmbiguousExecution = errors.New("ambiguous execution outcome")

	// ErrInvariantViolation means persistent state contradicts itself, e.g.
	// one idempotency key mapped to conflicting orders. Fatal: trading is
	// halted and the operator alerted.
	ErrInvariantViolation = errors.New("invariant violation")
)

// StageError annotates a failure with the pipeline stage that produced it so
// user-visible errors never surface as bare generic failures.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }

// WrapStage attaches a stage name to err, or returns nil if err is nil.
func WrapStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
