package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"SignalDesk/internal/broker"
	"SignalDesk/internal/model"
	"SignalDesk/internal/store"
)

// NewIntent binds a risk-approved order to a fresh idempotency key. The key
// is generated exactly once per logical decision; every retry of that
// decision must reuse the same TradeIntent.
func NewIntent(order model.SizedOrder) model.TradeIntent {
	return model.TradeIntent{
		IdempotencyKey: uuid.NewString(),
		Order:          order,
		CreatedAt:      time.Now().UTC(),
	}
}

// Executor submits trade intents at most once. The durable store is the
// source of truth: a stored terminal result is returned without touching
// the broker, and ambiguous network failures are resolved by looking the
// order up under its idempotency reference, never by blind resubmission.
type Executor struct {
	store       store.Store
	broker      broker.Broker
	maxAttempts int
	backoff     time.Duration

	mu       sync.Mutex
	inflight map[string]*inflightCall
}

type inflightCall struct {
	done   chan struct{}
	result *model.TradeResult
	err    error
}

// New creates an Executor with bounded retries for transient broker
// failures.
func New(st store.Store, br broker.Broker, maxAttempts int, backoff time.Duration) *Executor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Executor{
		store:       st,
		broker:      br,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		inflight:    make(map[string]*inflightCall),
	}
}

// Execute runs an intent to a recorded result. Concurrent calls with the
// same idempotency key collapse onto one submission: later callers block
// until the first attempt completes and receive its result. Cancellation is
// honored only before submission starts; once started, execution always
// runs to a recorded outcome.
func (e *Executor) Execute(ctx context.Context, intent model.TradeIntent) (*model.TradeResult, error) {
	if intent.IdempotencyKey == "" {
		return nil, model.WrapStage("executor", fmt.Errorf("intent has no idempotency key"))
	}
	if intent.Order.IsZero() {
		return nil, model.WrapStage("executor", fmt.Errorf("refusing to execute zero-quantity order for %s", intent.Order.Symbol))
	}

	e.mu.Lock()
	if call, ok := e.inflight[intent.IdempotencyKey]; ok {
		e.mu.Unlock()
		<-call.done
		return call.result, call.err
	}
	call := &inflightCall{done: make(chan struct{})}
	e.inflight[intent.IdempotencyKey] = call
	e.mu.Unlock()

	call.result, call.err = e.execute(ctx, intent)
	close(call.done)

	e.mu.Lock()
	delete(e.inflight, intent.IdempotencyKey)
	e.mu.Unlock()

	return call.result, call.err
}

func (e *Executor) execute(ctx context.Context, intent model.TradeIntent) (*model.TradeResult, error) {
	key := intent.IdempotencyKey

	// Durable idempotency check before any broker traffic.
	existing, err := e.store.TradeResult(key)
	if err != nil {
		return nil, model.WrapStage("executor", err)
	}
	if existing != nil {
		if existing.Status.Terminal() {
			return existing, nil
		}
		// A non-terminal record means a previous run died mid-flight.
		return e.reconcileRecorded(ctx, intent, existing)
	}

	// Cancellation is only honored here, before the first submission.
	if err := ctx.Err(); err != nil {
		return nil, model.WrapStage("executor", err)
	}
	// Once submission starts it must run to a recorded result even if the
	// caller goes away.
	ctx = context.WithoutCancel(ctx)

	req := broker.SubmitRequest{
		IdempotencyRef: key,
		Symbol:         intent.Order.Symbol,
		Side:           intent.Order.Side,
		Quantity:       intent.Order.Quantity,
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		state, err := e.broker.SubmitOrder(ctx, req)
		if err == nil {
			return e.record(intent, state)
		}
		lastErr = err

		if errors.Is(err, model.ErrBrokerUnavailable) {
			// Failed before submission: retrying with the same key is safe.
			log.Printf("[WARN] executor: broker unavailable for %s (attempt %d/%d): %v",
				intent.Order.Symbol, attempt, e.maxAttempts, err)
			time.Sleep(e.backoff * time.Duration(attempt))
			continue
		}

		// Any other failure is ambiguous: the order may exist. Reconcile
		// through the broker's own lookup before considering a retry.
		log.Printf("[WARN] executor: ambiguous outcome for %s, reconciling: %v", intent.Order.Symbol, err)
		state, lookupErr := e.broker.LookupByReference(ctx, key)
		if lookupErr != nil {
			return nil, model.WrapStage("executor",
				fmt.Errorf("reconciliation lookup failed for key %s: %v: %w", key, lookupErr, model.ErrAmbiguousExecution))
		}
		if state != nil {
			// The order made it through; record what the broker has.
			return e.record(intent, state)
		}
		// The broker has no order under this reference: the submission
		// never landed and the same key can be retried.
		time.Sleep(e.backoff * time.Duration(attempt))
	}

	return nil, model.WrapStage("executor",
		fmt.Errorf("gave up after %d attempts for key %s: %w", e.maxAttempts, key, lastErr))
}

// reconcileRecorded refreshes a stored non-terminal result from the broker.
func (e *Executor) reconcileRecorded(ctx context.Context, intent model.TradeIntent, recorded *model.TradeResult) (*model.TradeResult, error) {
	state, err := e.broker.LookupByReference(context.WithoutCancel(ctx), intent.IdempotencyKey)
	if err != nil {
		return nil, model.WrapStage("executor",
			fmt.Errorf("reconciliation lookup failed for key %s: %v: %w", intent.IdempotencyKey, err, model.ErrAmbiguousExecution))
	}
	if state == nil {
		// Recorded as submitted but unknown to the broker: state has
		// diverged and resubmitting could double-trade.
		return nil, model.WrapStage("executor",
			fmt.Errorf("key %s recorded as %s but unknown to broker: %w",
				intent.IdempotencyKey, recorded.Status, model.ErrInvariantViolation))
	}
	return e.record(intent, state)
}

// record persists the broker outcome under the intent's key and returns the
// stored result.
func (e *Executor) record(intent model.TradeIntent, state *broker.OrderState) (*model.TradeResult, error) {
	res := &model.TradeResult{
		IdempotencyKey: intent.IdempotencyKey,
		BrokerOrderID:  state.OrderID,
		Symbol:         intent.Order.Symbol,
		Side:           intent.Order.Side,
		FillPrice:      state.FilledAvgPrice,
		FillQuantity:   state.FilledQuantity,
		Status:         state.Status,
		SubmittedAt:    state.SubmittedAt,
		UpdatedAt:      state.UpdatedAt,
	}
	if err := e.store.SaveTradeResult(res); err != nil {
		return nil, model.WrapStage("executor", err)
	}
	log.Printf("[INFO] executor: %s %s x%s recorded as %s (broker order %s)",
		res.Side, res.Symbol, res.FillQuantity.String(), res.Status, res.BrokerOrderID)
	return res, nil
}
