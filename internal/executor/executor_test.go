package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/broker"
	"SignalDesk/internal/model"
	"SignalDesk/internal/store"
)

func testIntent(key string) model.TradeIntent {
	return model.TradeIntent{
		IdempotencyKey: key,
		Order: model.SizedOrder{
			Symbol:         "AAPL",
			Side:           model.SideBuy,
			Quantity:       decimal.NewFromInt(10),
			TargetNotional: decimal.NewFromInt(1000),
		},
		CreatedAt: time.Now().UTC(),
	}
}

func newExecutor(st store.Store, br broker.Broker) *Executor {
	return New(st, br, 3, 0)
}

func TestExecute_RecordsFill(t *testing.T) {
	mem := store.NewMemoryStore()
	sim := broker.NewSim(decimal.NewFromInt(100))
	e := newExecutor(mem, sim)

	res, err := e.Execute(context.Background(), testIntent("key-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != model.StatusFilled {
		t.Errorf("expected FILLED, got %s", res.Status)
	}
	if !res.FillQuantity.Equal(decimal.NewFromInt(10)) {
		t.Errorf("fill quantity = %s, want 10", res.FillQuantity)
	}

	stored, err := mem.TradeResult("key-1")
	if err != nil || stored == nil {
		t.Fatalf("result must be durably recorded, got %v, %v", stored, err)
	}
}

func TestExecute_ReplayHitsStoreNotBroker(t *testing.T) {
	mem := store.NewMemoryStore()
	sim := broker.NewSim(decimal.NewFromInt(100))
	e := newExecutor(mem, sim)
	intent := testIntent("key-replay")

	first, err := e.Execute(context.Background(), intent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.Execute(context.Background(), intent)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.BrokerOrderID != second.BrokerOrderID {
		t.Errorf("replay returned a different order: %s vs %s", first.BrokerOrderID, second.BrokerOrderID)
	}
	if calls := sim.SubmitCalls(); calls != 1 {
		t.Errorf("replay must not touch the broker again, got %d submit calls", calls)
	}
}

func TestExecute_ConcurrentSameKeyCollapses(t *testing.T) {
	mem := store.NewMemoryStore()
	sim := broker.NewSim(decimal.NewFromInt(100))
	e := newExecutor(mem, sim)
	intent := testIntent("key-concurrent")

	const n = 8
	results := make([]*model.TradeResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Execute(context.Background(), intent)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if results[i].BrokerOrderID != results[0].BrokerOrderID {
			t.Errorf("caller %d got a different order id", i)
		}
	}
	if count := sim.OrderCount(); count != 1 {
		t.Errorf("expected exactly one broker order, got %d", count)
	}
}

func TestExecute_RetriesTransientFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	sim := broker.NewSim(decimal.NewFromInt(100))
	sim.FailSubmits(2)
	e := newExecutor(mem, sim)

	res, err := e.Execute(context.Background(), testIntent("key-retry"))
	if err != nil {
		t.Fatalf("expected recovery within retry budget: %v", err)
	}
	if res.Status != model.StatusFilled {
		t.Errorf("expected FILLED after retries, got %s", res.Status)
	}
	if calls := sim.SubmitCalls(); calls != 3 {
		t.Errorf("expected 3 submit calls (2 failures + 1 success), got %d", calls)
	}
}

func TestExecute_GivesUpAfterMaxAttempts(t *testing.T) {
	mem := store.NewMemoryStore()
	sim := broker.NewSim(decimal.NewFromInt(100))
	sim.FailSubmits(5)
	e := New(mem, sim, 2, 0)

	_, err := e.Execute(context.Background(), testIntent("key-exhausted"))
	if !errors.Is(err, model.ErrBrokerUnavailable) {
		t.Fatalf("expected ErrBrokerUnavailable after exhausting retries, got %v", err)
	}
	if stored, _ := mem.TradeResult("key-exhausted"); stored != nil {
		t.Errorf("a never-submitted intent must not be recorded, got %+v", stored)
	}
}

func TestExecute_AmbiguousOutcomeReconcilesByLookup(t *testing.T) {
	// The order lands but the response is lost. The executor must find it
	// by its idempotency reference instead of resubmitting.
	mem := store.NewMemoryStore()
	sim := broker.NewSim(decimal.NewFromInt(100))
	sim.DropResponses(1)
	e := newExecutor(mem, sim)

	res, err := e.Execute(context.Background(), testIntent("key-ambiguous"))
	if err != nil {
		t.Fatalf("reconciliation should recover the order: %v", err)
	}
	if res.Status != model.StatusFilled {
		t.Errorf("expected FILLED, got %s", res.Status)
	}
	if count := sim.OrderCount(); count != 1 {
		t.Errorf("reconciliation must not create a second order, got %d", count)
	}
}

func TestExecute_RecordedButUnknownToBroker(t *testing.T) {
	// The store says submitted, the broker has never heard of the key:
	// state has diverged and resubmission could double-trade.
	mem := store.NewMemoryStore()
	if err := mem.SaveTradeResult(&model.TradeResult{
		IdempotencyKey: "key-diverged",
		Symbol:         "AAPL",
		Side:           model.SideBuy,
		Status:         model.StatusSubmitted,
	}); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	e := newExecutor(mem, broker.NewSim(decimal.NewFromInt(100)))

	_, err := e.Execute(context.Background(), testIntent("key-diverged"))
	if !errors.Is(err, model.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestExecute_RejectsMalformedIntent(t *testing.T) {
	e := newExecutor(store.NewMemoryStore(), broker.NewSim(decimal.NewFromInt(100)))

	intent := testIntent("")
	if _, err := e.Execute(context.Background(), intent); err == nil {
		t.Error("expected error for a missing idempotency key")
	}

	zero := testIntent("key-zero")
	zero.Order.Quantity = decimal.Zero
	if _, err := e.Execute(context.Background(), zero); err == nil {
		t.Error("expected error for a zero-quantity order")
	}
}

func TestExecute_CancelledBeforeSubmission(t *testing.T) {
	mem := store.NewMemoryStore()
	sim := broker.NewSim(decimal.NewFromInt(100))
	e := newExecutor(mem, sim)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Execute(ctx, testIntent("key-cancelled")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls := sim.SubmitCalls(); calls != 0 {
		t.Errorf("cancelled intent must not reach the broker, got %d calls", calls)
	}
}

func TestNewIntent_UniqueKeys(t *testing.T) {
	order := testIntent("x").Order
	a := NewIntent(order)
	b := NewIntent(order)
	if a.IdempotencyKey == "" || a.IdempotencyKey == b.IdempotencyKey {
		t.Errorf("each decision needs its own key: %q vs %q", a.IdempotencyKey, b.IdempotencyKey)
	}
}
