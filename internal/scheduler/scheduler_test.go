package scheduler

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/broker"
	"SignalDesk/internal/combiner"
	"SignalDesk/internal/executor"
	"SignalDesk/internal/model"
	"SignalDesk/internal/newsfeed"
	"SignalDesk/internal/pipeline"
	"SignalDesk/internal/risk"
	"SignalDesk/internal/sizer"
	"SignalDesk/internal/store"
)

// stubMarket has no data at all; scheduler tests only exercise cron wiring.
type stubMarket struct{}

func (stubMarket) Bars(_ context.Context, symbol string, _ int) ([]model.Bar, error) {
	return nil, fmt.Errorf("no bars for %s: %w", symbol, model.ErrInsufficientData)
}

func (stubMarket) Fundamentals(_ context.Context, symbol string) (*model.FundamentalsSnapshot, error) {
	return nil, fmt.Errorf("no fundamentals for %s: %w", symbol, model.ErrInsufficientData)
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	mem := store.NewMemoryStore()
	rm, err := risk.NewManager(mem, risk.DefaultLimits())
	if err != nil {
		t.Fatalf("risk manager: %v", err)
	}
	accounts := pipeline.StaticAccount{Value: decimal.NewFromInt(100000)}
	exec := executor.New(mem, broker.NewSim(decimal.NewFromInt(100)), 3, 0)
	p := pipeline.New(stubMarket{}, newsfeed.Empty{}, accounts, combiner.DefaultWeights(),
		sizer.DefaultConfig(), rm, exec, mem, pipeline.DefaultConfig())
	return NewScheduler(context.Background(), p, rm, accounts, []string{"AAPL"})
}

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler(t)
	if err := s.RegisterAll("0 45 9 * * 1-5", "0 0 * * * *"); err != nil {
		t.Fatalf("valid cron specs rejected: %v", err)
	}
	if got := len(s.Cron.Entries()); got != 2 {
		t.Errorf("expected 2 registered entries, got %d", got)
	}
}

func TestRegisterAll_BadSpec(t *testing.T) {
	s := newTestScheduler(t)
	if err := s.RegisterAll("not a cron", "0 0 * * * *"); err == nil {
		t.Error("invalid analysis cron spec must be rejected")
	}
	s = newTestScheduler(t)
	if err := s.RegisterAll("0 45 9 * * 1-5", "also not a cron"); err == nil {
		t.Error("invalid risk cron spec must be rejected")
	}
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(t)
	if err := s.RegisterAll("0 0 0 1 1 *", "0 0 0 1 1 *"); err != nil {
		t.Fatalf("register: %v", err)
	}
	s.Start()
	s.Stop()
}
