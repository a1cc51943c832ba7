package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"SignalDesk/internal/combiner"
	"SignalDesk/internal/executor"
	"SignalDesk/internal/fundamental"
	"SignalDesk/internal/indicator"
	"SignalDesk/internal/model"
	"SignalDesk/internal/newsfeed"
	"SignalDesk/internal/provider"
	"SignalDesk/internal/quant"
	"SignalDesk/internal/regime"
	"SignalDesk/internal/risk"
	"SignalDesk/internal/sentiment"
	"SignalDesk/internal/sizer"
	"SignalDesk/internal/store"
)

// Accounts exposes the account equity snapshot used for sizing.
type Accounts interface {
	Equity(ctx context.Context) (decimal.Decimal, error)
}

// StaticAccount reports a fixed equity, used for paper trading.
type StaticAccount struct {
	Value decimal.Decimal
}

func (a StaticAccount) Equity(context.Context) (decimal.Decimal, error) {
	return a.Value, nil
}

// Config holds the per-cycle pipeline knobs.
type Config struct {
	Lookback    int           // bars fetched per symbol
	Workers     int           // parallel symbol workers
	Benchmark   string        // benchmark symbol for beta, empty disables
	PayoffRatio float64       // historical payoff estimate for Kelly sizing
	NewsWindow  time.Duration // how far back to pull news
	Hysteresis  int           // consecutive evaluations before a regime flips
}

// DefaultConfig returns the default pipeline knobs.
func DefaultConfig() Config {
	return Config{
		Lookback:    120,
		Workers:     4,
		PayoffRatio: 2.0,
		NewsWindow:  72 * time.Hour,
		Hysteresis:  2,
	}
}

// Pipeline runs the full decision path for one symbol: fetch, fan-out the
// four evaluators, fan-in, combine, size, risk-check, execute. Evaluators
// are pure, so they run concurrently over disjoint inputs and join at a
// barrier before the combiner.
type Pipeline struct {
	market   provider.Provider
	news     newsfeed.Source
	accounts Accounts
	weights  combiner.Weights
	sizing   sizer.Config
	riskMgr  *risk.Manager
	exec     *executor.Executor
	store    store.Store
	cfg      Config

	mu             sync.Mutex
	detectors      map[string]*regime.Detector
	symbolExposure map[string]decimal.Decimal
}

// New wires a Pipeline.
func New(market provider.Provider, news newsfeed.Source, accounts Accounts,
	weights combiner.Weights, sizing sizer.Config, riskMgr *risk.Manager,
	exec *executor.Executor, st store.Store, cfg Config) *Pipeline {

	if cfg.Lookback < indicator.MinBars {
		cfg.Lookback = indicator.MinBars
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Pipeline{
		market:         market,
		news:           news,
		accounts:       accounts,
		weights:        weights,
		sizing:         sizing,
		riskMgr:        riskMgr,
		exec:           exec,
		store:          st,
		cfg:            cfg,
		detectors:      make(map[string]*regime.Detector),
		symbolExposure: make(map[string]decimal.Decimal),
	}
}

// analysis is the intermediate product of Analyze: the fused signal plus
// the last close, which sizing needs as the entry price.
type analysis struct {
	signal    *model.OverallSignal
	lastClose decimal.Decimal
}

// Analyze produces the fused OverallSignal for one symbol and records it in
// the decision log. Per-evaluator failures become unavailable sources and
// the combiner renormalizes; only a failed bar fetch fails the symbol.
func (p *Pipeline) Analyze(ctx context.Context, symbol string) (*model.OverallSignal, error) {
	a, err := p.analyze(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return a.signal, nil
}

func (p *Pipeline) analyze(ctx context.Context, symbol string) (*analysis, error) {
	bars, err := p.market.Bars(ctx, symbol, p.cfg.Lookback)
	if err != nil {
		return nil, model.WrapStage("marketdata", fmt.Errorf("%s: %w", symbol, err))
	}
	if err := provider.ValidateBars(symbol, bars); err != nil {
		return nil, model.WrapStage("marketdata", err)
	}

	var benchmark []model.Bar
	if p.cfg.Benchmark != "" && p.cfg.Benchmark != symbol {
		benchmark, err = p.market.Bars(ctx, p.cfg.Benchmark, p.cfg.Lookback)
		if err != nil {
			log.Printf("[WARN] benchmark %s unavailable, beta disabled: %v", p.cfg.Benchmark, err)
			benchmark = nil
		}
	}

	now := time.Now().UTC()

	// Fan-out: the four evaluators are pure functions over disjoint
	// inputs. They join here before the combiner runs.
	verdicts := make([]model.SourceVerdict, 4)
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		v, err := indicator.Evaluate(bars)
		verdicts[0] = model.SourceVerdict{Source: model.SourceTechnical, Verdict: v, Err: model.WrapStage("technical", err)}
	}()
	go func() {
		defer wg.Done()
		snap, err := p.market.Fundamentals(ctx, symbol)
		if err != nil {
			verdicts[1] = model.SourceVerdict{Source: model.SourceFundamental, Err: model.WrapStage("fundamental", err)}
			return
		}
		v, err := fundamental.Evaluate(snap)
		if err != nil && !errors.Is(err, model.ErrPartialData) {
			verdicts[1] = model.SourceVerdict{Source: model.SourceFundamental, Err: model.WrapStage("fundamental", err)}
			return
		}
		if err != nil {
			log.Printf("[WARN] fundamental %s: %v", symbol, err)
		}
		verdicts[1] = model.SourceVerdict{Source: model.SourceFundamental, Verdict: v}
	}()
	go func() {
		defer wg.Done()
		v, err := quant.Evaluate(bars, benchmark)
		verdicts[2] = model.SourceVerdict{Source: model.SourceQuantitative, Verdict: v, Err: model.WrapStage("quantitative", err)}
	}()
	go func() {
		defer wg.Done()
		items, err := p.news.News(ctx, symbol, now.Add(-p.cfg.NewsWindow))
		if err != nil {
			verdicts[3] = model.SourceVerdict{Source: model.SourceSentiment, Err: model.WrapStage("sentiment", err)}
			return
		}
		verdicts[3] = model.SourceVerdict{Source: model.SourceSentiment, Verdict: sentiment.Evaluate(items, now)}
	}()
	wg.Wait()

	for _, sv := range verdicts {
		if !sv.Available() {
			log.Printf("[WARN] %s source unavailable for %s: %v", sv.Source, symbol, sv.Err)
		}
	}

	currentRegime, err := p.detector(symbol).Observe(bars)
	if err != nil {
		return nil, model.WrapStage("regime", fmt.Errorf("%s: %w", symbol, err))
	}

	sig, err := combiner.Combine(symbol, verdicts, currentRegime, p.weights, now)
	if err != nil {
		return nil, err
	}

	if err := p.store.RecordDecision(sig); err != nil {
		log.Printf("[ERROR] record decision for %s: %v", symbol, err)
	}

	log.Printf("[INFO] %s: %s (score %+.2f, confidence %.2f, regime %s)",
		symbol, sig.Signal, sig.Score, sig.Confidence, sig.Regime)
	return &analysis{signal: sig, lastClose: bars[len(bars)-1].Close}, nil
}

// Decide runs analysis through sizing, risk approval and execution,
// returning the fused signal and the trade result (nil when no trade was
// warranted).
func (p *Pipeline) Decide(ctx context.Context, symbol string) (*model.OverallSignal, *model.TradeResult, error) {
	a, err := p.analyze(ctx, symbol)
	if err != nil {
		return nil, nil, err
	}
	sig := a.signal

	equity, err := p.accounts.Equity(ctx)
	if err != nil {
		return sig, nil, model.WrapStage("accounts", err)
	}
	if err := p.riskMgr.ObserveEquity(equity); err != nil {
		return sig, nil, err
	}

	riskState := p.riskMgr.State()
	order, err := p.sizing.Size(sig, sizer.Account{
		Equity:       equity,
		OpenExposure: riskState.CurrentExposure,
	}, sizer.Estimate{PayoffRatio: p.cfg.PayoffRatio}, a.lastClose)
	if err != nil {
		return sig, nil, err
	}
	if order.IsZero() {
		log.Printf("[INFO] %s: no trade (signal %s, confidence %.2f)", symbol, sig.Signal, sig.Confidence)
		return sig, nil, nil
	}

	approved, err := p.riskMgr.Approve(order, equity, p.exposureFor(symbol))
	if err != nil {
		return sig, nil, err
	}
	if approved.IsZero() {
		return sig, nil, nil
	}

	intent := executor.NewIntent(approved)
	result, err := p.exec.Execute(ctx, intent)
	if err != nil {
		if errors.Is(err, model.ErrInvariantViolation) {
			if haltErr := p.riskMgr.Halt(fmt.Sprintf("execution invariant violation for %s: %v", symbol, err)); haltErr != nil {
				log.Printf("[ERROR] halt after invariant violation: %v", haltErr)
			}
		}
		return sig, nil, err
	}

	if result.Status == model.StatusFilled || result.Status == model.StatusPartiallyFilled {
		filled := result.FillQuantity.Mul(result.FillPrice)
		if err := p.riskMgr.AddExposure(filled); err != nil {
			log.Printf("[ERROR] record exposure for %s: %v", symbol, err)
		}
		p.addExposure(symbol, filled)
	}
	return sig, result, nil
}

// RunCycle analyzes and decides every symbol using a bounded worker pool.
// A failing symbol is logged and skipped; the rest of the cycle continues.
func (p *Pipeline) RunCycle(ctx context.Context, symbols []string) {
	jobs := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < p.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				if _, _, err := p.Decide(ctx, symbol); err != nil {
					switch {
					case errors.Is(err, model.ErrTradingHalted):
						log.Printf("[WARN] %s: %v", symbol, err)
					case errors.Is(err, model.ErrInsufficientData):
						log.Printf("[WARN] %s skipped: %v", symbol, err)
					default:
						log.Printf("[ERROR] %s: %v", symbol, err)
					}
				}
			}
		}()
	}

	for _, s := range symbols {
		jobs <- s
	}
	close(jobs)
	wg.Wait()
}

func (p *Pipeline) detector(symbol string) *regime.Detector {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.detectors[symbol]
	if !ok {
		d = regime.NewDetector(p.cfg.Hysteresis)
		p.detectors[symbol] = d
	}
	return d
}

func (p *Pipeline) exposureFor(symbol string) decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.symbolExposure[symbol]
}

func (p *Pipeline) addExposure(symbol string, notional decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.symbolExposure[symbol] = p.symbolExposure[symbol].Add(notional)
}
