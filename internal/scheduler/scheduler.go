package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"SignalDesk/internal/pipeline"
	"SignalDesk/internal/report"
	"SignalDesk/internal/risk"
)

// Scheduler runs the analysis and risk-review cycles on cron schedules.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline *pipeline.Pipeline
	Risk     *risk.Manager
	Accounts pipeline.Accounts
	Symbols  []string
	Ctx      context.Context
}

// NewScheduler creates a Scheduler with second-granularity cron parsing.
func NewScheduler(ctx context.Context, p *pipeline.Pipeline, rm *risk.Manager, accounts pipeline.Accounts, symbols []string) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: p,
		Risk:     rm,
		Accounts: accounts,
		Symbols:  symbols,
		Ctx:      ctx,
	}
}

// RegisterAll registers the analysis and risk-review tasks.
func (s *Scheduler) RegisterAll(analysisCron, riskCron string) error {
	if _, err := s.Cron.AddFunc(analysisCron, s.analysisTask); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	if _, err := s.Cron.AddFunc(riskCron, s.riskReviewTask); err != nil {
		return fmt.Errorf("register risk review task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunAnalysisNow executes the analysis cycle immediately (manual trigger /
// RUN_ON_START).
func (s *Scheduler) RunAnalysisNow() {
	s.analysisTask()
}

func (s *Scheduler) analysisTask() {
	log.Printf("[INFO] running analysis cycle over %d symbols", len(s.Symbols))
	s.Pipeline.RunCycle(s.Ctx, s.Symbols)
	log.Println("[INFO] analysis cycle complete")
}

// riskReviewTask marks equity against the drawdown limit outside of trade
// flow, so a bleeding account halts even when no signals fire.
func (s *Scheduler) riskReviewTask() {
	log.Println("[INFO] running risk review")
	equity, err := s.Accounts.Equity(s.Ctx)
	if err != nil {
		log.Printf("[ERROR] risk review equity fetch: %v", err)
		return
	}
	if err := s.Risk.ObserveEquity(equity); err != nil {
		log.Printf("[ERROR] risk review: %v", err)
	}
	log.Printf("[INFO] %s", report.FormatRiskState(s.Risk.State()))
}
