package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"SignalDesk/internal/broker"
	"SignalDesk/internal/config"
	"SignalDesk/internal/executor"
	"SignalDesk/internal/newsfeed"
	"SignalDesk/internal/pipeline"
	"SignalDesk/internal/provider"
	"SignalDesk/internal/risk"
	"SignalDesk/internal/scheduler"
	"SignalDesk/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] SignalDesk starting...")

	_ = godotenv.Load()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init store
	var st store.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite store failed, using in-memory: %v", err)
			st = store.NewMemoryStore()
		} else {
			st = ss
			defer ss.Close()
		}
	} else {
		st = store.NewMemoryStore()
	}

	// Init risk manager
	rm, err := risk.NewManager(st, cfg.RiskLimits())
	if err != nil {
		log.Fatalf("[FATAL] init risk manager: %v", err)
	}
	if os.Getenv("RISK_RESET") == "true" {
		log.Println("[INFO] RISK_RESET enabled, clearing any recorded halt")
		if err := rm.Reset(); err != nil {
			log.Fatalf("[FATAL] reset risk state: %v", err)
		}
	}

	// Init broker and account source
	var (
		br       broker.Broker
		accounts pipeline.Accounts
	)
	if cfg.Broker.Mode == "alpaca" {
		ab := broker.NewAlpaca(alpaca.ClientOpts{})
		br = ab
		accounts = ab
		log.Println("[INFO] broker: alpaca")
	} else {
		fill, _ := decimal.NewFromString(cfg.Broker.SimFillPrice)
		br = broker.NewSim(fill)
		equity, _ := decimal.NewFromString(cfg.Account.Equity)
		accounts = pipeline.StaticAccount{Value: equity}
		log.Printf("[INFO] broker: sim (fill %s, equity %s)", fill.String(), equity.String())
	}

	// Init market data provider
	var market provider.Provider
	bars := provider.NewAlpacaProvider(marketdata.ClientOpts{})
	if cfg.Fundamentals.File != "" {
		market = provider.Combined{
			Barser:        bars,
			Fundamentaler: provider.NewFileFundamentals(cfg.Fundamentals.File),
		}
		log.Printf("[INFO] fundamentals: %s", cfg.Fundamentals.File)
	} else {
		market = bars
		log.Println("[INFO] fundamentals: none configured")
	}

	// Init news source
	var news newsfeed.Source
	if cfg.News.BaseURL != "" {
		news = newsfeed.NewClient(cfg.News.BaseURL, cfg.News.APIKey, time.Duration(cfg.News.TimeoutSec)*time.Second)
		log.Printf("[INFO] news feed: %s", cfg.News.BaseURL)
	} else {
		news = newsfeed.Empty{}
		log.Println("[INFO] news feed: none configured")
	}

	// Init executor and pipeline
	exec := executor.New(st, br, cfg.Executor.MaxAttempts, time.Duration(cfg.Executor.BackoffMS)*time.Millisecond)
	pipe := pipeline.New(market, news, accounts, cfg.Weights, cfg.SizerConfig(), rm, exec, st, cfg.PipelineConfig())

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, pipe, rm, accounts, cfg.Symbols)
	if err := sched.RegisterAll(cfg.Schedule.AnalysisCron, cfg.Schedule.RiskCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing analysis cycle now")
		go sched.RunAnalysisNow()
	}

	log.Println("[INFO] SignalDesk is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] SignalDesk stopped")
}
