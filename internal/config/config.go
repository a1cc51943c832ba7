package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"SignalDesk/internal/combiner"
	"SignalDesk/internal/pipeline"
	"SignalDesk/internal/risk"
	"SignalDesk/internal/sizer"
)

// Config holds all application configuration. Policy constants (fusion
// weights, Kelly multiplier, confidence mapping) are deliberately here and
// not hardcoded in their packages.
type Config struct {
	Symbols   []string `yaml:"symbols"`
	Benchmark string   `yaml:"benchmark"`
	Schedule  struct {
		AnalysisCron string `yaml:"analysis_cron"`
		RiskCron     string `yaml:"risk_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Broker struct {
		Mode         string `yaml:"mode"` // "sim" or "alpaca"
		SimFillPrice string `yaml:"sim_fill_price"`
	} `yaml:"broker"`
	Account struct {
		Equity string `yaml:"equity"` // static equity for sim mode, decimal string
	} `yaml:"account"`
	News struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"news"`
	Fundamentals struct {
		File string `yaml:"file"`
	} `yaml:"fundamentals"`
	Weights combiner.Weights `yaml:"weights"`
	Sizing  struct {
		KellyMultiplier      float64 `yaml:"kelly_multiplier"`
		MaxPositionFraction  float64 `yaml:"max_position_fraction"`
		MaxAggregateFraction float64 `yaml:"max_aggregate_fraction"`
		MinConfidence        float64 `yaml:"min_confidence"`
		WinSlope             float64 `yaml:"win_slope"`
		StopLossFraction     float64 `yaml:"stop_loss_fraction"`
		LotSize              string  `yaml:"lot_size"` // decimal string
	} `yaml:"sizing"`
	Risk struct {
		MaxDrawdown       float64 `yaml:"max_drawdown"`
		MaxSymbolFraction float64 `yaml:"max_symbol_fraction"`
	} `yaml:"risk"`
	Executor struct {
		MaxAttempts int `yaml:"max_attempts"`
		BackoffMS   int `yaml:"backoff_ms"`
	} `yaml:"executor"`
	Pipeline struct {
		Lookback         int     `yaml:"lookback"`
		Workers          int     `yaml:"workers"`
		PayoffRatio      float64 `yaml:"payoff_ratio"`
		NewsWindowHours  int     `yaml:"news_window_hours"`
		RegimeHysteresis int     `yaml:"regime_hysteresis"`
	} `yaml:"pipeline"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Symbols = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.Symbols = append(cfg.Symbols, s)
			}
		}
	}
	if v := os.Getenv("BENCHMARK"); v != "" {
		cfg.Benchmark = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("BROKER_MODE"); v != "" {
		cfg.Broker.Mode = v
	}
	if v := os.Getenv("ACCOUNT_EQUITY"); v != "" {
		cfg.Account.Equity = v
	}
	if v := os.Getenv("NEWS_BASE_URL"); v != "" {
		cfg.News.BaseURL = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.News.APIKey = v
	}
	if v := os.Getenv("CRON_ANALYSIS"); v != "" {
		cfg.Schedule.AnalysisCron = v
	}
	if v := os.Getenv("CRON_RISK"); v != "" {
		cfg.Schedule.RiskCron = v
	}

	// Defaults
	if cfg.Schedule.AnalysisCron == "" {
		cfg.Schedule.AnalysisCron = "0 45 9 * * 1-5" // weekdays shortly after open
	}
	if cfg.Schedule.RiskCron == "" {
		cfg.Schedule.RiskCron = "0 0 * * * *" // hourly
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/signaldesk.db"
	}
	if cfg.Broker.Mode == "" {
		cfg.Broker.Mode = "sim"
	}
	if cfg.Broker.SimFillPrice == "" {
		cfg.Broker.SimFillPrice = "100"
	}
	if cfg.Account.Equity == "" {
		cfg.Account.Equity = "100000"
	}
	if cfg.News.TimeoutSec == 0 {
		cfg.News.TimeoutSec = 10
	}
	if cfg.Weights == (combiner.Weights{}) {
		cfg.Weights = combiner.DefaultWeights()
	}
	sd := sizer.DefaultConfig()
	if cfg.Sizing.KellyMultiplier == 0 {
		cfg.Sizing.KellyMultiplier = sd.KellyMultiplier
	}
	if cfg.Sizing.MaxPositionFraction == 0 {
		cfg.Sizing.MaxPositionFraction = sd.MaxPositionFraction
	}
	if cfg.Sizing.MaxAggregateFraction == 0 {
		cfg.Sizing.MaxAggregateFraction = sd.MaxAggregateFraction
	}
	if cfg.Sizing.MinConfidence == 0 {
		cfg.Sizing.MinConfidence = sd.MinConfidence
	}
	if cfg.Sizing.WinSlope == 0 {
		cfg.Sizing.WinSlope = sd.WinSlope
	}
	if cfg.Sizing.StopLossFraction == 0 {
		cfg.Sizing.StopLossFraction = sd.StopLossFraction
	}
	if cfg.Sizing.LotSize == "" {
		cfg.Sizing.LotSize = "1"
	}
	rd := risk.DefaultLimits()
	if cfg.Risk.MaxDrawdown == 0 {
		cfg.Risk.MaxDrawdown = rd.MaxDrawdown
	}
	if cfg.Risk.MaxSymbolFraction == 0 {
		cfg.Risk.MaxSymbolFraction = rd.MaxSymbolFraction
	}
	if cfg.Executor.MaxAttempts == 0 {
		cfg.Executor.MaxAttempts = 3
	}
	if cfg.Executor.BackoffMS == 0 {
		cfg.Executor.BackoffMS = 500
	}
	pd := pipeline.DefaultConfig()
	if cfg.Pipeline.Lookback == 0 {
		cfg.Pipeline.Lookback = pd.Lookback
	}
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = pd.Workers
	}
	if cfg.Pipeline.PayoffRatio == 0 {
		cfg.Pipeline.PayoffRatio = pd.PayoffRatio
	}
	if cfg.Pipeline.NewsWindowHours == 0 {
		cfg.Pipeline.NewsWindowHours = int(pd.NewsWindow.Hours())
	}
	if cfg.Pipeline.RegimeHysteresis == 0 {
		cfg.Pipeline.RegimeHysteresis = pd.Hysteresis
	}

	return cfg, nil
}

// Validate checks that the configuration is coherent.
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols is required")
	}
	sum := c.Weights.Technical + c.Weights.Fundamental + c.Weights.Quantitative + c.Weights.Sentiment
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("weights must sum to 1.0, got %.3f", sum)
	}
	if c.Broker.Mode != "sim" && c.Broker.Mode != "alpaca" {
		return fmt.Errorf("broker.mode must be sim or alpaca, got %q", c.Broker.Mode)
	}
	if c.Sizing.KellyMultiplier <= 0 || c.Sizing.KellyMultiplier > 1 {
		return fmt.Errorf("sizing.kelly_multiplier must be in (0, 1]")
	}
	if c.Sizing.MaxPositionFraction <= 0 || c.Sizing.MaxPositionFraction > 1 {
		return fmt.Errorf("sizing.max_position_fraction must be in (0, 1]")
	}
	if c.Risk.MaxDrawdown <= 0 || c.Risk.MaxDrawdown >= 1 {
		return fmt.Errorf("risk.max_drawdown must be in (0, 1)")
	}
	if _, err := decimal.NewFromString(c.Sizing.LotSize); err != nil {
		return fmt.Errorf("sizing.lot_size: %w", err)
	}
	if _, err := decimal.NewFromString(c.Account.Equity); err != nil {
		return fmt.Errorf("account.equity: %w", err)
	}
	if _, err := decimal.NewFromString(c.Broker.SimFillPrice); err != nil {
		return fmt.Errorf("broker.sim_fill_price: %w", err)
	}
	return nil
}

// SizerConfig converts the sizing section into a sizer.Config.
func (c *Config) SizerConfig() sizer.Config {
	lot, _ := decimal.NewFromString(c.Sizing.LotSize)
	return sizer.Config{
		KellyMultiplier:      c.Sizing.KellyMultiplier,
		MaxPositionFraction:  c.Sizing.MaxPositionFraction,
		MaxAggregateFraction: c.Sizing.MaxAggregateFraction,
		MinConfidence:        c.Sizing.MinConfidence,
		WinSlope:             c.Sizing.WinSlope,
		StopLossFraction:     c.Sizing.StopLossFraction,
		LotSize:              lot,
	}
}

// RiskLimits converts the risk section into risk.Limits.
func (c *Config) RiskLimits() risk.Limits {
	lot, _ := decimal.NewFromString(c.Sizing.LotSize)
	return risk.Limits{
		MaxDrawdown:          c.Risk.MaxDrawdown,
		MaxSymbolFraction:    c.Risk.MaxSymbolFraction,
		MaxAggregateFraction: c.Sizing.MaxAggregateFraction,
		LotSize:              lot,
	}
}

// PipelineConfig converts the pipeline section into pipeline.Config.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		Lookback:    c.Pipeline.Lookback,
		Workers:     c.Pipeline.Workers,
		Benchmark:   c.Benchmark,
		PayoffRatio: c.Pipeline.PayoffRatio,
		NewsWindow:  time.Duration(c.Pipeline.NewsWindowHours) * time.Hour,
		Hysteresis:  c.Pipeline.RegimeHysteresis,
	}
}
