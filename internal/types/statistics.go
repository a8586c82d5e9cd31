package types

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// PerformanceSummary holds the headline statistics of one backtest run.
// Rates are fractional (0.12 means 12%).
type PerformanceSummary struct {
	InitialCapital   float64 `yaml:"initial_capital"`
	FinalValue       float64 `yaml:"final_value"`
	TotalReturn      float64 `yaml:"total_return"`
	AnnualizedReturn float64 `yaml:"annualized_return"`
	MaxDrawdown      float64 `yaml:"max_drawdown"`
	SharpeRatio      float64 `yaml:"sharpe_ratio"`
	WinRate          float64 `yaml:"win_rate"`
	TotalTrades      int     `yaml:"total_trades"`
	WinningTrades    int     `yaml:"winning_trades"`
	LosingTrades     int     `yaml:"losing_trades"`
	AvgHoldingDays   float64 `yaml:"avg_holding_days"`
	TradingDays      int     `yaml:"trading_days"`
	// BenchmarkReturn is the buy-and-hold return of the benchmark index
	// over the same window, when benchmark bars were supplied.
	BenchmarkReturn float64 `yaml:"benchmark_return"`
	StartDate       string  `yaml:"start_date"`
	EndDate         string  `yaml:"end_date"`
}

// DailyValue is one point of the portfolio equity curve, marked at the
// close of a simulated trading day.
type DailyValue struct {
	Date          time.Time `yaml:"date" csv:"date"`
	Value         float64   `yaml:"value" csv:"value"`
	Cash          float64   `yaml:"cash" csv:"cash"`
	PositionCount int       `yaml:"position_count" csv:"position_count"`
}

// Skipped records an instrument excluded from a run, with the reason
// (short history, unordered bars, evaluation failure).
type Skipped struct {
	Symbol string `yaml:"symbol"`
	Reason string `yaml:"reason"`
}

// RunResult bundles everything a backtest run produces for reporting.
type RunResult struct {
	Summary PerformanceSummary `yaml:"summary"`
	Trades  []Trade            `yaml:"trades"`
	Equity  []DailyValue       `yaml:"equity_curve"`
	Skipped []Skipped          `yaml:"skipped"`
}

// WritePerformanceSummary writes the run summary to a YAML file, creating
// parent directories as needed.
func WritePerformanceSummary(summary PerformanceSummary, path string) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// WriteRunResult writes the full run result (summary, trades, equity curve
// and skip report) to a YAML file.
func WriteRunResult(result RunResult, path string) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
