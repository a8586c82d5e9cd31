// The first engine version: a single-pass portfolio simulator over a
// globally sorted date axis, with a DuckDB trade ledger.
package engine

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/quantrill/stockscreen/internal/backtest/engine"
	"github.com/quantrill/stockscreen/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/quantrill/stockscreen/internal/logger"
	"github.com/quantrill/stockscreen/internal/market"
	"github.com/quantrill/stockscreen/internal/strategy"
	"github.com/quantrill/stockscreen/internal/types"
	"github.com/quantrill/stockscreen/internal/utils"
	"github.com/quantrill/stockscreen/pkg/errors"
)

// BacktestEngineV1 walks every trading date in ascending order, executing
// sells before buys so capital frees deterministically, and values the
// portfolio at each close. One instance runs one simulation.
type BacktestEngineV1 struct {
	config      Config
	initialized bool
	logger      *logger.Logger
	fee         commission_fee.CommissionFee
	benchmark   *types.History
	instruments map[string]*types.History
	onProgress  engine.OnProgress
}

// NewBacktestEngineV1 creates an engine with the A-share fee model.
func NewBacktestEngineV1(log *logger.Logger) *BacktestEngineV1 {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		logger:      log,
		fee:         commission_fee.NewAShareCommissionFee(),
		instruments: make(map[string]*types.History),
	}
}

var _ engine.Engine = (*BacktestEngineV1)(nil)

// Initialize parses the YAML config.
func (b *BacktestEngineV1) Initialize(config string) error {
	cfg, err := ParseConfig([]byte(config))
	if err != nil {
		return err
	}

	b.config = cfg
	b.initialized = true

	return nil
}

// SetConfig installs an already-built config, for programmatic callers.
func (b *BacktestEngineV1) SetConfig(cfg Config) {
	b.config = cfg
	b.initialized = true
}

// SetCommissionFee overrides the fee model.
func (b *BacktestEngineV1) SetCommissionFee(fee commission_fee.CommissionFee) {
	b.fee = fee
}

// SetBenchmark provides the benchmark history for the regime gate and the
// benchmark return.
func (b *BacktestEngineV1) SetBenchmark(history *types.History) {
	b.benchmark = history
}

// AddInstrument registers one instrument for the run.
func (b *BacktestEngineV1) AddInstrument(history *types.History) error {
	if history == nil || history.Symbol == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "instrument history needs a symbol")
	}

	b.instruments[history.Symbol] = history

	return nil
}

// SetProgressCallback registers a progress observer.
func (b *BacktestEngineV1) SetProgressCallback(cb engine.OnProgress) {
	b.onProgress = cb
}

// holding pairs an open position with the evaluator that opened it.
type holding struct {
	pos       *types.Position
	entryCost float64
}

// instrumentRun is one instrument's prepared simulation input.
type instrumentRun struct {
	history   *types.History
	evaluator *strategy.Evaluator
	byDate    map[time.Time]int
	lastClose float64
}

// Run executes the simulation.
func (b *BacktestEngineV1) Run(ctx context.Context) (*types.RunResult, error) {
	if !b.initialized {
		return nil, errors.New(errors.ErrCodeBacktestState, "engine is not initialized")
	}

	if len(b.instruments) == 0 {
		return nil, errors.New(errors.ErrCodeNoDataFound, "no instruments registered")
	}

	state, err := NewBacktestState(b.logger)
	if err != nil {
		return nil, err
	}
	defer state.Close()

	if err := state.Initialize(); err != nil {
		return nil, err
	}

	favorable, err := b.classifyRegime()
	if err != nil {
		return nil, err
	}

	runs, skipped := b.prepare(favorable)

	dates := b.dateAxis(runs)
	if len(dates) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidDateRange, "no trading dates inside the configured window")
	}

	symbols := make([]string, 0, len(runs))
	for symbol := range runs {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	cash := b.config.InitialCapital
	holdings := make(map[string]*holding)
	equity := make([]types.DailyValue, 0, len(dates))

	for step, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestState, "run cancelled", err)
		}

		// Sells first: freed capital is available to the same date's buys.
		for _, symbol := range symbols {
			proceeds, err := b.stepSell(state, runs[symbol], holdings, symbol, date)
			if err != nil {
				return nil, err
			}

			cash += proceeds
		}

		for _, symbol := range symbols {
			spent, err := b.stepBuy(state, runs[symbol], holdings, symbol, date, cash)
			if err != nil {
				return nil, err
			}

			cash -= spent
		}

		dv := b.markToMarket(runs, holdings, symbols, date, cash)

		equity = append(equity, dv)
		if err := state.RecordDailyValue(dv); err != nil {
			return nil, err
		}

		if b.onProgress != nil {
			b.onProgress(step+1, len(dates))
		}
	}

	return b.finish(state, equity, skipped)
}

func (b *BacktestEngineV1) classifyRegime() (strategy.RegimeLookup, error) {
	if b.benchmark == nil {
		return strategy.AlwaysFavorable, nil
	}

	regimeCfg := market.RegimeConfig{Strict: b.config.Strategy.StrictRegime, VolumeFloor: 0.8}

	series, err := market.Classify(b.benchmark, regimeCfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSignalEvaluation, "failed to classify benchmark regime", err)
	}

	return market.Lookup(b.benchmark, series), nil
}

// prepare builds evaluators and date indexes per instrument. Failures are
// isolated into the skip report; the run continues for the rest.
func (b *BacktestEngineV1) prepare(favorable strategy.RegimeLookup) (map[string]*instrumentRun, []types.Skipped) {
	runs := make(map[string]*instrumentRun, len(b.instruments))

	var skipped []types.Skipped

	for symbol, history := range b.instruments {
		if history.Len() == 0 {
			skipped = append(skipped, types.Skipped{Symbol: symbol, Reason: "no bars"})

			continue
		}

		if err := validateHistory(history); err != nil {
			skipped = append(skipped, types.Skipped{Symbol: symbol, Reason: err.Error()})

			continue
		}

		ev, err := strategy.NewEvaluator(b.config.Strategy, history, favorable)
		if err != nil {
			skipped = append(skipped, types.Skipped{Symbol: symbol, Reason: err.Error()})

			continue
		}

		byDate := make(map[time.Time]int, history.Len())
		for i, bar := range history.Bars {
			byDate[dateKey(bar.Date)] = i
		}

		runs[symbol] = &instrumentRun{
			history:   history,
			evaluator: ev,
			byDate:    byDate,
		}
	}

	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Symbol < skipped[j].Symbol })

	return runs, skipped
}

// dateAxis is the sorted union of every instrument's dates inside the
// configured window.
func (b *BacktestEngineV1) dateAxis(runs map[string]*instrumentRun) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, run := range runs {
		for _, bar := range run.history.Bars {
			date := dateKey(bar.Date)
			if b.inWindow(date) {
				seen[date] = struct{}{}
			}
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return dates
}

func (b *BacktestEngineV1) inWindow(date time.Time) bool {
	if start, err := b.config.StartTime.Take(); err == nil && date.Before(dateKey(start)) {
		return false
	}

	if end, err := b.config.EndTime.Take(); err == nil && date.After(dateKey(end)) {
		return false
	}

	return true
}

// stepSell marks the open position with the date's bar and executes a sell
// if any exit condition fires. Returns the cash proceeds. A missing bar
// leaves the position untouched for the day.
func (b *BacktestEngineV1) stepSell(state *BacktestState, run *instrumentRun, holdings map[string]*holding, symbol string, date time.Time) (float64, error) {
	h, open := holdings[symbol]
	if !open {
		return 0, nil
	}

	idx, hasBar := run.byDate[date]
	if !hasBar {
		return 0, nil
	}

	bar := run.history.Bars[idx]
	if bar.Date.After(h.pos.EntryDate) {
		h.pos.MarkBar(bar.High)
	}

	fire, reason := run.evaluator.ShouldSell(h.pos, idx)
	if !fire {
		return 0, nil
	}

	gross := h.pos.Quantity * bar.Close
	fee := b.fee.SellFee(gross)
	proceeds := gross - fee
	profit := h.pos.RealizedProfit(proceeds)

	profitRate := 0.0
	if h.entryCost > 0 {
		profitRate = profit / h.entryCost
	}

	trade := types.Trade{
		Symbol:         symbol,
		Side:           types.PurchaseTypeSell,
		Date:           bar.Date,
		Price:          bar.Close,
		Quantity:       h.pos.Quantity,
		Amount:         proceeds,
		Fee:            fee,
		Reason:         reason,
		RealizedProfit: profit,
		ProfitRate:     profitRate,
		HoldingDays:    h.pos.BarsHeld,
	}

	if _, err := state.RecordTrade(trade); err != nil {
		return 0, err
	}

	delete(holdings, symbol)

	b.logger.Debug("sell executed",
		zap.String("symbol", symbol),
		zap.Time("date", bar.Date),
		zap.String("reason", reason),
		zap.Float64("profit", profit))

	return proceeds, nil
}

// stepBuy opens a position when the buy signal fires and cash allows.
// Returns the cash spent. Insufficient cash skips the trade silently.
func (b *BacktestEngineV1) stepBuy(state *BacktestState, run *instrumentRun, holdings map[string]*holding, symbol string, date time.Time, cash float64) (float64, error) {
	if _, open := holdings[symbol]; open {
		return 0, nil
	}

	idx, hasBar := run.byDate[date]
	if !hasBar {
		return 0, nil
	}

	if !run.evaluator.BuyAt(idx) {
		return 0, nil
	}

	bar := run.history.Bars[idx]

	quantity := utils.AffordableQuantity(b.config.PositionSize, bar.Close, cash, b.fee.BuyFee)
	if quantity == 0 {
		return 0, nil
	}

	gross := quantity * bar.Close
	fee := b.fee.BuyFee(gross)
	cost := gross + fee

	trade := types.Trade{
		Symbol:   symbol,
		Side:     types.PurchaseTypeBuy,
		Date:     bar.Date,
		Price:    bar.Close,
		Quantity: quantity,
		Amount:   cost,
		Fee:      fee,
		Reason:   types.ReasonBuySignal,
	}

	if _, err := state.RecordTrade(trade); err != nil {
		return 0, err
	}

	holdings[symbol] = &holding{
		pos: &types.Position{
			Symbol:         symbol,
			EntryDate:      bar.Date,
			EntryPrice:     bar.Close,
			Quantity:       quantity,
			EntryCost:      cost,
			HighSinceEntry: bar.High,
		},
		entryCost: cost,
	}

	b.logger.Debug("buy executed",
		zap.String("symbol", symbol),
		zap.Time("date", bar.Date),
		zap.Float64("quantity", quantity),
		zap.Float64("cost", cost))

	return cost, nil
}

// markToMarket values the portfolio at the date's closes. An instrument
// without a bar on the date carries its last known close forward for
// valuation only; signals never see carried prices.
func (b *BacktestEngineV1) markToMarket(runs map[string]*instrumentRun, holdings map[string]*holding, symbols []string, date time.Time, cash float64) types.DailyValue {
	value := cash

	for _, symbol := range symbols {
		run := runs[symbol]
		if idx, ok := run.byDate[date]; ok {
			run.lastClose = run.history.Bars[idx].Close
		}

		if h, open := holdings[symbol]; open && run.lastClose > 0 {
			value += h.pos.Quantity * run.lastClose
		}
	}

	return types.DailyValue{
		Date:          date,
		Value:         value,
		Cash:          cash,
		PositionCount: len(holdings),
	}
}

func (b *BacktestEngineV1) finish(state *BacktestState, equity []types.DailyValue, skipped []types.Skipped) (*types.RunResult, error) {
	trades, err := state.GetAllTrades()
	if err != nil {
		return nil, err
	}

	outcome, err := state.GetTradeOutcome()
	if err != nil {
		return nil, err
	}

	result := &types.RunResult{
		Summary: computeSummary(b.config, equity, outcome, len(trades), b.benchmark),
		Trades:  trades,
		Equity:  equity,
		Skipped: skipped,
	}

	if b.config.ResultsFolder != "" {
		if err := state.Write(b.config.ResultsFolder); err != nil {
			return nil, err
		}

		summaryPath := filepath.Join(b.config.ResultsFolder, "summary.yaml")
		if err := types.WritePerformanceSummary(result.Summary, summaryPath); err != nil {
			return nil, errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to write summary", err)
		}
	}

	b.logger.Info("backtest finished",
		zap.Int("trades", len(trades)),
		zap.Int("trading_days", len(equity)),
		zap.Float64("final_value", result.Summary.FinalValue),
		zap.Float64("total_return", result.Summary.TotalReturn))

	return result, nil
}

// validateHistory rejects instruments with unordered bars or missing
// closes before the evaluators see them.
func validateHistory(history *types.History) error {
	for i, bar := range history.Bars {
		if bar.Close == 0 {
			return errors.Newf(errors.ErrCodeMissingColumn, "bar %d has no close price", i)
		}

		if i > 0 && !bar.Date.After(history.Bars[i-1].Date) {
			return errors.Newf(errors.ErrCodeUnorderedBars, "bar %d is not after its predecessor", i)
		}
	}

	return nil
}

func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
