// Package screener runs the screening pipeline over an instrument
// universe: classify the benchmark regime once, evaluate every instrument
// in parallel shards, and rank the survivors by composite score.
package screener

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quantrill/stockscreen/internal/logger"
	"github.com/quantrill/stockscreen/internal/market"
	"github.com/quantrill/stockscreen/internal/strategy"
	"github.com/quantrill/stockscreen/internal/types"
	"github.com/quantrill/stockscreen/pkg/errors"
)

// Candidate is one instrument that fired a buy signal on its latest bar.
type Candidate struct {
	Symbol string    `yaml:"symbol"`
	Date   time.Time `yaml:"date"`
	Close  float64   `yaml:"close"`
	Score  float64   `yaml:"score"`
}

// Report is the outcome of one screening run: the ranked top-N candidates
// and the instruments that could not be evaluated.
type Report struct {
	Candidates []Candidate     `yaml:"candidates"`
	Skipped    []types.Skipped `yaml:"skipped"`
	Evaluated  int             `yaml:"evaluated"`
}

// Screener evaluates a universe against one strategy config.
type Screener struct {
	cfg     strategy.Config
	logger  *logger.Logger
	workers int
}

// New creates a screener. workers <= 0 means one worker per CPU.
func New(cfg strategy.Config, log *logger.Logger, workers int) *Screener {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Screener{
		cfg:     cfg,
		logger:  log,
		workers: workers,
	}
}

// shardResult is what one worker hands back. Workers never touch shared
// state; the merge happens after the group finishes.
type shardResult struct {
	candidates []Candidate
	skipped    []types.Skipped
}

// Screen evaluates every instrument's most recent bar and returns the
// ranked report. A nil benchmark disables the regime gate. Per-instrument
// failures are isolated into the skip report; only infrastructure failures
// abort the run.
func (s *Screener) Screen(ctx context.Context, universe []*types.History, benchmark *types.History) (*Report, error) {
	favorable := strategy.AlwaysFavorable

	if benchmark != nil {
		regimeCfg := market.RegimeConfig{Strict: s.cfg.StrictRegime, VolumeFloor: 0.8}

		series, err := market.Classify(benchmark, regimeCfg)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeSignalEvaluation, "failed to classify benchmark regime", err)
		}

		favorable = market.Lookup(benchmark, series)
	}

	shards := shard(universe, s.workers)
	results := make([]shardResult, len(shards))

	group, ctx := errgroup.WithContext(ctx)
	for idx, instruments := range shards {
		group.Go(func() error {
			results[idx] = s.evaluateShard(ctx, instruments, favorable)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	for _, res := range results {
		report.Candidates = append(report.Candidates, res.candidates...)
		report.Skipped = append(report.Skipped, res.skipped...)
	}

	report.Evaluated = len(universe)

	rank(report.Candidates)
	if len(report.Candidates) > s.cfg.TopN {
		report.Candidates = report.Candidates[:s.cfg.TopN]
	}

	sort.Slice(report.Skipped, func(i, j int) bool {
		return report.Skipped[i].Symbol < report.Skipped[j].Symbol
	})

	s.logger.Info("screening finished",
		zap.Int("universe", len(universe)),
		zap.Int("candidates", len(report.Candidates)),
		zap.Int("skipped", len(report.Skipped)))

	return report, nil
}

func (s *Screener) evaluateShard(ctx context.Context, instruments []*types.History, favorable strategy.RegimeLookup) shardResult {
	var res shardResult

	for _, history := range instruments {
		if ctx.Err() != nil {
			return res
		}

		candidate, skip := s.evaluateOne(history, favorable)
		if skip != nil {
			res.skipped = append(res.skipped, *skip)

			continue
		}

		if candidate != nil {
			res.candidates = append(res.candidates, *candidate)
		}
	}

	return res
}

// evaluateOne screens a single instrument's latest bar. A panic or error
// in one instrument's evaluation must never abort the run, so failures
// come back as skip records.
func (s *Screener) evaluateOne(history *types.History, favorable strategy.RegimeLookup) (candidate *Candidate, skip *types.Skipped) {
	symbol := ""
	if history != nil {
		symbol = history.Symbol
	}

	defer func() {
		if r := recover(); r != nil {
			candidate = nil
			skip = &types.Skipped{Symbol: symbol, Reason: fmt.Sprintf("evaluation panicked: %v", r)}
		}
	}()

	if history == nil || history.Len() == 0 {
		return nil, &types.Skipped{Symbol: symbol, Reason: "no bars"}
	}

	if err := validateBars(history); err != nil {
		return nil, &types.Skipped{Symbol: symbol, Reason: err.Error()}
	}

	ev, err := strategy.NewEvaluator(s.cfg, history, favorable)
	if err != nil {
		return nil, &types.Skipped{Symbol: symbol, Reason: err.Error()}
	}

	last := history.Len() - 1
	if !ev.BuyAt(last) {
		return nil, nil
	}

	return &Candidate{
		Symbol: symbol,
		Date:   history.Bars[last].Date,
		Close:  history.Bars[last].Close,
		Score:  ev.Score(last),
	}, nil
}

// validateBars fails fast on malformed instrument data: zero-value fields
// where a price is mandatory, or out-of-order dates.
func validateBars(history *types.History) error {
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

// rank sorts candidates by score descending, breaking ties by symbol so a
// run is deterministic.
func rank(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}

		return candidates[i].Symbol < candidates[j].Symbol
	})
}

// shard partitions the universe round-robin into at most n shards.
func shard(universe []*types.History, n int) [][]*types.History {
	if n > len(universe) {
		n = len(universe)
	}

	if n <= 0 {
		return nil
	}

	shards := make([][]*types.History, n)
	for i, history := range universe {
		shards[i%n] = append(shards[i%n], history)
	}

	return shards
}
