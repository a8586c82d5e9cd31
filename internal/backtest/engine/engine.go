// Package engine defines the backtest engine boundary. Engine versions
// live in subpackages; callers program against this interface.
package engine

import (
	"context"

	"github.com/quantrill/stockscreen/internal/types"
)

// OnProgress reports simulation progress as completed and total date steps.
type OnProgress func(done, total int)

// Engine runs a portfolio simulation over instrument histories.
type Engine interface {
	// Initialize parses the engine's YAML config.
	Initialize(config string) error

	// SetBenchmark provides the benchmark index history used for the
	// regime gate and the benchmark return. Optional.
	SetBenchmark(history *types.History)

	// AddInstrument registers one instrument's history for the run.
	AddInstrument(history *types.History) error

	// SetProgressCallback registers a progress observer. Optional.
	SetProgressCallback(cb OnProgress)

	// Run executes the simulation and returns the result.
	Run(ctx context.Context) (*types.RunResult, error)
}
