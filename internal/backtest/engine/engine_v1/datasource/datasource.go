// Package datasource loads instrument bar histories for the engine and
// the screener. The DuckDB implementation reads CSV exports directly via
// read_csv_auto, so no separate import step is needed.
package datasource

import (
	"github.com/quantrill/stockscreen/internal/types"
)

// DataSource provides bar histories by symbol.
type DataSource interface {
	// Initialize points the source at its backing data, e.g. a CSV glob.
	Initialize(path string) error

	// Symbols lists every distinct instrument in the source.
	Symbols() ([]string, error)

	// ReadHistory returns one instrument's bars in ascending date order.
	ReadHistory(symbol string) (*types.History, error)

	// ReadLastBar returns the most recent bar for the symbol.
	ReadLastBar(symbol string) (types.Bar, error)

	// Count returns the total number of bars in the source.
	Count() (int, error)

	// Close releases the source.
	Close() error
}
