package datasource

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantrill/stockscreen/internal/logger"
	"github.com/quantrill/stockscreen/internal/types"
	"github.com/quantrill/stockscreen/pkg/errors"
)

// requiredColumns must exist in the backing CSV; float_cap is optional.
var requiredColumns = []string{"symbol", "date", "open", "high", "low", "close", "volume", "amount"}

// DuckDBDataSource reads bar data from CSV files through an in-memory
// DuckDB view.
type DuckDBDataSource struct {
	db          *sql.DB
	logger      *logger.Logger
	sq          squirrel.StatementBuilderType
	hasFloatCap bool
	initialized bool
}

var _ DataSource = (*DuckDBDataSource)(nil)

// NewDuckDBDataSource opens the in-memory database.
func NewDuckDBDataSource(log *logger.Logger) (*DuckDBDataSource, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceNotReady, "failed to open database", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBDataSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the bars view over the CSV path (a single file or a
// glob) and verifies the required columns exist.
func (d *DuckDBDataSource) Initialize(path string) error {
	// read_csv_auto does not take bind parameters inside a view definition.
	query := fmt.Sprintf(`CREATE OR REPLACE VIEW bars AS SELECT * FROM read_csv_auto('%s')`, path)
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceNotReady, err, "failed to read csv at %s", path)
	}

	columns, err := d.columns()
	if err != nil {
		return err
	}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}

	for _, col := range requiredColumns {
		if !present[col] {
			return errors.Newf(errors.ErrCodeMissingColumn, "csv at %s is missing column %q", path, col)
		}
	}

	d.hasFloatCap = present["float_cap"]
	d.initialized = true

	d.logger.Info("datasource ready", zap.String("path", path), zap.Bool("float_cap", d.hasFloatCap))

	return nil
}

func (d *DuckDBDataSource) columns() ([]string, error) {
	rows, err := d.db.Query(`SELECT * FROM bars LIMIT 0`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to inspect bars view", err)
	}
	defer rows.Close()

	return rows.Columns()
}

// Symbols lists every distinct instrument, sorted.
func (d *DuckDBDataSource) Symbols() ([]string, error) {
	if !d.initialized {
		return nil, errors.New(errors.ErrCodeDataSourceNotReady, "datasource is not initialized")
	}

	// Tickers are digit strings; the CSV reader may have inferred integers.
	rows, err := d.db.Query(`SELECT DISTINCT CAST(symbol AS VARCHAR) AS symbol FROM bars ORDER BY symbol`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, s)
	}

	return symbols, rows.Err()
}

// ReadHistory returns one instrument's bars in ascending date order.
func (d *DuckDBDataSource) ReadHistory(symbol string) (*types.History, error) {
	if !d.initialized {
		return nil, errors.New(errors.ErrCodeDataSourceNotReady, "datasource is not initialized")
	}

	columns := []string{"CAST(symbol AS VARCHAR) AS symbol", "date", "open", "high", "low", "close", "volume", "amount"}
	if d.hasFloatCap {
		columns = append(columns, "float_cap")
	}

	query := d.sq.
		Select(columns...).
		From("bars").
		Where(squirrel.Expr("CAST(symbol AS VARCHAR) = ?", symbol)).
		OrderBy("date ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build history query", err)
	}

	rows, err := d.db.Query(sqlStr, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to read history for %s", symbol)
	}
	defer rows.Close()

	history := &types.History{Symbol: symbol}

	for rows.Next() {
		bar, err := d.scanBar(rows)
		if err != nil {
			return nil, err
		}

		history.Bars = append(history.Bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to iterate history for %s", symbol)
	}

	if history.Len() == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars for %s", symbol)
	}

	return history, nil
}

// ReadLastBar returns the most recent bar for the symbol.
func (d *DuckDBDataSource) ReadLastBar(symbol string) (types.Bar, error) {
	history, err := d.ReadHistory(symbol)
	if err != nil {
		return types.Bar{}, err
	}

	return history.Bars[history.Len()-1], nil
}

// Count returns the total number of bars.
func (d *DuckDBDataSource) Count() (int, error) {
	if !d.initialized {
		return 0, errors.New(errors.ErrCodeDataSourceNotReady, "datasource is not initialized")
	}

	var count int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM bars`).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close releases the database.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}

func (d *DuckDBDataSource) scanBar(rows *sql.Rows) (types.Bar, error) {
	var bar types.Bar

	var date time.Time

	if d.hasFloatCap {
		var floatCap sql.NullFloat64
		if err := rows.Scan(&bar.Symbol, &date, &bar.Open, &bar.High, &bar.Low,
			&bar.Close, &bar.Volume, &bar.Amount, &floatCap); err != nil {
			return types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		if floatCap.Valid {
			bar.FloatCap = optional.Some(floatCap.Float64)
		}
	} else {
		if err := rows.Scan(&bar.Symbol, &date, &bar.Open, &bar.High, &bar.Low,
			&bar.Close, &bar.Volume, &bar.Amount); err != nil {
			return types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}
	}

	bar.Date = date

	return bar, nil
}
