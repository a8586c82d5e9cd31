package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/quantrill/stockscreen/internal/logger"
	"github.com/quantrill/stockscreen/internal/types"
	"github.com/quantrill/stockscreen/pkg/errors"
)

// BacktestState is the append-only run ledger, backed by an in-memory
// DuckDB database. Trades and daily portfolio values are inserted as the
// simulation walks forward; aggregates (win rate, holding time) are SQL
// queries over the finished ledger, and Write exports it to Parquet.
type BacktestState struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewBacktestState opens the in-memory ledger database.
func NewBacktestState(log *logger.Logger) (*BacktestState, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLedgerWrite, "failed to open ledger database", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestState{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the ledger tables.
func (b *BacktestState) Initialize() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			trade_id TEXT PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			date TIMESTAMP,
			price DOUBLE,
			quantity DOUBLE,
			amount DOUBLE,
			fee DOUBLE,
			reason TEXT,
			realized_profit DOUBLE,
			profit_rate DOUBLE,
			holding_days INTEGER
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWrite, "failed to create trades table", err)
	}

	_, err = b.db.Exec(`
		CREATE TABLE IF NOT EXISTS daily_values (
			date TIMESTAMP,
			value DOUBLE,
			cash DOUBLE,
			position_count INTEGER
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWrite, "failed to create daily_values table", err)
	}

	return nil
}

// RecordTrade appends a fill to the ledger, assigning its trade ID.
func (b *BacktestState) RecordTrade(trade types.Trade) (types.Trade, error) {
	trade.TradeID = uuid.New().String()

	query := b.sq.
		Insert("trades").
		Columns("trade_id", "symbol", "side", "date", "price", "quantity",
			"amount", "fee", "reason", "realized_profit", "profit_rate", "holding_days").
		Values(trade.TradeID, trade.Symbol, string(trade.Side), trade.Date, trade.Price,
			trade.Quantity, trade.Amount, trade.Fee, trade.Reason,
			trade.RealizedProfit, trade.ProfitRate, trade.HoldingDays)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return types.Trade{}, errors.Wrap(errors.ErrCodeLedgerWrite, "failed to build trade insert", err)
	}

	if _, err := b.db.Exec(sqlStr, args...); err != nil {
		return types.Trade{}, errors.Wrap(errors.ErrCodeLedgerWrite, "failed to insert trade", err)
	}

	return trade, nil
}

// RecordDailyValue appends one equity-curve point.
func (b *BacktestState) RecordDailyValue(dv types.DailyValue) error {
	query := b.sq.
		Insert("daily_values").
		Columns("date", "value", "cash", "position_count").
		Values(dv.Date, dv.Value, dv.Cash, dv.PositionCount)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWrite, "failed to build daily value insert", err)
	}

	if _, err := b.db.Exec(sqlStr, args...); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWrite, "failed to insert daily value", err)
	}

	return nil
}

// GetAllTrades returns the full ledger in chronological order.
func (b *BacktestState) GetAllTrades() ([]types.Trade, error) {
	query := b.sq.
		Select("trade_id", "symbol", "side", "date", "price", "quantity",
			"amount", "fee", "reason", "realized_profit", "profit_rate", "holding_days").
		From("trades").
		OrderBy("date ASC", "symbol ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build trades query", err)
	}

	rows, err := b.db.Query(sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var t types.Trade

		var side string
		if err := rows.Scan(&t.TradeID, &t.Symbol, &side, &t.Date, &t.Price, &t.Quantity,
			&t.Amount, &t.Fee, &t.Reason, &t.RealizedProfit, &t.ProfitRate, &t.HoldingDays); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		t.Side = types.PurchaseType(side)
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// TradeOutcome aggregates the closed round trips in the ledger.
type TradeOutcome struct {
	TotalSells     int
	WinningSells   int
	LosingSells    int
	AvgHoldingDays float64
	TotalFees      float64
}

// GetTradeOutcome computes win/loss counts, average holding time and total
// fees with one aggregate query over SELL rows.
func (b *BacktestState) GetTradeOutcome() (TradeOutcome, error) {
	var out TradeOutcome

	row := b.db.QueryRow(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE realized_profit > 0),
			COUNT(*) FILTER (WHERE realized_profit <= 0),
			COALESCE(AVG(holding_days), 0)
		FROM trades
		WHERE side = 'SELL'
	`)
	if err := row.Scan(&out.TotalSells, &out.WinningSells, &out.LosingSells, &out.AvgHoldingDays); err != nil {
		return TradeOutcome{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to aggregate trade outcome", err)
	}

	feeRow := b.db.QueryRow(`SELECT COALESCE(SUM(fee), 0) FROM trades`)
	if err := feeRow.Scan(&out.TotalFees); err != nil {
		return TradeOutcome{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum fees", err)
	}

	return out, nil
}

// NetCashFlow sums the signed cash deltas of every trade: sells add their
// proceeds, buys subtract their cost. Used by the ledger-replay check.
func (b *BacktestState) NetCashFlow() (float64, error) {
	var flow float64

	row := b.db.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN side = 'SELL' THEN amount ELSE -amount END), 0)
		FROM trades
	`)
	if err := row.Scan(&flow); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum cash flow", err)
	}

	return flow, nil
}

// Write exports the ledger to Parquet files under the given folder.
func (b *BacktestState) Write(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to create results folder", err)
	}

	// Squirrel has no COPY support; raw SQL it is.
	tradesPath := filepath.Join(path, "trades.parquet")
	if _, err := b.db.Exec(fmt.Sprintf(`COPY trades TO '%s' (FORMAT PARQUET)`, tradesPath)); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to export trades", err)
	}

	valuesPath := filepath.Join(path, "daily_values.parquet")
	if _, err := b.db.Exec(fmt.Sprintf(`COPY daily_values TO '%s' (FORMAT PARQUET)`, valuesPath)); err != nil {
		return errors.Wrap(errors.ErrCodeResultWriteFailed, "failed to export daily values", err)
	}

	b.logger.Info("ledger exported", zap.String("folder", path))

	return nil
}

// Cleanup drops the ledger tables so the state can host another run.
func (b *BacktestState) Cleanup() error {
	if _, err := b.db.Exec(`DROP TABLE IF EXISTS trades`); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWrite, "failed to drop trades table", err)
	}

	if _, err := b.db.Exec(`DROP TABLE IF EXISTS daily_values`); err != nil {
		return errors.Wrap(errors.ErrCodeLedgerWrite, "failed to drop daily_values table", err)
	}

	return nil
}

// Close releases the database.
func (b *BacktestState) Close() error {
	return b.db.Close()
}
