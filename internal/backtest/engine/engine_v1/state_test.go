package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantrill/stockscreen/internal/types"
)

type StateTestSuite struct {
	suite.Suite

	state *BacktestState
}

func TestStateSuite(t *testing.T) {
	suite.Run(t, new(StateTestSuite))
}

func (suite *StateTestSuite) SetupTest() {
	state, err := NewBacktestState(nil)
	suite.Require().NoError(err)
	suite.Require().NoError(state.Initialize())
	suite.state = state
}

func (suite *StateTestSuite) TearDownTest() {
	suite.Require().NoError(suite.state.Close())
}

func (suite *StateTestSuite) trade(symbol string, side types.PurchaseType, day int, amount, profit float64, holdingDays int) types.Trade {
	return types.Trade{
		Symbol:         symbol,
		Side:           side,
		Date:           time.Date(2024, 1, 2+day, 0, 0, 0, 0, time.UTC),
		Price:          10,
		Quantity:       100,
		Amount:         amount,
		Fee:            amount * 0.001,
		Reason:         types.ReasonBuySignal,
		RealizedProfit: profit,
		HoldingDays:    holdingDays,
	}
}

func (suite *StateTestSuite) TestRecordAndReadBack() {
	recorded, err := suite.state.RecordTrade(suite.trade("600001", types.PurchaseTypeBuy, 0, 1000, 0, 0))
	suite.Require().NoError(err)
	suite.NotEmpty(recorded.TradeID)

	trades, err := suite.state.GetAllTrades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 1)

	suite.Equal("600001", trades[0].Symbol)
	suite.Equal(types.PurchaseTypeBuy, trades[0].Side)
	suite.InDelta(1000.0, trades[0].Amount, 1e-9)
	suite.Equal(recorded.TradeID, trades[0].TradeID)
}

func (suite *StateTestSuite) TestChronologicalOrder() {
	_, err := suite.state.RecordTrade(suite.trade("600002", types.PurchaseTypeSell, 5, 1100, 100, 5))
	suite.Require().NoError(err)

	_, err = suite.state.RecordTrade(suite.trade("600001", types.PurchaseTypeBuy, 1, 1000, 0, 0))
	suite.Require().NoError(err)

	trades, err := suite.state.GetAllTrades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)
	suite.Equal("600001", trades[0].Symbol)
	suite.Equal("600002", trades[1].Symbol)
}

func (suite *StateTestSuite) TestTradeOutcomeAggregates() {
	_, err := suite.state.RecordTrade(suite.trade("600001", types.PurchaseTypeBuy, 0, 1000, 0, 0))
	suite.Require().NoError(err)

	_, err = suite.state.RecordTrade(suite.trade("600001", types.PurchaseTypeSell, 4, 1200, 200, 4))
	suite.Require().NoError(err)

	_, err = suite.state.RecordTrade(suite.trade("600002", types.PurchaseTypeSell, 6, 900, -100, 6))
	suite.Require().NoError(err)

	outcome, err := suite.state.GetTradeOutcome()
	suite.Require().NoError(err)

	suite.Equal(2, outcome.TotalSells)
	suite.Equal(1, outcome.WinningSells)
	suite.Equal(1, outcome.LosingSells)
	suite.InDelta(5.0, outcome.AvgHoldingDays, 1e-9)
	suite.InDelta(3.1, outcome.TotalFees, 1e-9)
}

func (suite *StateTestSuite) TestNetCashFlow() {
	_, err := suite.state.RecordTrade(suite.trade("600001", types.PurchaseTypeBuy, 0, 1000, 0, 0))
	suite.Require().NoError(err)

	_, err = suite.state.RecordTrade(suite.trade("600001", types.PurchaseTypeSell, 4, 1200, 200, 4))
	suite.Require().NoError(err)

	flow, err := suite.state.NetCashFlow()
	suite.Require().NoError(err)
	suite.InDelta(200.0, flow, 1e-9)
}

func (suite *StateTestSuite) TestParquetExport() {
	_, err := suite.state.RecordTrade(suite.trade("600001", types.PurchaseTypeBuy, 0, 1000, 0, 0))
	suite.Require().NoError(err)

	suite.Require().NoError(suite.state.RecordDailyValue(types.DailyValue{
		Date:          time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Value:         999_000,
		Cash:          998_000,
		PositionCount: 1,
	}))

	dir := suite.T().TempDir()
	suite.Require().NoError(suite.state.Write(dir))

	for _, name := range []string{"trades.parquet", "daily_values.parquet"} {
		info, err := os.Stat(filepath.Join(dir, name))
		suite.Require().NoError(err)
		suite.Positive(info.Size())
	}
}

func (suite *StateTestSuite) TestCleanupAllowsReuse() {
	_, err := suite.state.RecordTrade(suite.trade("600001", types.PurchaseTypeBuy, 0, 1000, 0, 0))
	suite.Require().NoError(err)

	suite.Require().NoError(suite.state.Cleanup())
	suite.Require().NoError(suite.state.Initialize())

	trades, err := suite.state.GetAllTrades()
	suite.Require().NoError(err)
	suite.Empty(trades)
}
