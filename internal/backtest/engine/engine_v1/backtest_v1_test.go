package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantrill/stockscreen/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/quantrill/stockscreen/internal/strategy"
	"github.com/quantrill/stockscreen/internal/types"
)

type BacktestV1TestSuite struct {
	suite.Suite
}

func TestBacktestV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestV1TestSuite))
}

func (suite *BacktestV1TestSuite) newConfig() Config {
	strat, err := strategy.DefaultConfig(strategy.TierEnhanced)
	suite.Require().NoError(err)

	// The ramp fixtures run far above their MA60; loosen the proximity
	// cap so buys can fire.
	strat.MaxMA60Extension = 5

	return Config{
		InitialCapital: 1_000_000,
		PositionSize:   100_000,
		Strategy:       strat,
	}
}

// rampHistory rises 5% a day with a volume surge at bar 60, where the buy
// fires. tail rescales the closes after bar 60 (1.05 continues the ramp,
// 0.9 crashes).
func rampHistory(symbol string, length int, tail float64) *types.History {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, length)
	price := 10.0
	for i := range bars {
		volume := 1_000_000.0
		if i >= 60 {
			volume = 2_000_000
		}

		bars[i] = types.Bar{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Open:   price, High: price, Low: price, Close: price,
			Volume: volume,
			Amount: price * volume,
		}

		if i < 60 {
			price *= 1.05
		} else {
			price *= tail
		}
	}

	return &types.History{Symbol: symbol, Bars: bars}
}

func (suite *BacktestV1TestSuite) runEngine(cfg Config, histories ...*types.History) *types.RunResult {
	eng := NewBacktestEngineV1(nil)
	eng.SetConfig(cfg)
	eng.SetCommissionFee(commission_fee.NewZeroCommissionFee())

	for _, h := range histories {
		suite.Require().NoError(eng.AddInstrument(h))
	}

	result, err := eng.Run(context.Background())
	suite.Require().NoError(err)

	return result
}

func (suite *BacktestV1TestSuite) TestRoundTripTakeProfit() {
	// Buy fires at bar 60; the ramp keeps rising 5%/day, so bar 62 is
	// +10.25% over entry and the take-profit closes the position.
	result := suite.runEngine(suite.newConfig(), rampHistory("600001", 70, 1.05))

	suite.Require().Len(result.Trades, 2)
	suite.Equal(types.PurchaseTypeBuy, result.Trades[0].Side)
	suite.Equal(types.ReasonBuySignal, result.Trades[0].Reason)
	suite.Equal(types.PurchaseTypeSell, result.Trades[1].Side)
	suite.Equal(types.ReasonTakeProfit, result.Trades[1].Reason)
	suite.Equal(2, result.Trades[1].HoldingDays)
	suite.Greater(result.Trades[1].RealizedProfit, 0.0)

	suite.InDelta(1.0, result.Summary.WinRate, 1e-9)
	suite.Equal(2, result.Summary.TotalTrades)
	suite.Greater(result.Summary.FinalValue, result.Summary.InitialCapital)
}

func (suite *BacktestV1TestSuite) TestStopLossTrade() {
	cfg := suite.newConfig()
	cfg.Strategy.TakeProfitPct = 0.5

	// The bar after entry crashes 10%, beyond the 8% stop.
	result := suite.runEngine(cfg, rampHistory("600001", 62, 0.9))

	suite.Require().Len(result.Trades, 2)
	suite.Equal(types.ReasonStopLoss, result.Trades[1].Reason)
	suite.Less(result.Trades[1].RealizedProfit, 0.0)
	suite.Less(result.Summary.FinalValue, result.Summary.InitialCapital)
	suite.InDelta(0.0, result.Summary.WinRate, 1e-9)
}

// Replaying the ledger's signed cash flows against the initial capital
// must land exactly on the recorded final cash.
func (suite *BacktestV1TestSuite) TestLedgerReplayReproducesCash() {
	cfg := suite.newConfig()
	result := suite.runEngine(cfg, rampHistory("600001", 70, 1.05))

	flow := 0.0
	for _, t := range result.Trades {
		if t.Side == types.PurchaseTypeSell {
			flow += t.Amount
		} else {
			flow -= t.Amount
		}
	}

	finalCash := result.Equity[len(result.Equity)-1].Cash
	suite.InDelta(cfg.InitialCapital+flow, finalCash, 1e-6)
}

func (suite *BacktestV1TestSuite) TestAtMostOnePositionPerInstrument() {
	result := suite.runEngine(suite.newConfig(), rampHistory("600001", 75, 1.05))

	open := 0
	for _, t := range result.Trades {
		if t.Symbol != "600001" {
			continue
		}

		if t.Side == types.PurchaseTypeBuy {
			open++
			suite.LessOrEqual(open, 1, "second buy while a position was open")
		} else {
			open--
			suite.GreaterOrEqual(open, 0, "sell without an open position")
		}
	}
}

func (suite *BacktestV1TestSuite) TestCapitalExhaustedSkipsSilently() {
	cfg := suite.newConfig()
	cfg.InitialCapital = 1_000 // cannot afford one lot near price 187
	cfg.PositionSize = 100_000

	result := suite.runEngine(cfg, rampHistory("600001", 70, 1.05))

	suite.Empty(result.Trades)
	suite.InDelta(1_000, result.Summary.FinalValue, 1e-9)
}

func (suite *BacktestV1TestSuite) TestBadInstrumentIsIsolated() {
	bad := rampHistory("000002", 70, 1.05)
	bad.Bars[10].Close = 0

	result := suite.runEngine(suite.newConfig(), rampHistory("600001", 70, 1.05), bad)

	suite.Require().Len(result.Skipped, 1)
	suite.Equal("000002", result.Skipped[0].Symbol)

	// The healthy instrument still traded.
	suite.Len(result.Trades, 2)
}

func (suite *BacktestV1TestSuite) TestMissingBarCarriesValueForward() {
	full := rampHistory("600001", 70, 1.05)

	// A second instrument whose calendar stops early: its dates still
	// shape the axis, and valuation carries the last close forward.
	short := rampHistory("600002", 65, 1.05)

	result := suite.runEngine(suite.newConfig(), full, short)

	suite.Len(result.Equity, 70)

	for i := 1; i < len(result.Equity); i++ {
		suite.Greater(result.Equity[i].Value, 0.0)
	}
}

func (suite *BacktestV1TestSuite) TestDateWindowRestriction() {
	yamlConfig := `
initial_capital: 1000000
position_size: 100000
start_time: "2024-01-10"
end_time: "2024-01-20"
`

	eng := NewBacktestEngineV1(nil)
	suite.Require().NoError(eng.Initialize(yamlConfig))
	eng.SetCommissionFee(commission_fee.NewZeroCommissionFee())
	suite.Require().NoError(eng.AddInstrument(rampHistory("600001", 70, 1.05)))

	result, err := eng.Run(context.Background())
	suite.Require().NoError(err)

	// Calendar days 2024-01-10 through 2024-01-20 inclusive.
	suite.Len(result.Equity, 11)
	suite.Empty(result.Trades, "the buy bar falls outside the window")
}

func (suite *BacktestV1TestSuite) TestCancelledContext() {
	eng := NewBacktestEngineV1(nil)
	eng.SetConfig(suite.newConfig())
	suite.Require().NoError(eng.AddInstrument(rampHistory("600001", 70, 1.05)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := eng.Run(ctx)
	suite.Error(err)
}

func (suite *BacktestV1TestSuite) TestUninitializedEngine() {
	eng := NewBacktestEngineV1(nil)
	suite.Require().NoError(eng.AddInstrument(rampHistory("600001", 70, 1.05)))

	_, err := eng.Run(context.Background())
	suite.Error(err)
}

func (suite *BacktestV1TestSuite) TestProgressCallback() {
	eng := NewBacktestEngineV1(nil)
	eng.SetConfig(suite.newConfig())
	eng.SetCommissionFee(commission_fee.NewZeroCommissionFee())
	suite.Require().NoError(eng.AddInstrument(rampHistory("600001", 61, 1.05)))

	var calls, lastDone, lastTotal int

	eng.SetProgressCallback(func(done, total int) {
		calls++
		lastDone = done
		lastTotal = total
	})

	_, err := eng.Run(context.Background())
	suite.Require().NoError(err)

	suite.Equal(61, calls)
	suite.Equal(61, lastDone)
	suite.Equal(61, lastTotal)
}
