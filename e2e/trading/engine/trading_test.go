package engine_test

import (
	"sync/atomic"
	"time"

	"github.com/moznion/go-optional"

	"github.com/econicmedia/bot-sub001/e2e/trading/mockserver"
	"github.com/econicmedia/bot-sub001/internal/analyzer"
	"github.com/econicmedia/bot-sub001/internal/strategy"
	tradingprovider "github.com/econicmedia/bot-sub001/internal/trading/provider"
	"github.com/econicmedia/bot-sub001/internal/types"
)

// scriptedStrategy buys once on the first window it sees.
type scriptedStrategy struct {
	calls atomic.Int32
}

func (s *scriptedStrategy) Name() string {
	return "scripted"
}

func (s *scriptedStrategy) Evaluate(symbol string, window []types.Candle) (optional.Option[types.Signal], error) {
	if s.calls.Add(1) != 1 || len(window) == 0 {
		return optional.None[types.Signal](), nil
	}

	last := window[len(window)-1]

	return optional.Some(types.Signal{
		ID:         "scripted-1",
		Symbol:     symbol,
		Side:       types.OrderSideBuy,
		Confidence: 1,
		Timestamp:  last.Timestamp.Add(time.Minute),
		Price:      last.Close,
		Reason:     "scripted entry",
	}), nil
}

// TestSandboxWithStructureStrategy runs the structure strategy against the
// in-process exchange and checks the books stay consistent.
func (s *TradingE2ETestSuite) TestSandboxWithStructureStrategy() {
	gateway := tradingprovider.NewSandboxGateway(tradingprovider.SandboxConfig{
		InitialPrice:   50000,
		Volatility:     0.002,
		Drift:          0.001,
		CandleInterval: 5 * time.Millisecond,
		FillParts:      2,
		FeeRate:        0.001,
		Seed:           7,
	}, nil)

	strat := strategy.NewStructureStrategy(analyzer.NewAnalyzer(analyzer.DefaultConfig()), strategy.DefaultConfig())
	e := s.newEngine(gateway, strat, s.engineConfig("BTCUSDT", "ETHUSDT"))

	s.start(e)
	s.Equal(types.EngineStatusRunning, e.Status().Status)

	s.Eventually(func() bool { return s.candleCount() >= 100 }, 5*time.Second, 10*time.Millisecond)

	s.stop(e)

	status := e.Status()
	s.Equal(types.EngineStatusStopped, status.Status)

	s.mu.Lock()
	signals := len(s.signals)
	s.mu.Unlock()

	s.Equal(signals, status.Stats.SignalsGenerated)
	s.Equal(len(s.store.Trades()), status.Stats.TradeResult.NumberOfTrades)
	s.Equal(len(e.Orders()), sumCounts(status.Stats.OrdersByStatus))

	for _, symbol := range []string{"BTCUSDT", "ETHUSDT"} {
		tick, ok := s.store.Price(symbol)
		s.Require().True(ok, symbol)
		s.Positive(tick.Price)
	}

	s.assertLedger(e)
}

// TestBinanceMockRoundTrip trades through the Binance gateway against the
// mock server: a signal becomes a market order whose fills arrive by polling.
func (s *TradingE2ETestSuite) TestBinanceMockRoundTrip() {
	server := mockserver.NewMockBinanceServer(mockserver.ServerConfig{
		APIKey:          "test-api-key",
		InitialBalances: map[string]float64{"USDT": 100000, "BTC": 0},
		Prices:          map[string]float64{"BTCUSDT": 50000},
		FeeRate:         0.001,
		MarketFillParts: 2,
		StreamInterval:  20 * time.Millisecond,
		Volatility:      0.001,
		Seed:            99,
	})
	s.Require().NoError(server.Start(""))

	defer func() { s.NoError(server.Stop()) }()

	gateway, err := tradingprovider.NewBinanceGateway(tradingprovider.BinanceGatewayConfig{
		APIKey:            "test-api-key",
		SecretKey:         "test-secret",
		Testnet:           false,
		BaseURL:           server.BaseURL(),
		WsBaseURL:         server.WebSocketURL(),
		RequestsPerSecond: 200,
		FillPollInterval:  20 * time.Millisecond,
		ClientOrderPrefix: "bot",
	}, nil)
	s.Require().NoError(err)

	config := s.engineConfig("BTCUSDT")
	config.Mode = "live"

	e := s.newEngine(gateway, &scriptedStrategy{}, config)
	s.start(e)

	s.Eventually(func() bool {
		orders := e.Orders()

		return len(orders) == 1 && orders[0].Status == types.OrderStatusFilled
	}, 5*time.Second, 20*time.Millisecond)

	s.stop(e)

	placed := e.Orders()[0]
	s.Equal(types.OrderKindMarket, placed.Kind)
	s.Equal(types.OrderReasonStrategy, placed.Reason.Reason)
	s.NotEmpty(placed.ExchangeOrderID)
	s.InDelta(placed.Quantity, placed.FilledQuantity, 1e-9)

	s.Len(s.recordedTrades(), 2)

	position, ok := s.store.Position("BTCUSDT")
	s.Require().True(ok)
	s.InDelta(placed.Quantity, position.Quantity, 1e-9)
	s.InDelta(placed.Quantity, server.Balance("BTC").Free, 1e-9)

	account := s.store.Account()
	s.Positive(account.TotalFees)
	s.Less(account.Cash, 100000.0)

	s.assertLedger(e)
}

// TestRejectedOrderIsReported checks a rejected placement is surfaced as an
// error and leaves the portfolio untouched.
func (s *TradingE2ETestSuite) TestRejectedOrderIsReported() {
	server := mockserver.NewMockBinanceServer(mockserver.ServerConfig{
		APIKey:          "test-api-key",
		InitialBalances: map[string]float64{"USDT": 100000},
		Prices:          map[string]float64{"BTCUSDT": 50000},
		FeeRate:         0.001,
		MarketFillParts: 1,
		StreamInterval:  20 * time.Millisecond,
		Volatility:      0.001,
		Seed:            5,
	})
	s.Require().NoError(server.Start(""))

	defer func() { s.NoError(server.Stop()) }()

	server.FailNextOrders(1, 400, mockserver.CodeNewOrderReject, "Order would trigger immediately.")

	gateway, err := tradingprovider.NewBinanceGateway(tradingprovider.BinanceGatewayConfig{
		APIKey:            "test-api-key",
		SecretKey:         "test-secret",
		Testnet:           false,
		BaseURL:           server.BaseURL(),
		WsBaseURL:         server.WebSocketURL(),
		RequestsPerSecond: 200,
		FillPollInterval:  20 * time.Millisecond,
		ClientOrderPrefix: "bot",
	}, nil)
	s.Require().NoError(err)

	e := s.newEngine(gateway, &scriptedStrategy{}, s.engineConfig("BTCUSDT"))
	s.start(e)

	s.Eventually(func() bool {
		orders := e.Orders()

		return len(orders) == 1 && orders[0].Status == types.OrderStatusRejected
	}, 5*time.Second, 20*time.Millisecond)

	s.stop(e)

	s.mu.Lock()
	s.NotEmpty(s.errs)
	s.mu.Unlock()

	s.Empty(s.store.Trades())
	s.InDelta(100000.0, s.store.Account().Cash, 1e-9)
	s.Empty(server.Trades())
}

func sumCounts(counts map[types.OrderStatus]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}

	return total
}
