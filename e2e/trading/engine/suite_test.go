package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/econicmedia/bot-sub001/internal/metrics"
	"github.com/econicmedia/bot-sub001/internal/portfolio"
	"github.com/econicmedia/bot-sub001/internal/strategy"
	"github.com/econicmedia/bot-sub001/internal/trading/engine"
	engine_v1 "github.com/econicmedia/bot-sub001/internal/trading/engine/engine_v1"
	"github.com/econicmedia/bot-sub001/internal/trading/order"
	tradingprovider "github.com/econicmedia/bot-sub001/internal/trading/provider"
	"github.com/econicmedia/bot-sub001/internal/types"
)

// TradingE2ETestSuite is the base test suite for trading engine E2E tests.
type TradingE2ETestSuite struct {
	suite.Suite
	store   *portfolio.Store
	metrics *metrics.Recorder

	mu      sync.Mutex
	candles int
	signals []types.Signal
	trades  []types.Trade
	errs    []error
}

func TestTradingE2E(t *testing.T) {
	suite.Run(t, new(TradingE2ETestSuite))
}

// SetupTest resets the portfolio and the recorded events for each test.
func (s *TradingE2ETestSuite) SetupTest() {
	s.store = portfolio.NewStore(100000, nil)
	s.metrics = metrics.NewRecorder()
	s.candles = 0
	s.signals = nil
	s.trades = nil
	s.errs = nil
}

func (s *TradingE2ETestSuite) engineConfig(symbols ...string) engine.Config {
	return engine.Config{
		Mode:             "paper",
		Symbols:          symbols,
		Timeframe:        types.TimeframeOneMinute,
		WindowSize:       60,
		WarmupCandles:    30,
		GatewayTimeout:   2 * time.Second,
		StreamRetryDelay: 20 * time.Millisecond,
		Risk: engine.RiskConfig{
			MaxPositionSize: 0.5,
			RiskPerTrade:    0.1,
			AllowShort:      false,
		},
	}
}

func (s *TradingE2ETestSuite) callbacks() engine.Callbacks {
	onCandle := engine.OnCandleCallback(func(types.Candle) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.candles++
	})

	onSignal := engine.OnSignalCallback(func(signal types.Signal) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.signals = append(s.signals, signal)
	})

	onTrade := engine.OnTradeCallback(func(trade types.Trade) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.trades = append(s.trades, trade)
	})

	onError := engine.OnErrorCallback(func(_ string, err error) {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.errs = append(s.errs, err)
	})

	return engine.Callbacks{
		OnStatusUpdate: nil,
		OnCandle:       &onCandle,
		OnSignal:       &onSignal,
		OnOrderUpdate:  nil,
		OnTrade:        &onTrade,
		OnError:        &onError,
	}
}

func (s *TradingE2ETestSuite) newEngine(
	gateway tradingprovider.ExchangeGateway,
	strat strategy.Strategy,
	config engine.Config,
) *engine_v1.TradingEngineV1 {
	e, err := engine_v1.NewTradingEngineV1(engine_v1.Dependencies{
		Gateway:  gateway,
		Strategy: strat,
		Store:    s.store,
		Metrics:  s.metrics,
		Orders:   order.DefaultConfig(),
	}, config, s.callbacks(), nil)
	s.Require().NoError(err)

	return e
}

func (s *TradingE2ETestSuite) start(e *engine_v1.TradingEngineV1) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.Require().NoError(e.Start(ctx))
}

func (s *TradingE2ETestSuite) stop(e *engine_v1.TradingEngineV1) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.Require().NoError(e.Stop(ctx))
}

func (s *TradingE2ETestSuite) candleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.candles
}

func (s *TradingE2ETestSuite) recordedTrades() []types.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]types.Trade(nil), s.trades...)
}

// assertLedger checks that positions are the signed sum of recorded trades
// and that no order is overfilled.
func (s *TradingE2ETestSuite) assertLedger(e *engine_v1.TradingEngineV1) {
	net := make(map[string]float64)
	for _, trade := range s.store.Trades() {
		net[trade.Symbol] += trade.SignedQuantity()
	}

	for symbol, quantity := range net {
		position, ok := s.store.Position(symbol)
		if ok {
			s.InDelta(quantity, position.Quantity, 1e-9, symbol)
		} else {
			s.InDelta(0, quantity, 1e-9, symbol)
		}
	}

	for _, o := range e.Orders() {
		s.LessOrEqual(o.FilledQuantity, o.Quantity+1e-9, o.ID)
	}
}
