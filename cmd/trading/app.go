package main

import (
	"github.com/econicmedia/bot-sub001/internal/analyzer"
	"github.com/econicmedia/bot-sub001/internal/api"
	"github.com/econicmedia/bot-sub001/internal/config"
	"github.com/econicmedia/bot-sub001/internal/logger"
	"github.com/econicmedia/bot-sub001/internal/metrics"
	"github.com/econicmedia/bot-sub001/internal/portfolio"
	"github.com/econicmedia/bot-sub001/internal/strategy"
	"github.com/econicmedia/bot-sub001/internal/trading/engine"
	engine_v1 "github.com/econicmedia/bot-sub001/internal/trading/engine/engine_v1"
	"github.com/econicmedia/bot-sub001/internal/trading/order"
	tradingprovider "github.com/econicmedia/bot-sub001/internal/trading/provider"
)

// app holds the wired components of a bot process.
type app struct {
	settings config.Settings
	gateway  tradingprovider.ExchangeGateway
	store    *portfolio.Store
	metrics  *metrics.Recorder
	engine   *engine_v1.TradingEngineV1
	server   *api.Server
}

func analyzerConfig(settings config.Settings) analyzer.Config {
	return analyzer.Config{
		SwingRadius:        settings.Analyzer.SwingRadius,
		MinCandles:         settings.Analyzer.MinCandles,
		TrendLookback:      settings.Analyzer.TrendLookback,
		DominanceRatio:     settings.Analyzer.DominanceRatio,
		RangePeriod:        settings.Analyzer.RangePeriod,
		BreakRangeMultiple: settings.Analyzer.BreakRangeMultiple,
	}
}

func orderConfig(settings config.Settings) order.Config {
	return order.Config{
		Symbols:           append([]string(nil), settings.Symbols...),
		DedupWindow:       settings.OrderManager.DedupWindow,
		MaxAttempts:       settings.OrderManager.MaxAttempts,
		InitialBackoff:    settings.OrderManager.InitialBackoff,
		MaxBackoff:        settings.OrderManager.MaxBackoff,
		GatewayTimeout:    settings.OrderManager.GatewayTimeout,
		ClientOrderPrefix: settings.OrderManager.ClientOrderPrefix,
	}
}

// newApp builds every component from settings. Nothing is started.
func newApp(settings config.Settings, log *logger.Logger) (*app, error) {
	gateway, err := tradingprovider.NewExchangeGateway(settings, log)
	if err != nil {
		return nil, err
	}

	store := portfolio.NewStore(settings.StartingEquity, log)
	recorder := metrics.NewRecorder()
	strat := strategy.NewStructureStrategy(
		analyzer.NewAnalyzer(analyzerConfig(settings)),
		strategy.Config{MinConfidence: settings.Strategy.MinConfidence},
	)

	eng, err := engine_v1.NewTradingEngineV1(engine_v1.Dependencies{
		Gateway:  gateway,
		Strategy: strat,
		Store:    store,
		Metrics:  recorder,
		Orders:   orderConfig(settings),
	}, engine.ConfigFromSettings(settings), engine.Callbacks{}, log) //nolint:exhaustruct // no process-level callbacks
	if err != nil {
		return nil, err
	}

	return &app{
		settings: settings,
		gateway:  gateway,
		store:    store,
		metrics:  recorder,
		engine:   eng,
		server:   api.NewServer(settings.Server, eng, store, recorder, log),
	}, nil
}
