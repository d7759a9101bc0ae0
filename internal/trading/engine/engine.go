package engine

import (
	"context"
	"time"

	"github.com/econicmedia/bot-sub001/internal/config"
	"github.com/econicmedia/bot-sub001/internal/types"
)

// Callbacks for engine events. All fields are pointers; nil means no callback.
// Callbacks run on engine goroutines and must not block.

// OnStatusUpdateCallback is called when the engine status changes.
type OnStatusUpdateCallback func(status types.EngineStatus)

// OnCandleCallback is called for each accepted closed candle.
type OnCandleCallback func(candle types.Candle)

// OnSignalCallback is called when the strategy emits a signal.
type OnSignalCallback func(signal types.Signal)

// OnOrderUpdateCallback is called on every order status change. It runs while
// the order manager holds its lock and must not call back into the engine.
type OnOrderUpdateCallback func(order types.Order)

// OnTradeCallback is called after a fill was recorded in the portfolio.
type OnTradeCallback func(trade types.Trade)

// OnErrorCallback is called when a non-fatal error occurs in a loop.
type OnErrorCallback func(symbol string, err error)

// Callbacks holds all engine callbacks.
type Callbacks struct {
	OnStatusUpdate *OnStatusUpdateCallback
	OnCandle       *OnCandleCallback
	OnSignal       *OnSignalCallback
	OnOrderUpdate  *OnOrderUpdateCallback
	OnTrade        *OnTradeCallback
	OnError        *OnErrorCallback
}

// RiskConfig bounds order sizes.
type RiskConfig struct {
	// MaxPositionSize is the largest position notional as a fraction of equity.
	MaxPositionSize float64
	// RiskPerTrade is the fraction of equity committed per signal at full confidence.
	RiskPerTrade float64
	// AllowShort lets sell signals open or extend short positions.
	AllowShort bool
}

// Config holds the engine configuration.
type Config struct {
	Mode      string
	Symbols   []string
	Timeframe types.Timeframe
	// WindowSize is the number of candles kept per symbol.
	WindowSize int
	// WarmupCandles is the number of historical candles fetched per symbol on start.
	WarmupCandles int
	// GatewayTimeout bounds every direct gateway call made by the engine.
	GatewayTimeout time.Duration
	// StreamRetryDelay is the pause before resubscribing to a stream that ended.
	StreamRetryDelay time.Duration
	Risk             RiskConfig
}

// ConfigFromSettings derives the engine configuration from process settings.
func ConfigFromSettings(settings config.Settings) Config {
	warmup := settings.Analyzer.MinCandles
	if settings.Strategy.WindowSize > warmup {
		warmup = settings.Strategy.WindowSize
	}

	return Config{
		Mode:             string(settings.Mode),
		Symbols:          append([]string(nil), settings.Symbols...),
		Timeframe:        settings.Timeframe,
		WindowSize:       settings.Strategy.WindowSize,
		WarmupCandles:    warmup,
		GatewayTimeout:   settings.OrderManager.GatewayTimeout,
		StreamRetryDelay: 5 * time.Second,
		Risk: RiskConfig{
			MaxPositionSize: settings.Risk.MaxPositionSize,
			RiskPerTrade:    settings.Risk.RiskPerTrade,
			AllowShort:      settings.Risk.AllowShort,
		},
	}
}

// TradingEngine runs the per-symbol candle loops and the fill loop.
type TradingEngine interface {
	// Start reconciles open orders, warms up the candle windows and starts
	// the loops. It returns once the loops are running. The loops are not
	// bound to ctx; use Stop.
	Start(ctx context.Context) error

	// Stop cancels the loops and waits until they exit or ctx is done.
	// In-flight submissions finish within the gateway timeout.
	Stop(ctx context.Context) error

	// Status returns the engine status with account and run statistics.
	Status() types.TradingStatus

	// Orders returns all orders known to the engine in creation order.
	Orders() []types.Order

	// DailyStats returns the statistics of the current trading day.
	DailyStats() types.LiveTradeStats
}
