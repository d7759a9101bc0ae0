package engine_v1

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/econicmedia/bot-sub001/internal/logger"
	"github.com/econicmedia/bot-sub001/internal/metrics"
	"github.com/econicmedia/bot-sub001/internal/portfolio"
	"github.com/econicmedia/bot-sub001/internal/strategy"
	"github.com/econicmedia/bot-sub001/internal/trading/engine"
	"github.com/econicmedia/bot-sub001/internal/trading/engine/engine_v1/prefetch"
	"github.com/econicmedia/bot-sub001/internal/trading/engine/engine_v1/stats"
	"github.com/econicmedia/bot-sub001/internal/trading/order"
	tradingprovider "github.com/econicmedia/bot-sub001/internal/trading/provider"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

// Default configuration values.
const (
	DefaultWindowSize       = 100
	DefaultGatewayTimeout   = 10 * time.Second
	DefaultStreamRetryDelay = 5 * time.Second
)

// Dependencies are the collaborators of the engine.
type Dependencies struct {
	Gateway  tradingprovider.ExchangeGateway
	Strategy strategy.Strategy
	Store    *portfolio.Store
	// Metrics defaults to a fresh recorder.
	Metrics *metrics.Recorder
	// Orders configures the internal order manager. Symbols defaults to the
	// engine symbols.
	Orders order.Config
}

// TradingEngineV1 implements the TradingEngine interface.
type TradingEngineV1 struct {
	config    engine.Config
	gateway   tradingprovider.ExchangeGateway
	strategy  strategy.Strategy
	orders    *order.Manager
	store     *portfolio.Store
	metrics   *metrics.Recorder
	stats     *stats.StatsTracker
	prefetch  *prefetch.PrefetchManager
	callbacks engine.Callbacks
	log       *logger.Logger

	mu        sync.Mutex
	status    types.EngineStatus
	runID     string
	startedAt time.Time
	lastError string
	cancel    context.CancelFunc
	done      chan struct{}
}

var _ engine.TradingEngine = (*TradingEngineV1)(nil)

// NewTradingEngineV1 creates a stopped engine.
func NewTradingEngineV1(
	deps Dependencies,
	config engine.Config,
	callbacks engine.Callbacks,
	log *logger.Logger,
) (*TradingEngineV1, error) {
	if deps.Gateway == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "exchange gateway is required")
	}

	if deps.Strategy == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "strategy is required")
	}

	if deps.Store == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "portfolio store is required")
	}

	if len(config.Symbols) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "at least one symbol is required")
	}

	if config.WindowSize <= 0 {
		config.WindowSize = DefaultWindowSize
	}

	if config.WarmupCandles < 0 {
		config.WarmupCandles = 0
	}

	if config.GatewayTimeout <= 0 {
		config.GatewayTimeout = DefaultGatewayTimeout
	}

	if config.StreamRetryDelay <= 0 {
		config.StreamRetryDelay = DefaultStreamRetryDelay
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	if deps.Metrics == nil {
		deps.Metrics = metrics.NewRecorder()
	}

	log = log.Named("engine")

	prefetchManager, err := prefetch.NewPrefetchManager(deps.Gateway, config.Timeframe, config.GatewayTimeout, log)
	if err != nil {
		return nil, err
	}

	e := &TradingEngineV1{
		config:    config,
		gateway:   deps.Gateway,
		strategy:  deps.Strategy,
		orders:    nil,
		store:     deps.Store,
		metrics:   deps.Metrics,
		stats:     stats.NewStatsTracker(log),
		prefetch:  prefetchManager,
		callbacks: callbacks,
		log:       log,
		mu:        sync.Mutex{},
		status:    types.EngineStatusStopped,
		runID:     "",
		startedAt: time.Time{},
		lastError: "",
		cancel:    nil,
		done:      nil,
	}

	orderConfig := deps.Orders
	if len(orderConfig.Symbols) == 0 {
		orderConfig.Symbols = config.Symbols
	}

	if orderConfig.GatewayTimeout <= 0 {
		orderConfig.GatewayTimeout = config.GatewayTimeout
	}

	e.orders = order.NewManager(deps.Gateway, &tradeRecorder{engine: e}, orderConfig, e.orderCallbacks(), log)

	return e, nil
}

func (e *TradingEngineV1) orderCallbacks() order.Callbacks {
	onOrderUpdate := order.OnOrderUpdateCallback(func(o types.Order) {
		e.metrics.OrderUpdated(o)

		if e.callbacks.OnOrderUpdate != nil {
			(*e.callbacks.OnOrderUpdate)(o)
		}
	})

	onGatewayCall := order.OnGatewayCallCallback(e.metrics.GatewayCall)

	onSubmitRetry := order.OnSubmitRetryCallback(func(string, error, time.Duration) {
		e.metrics.SubmitRetry()
	})

	return order.Callbacks{
		OnOrderUpdate: &onOrderUpdate,
		OnGatewayCall: &onGatewayCall,
		OnSubmitRetry: &onSubmitRetry,
	}
}

// Start implements engine.TradingEngine.
func (e *TradingEngineV1) Start(ctx context.Context) error {
	e.mu.Lock()

	switch e.status {
	case types.EngineStatusStarting, types.EngineStatusRunning, types.EngineStatusStopping:
		status := e.status
		e.mu.Unlock()

		return errors.Newf(errors.ErrCodeEngineAlreadyRunning, "engine is %s", status)
	case types.EngineStatusStopped, types.EngineStatusError:
	}

	runID := uuid.NewString()
	e.status = types.EngineStatusStarting
	e.runID = runID
	e.startedAt = time.Now()
	e.lastError = ""
	e.mu.Unlock()

	e.emitStatus(types.EngineStatusStarting)
	e.stats.Initialize(e.config.Symbols, runID, e.startedAt)

	e.log.Info("Starting trading engine",
		zap.String("run_id", runID),
		zap.String("mode", e.config.Mode),
		zap.String("gateway", e.gateway.Name()),
		zap.Strings("symbols", e.config.Symbols),
		zap.String("timeframe", string(e.config.Timeframe)),
	)

	if err := e.prepare(ctx); err != nil {
		e.fail(err)

		return err
	}

	windows := make(map[string]*symbolWindow, len(e.config.Symbols))
	warm := e.prefetch.ExecutePrefetch(ctx, e.config.Symbols, e.config.WarmupCandles)

	for _, symbol := range e.config.Symbols {
		windows[symbol] = newSymbolWindow(symbol, e.config.WindowSize, warm[symbol])

		if last := windows[symbol].snapshot(); len(last) > 0 {
			closing := last[len(last)-1]
			e.store.UpdatePrice(symbol, closing.Close, e.closeTime(closing))
		}
	}

	// The loops outlive the Start call; Stop cancels them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	group, groupCtx := errgroup.WithContext(runCtx)

	for _, symbol := range e.config.Symbols {
		window := windows[symbol]

		group.Go(func() error {
			return e.runSymbol(groupCtx, window)
		})
	}

	group.Go(func() error {
		return e.runFills(groupCtx)
	})

	done := make(chan struct{})

	e.mu.Lock()
	e.cancel = cancel
	e.done = done
	e.status = types.EngineStatusRunning
	e.mu.Unlock()

	e.emitStatus(types.EngineStatusRunning)
	e.metrics.SetEquity(e.store.Equity())

	go func() {
		defer close(done)

		err := group.Wait()
		cancel()
		e.finish(err)
	}()

	e.log.Info("Trading engine started", zap.String("run_id", runID))

	return nil
}

// prepare checks the gateway and adopts open orders left by a previous run.
func (e *TradingEngineV1) prepare(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, e.config.GatewayTimeout)
	defer cancel()

	started := time.Now()
	err := e.gateway.CheckConnection(checkCtx)
	e.metrics.GatewayCall("check_connection", time.Since(started), err)

	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeUnknown {
			return errors.Wrap(errors.ErrCodeExchangeUnavailable, "gateway connection check failed", err)
		}

		return err
	}

	adopted, err := e.orders.Reconcile(ctx, e.config.Symbols)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeExchangeAuth) {
			return err
		}

		e.log.Warn("Order reconciliation incomplete", zap.Error(err))
	}

	if adopted > 0 {
		e.log.Info("Adopted open orders", zap.Int("count", adopted))
	}

	// A restarted run must not compare against the previous run's trends.
	if resetter, ok := e.strategy.(interface{ Reset() }); ok {
		resetter.Reset()
	}

	return nil
}

// Stop implements engine.TradingEngine.
func (e *TradingEngineV1) Stop(ctx context.Context) error {
	e.mu.Lock()

	if e.status != types.EngineStatusRunning {
		status := e.status
		e.mu.Unlock()

		return errors.Newf(errors.ErrCodeEngineNotRunning, "engine is %s", status)
	}

	e.status = types.EngineStatusStopping
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	e.emitStatus(types.EngineStatusStopping)
	e.log.Info("Stopping trading engine")

	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(errors.ErrCodeInternal, "timed out waiting for engine loops", ctx.Err())
	}
}

func (e *TradingEngineV1) finish(err error) {
	e.mu.Lock()

	status := types.EngineStatusStopped
	if err != nil && !stderrors.Is(err, context.Canceled) {
		status = types.EngineStatusError
		e.lastError = err.Error()
	}

	e.status = status
	e.cancel = nil
	e.mu.Unlock()

	e.emitStatus(status)

	if status == types.EngineStatusError {
		e.log.Error("Trading engine stopped with error", zap.Error(err))

		return
	}

	e.log.Info("Trading engine stopped",
		zap.Int("trades", e.stats.GetCumulativeStats().TradeResult.NumberOfTrades),
	)
}

func (e *TradingEngineV1) fail(err error) {
	e.mu.Lock()
	e.status = types.EngineStatusError
	e.lastError = err.Error()
	e.mu.Unlock()

	e.emitStatus(types.EngineStatusError)
	e.log.Error("Trading engine failed to start", zap.Error(err))
}

// runSymbol consumes the candle stream of one symbol until ctx is cancelled,
// resubscribing when the stream ends.
func (e *TradingEngineV1) runSymbol(ctx context.Context, window *symbolWindow) error {
	log := e.log.With(zap.String("symbol", window.symbol))

	for {
		for candle, err := range e.gateway.StreamCandles(ctx, window.symbol, e.config.Timeframe) {
			if ctx.Err() != nil {
				return nil
			}

			if err != nil {
				log.Warn("Candle stream error", zap.Error(err))
				e.reportError(window.symbol, err)

				continue
			}

			e.handleCandle(ctx, window, candle)
		}

		if ctx.Err() != nil {
			return nil
		}

		log.Warn("Candle stream ended, resubscribing", zap.Duration("delay", e.config.StreamRetryDelay))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.config.StreamRetryDelay):
		}
	}
}

func (e *TradingEngineV1) handleCandle(ctx context.Context, window *symbolWindow, candle types.Candle) {
	symbol := window.symbol

	if !window.streaming {
		window.streaming = true

		for _, missing := range e.prefetch.HandleStreamStart(ctx, symbol, window.lastTimestamp(), candle.Timestamp) {
			if window.accepts(missing) && missing.Validate() == nil {
				window.append(missing)
			}
		}
	}

	if !window.accepts(candle) {
		e.metrics.CandleDropped(symbol, "out_of_order")
		e.log.Warn("Dropping out-of-order candle",
			zap.String("symbol", symbol),
			zap.Time("timestamp", candle.Timestamp),
			zap.Time("last", window.lastTimestamp()),
		)

		return
	}

	if err := candle.Validate(); err != nil {
		e.metrics.CandleDropped(symbol, "invalid")
		e.log.Warn("Dropping invalid candle", zap.String("symbol", symbol), zap.Error(err))

		return
	}

	window.append(candle)

	e.store.UpdatePrice(symbol, candle.Close, e.closeTime(candle))

	account := e.store.Account()
	e.metrics.SetEquity(account.Equity)
	e.metrics.CandleProcessed(symbol)
	e.stats.SetUnrealizedPnL(account.UnrealizedPnL)

	if e.callbacks.OnCandle != nil {
		(*e.callbacks.OnCandle)(candle)
	}

	signal, err := e.evaluate(symbol, window.snapshot())
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeInsufficientData) {
			e.log.Debug("Waiting for more candles",
				zap.String("symbol", symbol),
				zap.Int("window", window.len()),
			)

			return
		}

		e.metrics.StrategyError(symbol)
		e.log.Warn("Strategy evaluation failed", zap.String("symbol", symbol), zap.Error(err))
		e.reportError(symbol, err)

		return
	}

	if signal.IsNone() {
		return
	}

	e.executeSignal(ctx, signal.Unwrap())
}

// evaluate runs the strategy, converting a panic into a strategy error.
func (e *TradingEngineV1) evaluate(symbol string, window []types.Candle) (signal optional.Option[types.Signal], err error) {
	defer func() {
		if r := recover(); r != nil {
			signal = optional.None[types.Signal]()
			err = errors.New(errors.ErrCodeStrategyRuntimeError, fmt.Sprintf("strategy %s panicked: %v", e.strategy.Name(), r))
		}
	}()

	return e.strategy.Evaluate(symbol, window)
}

func (e *TradingEngineV1) executeSignal(ctx context.Context, signal types.Signal) {
	log := e.log.With(
		zap.String("symbol", signal.Symbol),
		zap.String("side", string(signal.Side)),
		zap.Float64("confidence", signal.Confidence),
	)

	e.metrics.SignalGenerated(signal)
	e.stats.RecordSignal(signal)

	if e.callbacks.OnSignal != nil {
		(*e.callbacks.OnSignal)(signal)
	}

	position, _ := e.store.Position(signal.Symbol)

	quantity := sizeSignal(e.config.Risk, signal, position, e.store.Account())
	if quantity <= 0 {
		log.Info("Signal skipped by risk limits", zap.Float64("position", position.Quantity))

		return
	}

	created, err := e.orders.CreateOrder(types.OrderIntent{
		Symbol:          signal.Symbol,
		Side:            signal.Side,
		Kind:            types.OrderKindMarket,
		Quantity:        quantity,
		Price:           optional.None[float64](),
		SignalTimestamp: signal.Timestamp,
		Reason: types.Reason{
			Reason:  types.OrderReasonStrategy,
			Message: signal.Reason,
		},
	})
	if err != nil {
		log.Error("Failed to create order", zap.Error(err))
		e.reportError(signal.Symbol, err)

		return
	}

	submitted, err := e.orders.Submit(ctx, created.ID)

	switch {
	case errors.HasCode(err, errors.ErrCodeDuplicateSubmission):
		log.Info("Signal already submitted", zap.String("order_id", created.ID))
	case err != nil:
		log.Error("Failed to submit order", zap.String("order_id", created.ID), zap.Error(err))
		e.reportError(signal.Symbol, err)
	case submitted.Status == types.OrderStatusRejected:
		e.reportError(signal.Symbol, errors.Newf(errors.ErrCodeExchangeRejected,
			"order %s rejected: %s", submitted.ID, submitted.Reason.Reason))
	default:
		log.Debug("Signal executed",
			zap.String("order_id", submitted.ID),
			zap.Float64("quantity", quantity),
		)
	}
}

// runFills applies exchange fill events until ctx is cancelled.
func (e *TradingEngineV1) runFills(ctx context.Context) error {
	for {
		for fill, err := range e.gateway.StreamFills(ctx) {
			if ctx.Err() != nil {
				return nil
			}

			if err != nil {
				e.log.Warn("Fill stream error", zap.Error(err))
				e.reportError("", err)

				continue
			}

			e.handleFill(fill)
		}

		if ctx.Err() != nil {
			return nil
		}

		e.log.Warn("Fill stream ended, resubscribing", zap.Duration("delay", e.config.StreamRetryDelay))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.config.StreamRetryDelay):
		}
	}
}

func (e *TradingEngineV1) handleFill(fill types.FillEvent) {
	trade, err := e.orders.ApplyFill(fill)
	if err != nil {
		fields := []zap.Field{
			zap.String("order_id", fill.OrderID),
			zap.Int64("sequence", fill.Sequence),
			zap.Error(err),
		}

		if errors.HasCode(err, errors.ErrCodeUnknownOrder) || errors.HasCode(err, errors.ErrCodeInvalidState) {
			e.log.Error("Fill discarded", fields...)
		} else {
			e.log.Warn("Failed to apply fill", fields...)
		}

		e.reportError(fill.Symbol, err)

		return
	}

	if trade.ID == "" {
		e.log.Debug("Fill queued", zap.String("order_id", fill.OrderID), zap.Int64("sequence", fill.Sequence))
	}
}

// Status implements engine.TradingEngine.
func (e *TradingEngineV1) Status() types.TradingStatus {
	e.mu.Lock()
	status := e.status
	runID := e.runID
	startedAt := e.startedAt
	lastError := e.lastError
	e.mu.Unlock()

	var uptime time.Duration
	if status == types.EngineStatusRunning || status == types.EngineStatusStopping {
		uptime = time.Since(startedAt)
	}

	runStats := e.stats.GetCumulativeStats()
	runStats.OrdersByStatus = e.orders.CountByStatus()

	return types.TradingStatus{
		Status:    status,
		Mode:      e.config.Mode,
		RunID:     runID,
		StartedAt: startedAt,
		Uptime:    uptime,
		Symbols:   append([]string(nil), e.config.Symbols...),
		Timeframe: e.config.Timeframe,
		LastError: lastError,
		Account:   e.store.Account(),
		Stats:     runStats,
	}
}

// Orders implements engine.TradingEngine.
func (e *TradingEngineV1) Orders() []types.Order {
	return e.orders.Orders()
}

// DailyStats implements engine.TradingEngine. Days roll over in UTC.
func (e *TradingEngineV1) DailyStats() types.LiveTradeStats {
	return e.stats.GetDailyStats()
}

// OrderManager exposes the order manager for cancellation.
func (e *TradingEngineV1) OrderManager() *order.Manager {
	return e.orders
}

func (e *TradingEngineV1) closeTime(candle types.Candle) time.Time {
	interval, err := e.config.Timeframe.Duration()
	if err != nil {
		return candle.Timestamp
	}

	return candle.Timestamp.Add(interval)
}

func (e *TradingEngineV1) emitStatus(status types.EngineStatus) {
	e.metrics.SetEngineStatus(status)

	if e.callbacks.OnStatusUpdate != nil {
		(*e.callbacks.OnStatusUpdate)(status)
	}
}

func (e *TradingEngineV1) reportError(symbol string, err error) {
	if e.callbacks.OnError != nil {
		(*e.callbacks.OnError)(symbol, err)
	}
}

// tradeRecorder books applied fills into the portfolio and run statistics.
// It runs with the order manager lock held.
type tradeRecorder struct {
	engine *TradingEngineV1
}

var _ order.TradeRecorder = (*tradeRecorder)(nil)

func (r *tradeRecorder) RecordTrade(trade types.Trade) (types.Trade, error) {
	e := r.engine

	recorded, err := e.store.RecordTrade(trade)
	if err != nil {
		return types.Trade{}, err
	}

	e.stats.RecordTrade(recorded)
	e.metrics.FillApplied(recorded)
	e.metrics.SetEquity(e.store.Equity())

	if e.callbacks.OnTrade != nil {
		(*e.callbacks.OnTrade)(recorded)
	}

	return recorded, nil
}
