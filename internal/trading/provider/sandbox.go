package tradingprovider

import (
	"context"
	"iter"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/econicmedia/bot-sub001/internal/logger"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/internal/utils"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

const (
	sandboxHistoryLimit = 1000
	sandboxFillBuffer   = 1024
)

// SandboxConfig tunes the simulated exchange.
type SandboxConfig struct {
	InitialPrice   float64
	Volatility     float64
	Drift          float64
	CandleInterval time.Duration
	FillParts      int
	FeeRate        float64
	Seed           int64
}

type sandboxSymbol struct {
	history  []types.Candle
	price    float64
	nextTime time.Time
}

type sandboxOrder struct {
	order    ExchangeOrder
	sequence int64
}

// SandboxGateway is an in-process exchange used for paper trading and tests.
// Market orders fill at the last close, split into FillParts fills. Limit
// and stop orders rest until a generated candle crosses their price.
type SandboxGateway struct {
	config    SandboxConfig
	generator *CandleGenerator
	logger    *logger.Logger
	fills     chan types.FillEvent

	mu           sync.Mutex
	symbols      map[string]*sandboxSymbol
	orders       map[string]*sandboxOrder
	byExchangeID map[string]*sandboxOrder
	nextID       int64
	failures     int
	failureCode  errors.ErrorCode
}

var _ ExchangeGateway = (*SandboxGateway)(nil)

// NewSandboxGateway creates a sandbox exchange.
func NewSandboxGateway(config SandboxConfig, log *logger.Logger) *SandboxGateway {
	if config.InitialPrice <= 0 {
		config.InitialPrice = 50000
	}

	if config.CandleInterval <= 0 {
		config.CandleInterval = time.Second
	}

	if config.FillParts < 1 {
		config.FillParts = 1
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SandboxGateway{
		config:       config,
		generator:    NewCandleGenerator(seed, config.Volatility, config.Drift),
		logger:       log.Named("sandbox"),
		fills:        make(chan types.FillEvent, sandboxFillBuffer),
		mu:           sync.Mutex{},
		symbols:      make(map[string]*sandboxSymbol),
		orders:       make(map[string]*sandboxOrder),
		byExchangeID: make(map[string]*sandboxOrder),
		nextID:       0,
		failures:     0,
		failureCode:  errors.ErrCodeExchangeNetwork,
	}
}

func (s *SandboxGateway) Name() string {
	return string(ProviderSandbox)
}

func (s *SandboxGateway) CheckConnection(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeExchangeNetwork, "sandbox unreachable", err)
	}

	return nil
}

// FailNextPlacements makes the next n PlaceOrder calls fail with code.
func (s *SandboxGateway) FailNextPlacements(n int, code errors.ErrorCode) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = n
	s.failureCode = code
}

// SetPrice moves the simulated market of symbol to price.
func (s *SandboxGateway) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.symbol(symbol).price = price
}

// PlaceOrder accepts the order and schedules its fills.
func (s *SandboxGateway) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (ExchangeOrder, error) {
	if err := ctx.Err(); err != nil {
		return ExchangeOrder{}, errors.Wrap(errors.ErrCodeExchangeNetwork, "sandbox request cancelled", err)
	}

	if req.Quantity <= 0 {
		return ExchangeOrder{}, errors.New(errors.ErrCodeExchangeRejected, "order quantity must be greater than zero")
	}

	if req.Kind.RequiresPrice() && req.Price.IsNone() {
		return ExchangeOrder{}, errors.Newf(errors.ErrCodeExchangeRejected, "%s order requires a price", req.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failures > 0 {
		s.failures--

		return ExchangeOrder{}, errors.Newf(s.failureCode, "sandbox injected failure placing %s", req.ClientOrderID)
	}

	if existing, ok := s.orders[req.ClientOrderID]; ok {
		return existing.order, nil
	}

	s.nextID++
	now := time.Now()

	entry := &sandboxOrder{
		order: ExchangeOrder{
			ClientOrderID:   req.ClientOrderID,
			ExchangeOrderID: "SBX-" + strconv.FormatInt(s.nextID, 10),
			Symbol:          req.Symbol,
			Side:            req.Side,
			Kind:            req.Kind,
			Quantity:        req.Quantity,
			Price:           optionalPrice(req.Price),
			FilledQuantity:  0,
			AvgFillPrice:    0,
			Status:          types.OrderStatusSubmitted,
			UpdatedAt:       now,
		},
		sequence: 0,
	}

	s.orders[req.ClientOrderID] = entry
	s.byExchangeID[entry.order.ExchangeOrderID] = entry

	ack := entry.order

	if req.Kind == types.OrderKindMarket {
		s.execute(entry, s.symbol(req.Symbol).price, now)
	}

	return ack, nil
}

// CancelOrder cancels a resting order.
func (s *SandboxGateway) CancelOrder(ctx context.Context, _ string, exchangeOrderID string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeExchangeNetwork, "sandbox request cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.byExchangeID[exchangeOrderID]
	if !ok {
		return errors.Newf(errors.ErrCodeUnknownOrder, "unknown sandbox order %s", exchangeOrderID)
	}

	switch entry.order.Status {
	case types.OrderStatusFilled:
		return errors.Newf(errors.ErrCodeOrderAlreadyFilled, "order %s already filled", exchangeOrderID)
	case types.OrderStatusCancelled:
		return nil
	case types.OrderStatusRejected:
		return errors.Newf(errors.ErrCodeExchangeRejected, "order %s was rejected", exchangeOrderID)
	case types.OrderStatusCreated, types.OrderStatusSubmitted, types.OrderStatusPartiallyFilled:
		entry.order.Status = types.OrderStatusCancelled
		entry.order.UpdatedAt = time.Now()

		return nil
	default:
		return errors.Newf(errors.ErrCodeExchangeRejected, "order %s has unknown status %s", exchangeOrderID, entry.order.Status)
	}
}

func (s *SandboxGateway) QueryOrder(ctx context.Context, _ string, clientOrderID string) (ExchangeOrder, error) {
	if err := ctx.Err(); err != nil {
		return ExchangeOrder{}, errors.Wrap(errors.ErrCodeExchangeNetwork, "sandbox request cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.orders[clientOrderID]
	if !ok {
		return ExchangeOrder{}, errors.Newf(errors.ErrCodeUnknownOrder, "unknown sandbox order %s", clientOrderID)
	}

	return entry.order, nil
}

func (s *SandboxGateway) OpenOrders(ctx context.Context, symbol string) ([]ExchangeOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExchangeNetwork, "sandbox request cancelled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]ExchangeOrder, 0)

	for _, entry := range s.orders {
		if entry.order.Symbol == symbol && !entry.order.Status.IsTerminal() {
			result = append(result, entry.order)
		}
	}

	return result, nil
}

// StreamFills yields fills in execution order until ctx is cancelled.
func (s *SandboxGateway) StreamFills(ctx context.Context) iter.Seq2[types.FillEvent, error] {
	return func(yield func(types.FillEvent, error) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case fill := <-s.fills:
				if !yield(fill, nil) {
					return
				}
			}
		}
	}
}

// StreamCandles generates one candle per CandleInterval. Candle timestamps
// advance by the timeframe duration regardless of the wall clock.
func (s *SandboxGateway) StreamCandles(ctx context.Context, symbol string, timeframe types.Timeframe) iter.Seq2[types.Candle, error] {
	return func(yield func(types.Candle, error) bool) {
		interval, err := timeframe.Duration()
		if err != nil {
			yield(types.Candle{}, err)

			return
		}

		ticker := time.NewTicker(s.config.CandleInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			candle := s.advance(symbol, timeframe, interval)
			if !yield(candle, nil) {
				return
			}
		}
	}
}

// FetchCandles returns up to limit of the most recent candles, generating
// history for symbols that have none yet.
func (s *SandboxGateway) FetchCandles(ctx context.Context, symbol string, timeframe types.Timeframe, limit int) ([]types.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "sandbox request cancelled", err)
	}

	interval, err := timeframe.Duration()
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		return []types.Candle{}, nil
	}

	limit = min(limit, sandboxHistoryLimit)

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.symbol(symbol)

	if len(state.history) == 0 {
		start := time.Now().Truncate(interval).Add(-time.Duration(limit) * interval)
		state.history = s.generator.Series(symbol, timeframe, start, interval, state.price, limit)
		last := state.history[len(state.history)-1]
		state.price = last.Close
		state.nextTime = last.Timestamp.Add(interval)
	}

	from := max(0, len(state.history)-limit)
	result := make([]types.Candle, len(state.history)-from)
	copy(result, state.history[from:])

	return result, nil
}

func (s *SandboxGateway) symbol(symbol string) *sandboxSymbol {
	state, ok := s.symbols[symbol]
	if !ok {
		state = &sandboxSymbol{
			history:  nil,
			price:    s.config.InitialPrice,
			nextTime: time.Time{},
		}
		s.symbols[symbol] = state
	}

	return state
}

func (s *SandboxGateway) advance(symbol string, timeframe types.Timeframe, interval time.Duration) types.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.symbol(symbol)
	if state.nextTime.IsZero() {
		state.nextTime = time.Now().Truncate(interval)
	}

	candle := s.generator.Next(symbol, timeframe, state.nextTime, state.price)
	state.price = candle.Close
	state.nextTime = state.nextTime.Add(interval)

	state.history = append(state.history, candle)
	if len(state.history) > sandboxHistoryLimit {
		state.history = state.history[len(state.history)-sandboxHistoryLimit:]
	}

	s.trigger(candle)

	return candle
}

// trigger fills resting orders crossed by candle. Called with mu held.
func (s *SandboxGateway) trigger(candle types.Candle) {
	for _, entry := range s.orders {
		order := entry.order
		if order.Symbol != candle.Symbol || order.Status.IsTerminal() || order.Kind == types.OrderKindMarket {
			continue
		}

		crossed := false

		switch {
		case order.Kind == types.OrderKindLimit && order.Side == types.OrderSideBuy:
			crossed = candle.Low <= order.Price
		case order.Kind == types.OrderKindLimit && order.Side == types.OrderSideSell:
			crossed = candle.High >= order.Price
		case order.Kind == types.OrderKindStop && order.Side == types.OrderSideBuy:
			crossed = candle.High >= order.Price
		case order.Kind == types.OrderKindStop && order.Side == types.OrderSideSell:
			crossed = candle.Low <= order.Price
		}

		if crossed {
			s.execute(entry, order.Price, candle.Timestamp)
		}
	}
}

// execute fills the remainder of entry at price. Called with mu held.
func (s *SandboxGateway) execute(entry *sandboxOrder, price float64, ts time.Time) {
	remaining := entry.order.Quantity - entry.order.FilledQuantity
	parts := s.config.FillParts
	part := utils.RoundToDecimalPrecision(remaining/float64(parts), BinanceDecimalPrecision)

	if part <= 0 {
		parts = 1
	}

	for i := range parts {
		quantity := part
		if i == parts-1 {
			quantity = remaining - part*float64(parts-1)
		}

		entry.sequence++

		fill := types.FillEvent{
			OrderID:         entry.order.ClientOrderID,
			ExchangeOrderID: entry.order.ExchangeOrderID,
			Symbol:          entry.order.Symbol,
			Sequence:        entry.sequence,
			Quantity:        quantity,
			Price:           price,
			Fee:             quantity * price * s.config.FeeRate,
			Timestamp:       ts,
		}

		select {
		case s.fills <- fill:
		default:
			s.logger.Error("Sandbox fill buffer full, dropping fill",
				zap.String("order_id", fill.OrderID),
				zap.Int64("sequence", fill.Sequence),
			)
		}
	}

	filledValue := entry.order.AvgFillPrice*entry.order.FilledQuantity + price*remaining
	entry.order.FilledQuantity = entry.order.Quantity
	entry.order.AvgFillPrice = filledValue / entry.order.Quantity
	entry.order.Status = types.OrderStatusFilled
	entry.order.UpdatedAt = ts
}
