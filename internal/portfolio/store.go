// Package portfolio holds positions, trades and last prices shared between
// the trading engine and the API.
package portfolio

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/econicmedia/bot-sub001/internal/logger"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

// Snapshot is a point-in-time view of positions and trades taken under a
// single lock, so len(Trades) and position quantities always agree.
type Snapshot struct {
	Positions []types.Position  `json:"positions"`
	Trades    []types.Trade     `json:"trades"`
	Account   types.AccountInfo `json:"account"`
	TakenAt   time.Time         `json:"taken_at"`
}

type position struct {
	symbol      string
	quantity    decimal.Decimal
	avgEntry    decimal.Decimal
	realizedPnL decimal.Decimal
	openedAt    time.Time
	updatedAt   time.Time
}

// Store is safe for concurrent use. Positions and trades share one lock;
// prices use another so ticks never wait on trade recording.
type Store struct {
	mu          sync.RWMutex
	positions   map[string]*position
	trades      []types.Trade
	tradeIDs    map[string]struct{}
	cash        decimal.Decimal
	realizedPnL decimal.Decimal
	fees        decimal.Decimal

	priceMu sync.RWMutex
	prices  map[string]types.PriceTick

	subMu       sync.Mutex
	subscribers map[int]chan types.PriceTick
	nextSubID   int

	logger *logger.Logger
}

// NewStore creates an empty store holding startingCash.
func NewStore(startingCash float64, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Store{
		mu:          sync.RWMutex{},
		positions:   make(map[string]*position),
		trades:      nil,
		tradeIDs:    make(map[string]struct{}),
		cash:        decimal.NewFromFloat(startingCash),
		realizedPnL: decimal.Zero,
		fees:        decimal.Zero,
		priceMu:     sync.RWMutex{},
		prices:      make(map[string]types.PriceTick),
		subMu:       sync.Mutex{},
		subscribers: make(map[int]chan types.PriceTick),
		nextSubID:   0,
		logger:      log,
	}
}

// RecordTrade appends trade and applies it to the symbol's position in one
// critical section. The stored trade, with PnL filled in, is returned.
func (s *Store) RecordTrade(trade types.Trade) (types.Trade, error) {
	if err := trade.Validate(); err != nil {
		return types.Trade{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.tradeIDs[trade.ID]; seen {
		return types.Trade{}, errors.Newf(errors.ErrCodeInternal, "trade %s already recorded", trade.ID)
	}

	qty := decimal.NewFromFloat(trade.Quantity)
	if trade.Side == types.OrderSideSell {
		qty = qty.Neg()
	}

	price := decimal.NewFromFloat(trade.Price)
	fee := decimal.NewFromFloat(trade.Fee)

	pos, ok := s.positions[trade.Symbol]
	if !ok {
		pos = &position{
			symbol:      trade.Symbol,
			quantity:    decimal.Zero,
			avgEntry:    decimal.Zero,
			realizedPnL: decimal.Zero,
			openedAt:    trade.Timestamp,
			updatedAt:   trade.Timestamp,
		}
	}

	realized := applyFill(pos, qty, price, trade.Timestamp)

	trade.PnL = realized.InexactFloat64()
	s.trades = append(s.trades, trade)
	s.tradeIDs[trade.ID] = struct{}{}
	s.cash = s.cash.Sub(qty.Mul(price)).Sub(fee)
	s.realizedPnL = s.realizedPnL.Add(realized)
	s.fees = s.fees.Add(fee)

	if pos.quantity.IsZero() {
		delete(s.positions, trade.Symbol)
	} else {
		s.positions[trade.Symbol] = pos
	}

	s.logger.Debug("Trade recorded",
		zap.String("trade_id", trade.ID),
		zap.String("order_id", trade.OrderID),
		zap.String("symbol", trade.Symbol),
		zap.String("side", string(trade.Side)),
		zap.Float64("quantity", trade.Quantity),
		zap.Float64("price", trade.Price),
		zap.String("position", pos.quantity.String()),
	)

	return trade, nil
}

// applyFill updates pos with a signed quantity at price and returns the
// realized PnL.
func applyFill(pos *position, qty, price decimal.Decimal, ts time.Time) decimal.Decimal {
	realized := decimal.Zero
	current := pos.quantity

	switch {
	case current.IsZero() || current.Sign() == qty.Sign():
		total := current.Abs().Add(qty.Abs())
		pos.avgEntry = current.Abs().Mul(pos.avgEntry).Add(qty.Abs().Mul(price)).Div(total)

		if current.IsZero() {
			pos.openedAt = ts
		}
	default:
		closing := decimal.Min(current.Abs(), qty.Abs())
		realized = price.Sub(pos.avgEntry).Mul(closing).Mul(decimal.NewFromInt(int64(current.Sign())))

		if qty.Abs().GreaterThan(current.Abs()) {
			// Flipped through zero: the remainder opens at the fill price.
			pos.avgEntry = price
			pos.openedAt = ts
		}
	}

	pos.quantity = current.Add(qty)
	pos.realizedPnL = pos.realizedPnL.Add(realized)
	pos.updatedAt = ts

	return realized
}

// UpdatePrice overwrites the last tick for symbol and notifies subscribers.
// Ticks older than the stored one and non-finite or non-positive prices are
// ignored.
func (s *Store) UpdatePrice(symbol string, price float64, ts time.Time) {
	if price <= 0 || !types.IsFinite(price) {
		s.logger.Warn("Ignoring invalid price", zap.String("symbol", symbol), zap.Float64("price", price))

		return
	}

	tick := types.PriceTick{Symbol: symbol, Price: price, Timestamp: ts}

	s.priceMu.Lock()
	if prev, ok := s.prices[symbol]; ok && ts.Before(prev.Timestamp) {
		s.priceMu.Unlock()

		return
	}
	s.prices[symbol] = tick
	s.priceMu.Unlock()

	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subscribers {
		select {
		case ch <- tick:
		default:
		}
	}
}

// SubscribePrices returns a channel receiving every price update. Updates
// are dropped for a subscriber whose buffer is full. Call cancel to stop.
func (s *Store) SubscribePrices(buffer int) (<-chan types.PriceTick, func()) {
	ch := make(chan types.PriceTick, buffer)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

// Price returns the last tick for symbol.
func (s *Store) Price(symbol string) (types.PriceTick, bool) {
	s.priceMu.RLock()
	defer s.priceMu.RUnlock()

	tick, ok := s.prices[symbol]

	return tick, ok
}

// Prices returns all last ticks sorted by symbol.
func (s *Store) Prices() []types.PriceTick {
	s.priceMu.RLock()
	defer s.priceMu.RUnlock()

	ticks := make([]types.PriceTick, 0, len(s.prices))
	for _, tick := range s.prices {
		ticks = append(ticks, tick)
	}

	sort.Slice(ticks, func(i, j int) bool { return ticks[i].Symbol < ticks[j].Symbol })

	return ticks
}

// Position returns the open position for symbol.
func (s *Store) Position(symbol string) (types.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.positions[symbol]
	if !ok {
		return types.Position{}, false
	}

	return s.view(pos), true
}

// Positions returns all open positions sorted by symbol.
func (s *Store) Positions() []types.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.positionsLocked()
}

// Trades returns every recorded trade in recording order.
func (s *Store) Trades() []types.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]types.Trade(nil), s.trades...)
}

// Snapshot returns positions, trades and account figures from the same
// critical section.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.positionsLocked()

	return Snapshot{
		Positions: positions,
		Trades:    append([]types.Trade(nil), s.trades...),
		Account:   s.accountLocked(positions),
		TakenAt:   time.Now(),
	}
}

// Account returns cash, equity and PnL figures.
func (s *Store) Account() types.AccountInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.accountLocked(s.positionsLocked())
}

// Equity is cash plus the market value of open positions.
func (s *Store) Equity() float64 {
	return s.Account().Equity
}

func (s *Store) positionsLocked() []types.Position {
	positions := make([]types.Position, 0, len(s.positions))
	for _, pos := range s.positions {
		positions = append(positions, s.view(pos))
	}

	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })

	return positions
}

func (s *Store) accountLocked(positions []types.Position) types.AccountInfo {
	equity := s.cash
	unrealized := decimal.Zero

	for _, pos := range positions {
		equity = equity.Add(decimal.NewFromFloat(pos.Quantity).Mul(decimal.NewFromFloat(pos.LastPrice)))
		unrealized = unrealized.Add(decimal.NewFromFloat(pos.UnrealizedPnL))
	}

	return types.AccountInfo{
		Cash:          s.cash.InexactFloat64(),
		Equity:        equity.InexactFloat64(),
		RealizedPnL:   s.realizedPnL.InexactFloat64(),
		UnrealizedPnL: unrealized.InexactFloat64(),
		TotalFees:     s.fees.InexactFloat64(),
	}
}

// view converts pos to its public form, valuing it at the last price or at
// the entry price when no tick has arrived yet. Caller holds s.mu.
func (s *Store) view(pos *position) types.Position {
	last := pos.avgEntry
	if tick, ok := s.Price(pos.symbol); ok {
		last = decimal.NewFromFloat(tick.Price)
	}

	unrealized := last.Sub(pos.avgEntry).Mul(pos.quantity)

	return types.Position{
		Symbol:        pos.symbol,
		Quantity:      pos.quantity.InexactFloat64(),
		AvgEntryPrice: pos.avgEntry.InexactFloat64(),
		RealizedPnL:   pos.realizedPnL.InexactFloat64(),
		UnrealizedPnL: unrealized.InexactFloat64(),
		LastPrice:     last.InexactFloat64(),
		OpenedAt:      pos.openedAt,
		UpdatedAt:     pos.updatedAt,
	}
}
