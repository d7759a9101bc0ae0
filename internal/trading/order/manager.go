// Package order owns the order lifecycle: creation, idempotent submission
// with retries, fill application and cancellation.
package order

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/econicmedia/bot-sub001/internal/logger"
	tradingprovider "github.com/econicmedia/bot-sub001/internal/trading/provider"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

// quantityEpsilon absorbs float noise when comparing filled and requested quantity.
var quantityEpsilon = decimal.New(1, -9)

// TradeRecorder receives a trade for every applied fill.
type TradeRecorder interface {
	RecordTrade(trade types.Trade) (types.Trade, error)
}

// Config tunes submission and deduplication.
type Config struct {
	// Symbols is the tradable universe. Empty allows any symbol.
	Symbols           []string
	DedupWindow       time.Duration
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	GatewayTimeout    time.Duration
	ClientOrderPrefix string
}

// DefaultConfig returns the default submission settings.
func DefaultConfig() Config {
	return Config{
		Symbols:           nil,
		DedupWindow:       time.Minute,
		MaxAttempts:       3,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		GatewayTimeout:    10 * time.Second,
		ClientOrderPrefix: "bot",
	}
}

// OnOrderUpdateCallback is called after every status change.
type OnOrderUpdateCallback func(order types.Order)

// OnGatewayCallCallback is called after every gateway call.
type OnGatewayCallCallback func(operation string, duration time.Duration, err error)

// OnSubmitRetryCallback is called before a submission is retried.
type OnSubmitRetryCallback func(orderID string, err error, wait time.Duration)

// Callbacks are invoked with the manager lock held and must not call back
// into the Manager. Nil fields are skipped.
type Callbacks struct {
	OnOrderUpdate *OnOrderUpdateCallback
	OnGatewayCall *OnGatewayCallCallback
	OnSubmitRetry *OnSubmitRetryCallback
}

type managedOrder struct {
	order           types.Order
	fingerprint     string
	submitting      bool
	cancelRequested bool
	lastSequence    int64
	pending         map[int64]types.FillEvent
	filledQty       decimal.Decimal
	filledNotional  decimal.Decimal
}

// Manager tracks every order of the process. Gateway calls are never made
// while the lock is held.
type Manager struct {
	gateway   tradingprovider.ExchangeGateway
	recorder  TradeRecorder
	config    Config
	callbacks Callbacks
	logger    *logger.Logger
	now       func() time.Time

	mu           sync.Mutex
	orders       map[string]*managedOrder
	created      []string
	fingerprints *fingerprintSet
}

// NewManager creates an order manager that submits through gateway and
// records trades into recorder.
func NewManager(
	gateway tradingprovider.ExchangeGateway,
	recorder TradeRecorder,
	config Config,
	callbacks Callbacks,
	log *logger.Logger,
) *Manager {
	defaults := DefaultConfig()

	if config.DedupWindow <= 0 {
		config.DedupWindow = defaults.DedupWindow
	}

	if config.MaxAttempts < 1 {
		config.MaxAttempts = defaults.MaxAttempts
	}

	if config.InitialBackoff <= 0 {
		config.InitialBackoff = defaults.InitialBackoff
	}

	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}

	if config.GatewayTimeout <= 0 {
		config.GatewayTimeout = defaults.GatewayTimeout
	}

	if config.ClientOrderPrefix == "" {
		config.ClientOrderPrefix = defaults.ClientOrderPrefix
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Manager{
		gateway:      gateway,
		recorder:     recorder,
		config:       config,
		callbacks:    callbacks,
		logger:       log.Named("order"),
		now:          time.Now,
		mu:           sync.Mutex{},
		orders:       make(map[string]*managedOrder),
		created:      make([]string, 0),
		fingerprints: newFingerprintSet(config.DedupWindow),
	}
}

// ClientOrderPrefix is the prefix of every order id issued by this manager.
func (m *Manager) ClientOrderPrefix() string {
	return m.config.ClientOrderPrefix
}

// CreateOrder validates intent and registers a new order in Created.
func (m *Manager) CreateOrder(intent types.OrderIntent) (types.Order, error) {
	if err := intent.Validate(); err != nil {
		return types.Order{}, err
	}

	if len(m.config.Symbols) > 0 && !slices.Contains(m.config.Symbols, intent.Symbol) {
		return types.Order{}, errors.Newf(errors.ErrCodeInvalidOrderIntent, "symbol %s is not in the trading universe", intent.Symbol)
	}

	now := m.now()
	reason := intent.Reason

	if reason.Reason == "" {
		reason.Reason = types.OrderReasonStrategy
	}

	order := types.Order{
		ID:              m.newOrderID(),
		Symbol:          intent.Symbol,
		Side:            intent.Side,
		Kind:            intent.Kind,
		Quantity:        intent.Quantity,
		Price:           intent.Price,
		Status:          types.OrderStatusCreated,
		StatusHistory:   []types.OrderStatus{types.OrderStatusCreated},
		CreatedAt:       now,
		UpdatedAt:       now,
		ExchangeOrderID: "",
		FilledQuantity:  0,
		AvgFillPrice:    0,
		SignalTimestamp: intent.SignalTimestamp,
		Reason:          reason,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[order.ID] = newManagedOrder(order)
	m.created = append(m.created, order.ID)
	m.notify(order)

	return order.Clone(), nil
}

// Submit sends a Created order to the exchange. Gateway outcomes are
// reported through the returned order's status: Submitted on success,
// Rejected with a reason otherwise. Errors are returned only for unknown
// orders, orders not in Created and duplicate submissions.
func (m *Manager) Submit(ctx context.Context, orderID string) (types.Order, error) {
	m.mu.Lock()

	managed, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()

		return types.Order{}, errors.Newf(errors.ErrCodeUnknownOrder, "unknown order %s", orderID)
	}

	if managed.order.Status != types.OrderStatusCreated || managed.submitting {
		order := managed.order.Clone()
		m.mu.Unlock()

		return order, errors.Newf(errors.ErrCodeInvalidState, "order %s is %s, only created orders can be submitted", orderID, order.Status)
	}

	fp := fingerprint(managed.order)
	if holder := m.fingerprints.claim(fp, orderID, m.now()); holder != "" {
		m.mustTransition(managed, types.OrderStatusRejected, types.Reason{
			Reason:  types.OrderReasonDuplicateSubmission,
			Message: "duplicate of order " + holder,
		})

		order := managed.order.Clone()
		m.mu.Unlock()

		m.logger.Warn("Duplicate submission rejected",
			zap.String("order_id", orderID),
			zap.String("duplicate_of", holder),
		)

		return order, errors.Newf(errors.ErrCodeDuplicateSubmission, "order %s duplicates order %s", orderID, holder)
	}

	managed.fingerprint = fp
	managed.submitting = true

	req := tradingprovider.PlaceOrderRequest{
		ClientOrderID: managed.order.ID,
		Symbol:        managed.order.Symbol,
		Side:          managed.order.Side,
		Kind:          managed.order.Kind,
		Quantity:      managed.order.Quantity,
		Price:         managed.order.Price,
	}

	m.mu.Unlock()

	ack, err := m.place(ctx, req)

	m.mu.Lock()

	managed.submitting = false

	if err != nil {
		reason := rejectionReason(err)

		// Ambiguous failures keep the fingerprint: the order may exist on the exchange.
		if reason.Reason != types.OrderReasonExchangeUnavailable {
			m.fingerprints.release(fp, orderID)
		}

		m.mustTransition(managed, types.OrderStatusRejected, reason)
		order := managed.order.Clone()
		m.mu.Unlock()

		m.logger.Warn("Order rejected",
			zap.String("order_id", orderID),
			zap.String("symbol", order.Symbol),
			zap.String("reason", reason.Reason),
			zap.Error(err),
		)

		return order, nil
	}

	managed.order.ExchangeOrderID = ack.ExchangeOrderID
	m.mustTransition(managed, types.OrderStatusSubmitted, types.Reason{})
	m.drainLocked(managed)

	cancelAfterAck := managed.cancelRequested && !managed.order.Status.IsTerminal()
	order := managed.order.Clone()
	m.mu.Unlock()

	m.logger.Info("Order submitted",
		zap.String("order_id", orderID),
		zap.String("exchange_order_id", ack.ExchangeOrderID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("quantity", order.Quantity),
	)

	if cancelAfterAck {
		cancelled, cancelErr := m.cancelOnExchange(ctx, orderID, order.Symbol, order.ExchangeOrderID)
		if cancelErr != nil {
			m.logger.Warn("Deferred cancel failed", zap.String("order_id", orderID), zap.Error(cancelErr))

			return order, nil
		}

		return cancelled, nil
	}

	return order, nil
}

// place calls PlaceOrder with a per-call timeout, retrying transient
// failures with exponential backoff. In-flight calls are detached from ctx
// so a stopping engine still learns the outcome; ctx only stops further
// attempts.
func (m *Manager) place(ctx context.Context, req tradingprovider.PlaceOrderRequest) (tradingprovider.ExchangeOrder, error) {
	var ack tradingprovider.ExchangeOrder

	attempts := 0

	operation := func() error {
		attempts++

		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.config.GatewayTimeout)
		defer cancel()

		start := time.Now()
		result, err := m.gateway.PlaceOrder(callCtx, req)
		m.observeCall("place_order", time.Since(start), err)

		if err == nil {
			ack = result

			return nil
		}

		// An earlier attempt may have reached the exchange before timing out.
		if attempts > 1 && errors.HasCode(err, errors.ErrCodeExchangeRejected) {
			existing, queryErr := m.gateway.QueryOrder(callCtx, req.Symbol, req.ClientOrderID)
			if queryErr == nil {
				ack = existing

				return nil
			}
		}

		if errors.IsTransient(err) {
			return err
		}

		return backoff.Permanent(err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.config.InitialBackoff
	policy.MaxInterval = m.config.MaxBackoff
	policy.MaxElapsedTime = 0

	retries := uint64(m.config.MaxAttempts - 1) //nolint:gosec // MaxAttempts >= 1

	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, retries), ctx),
		func(err error, wait time.Duration) {
			m.logger.Debug("Retrying order submission",
				zap.String("order_id", req.ClientOrderID),
				zap.Int("attempt", attempts),
				zap.Duration("wait", wait),
				zap.Error(err),
			)

			if m.callbacks.OnSubmitRetry != nil {
				(*m.callbacks.OnSubmitRetry)(req.ClientOrderID, err, wait)
			}
		})
	if err != nil {
		if errors.IsTransient(err) || errors.Is(err, context.Canceled) {
			return tradingprovider.ExchangeOrder{}, errors.Wrapf(errors.ErrCodeExchangeUnavailable, err,
				"exchange unavailable after %d attempts", attempts)
		}

		return tradingprovider.ExchangeOrder{}, err
	}

	return ack, nil
}

func rejectionReason(err error) types.Reason {
	switch errors.GetCode(err) {
	case errors.ErrCodeExchangeAuth:
		return types.Reason{Reason: types.OrderReasonExchangeAuth, Message: err.Error()}
	case errors.ErrCodeExchangeRejected, errors.ErrCodeInvalidOrderIntent:
		return types.Reason{Reason: types.OrderReasonExchangeRejected, Message: err.Error()}
	default:
		return types.Reason{Reason: types.OrderReasonExchangeUnavailable, Message: err.Error()}
	}
}

// ApplyFill applies a fill to its order in sequence order. A fill whose
// predecessor has not arrived yet, or whose order is still being submitted,
// is queued and the returned Trade is empty; it is applied once the gap
// closes. Every applied fill is forwarded to the TradeRecorder.
func (m *Manager) ApplyFill(fill types.FillEvent) (types.Trade, error) {
	if fill.Quantity <= 0 || fill.Price <= 0 || fill.Fee < 0 || fill.Sequence < 1 ||
		!types.IsFinite(fill.Quantity, fill.Price, fill.Fee) {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidInput,
			"invalid fill for order %s: sequence=%d quantity=%v price=%v fee=%v",
			fill.OrderID, fill.Sequence, fill.Quantity, fill.Price, fill.Fee)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	managed, ok := m.orders[fill.OrderID]
	if !ok {
		return types.Trade{}, errors.Newf(errors.ErrCodeUnknownOrder, "fill for unknown order %s", fill.OrderID)
	}

	if managed.order.Status.IsTerminal() {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidState, "fill for %s order %s", managed.order.Status, fill.OrderID)
	}

	if fill.Sequence <= managed.lastSequence {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidState,
			"stale fill sequence %d for order %s (last applied %d)", fill.Sequence, fill.OrderID, managed.lastSequence)
	}

	if _, queued := managed.pending[fill.Sequence]; queued {
		return types.Trade{}, errors.Newf(errors.ErrCodeInvalidState,
			"fill sequence %d for order %s already queued", fill.Sequence, fill.OrderID)
	}

	if managed.order.Status == types.OrderStatusCreated || fill.Sequence != managed.lastSequence+1 {
		managed.pending[fill.Sequence] = fill

		m.logger.Debug("Fill queued",
			zap.String("order_id", fill.OrderID),
			zap.Int64("sequence", fill.Sequence),
			zap.Int64("last_applied", managed.lastSequence),
		)

		return types.Trade{}, nil
	}

	trade, err := m.applyLocked(managed, fill)
	if err != nil {
		return types.Trade{}, err
	}

	m.drainLocked(managed)

	return trade, nil
}

// applyLocked records the trade of fill and advances the order.
func (m *Manager) applyLocked(managed *managedOrder, fill types.FillEvent) (types.Trade, error) {
	quantity := decimal.NewFromFloat(fill.Quantity)
	price := decimal.NewFromFloat(fill.Price)
	requested := decimal.NewFromFloat(managed.order.Quantity)

	if managed.filledQty.Add(quantity).GreaterThan(requested.Add(quantityEpsilon)) {
		m.logger.Warn("Fill exceeds remaining quantity",
			zap.String("order_id", managed.order.ID),
			zap.Float64("remaining", managed.order.RemainingQuantity()),
			zap.Float64("fill_quantity", fill.Quantity),
		)
	}

	timestamp := fill.Timestamp
	if timestamp.IsZero() {
		timestamp = m.now()
	}

	recorded, err := m.recorder.RecordTrade(types.Trade{
		ID:        uuid.NewString(),
		OrderID:   managed.order.ID,
		Symbol:    managed.order.Symbol,
		Side:      managed.order.Side,
		Quantity:  fill.Quantity,
		Price:     fill.Price,
		Fee:       fill.Fee,
		Timestamp: timestamp,
		PnL:       0,
	})
	if err != nil {
		return types.Trade{}, errors.Wrapf(errors.ErrCodeInternal, err, "failed to record fill %d of order %s", fill.Sequence, managed.order.ID)
	}

	managed.lastSequence = fill.Sequence
	managed.filledQty = managed.filledQty.Add(quantity)
	managed.filledNotional = managed.filledNotional.Add(quantity.Mul(price))
	managed.order.FilledQuantity = managed.filledQty.InexactFloat64()
	managed.order.AvgFillPrice = managed.filledNotional.Div(managed.filledQty).InexactFloat64()

	if managed.order.ExchangeOrderID == "" {
		managed.order.ExchangeOrderID = fill.ExchangeOrderID
	}

	next := types.OrderStatusPartiallyFilled
	if requested.Sub(managed.filledQty).LessThanOrEqual(quantityEpsilon) {
		next = types.OrderStatusFilled
	}

	m.mustTransition(managed, next, types.Reason{})

	m.logger.Info("Fill applied",
		zap.String("order_id", managed.order.ID),
		zap.Int64("sequence", fill.Sequence),
		zap.Float64("quantity", fill.Quantity),
		zap.Float64("price", fill.Price),
		zap.String("status", string(managed.order.Status)),
	)

	return recorded, nil
}

// drainLocked applies queued fills that are now in sequence.
func (m *Manager) drainLocked(managed *managedOrder) {
	for !managed.order.Status.IsTerminal() && managed.order.Status != types.OrderStatusCreated {
		fill, ok := managed.pending[managed.lastSequence+1]
		if !ok {
			return
		}

		delete(managed.pending, fill.Sequence)

		if _, err := m.applyLocked(managed, fill); err != nil {
			m.logger.Error("Failed to apply queued fill",
				zap.String("order_id", managed.order.ID),
				zap.Int64("sequence", fill.Sequence),
				zap.Error(err),
			)

			return
		}
	}

	if managed.order.Status.IsTerminal() && len(managed.pending) > 0 {
		m.logger.Warn("Dropping queued fills of terminal order",
			zap.String("order_id", managed.order.ID),
			zap.Int("count", len(managed.pending)),
		)
		clear(managed.pending)
	}
}

// Cancel cancels a non-terminal order. Created orders are cancelled locally;
// an order whose submission is in flight is cancelled once acknowledged.
// When the exchange reports the order already filled, the order is left for
// the fill stream to complete and no error is returned.
func (m *Manager) Cancel(ctx context.Context, orderID string) (types.Order, error) {
	m.mu.Lock()

	managed, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()

		return types.Order{}, errors.Newf(errors.ErrCodeUnknownOrder, "unknown order %s", orderID)
	}

	if managed.order.Status.IsTerminal() {
		order := managed.order.Clone()
		m.mu.Unlock()

		return order, errors.Newf(errors.ErrCodeInvalidState, "order %s is already %s", orderID, order.Status)
	}

	if managed.order.Status == types.OrderStatusCreated {
		if managed.submitting {
			managed.cancelRequested = true
		} else {
			m.mustTransition(managed, types.OrderStatusCancelled, types.Reason{
				Reason:  types.OrderReasonCancelled,
				Message: "cancelled before submission",
			})
		}

		order := managed.order.Clone()
		m.mu.Unlock()

		return order, nil
	}

	managed.cancelRequested = true
	symbol := managed.order.Symbol
	exchangeOrderID := managed.order.ExchangeOrderID
	m.mu.Unlock()

	return m.cancelOnExchange(ctx, orderID, symbol, exchangeOrderID)
}

func (m *Manager) cancelOnExchange(ctx context.Context, orderID, symbol, exchangeOrderID string) (types.Order, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.config.GatewayTimeout)
	defer cancel()

	start := time.Now()
	err := m.gateway.CancelOrder(callCtx, symbol, exchangeOrderID)
	m.observeCall("cancel_order", time.Since(start), err)

	m.mu.Lock()
	defer m.mu.Unlock()

	managed := m.orders[orderID]

	switch {
	case err == nil:
		if !managed.order.Status.IsTerminal() {
			m.mustTransition(managed, types.OrderStatusCancelled, types.Reason{
				Reason:  types.OrderReasonCancelled,
				Message: "cancelled on request",
			})
		}

		return managed.order.Clone(), nil
	case errors.HasCode(err, errors.ErrCodeOrderAlreadyFilled):
		m.logger.Info("Cancel raced with fill, awaiting fills",
			zap.String("order_id", orderID),
			zap.String("status", string(managed.order.Status)),
		)

		return managed.order.Clone(), nil
	default:
		managed.cancelRequested = false

		return managed.order.Clone(), err
	}
}

// Reconcile adopts open exchange orders carrying this manager's client id
// prefix and settles local working orders the exchange no longer lists.
// It returns the number of adopted orders.
func (m *Manager) Reconcile(ctx context.Context, symbols []string) (int, error) {
	adopted := 0
	prefix := m.config.ClientOrderPrefix + "-"

	for _, symbol := range symbols {
		callCtx, cancel := context.WithTimeout(ctx, m.config.GatewayTimeout)
		start := time.Now()
		open, err := m.gateway.OpenOrders(callCtx, symbol)
		m.observeCall("open_orders", time.Since(start), err)
		cancel()

		if err != nil {
			return adopted, errors.Wrapf(errors.GetCode(err), err, "failed to list open orders for %s", symbol)
		}

		listed := make(map[string]struct{}, len(open))

		for _, exchangeOrder := range open {
			listed[exchangeOrder.ClientOrderID] = struct{}{}

			if !strings.HasPrefix(exchangeOrder.ClientOrderID, prefix) {
				continue
			}

			if m.adopt(exchangeOrder) {
				adopted++
			}
		}

		for _, orderID := range m.workingOrders(symbol) {
			if _, ok := listed[orderID]; ok {
				continue
			}

			m.settle(ctx, symbol, orderID)
		}
	}

	return adopted, nil
}

func (m *Manager) adopt(exchangeOrder tradingprovider.ExchangeOrder) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.orders[exchangeOrder.ClientOrderID]; exists {
		return false
	}

	now := m.now()
	history := []types.OrderStatus{types.OrderStatusCreated, types.OrderStatusSubmitted}
	status := types.OrderStatusSubmitted

	if exchangeOrder.FilledQuantity > 0 {
		status = types.OrderStatusPartiallyFilled
		history = append(history, types.OrderStatusPartiallyFilled)
	}

	price := optionalPrice(exchangeOrder)

	order := types.Order{
		ID:              exchangeOrder.ClientOrderID,
		Symbol:          exchangeOrder.Symbol,
		Side:            exchangeOrder.Side,
		Kind:            exchangeOrder.Kind,
		Quantity:        exchangeOrder.Quantity,
		Price:           price,
		Status:          status,
		StatusHistory:   history,
		CreatedAt:       now,
		UpdatedAt:       now,
		ExchangeOrderID: exchangeOrder.ExchangeOrderID,
		FilledQuantity:  exchangeOrder.FilledQuantity,
		AvgFillPrice:    exchangeOrder.AvgFillPrice,
		SignalTimestamp: time.Time{},
		Reason: types.Reason{
			Reason:  types.OrderReasonReconciled,
			Message: "adopted from exchange open orders",
		},
	}

	managed := newManagedOrder(order)
	managed.filledQty = decimal.NewFromFloat(exchangeOrder.FilledQuantity)
	managed.filledNotional = managed.filledQty.Mul(decimal.NewFromFloat(exchangeOrder.AvgFillPrice))

	m.orders[order.ID] = managed
	m.created = append(m.created, order.ID)
	m.notify(order)

	m.logger.Info("Adopted open exchange order",
		zap.String("order_id", order.ID),
		zap.String("exchange_order_id", order.ExchangeOrderID),
		zap.String("status", string(order.Status)),
	)

	return true
}

func (m *Manager) workingOrders(symbol string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0)

	for _, id := range m.created {
		managed := m.orders[id]
		if managed.order.Symbol == symbol && !managed.submitting &&
			(managed.order.Status == types.OrderStatusSubmitted || managed.order.Status == types.OrderStatusPartiallyFilled) {
			ids = append(ids, id)
		}
	}

	return ids
}

// settle queries an order missing from the open list and closes it locally
// when the exchange reports it cancelled or rejected. Filled orders are left
// for the fill stream.
func (m *Manager) settle(ctx context.Context, symbol, orderID string) {
	callCtx, cancel := context.WithTimeout(ctx, m.config.GatewayTimeout)
	defer cancel()

	start := time.Now()
	exchangeOrder, err := m.gateway.QueryOrder(callCtx, symbol, orderID)
	m.observeCall("query_order", time.Since(start), err)

	if err != nil {
		m.logger.Warn("Failed to query order during reconciliation", zap.String("order_id", orderID), zap.Error(err))

		return
	}

	if exchangeOrder.Status != types.OrderStatusCancelled && exchangeOrder.Status != types.OrderStatusRejected {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	managed := m.orders[orderID]
	if managed.order.Status.IsTerminal() {
		return
	}

	// Rejected is only reachable from Submitted; a rejection reported after
	// partial fills settles as Cancelled.
	next := types.OrderStatusCancelled
	if exchangeOrder.Status == types.OrderStatusRejected && managed.order.Status == types.OrderStatusSubmitted {
		next = types.OrderStatusRejected
	}

	m.mustTransition(managed, next, types.Reason{
		Reason:  types.OrderReasonReconciled,
		Message: "exchange reports order " + string(exchangeOrder.Status),
	})
}

// Order returns a copy of the order with the given id.
func (m *Manager) Order(orderID string) (types.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	managed, ok := m.orders[orderID]
	if !ok {
		return types.Order{}, false
	}

	return managed.order.Clone(), true
}

// Orders returns copies of all orders in creation order.
func (m *Manager) Orders() []types.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := make([]types.Order, 0, len(m.created))
	for _, id := range m.created {
		orders = append(orders, m.orders[id].order.Clone())
	}

	return orders
}

// CountByStatus returns the number of orders in each status.
func (m *Manager) CountByStatus() map[types.OrderStatus]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[types.OrderStatus]int)
	for _, managed := range m.orders {
		counts[managed.order.Status]++
	}

	return counts
}

// mustTransition moves the order to status. Callers only request transitions
// the state machine allows; anything else is a programming error and is
// logged without changing the order.
func (m *Manager) mustTransition(managed *managedOrder, status types.OrderStatus, reason types.Reason) {
	from := managed.order.Status
	if !types.CanTransition(from, status) {
		m.logger.Error("Invalid order transition",
			zap.String("order_id", managed.order.ID),
			zap.String("from", string(from)),
			zap.String("to", string(status)),
		)

		return
	}

	managed.order.Status = status
	managed.order.StatusHistory = append(managed.order.StatusHistory, status)
	managed.order.UpdatedAt = m.now()

	if reason.Reason != "" {
		managed.order.Reason = reason
	}

	m.notify(managed.order)
}

func (m *Manager) notify(order types.Order) {
	if m.callbacks.OnOrderUpdate != nil {
		(*m.callbacks.OnOrderUpdate)(order.Clone())
	}
}

func (m *Manager) observeCall(operation string, duration time.Duration, err error) {
	if m.callbacks.OnGatewayCall != nil {
		(*m.callbacks.OnGatewayCall)(operation, duration, err)
	}
}

func (m *Manager) newOrderID() string {
	return m.config.ClientOrderPrefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

func newManagedOrder(order types.Order) *managedOrder {
	return &managedOrder{
		order:           order,
		fingerprint:     "",
		submitting:      false,
		cancelRequested: false,
		lastSequence:    0,
		pending:         make(map[int64]types.FillEvent),
		filledQty:       decimal.Zero,
		filledNotional:  decimal.Zero,
	}
}

func optionalPrice(exchangeOrder tradingprovider.ExchangeOrder) optional.Option[float64] {
	if exchangeOrder.Kind.RequiresPrice() && exchangeOrder.Price > 0 {
		return optional.Some(exchangeOrder.Price)
	}

	return optional.None[float64]()
}
