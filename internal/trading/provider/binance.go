package tradingprovider

import (
	"context"
	"iter"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/econicmedia/bot-sub001/internal/logger"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/internal/utils"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

const (
	// BinanceDecimalPrecision is a default decimal precision used as a fallback.
	// 8 decimals allows for satoshi-level precision (0.00000001 BTC) for BTC-like assets.
	// Production systems should use symbol-specific precision from Binance exchange info (e.g. LOT_SIZE, PRICE_FILTER).
	BinanceDecimalPrecision = 8

	binanceMaxKlineLimit = 1000
	binanceMaxTradeLimit = 1000
)

// Binance API error codes the gateway distinguishes.
const (
	binanceCodeDisconnected      = -1001
	binanceCodeTooManyRequests   = -1003
	binanceCodeTimeout           = -1007
	binanceCodeTooManyOrders     = -1015
	binanceCodeTimestampOutside  = -1021
	binanceCodeInvalidSignature  = -1022
	binanceCodeCancelRejected    = -2011
	binanceCodeNoSuchOrder       = -2013
	binanceCodeAPIKeyFormat      = -2014
	binanceCodeRejectedMBXKey    = -2015
	binanceOrderStatusUnknownMsg = "Unknown order sent."
)

// BinanceGatewayConfig configures the live gateway.
type BinanceGatewayConfig struct {
	APIKey    string
	SecretKey string
	Testnet   bool
	// BaseURL overrides the REST endpoint when set.
	BaseURL string
	// WsBaseURL overrides the websocket endpoint when set, e.g. "ws://host/ws".
	WsBaseURL         string
	RequestsPerSecond float64
	FillPollInterval  time.Duration
	// ClientOrderPrefix marks orders owned by this process.
	ClientOrderPrefix string
}

// Service interfaces for mocking the Binance API

// CreateOrderService interface for creating orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side binance.SideType) CreateOrderService
	Type(orderType binance.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	StopPrice(price string) CreateOrderService
	TimeInForce(tif binance.TimeInForceType) CreateOrderService
	NewClientOrderID(id string) CreateOrderService
	Do(ctx context.Context) (*binance.CreateOrderResponse, error)
}

// GetAccountService interface for getting account info.
type GetAccountService interface {
	Do(ctx context.Context) (*binance.Account, error)
}

// ListOpenOrdersService interface for listing open orders.
type ListOpenOrdersService interface {
	Symbol(symbol string) ListOpenOrdersService
	Do(ctx context.Context) ([]*binance.Order, error)
}

// GetOrderService interface for querying a single order.
type GetOrderService interface {
	Symbol(symbol string) GetOrderService
	OrderID(orderID int64) GetOrderService
	OrigClientOrderID(id string) GetOrderService
	Do(ctx context.Context) (*binance.Order, error)
}

// CancelOrderService interface for canceling orders.
type CancelOrderService interface {
	Symbol(symbol string) CancelOrderService
	OrderID(orderID int64) CancelOrderService
	Do(ctx context.Context) (*binance.CancelOrderResponse, error)
}

// ListTradesService interface for listing account trades.
type ListTradesService interface {
	Symbol(symbol string) ListTradesService
	Limit(limit int) ListTradesService
	StartTime(startTime int64) ListTradesService
	FromID(id int64) ListTradesService
	Do(ctx context.Context) ([]*binance.TradeV3, error)
}

// KlinesService interface for fetching historical candles.
type KlinesService interface {
	Symbol(symbol string) KlinesService
	Interval(interval string) KlinesService
	Limit(limit int) KlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceClient interface abstracts the Binance client for testing.
type BinanceClient interface {
	NewCreateOrderService() CreateOrderService
	NewGetAccountService() GetAccountService
	NewListOpenOrdersService() ListOpenOrdersService
	NewGetOrderService() GetOrderService
	NewCancelOrderService() CancelOrderService
	NewListTradesService() ListTradesService
	NewKlinesService() KlinesService
}

// WsKlineHandler receives kline events from the websocket.
type WsKlineHandler func(event *binance.WsKlineEvent)

// WsErrorHandler receives websocket errors.
type WsErrorHandler func(err error)

// BinanceWebSocketService abstracts the kline websocket for testing.
type BinanceWebSocketService interface {
	WsKlineServe(symbol string, interval string, handler WsKlineHandler, errHandler WsErrorHandler) (doneC chan struct{}, stopC chan struct{}, err error)
}

// realBinanceClient wraps the actual binance.Client.
type realBinanceClient struct {
	client *binance.Client
}

func (r *realBinanceClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realBinanceClient) NewGetAccountService() GetAccountService {
	return &realGetAccountService{service: r.client.NewGetAccountService()}
}

func (r *realBinanceClient) NewListOpenOrdersService() ListOpenOrdersService {
	return &realListOpenOrdersService{service: r.client.NewListOpenOrdersService()}
}

func (r *realBinanceClient) NewGetOrderService() GetOrderService {
	return &realGetOrderService{service: r.client.NewGetOrderService()}
}

func (r *realBinanceClient) NewCancelOrderService() CancelOrderService {
	return &realCancelOrderService{service: r.client.NewCancelOrderService()}
}

func (r *realBinanceClient) NewListTradesService() ListTradesService {
	return &realListTradesService{service: r.client.NewListTradesService()}
}

func (r *realBinanceClient) NewKlinesService() KlinesService {
	return &realKlinesService{service: r.client.NewKlinesService()}
}

// Real service wrappers

type realCreateOrderService struct {
	service *binance.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side binance.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType binance.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) StopPrice(price string) CreateOrderService {
	s.service = s.service.StopPrice(price)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif binance.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) NewClientOrderID(id string) CreateOrderService {
	s.service = s.service.NewClientOrderID(id)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*binance.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetAccountService struct {
	service *binance.GetAccountService
}

func (s *realGetAccountService) Do(ctx context.Context) (*binance.Account, error) {
	return s.service.Do(ctx)
}

type realListOpenOrdersService struct {
	service *binance.ListOpenOrdersService
}

func (s *realListOpenOrdersService) Symbol(symbol string) ListOpenOrdersService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realListOpenOrdersService) Do(ctx context.Context) ([]*binance.Order, error) {
	return s.service.Do(ctx)
}

type realGetOrderService struct {
	service *binance.GetOrderService
}

func (s *realGetOrderService) Symbol(symbol string) GetOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realGetOrderService) OrderID(orderID int64) GetOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realGetOrderService) OrigClientOrderID(id string) GetOrderService {
	s.service = s.service.OrigClientOrderID(id)

	return s
}

func (s *realGetOrderService) Do(ctx context.Context) (*binance.Order, error) {
	return s.service.Do(ctx)
}

type realCancelOrderService struct {
	service *binance.CancelOrderService
}

func (s *realCancelOrderService) Symbol(symbol string) CancelOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelOrderService) OrderID(orderID int64) CancelOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realCancelOrderService) Do(ctx context.Context) (*binance.CancelOrderResponse, error) {
	return s.service.Do(ctx)
}

type realListTradesService struct {
	service *binance.ListTradesService
}

func (s *realListTradesService) Symbol(symbol string) ListTradesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realListTradesService) Limit(limit int) ListTradesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realListTradesService) StartTime(startTime int64) ListTradesService {
	s.service = s.service.StartTime(startTime)

	return s
}

func (s *realListTradesService) FromID(id int64) ListTradesService {
	s.service = s.service.FromID(id)

	return s
}

func (s *realListTradesService) Do(ctx context.Context) ([]*binance.TradeV3, error) {
	return s.service.Do(ctx)
}

type realKlinesService struct {
	service *binance.KlinesService
}

func (s *realKlinesService) Symbol(symbol string) KlinesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realKlinesService) Interval(interval string) KlinesService {
	s.service = s.service.Interval(interval)

	return s
}

func (s *realKlinesService) Limit(limit int) KlinesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realKlinesService) Do(ctx context.Context) ([]*binance.Kline, error) {
	return s.service.Do(ctx)
}

type realBinanceWebSocketService struct{}

func (realBinanceWebSocketService) WsKlineServe(
	symbol string,
	interval string,
	handler WsKlineHandler,
	errHandler WsErrorHandler,
) (chan struct{}, chan struct{}, error) {
	return binance.WsKlineServe(symbol, interval, func(event *binance.WsKlineEvent) {
		handler(event)
	}, func(err error) {
		errHandler(err)
	})
}

// trackedOrder is an order whose fills are polled from the trade list.
type trackedOrder struct {
	clientOrderID   string
	exchangeOrderID int64
	symbol          string
	quantity        float64
	filled          float64
	sequence        int64
	// lastTradeID is the newest trade already reported for this order.
	lastTradeID int64
	// backfillFrom is set for orders tracked after their trades may have been
	// skipped; the next poll rereads the symbol's trades from this time.
	backfillFrom time.Time
}

// symbolCursor remembers how far the trade list of one symbol was read.
type symbolCursor struct {
	lastTradeID int64
	since       time.Time
	// pending counts placements in flight; polling waits until they are tracked.
	pending int
}

// BinanceGateway implements ExchangeGateway against the Binance spot API.
type BinanceGateway struct {
	client           BinanceClient
	ws               BinanceWebSocketService
	limiter          *rate.Limiter
	decimalPrecision int
	pollInterval     time.Duration
	prefix           string
	logger           *logger.Logger

	mu      sync.Mutex
	tracked map[int64]*trackedOrder
	// completed holds fully filled orders so a later query does not track them again.
	completed map[int64]struct{}
	cursors map[string]*symbolCursor
}

var _ ExchangeGateway = (*BinanceGateway)(nil)

// NewBinanceGateway creates the live gateway.
// If config.Testnet is true, connects to Binance Testnet (https://testnet.binance.vision/).
// If config.BaseURL is set, it takes precedence over Testnet. The websocket
// endpoint is process-wide in the Binance client, so WsBaseURL affects every
// gateway of the process.
func NewBinanceGateway(config BinanceGatewayConfig, log *logger.Logger) (*BinanceGateway, error) {
	if config.APIKey == "" || config.SecretKey == "" {
		return nil, errors.New(errors.ErrCodeExchangeAuth, "binance api key and secret key are required")
	}

	if config.Testnet {
		binance.UseTestnet = true
	}

	client := binance.NewClient(config.APIKey, config.SecretKey)

	if config.BaseURL != "" {
		client.BaseURL = config.BaseURL
	}

	if config.WsBaseURL != "" {
		binance.BaseWsMainURL = config.WsBaseURL
	}

	return newBinanceGatewayWithClient(&realBinanceClient{client: client}, realBinanceWebSocketService{}, config, log), nil
}

// newBinanceGatewayWithClient creates a gateway with custom clients.
// This is used for testing with mock clients.
func newBinanceGatewayWithClient(
	client BinanceClient,
	ws BinanceWebSocketService,
	config BinanceGatewayConfig,
	log *logger.Logger,
) *BinanceGateway {
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}

	pollInterval := config.FillPollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BinanceGateway{
		client:           client,
		ws:               ws,
		limiter:          rate.NewLimiter(rate.Limit(rps), max(1, int(rps))),
		decimalPrecision: BinanceDecimalPrecision,
		pollInterval:     pollInterval,
		prefix:           config.ClientOrderPrefix,
		logger:           log.Named("binance"),
		mu:               sync.Mutex{},
		tracked:          make(map[int64]*trackedOrder),
		completed:        make(map[int64]struct{}),
		cursors:          make(map[string]*symbolCursor),
	}
}

func (b *BinanceGateway) Name() string {
	return string(ProviderBinance)
}

// CheckConnection verifies credentials by reading the account.
func (b *BinanceGateway) CheckConnection(ctx context.Context) error {
	if err := b.wait(ctx); err != nil {
		return err
	}

	if _, err := b.client.NewGetAccountService().Do(ctx); err != nil {
		return mapBinanceError(err, "failed to get account info from Binance")
	}

	return nil
}

// PlaceOrder places a single order on Binance.
func (b *BinanceGateway) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (ExchangeOrder, error) {
	side, err := toBinanceSide(req.Side)
	if err != nil {
		return ExchangeOrder{}, err
	}

	if req.Quantity <= 0 {
		return ExchangeOrder{}, errors.New(errors.ErrCodeInvalidOrderIntent, "order quantity must be greater than zero")
	}

	roundedQuantity := utils.RoundToDecimalPrecision(req.Quantity, b.decimalPrecision)
	if roundedQuantity <= 0 {
		return ExchangeOrder{}, errors.Newf(errors.ErrCodeInvalidOrderIntent,
			"order quantity %.8f is too small after rounding to %d decimal places",
			req.Quantity, b.decimalPrecision)
	}

	orderService := b.client.NewCreateOrderService().
		Symbol(req.Symbol).
		Side(side).
		Quantity(strconv.FormatFloat(roundedQuantity, 'f', b.decimalPrecision, 64)).
		NewClientOrderID(req.ClientOrderID)

	switch req.Kind {
	case types.OrderKindMarket:
		orderService = orderService.Type(binance.OrderTypeMarket)
	case types.OrderKindLimit:
		price, err := req.Price.Take()
		if err != nil {
			return ExchangeOrder{}, errors.New(errors.ErrCodeInvalidOrderIntent, "limit order requires a price")
		}

		orderService = orderService.
			Type(binance.OrderTypeLimit).
			Price(strconv.FormatFloat(price, 'f', -1, 64)).
			TimeInForce(binance.TimeInForceTypeGTC)
	case types.OrderKindStop:
		price, err := req.Price.Take()
		if err != nil {
			return ExchangeOrder{}, errors.New(errors.ErrCodeInvalidOrderIntent, "stop order requires a price")
		}

		orderService = orderService.
			Type(binance.OrderTypeStopLoss).
			StopPrice(strconv.FormatFloat(price, 'f', -1, 64))
	default:
		return ExchangeOrder{}, errors.Newf(errors.ErrCodeInvalidOrderIntent, "unsupported order kind: %s", req.Kind)
	}

	if err := b.wait(ctx); err != nil {
		return ExchangeOrder{}, err
	}

	b.beginPlacement(req.Symbol)
	defer b.endPlacement(req.Symbol)

	resp, err := orderService.Do(ctx)
	if err != nil {
		return ExchangeOrder{}, mapBinanceError(err, "failed to place order on Binance")
	}

	order := ExchangeOrder{
		ClientOrderID:   resp.ClientOrderID,
		ExchangeOrderID: strconv.FormatInt(resp.OrderID, 10),
		Symbol:          resp.Symbol,
		Side:            req.Side,
		Kind:            req.Kind,
		Quantity:        roundedQuantity,
		Price:           optionalPrice(req.Price),
		FilledQuantity:  0,
		AvgFillPrice:    0,
		Status:          mapBinanceOrderStatus(resp.Status),
		UpdatedAt:       time.UnixMilli(resp.TransactTime),
	}

	// Fills, including those of an immediately executed market order, arrive
	// through StreamFills. The acknowledgement is reported as submitted.
	if order.Status != types.OrderStatusRejected && order.Status != types.OrderStatusCancelled {
		order.Status = types.OrderStatusSubmitted
		b.track(order.ClientOrderID, resp.OrderID, req.Symbol, roundedQuantity, 0)
	}

	return order, nil
}

// CancelOrder cancels a working order. When Binance rejects the cancel the
// order is queried: a filled order yields ErrCodeOrderAlreadyFilled and an
// already cancelled order is treated as success.
func (b *BinanceGateway) CancelOrder(ctx context.Context, symbol string, exchangeOrderID string) error {
	orderID, err := strconv.ParseInt(exchangeOrderID, 10, 64)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeUnknownOrder, err, "invalid binance order id %q", exchangeOrderID)
	}

	if err := b.wait(ctx); err != nil {
		return err
	}

	_, cancelErr := b.client.NewCancelOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	if cancelErr == nil {
		return nil
	}

	var apiErr *common.APIError
	if !errors.As(cancelErr, &apiErr) || apiErr.Code != binanceCodeCancelRejected {
		return mapBinanceError(cancelErr, "failed to cancel order on Binance")
	}

	if err := b.wait(ctx); err != nil {
		return err
	}

	current, err := b.client.NewGetOrderService().Symbol(symbol).OrderID(orderID).Do(ctx)
	if err != nil {
		return mapBinanceError(err, "failed to query order on Binance")
	}

	switch mapBinanceOrderStatus(current.Status) {
	case types.OrderStatusFilled:
		return errors.Newf(errors.ErrCodeOrderAlreadyFilled, "order %s already filled", exchangeOrderID)
	case types.OrderStatusCancelled:
		return nil
	default:
		return errors.Wrap(errors.ErrCodeExchangeRejected, "binance rejected cancel", cancelErr)
	}
}

// QueryOrder returns the exchange state of the order with the given client id.
func (b *BinanceGateway) QueryOrder(ctx context.Context, symbol string, clientOrderID string) (ExchangeOrder, error) {
	if err := b.wait(ctx); err != nil {
		return ExchangeOrder{}, err
	}

	order, err := b.client.NewGetOrderService().Symbol(symbol).OrigClientOrderID(clientOrderID).Do(ctx)
	if err != nil {
		return ExchangeOrder{}, mapBinanceError(err, "failed to query order on Binance")
	}

	converted := convertBinanceOrder(order)

	// An order recovered after an ambiguous placement is tracked here, so
	// its fills are streamed like those of an acknowledged order.
	if b.owns(clientOrderID) && (converted.FilledQuantity > 0 || !converted.Status.IsTerminal()) {
		b.trackRecovered(order.OrderID, converted, time.UnixMilli(order.Time))
	}

	return converted, nil
}

// OpenOrders lists working orders for symbol. Orders carrying this process's
// client id prefix are tracked so their future fills are streamed.
func (b *BinanceGateway) OpenOrders(ctx context.Context, symbol string) ([]ExchangeOrder, error) {
	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	orders, err := b.client.NewListOpenOrdersService().Symbol(symbol).Do(ctx)
	if err != nil {
		return nil, mapBinanceError(err, "failed to get open orders from Binance")
	}

	result := make([]ExchangeOrder, 0, len(orders))

	for _, order := range orders {
		converted := convertBinanceOrder(order)
		result = append(result, converted)

		if b.owns(converted.ClientOrderID) {
			b.track(converted.ClientOrderID, order.OrderID, converted.Symbol, converted.Quantity, converted.FilledQuantity)
		}
	}

	return result, nil
}

// StreamFills polls the account trade list of every symbol with tracked
// orders and yields one fill per new trade.
func (b *BinanceGateway) StreamFills(ctx context.Context) iter.Seq2[types.FillEvent, error] {
	return func(yield func(types.FillEvent, error) bool) {
		ticker := time.NewTicker(b.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			for _, symbol := range b.pollableSymbols() {
				fills, err := b.pollFills(ctx, symbol)
				if err != nil {
					if ctx.Err() != nil {
						return
					}

					if !yield(types.FillEvent{}, err) {
						return
					}

					continue
				}

				for _, fill := range fills {
					if !yield(fill, nil) {
						return
					}
				}
			}
		}
	}
}

// StreamCandles subscribes to the kline websocket and yields closed candles.
// The stream ends with an error when the connection drops.
func (b *BinanceGateway) StreamCandles(ctx context.Context, symbol string, timeframe types.Timeframe) iter.Seq2[types.Candle, error] {
	return func(yield func(types.Candle, error) bool) {
		if _, err := timeframe.Duration(); err != nil {
			yield(types.Candle{}, err)

			return
		}

		events := make(chan *binance.WsKlineEvent, 16)
		wsErrors := make(chan error, 1)
		stopped := make(chan struct{})

		defer close(stopped)

		doneC, stopC, err := b.ws.WsKlineServe(symbol, string(timeframe), func(event *binance.WsKlineEvent) {
			if !event.Kline.IsFinal {
				return
			}

			select {
			case events <- event:
			case <-stopped:
			}
		}, func(err error) {
			select {
			case wsErrors <- err:
			default:
			}
		})
		if err != nil {
			yield(types.Candle{}, errors.Wrapf(errors.ErrCodeExchangeNetwork, err, "failed to subscribe to %s klines", symbol))

			return
		}

		defer close(stopC)

		for {
			select {
			case <-ctx.Done():
				return
			case <-doneC:
				yield(types.Candle{}, errors.Newf(errors.ErrCodeExchangeNetwork, "kline stream for %s closed", symbol))

				return
			case err := <-wsErrors:
				if !yield(types.Candle{}, errors.Wrapf(errors.ErrCodeExchangeNetwork, err, "kline stream for %s failed", symbol)) {
					return
				}
			case event := <-events:
				candle, err := convertWsKline(symbol, timeframe, event.Kline)
				if !yield(candle, err) {
					return
				}
			}
		}
	}
}

// FetchCandles returns the most recent closed candles, oldest first.
func (b *BinanceGateway) FetchCandles(ctx context.Context, symbol string, timeframe types.Timeframe, limit int) ([]types.Candle, error) {
	if _, err := timeframe.Duration(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		return []types.Candle{}, nil
	}

	// One extra kline covers the still-open bar that is dropped below.
	requested := min(limit+1, binanceMaxKlineLimit)

	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(string(timeframe)).
		Limit(requested).
		Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s klines for %s", timeframe, symbol)
	}

	now := time.Now().UnixMilli()
	candles := make([]types.Candle, 0, len(klines))

	for _, kline := range klines {
		if kline.CloseTime >= now {
			continue
		}

		candle, err := convertKline(symbol, timeframe, kline)
		if err != nil {
			return nil, err
		}

		candles = append(candles, candle)
	}

	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	return candles, nil
}

func (b *BinanceGateway) wait(ctx context.Context) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeExchangeNetwork, "binance request throttled", err)
	}

	return nil
}

func (b *BinanceGateway) owns(clientOrderID string) bool {
	return b.prefix != "" && len(clientOrderID) > len(b.prefix) && clientOrderID[:len(b.prefix)] == b.prefix
}

func (b *BinanceGateway) cursor(symbol string) *symbolCursor {
	cursor, ok := b.cursors[symbol]
	if !ok {
		// Trades are read from slightly before the first order of the symbol.
		cursor = &symbolCursor{lastTradeID: 0, since: time.Now().Add(-time.Second), pending: 0}
		b.cursors[symbol] = cursor
	}

	return cursor
}

func (b *BinanceGateway) beginPlacement(symbol string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cursor(symbol).pending++
}

func (b *BinanceGateway) endPlacement(symbol string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cursor(symbol).pending--
}

func (b *BinanceGateway) track(clientOrderID string, orderID int64, symbol string, quantity, filled float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.cursor(symbol)

	if _, ok := b.tracked[orderID]; ok {
		return
	}

	b.tracked[orderID] = &trackedOrder{
		clientOrderID:   clientOrderID,
		exchangeOrderID: orderID,
		symbol:          symbol,
		quantity:        quantity,
		filled:          filled,
		sequence:        0,
		lastTradeID:     0,
		backfillFrom:    time.Time{},
	}
}

// trackRecovered tracks an order whose acknowledgement was lost. None of its
// trades were reported yet, so they are reread from the order's creation.
func (b *BinanceGateway) trackRecovered(orderID int64, order ExchangeOrder, createdAt time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.tracked[orderID]; ok {
		return
	}

	if _, ok := b.completed[orderID]; ok {
		return
	}

	if createdAt.UnixMilli() <= 0 {
		createdAt = order.UpdatedAt
	}

	b.cursor(order.Symbol)
	b.tracked[orderID] = &trackedOrder{
		clientOrderID:   order.ClientOrderID,
		exchangeOrderID: orderID,
		symbol:          order.Symbol,
		quantity:        order.Quantity,
		filled:          0,
		sequence:        0,
		lastTradeID:     0,
		backfillFrom:    createdAt.Add(-time.Second),
	}
}

func (b *BinanceGateway) pollableSymbols() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	symbols := make(map[string]struct{})

	for _, order := range b.tracked {
		if b.cursors[order.symbol].pending > 0 {
			continue
		}

		symbols[order.symbol] = struct{}{}
	}

	result := make([]string, 0, len(symbols))
	for symbol := range symbols {
		result = append(result, symbol)
	}

	return result
}

// backfillStartLocked returns the earliest backfill time of the symbol's
// tracked orders, or the zero time when none needs one.
func (b *BinanceGateway) backfillStartLocked(symbol string) time.Time {
	var from time.Time

	for _, order := range b.tracked {
		if order.symbol != symbol || order.backfillFrom.IsZero() {
			continue
		}

		if from.IsZero() || order.backfillFrom.Before(from) {
			from = order.backfillFrom
		}
	}

	return from
}

func (b *BinanceGateway) pollFills(ctx context.Context, symbol string) ([]types.FillEvent, error) {
	b.mu.Lock()
	cursor := *b.cursor(symbol)
	backfillFrom := b.backfillStartLocked(symbol)
	b.mu.Unlock()

	service := b.client.NewListTradesService().Symbol(symbol).Limit(binanceMaxTradeLimit)

	switch {
	case !backfillFrom.IsZero():
		service = service.StartTime(backfillFrom.UnixMilli())
	case cursor.lastTradeID > 0:
		service = service.FromID(cursor.lastTradeID + 1)
	default:
		service = service.StartTime(cursor.since.UnixMilli())
	}

	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	trades, err := service.Do(ctx)
	if err != nil {
		return nil, mapBinanceError(err, "failed to list trades from Binance")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	live := b.cursor(symbol)
	fills := make([]types.FillEvent, 0, len(trades))

	for _, order := range b.tracked {
		if order.symbol == symbol && !order.backfillFrom.IsZero() && !order.backfillFrom.Before(backfillFrom) {
			order.backfillFrom = time.Time{}
		}
	}

	for _, trade := range trades {
		live.lastTradeID = max(live.lastTradeID, trade.ID)

		order, ok := b.tracked[trade.OrderID]
		if !ok || trade.ID <= order.lastTradeID {
			continue
		}

		order.lastTradeID = trade.ID

		quantity, qErr := strconv.ParseFloat(trade.Quantity, 64)
		price, pErr := strconv.ParseFloat(trade.Price, 64)
		fee, fErr := strconv.ParseFloat(trade.Commission, 64)

		if qErr != nil || pErr != nil || fErr != nil {
			b.logger.Warn("Skipping unparseable trade",
				zap.String("symbol", symbol),
				zap.Int64("trade_id", trade.ID),
			)

			continue
		}

		order.sequence++
		order.filled += quantity

		fills = append(fills, types.FillEvent{
			OrderID:         order.clientOrderID,
			ExchangeOrderID: strconv.FormatInt(order.exchangeOrderID, 10),
			Symbol:          symbol,
			Sequence:        order.sequence,
			Quantity:        quantity,
			Price:           price,
			Fee:             fee,
			Timestamp:       time.UnixMilli(trade.Time),
		})

		if order.filled >= order.quantity-1e-12 {
			delete(b.tracked, trade.OrderID)
			b.completed[trade.OrderID] = struct{}{}
		}
	}

	return fills, nil
}

// mapBinanceError classifies a Binance client error into the gateway error codes.
func mapBinanceError(err error, message string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errors.Wrap(errors.ErrCodeExchangeNetwork, message, err)
	}

	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		return errors.Wrap(errors.ErrCodeExchangeNetwork, message, err)
	}

	switch apiErr.Code {
	case binanceCodeTooManyRequests, binanceCodeTooManyOrders:
		return errors.Wrap(errors.ErrCodeExchangeRateLimited, message, err)
	case binanceCodeAPIKeyFormat, binanceCodeRejectedMBXKey, binanceCodeInvalidSignature:
		return errors.Wrap(errors.ErrCodeExchangeAuth, message, err)
	case binanceCodeDisconnected, binanceCodeTimeout, binanceCodeTimestampOutside:
		return errors.Wrap(errors.ErrCodeExchangeNetwork, message, err)
	case binanceCodeNoSuchOrder:
		return errors.Wrap(errors.ErrCodeUnknownOrder, message, err)
	default:
		if apiErr.Message == binanceOrderStatusUnknownMsg {
			return errors.Wrap(errors.ErrCodeUnknownOrder, message, err)
		}

		return errors.Wrap(errors.ErrCodeExchangeRejected, message, err)
	}
}

func toBinanceSide(side types.OrderSide) (binance.SideType, error) {
	switch side {
	case types.OrderSideBuy:
		return binance.SideTypeBuy, nil
	case types.OrderSideSell:
		return binance.SideTypeSell, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidOrderIntent, "unsupported order side: %s", side)
	}
}

// mapBinanceOrderStatus maps Binance order status to the order lifecycle.
func mapBinanceOrderStatus(status binance.OrderStatusType) types.OrderStatus {
	switch status {
	case binance.OrderStatusTypeNew:
		return types.OrderStatusSubmitted
	case binance.OrderStatusTypePartiallyFilled:
		return types.OrderStatusPartiallyFilled
	case binance.OrderStatusTypeFilled:
		return types.OrderStatusFilled
	case binance.OrderStatusTypeCanceled, binance.OrderStatusTypePendingCancel, binance.OrderStatusTypeExpired:
		return types.OrderStatusCancelled
	case binance.OrderStatusTypeRejected:
		return types.OrderStatusRejected
	default:
		return types.OrderStatusSubmitted
	}
}

func mapBinanceOrderKind(orderType binance.OrderType) types.OrderKind {
	switch orderType {
	case binance.OrderTypeLimit, binance.OrderTypeLimitMaker:
		return types.OrderKindLimit
	case binance.OrderTypeStopLoss, binance.OrderTypeStopLossLimit:
		return types.OrderKindStop
	default:
		return types.OrderKindMarket
	}
}

func convertBinanceOrder(order *binance.Order) ExchangeOrder {
	price, _ := strconv.ParseFloat(order.Price, 64)
	quantity, _ := strconv.ParseFloat(order.OrigQuantity, 64)
	executed, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)
	quote, _ := strconv.ParseFloat(order.CummulativeQuoteQuantity, 64)

	side := types.OrderSideBuy
	if order.Side == binance.SideTypeSell {
		side = types.OrderSideSell
	}

	avg := 0.0
	if executed > 0 {
		avg = quote / executed
	}

	if order.Type == binance.OrderTypeStopLoss {
		price, _ = strconv.ParseFloat(order.StopPrice, 64)
	}

	return ExchangeOrder{
		ClientOrderID:   order.ClientOrderID,
		ExchangeOrderID: strconv.FormatInt(order.OrderID, 10),
		Symbol:          order.Symbol,
		Side:            side,
		Kind:            mapBinanceOrderKind(order.Type),
		Quantity:        quantity,
		Price:           price,
		FilledQuantity:  executed,
		AvgFillPrice:    avg,
		Status:          mapBinanceOrderStatus(order.Status),
		UpdatedAt:       time.UnixMilli(order.UpdateTime),
	}
}

func parseOHLCV(symbol string, open, high, low, closePrice, volume string) ([5]float64, error) {
	var values [5]float64

	for i, raw := range []string{open, high, low, closePrice, volume} {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return values, errors.Wrapf(errors.ErrCodeInvalidCandle, err, "invalid kline value %q for %s", raw, symbol)
		}

		values[i] = value
	}

	return values, nil
}

func convertKline(symbol string, timeframe types.Timeframe, kline *binance.Kline) (types.Candle, error) {
	values, err := parseOHLCV(symbol, kline.Open, kline.High, kline.Low, kline.Close, kline.Volume)
	if err != nil {
		return types.Candle{}, err
	}

	return types.Candle{
		Symbol:    symbol,
		Timeframe: timeframe,
		Timestamp: time.UnixMilli(kline.OpenTime),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

func convertWsKline(symbol string, timeframe types.Timeframe, kline binance.WsKline) (types.Candle, error) {
	values, err := parseOHLCV(symbol, kline.Open, kline.High, kline.Low, kline.Close, kline.Volume)
	if err != nil {
		return types.Candle{}, err
	}

	return types.Candle{
		Symbol:    symbol,
		Timeframe: timeframe,
		Timestamp: time.UnixMilli(kline.StartTime),
		Open:      values[0],
		High:      values[1],
		Low:       values[2],
		Close:     values[3],
		Volume:    values[4],
	}, nil
}

func optionalPrice(price optional.Option[float64]) float64 {
	value, err := price.Take()
	if err != nil {
		return 0
	}

	return value
}
