// Package mockserver provides a mock Binance spot server for testing.
// It implements the REST endpoints and the kline WebSocket stream used by
// the Binance gateway.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	tradingprovider "github.com/econicmedia/bot-sub001/internal/trading/provider"
	"github.com/econicmedia/bot-sub001/internal/types"
)

// Binance error codes returned by the mock.
const (
	CodeTooManyRequests = -1003
	CodeCancelRejected  = -2011
	CodeNoSuchOrder     = -2013
	CodeRejectedMBXKey  = -2015
	CodeNewOrderReject  = -2010
)

const historyLength = 1000

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
)

// Balance represents an account balance.
type Balance struct {
	Asset  string
	Free   float64
	Locked float64
}

// Order represents a trading order.
type Order struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Side          string
	Type          string
	Quantity      float64
	Price         float64
	StopPrice     float64
	Status        OrderStatus
	ExecutedQty   float64
	QuoteQty      float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Trade represents an executed trade.
type Trade struct {
	ID         int64
	OrderID    int64
	Symbol     string
	Price      float64
	Quantity   float64
	Commission float64
	Time       time.Time
	IsBuyer    bool
}

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// APIKey is required on signed endpoints when set.
	APIKey string
	// InitialBalances maps asset to initial free balance.
	InitialBalances map[string]float64
	// Prices maps symbol to its starting price. Unknown symbols start at 100.
	Prices map[string]float64
	// FeeRate is charged on every trade in the quote asset.
	FeeRate float64
	// MarketFillParts splits market order executions into this many trades.
	MarketFillParts int
	// StreamInterval is the wall-clock time between streamed klines.
	StreamInterval time.Duration
	// Volatility of generated candles.
	Volatility float64
	Seed       int64
}

type failure struct {
	status  int
	code    int
	message string
}

type market struct {
	interval time.Duration
	history  []types.Candle
	price    float64
	next     time.Time
}

// MockBinanceServer provides a mock Binance server for testing.
type MockBinanceServer struct {
	config    ServerConfig
	generator *tradingprovider.CandleGenerator
	upgrader  websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener
	stop       chan struct{}
	stopOnce   sync.Once

	mu         sync.Mutex
	balances   map[string]*Balance
	orders     map[int64]*Order
	trades     []*Trade
	markets    map[string]*market
	orderIDSeq int64
	tradeIDSeq int64
	failures   []failure
}

// NewMockBinanceServer creates a new mock Binance server.
func NewMockBinanceServer(config ServerConfig) *MockBinanceServer {
	if config.StreamInterval <= 0 {
		config.StreamInterval = 100 * time.Millisecond
	}

	if config.MarketFillParts < 1 {
		config.MarketFillParts = 1
	}

	if config.Volatility <= 0 {
		config.Volatility = 0.002
	}

	server := &MockBinanceServer{
		config:     config,
		generator:  tradingprovider.NewCandleGenerator(config.Seed, config.Volatility, 0),
		upgrader:   websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}, //nolint:exhaustruct
		httpServer: nil,
		listener:   nil,
		stop:       make(chan struct{}),
		stopOnce:   sync.Once{},
		mu:         sync.Mutex{},
		balances:   make(map[string]*Balance),
		orders:     make(map[int64]*Order),
		trades:     make([]*Trade, 0),
		markets:    make(map[string]*market),
		orderIDSeq: 1000,
		tradeIDSeq: 0,
		failures:   nil,
	}

	for asset, amount := range config.InitialBalances {
		server.balances[asset] = &Balance{Asset: asset, Free: amount, Locked: 0}
	}

	return server
}

// Start starts the mock server on the given address. An empty address or
// ":0" picks a free port.
func (s *MockBinanceServer) Start(address string) error {
	if address == "" {
		address = "127.0.0.1:0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener

	router := mux.NewRouter()
	router.HandleFunc("/api/v3/klines", s.handleKlines).Methods(http.MethodGet)
	router.HandleFunc("/ws/{stream}", s.handleWebSocket)

	signed := router.PathPrefix("/api/v3").Subrouter()
	signed.Use(s.authenticate)
	signed.HandleFunc("/account", s.handleAccount).Methods(http.MethodGet)
	signed.HandleFunc("/order", s.handleCreateOrder).Methods(http.MethodPost)
	signed.HandleFunc("/order", s.handleGetOrder).Methods(http.MethodGet)
	signed.HandleFunc("/order", s.handleCancelOrder).Methods(http.MethodDelete)
	signed.HandleFunc("/openOrders", s.handleOpenOrders).Methods(http.MethodGet)
	signed.HandleFunc("/myTrades", s.handleMyTrades).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	return nil
}

// Stop closes every stream and shuts the server down.
func (s *MockBinanceServer) Stop() error {
	s.stopOnce.Do(func() { close(s.stop) })

	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// BaseURL returns the REST base URL.
func (s *MockBinanceServer) BaseURL() string {
	return "http://" + s.listener.Addr().String()
}

// WebSocketURL returns the WebSocket base URL, including the /ws path.
func (s *MockBinanceServer) WebSocketURL() string {
	return "ws://" + s.listener.Addr().String() + "/ws"
}

// FailNextOrders makes the next n order placements fail with a Binance error.
func (s *MockBinanceServer) FailNextOrders(n, status, code int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for range n {
		s.failures = append(s.failures, failure{status: status, code: code, message: message})
	}
}

// SetPrice sets the current price of symbol.
func (s *MockBinanceServer) SetPrice(symbol string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marketLocked(symbol, time.Minute).price = price
}

// Balance returns a copy of the balance of asset.
func (s *MockBinanceServer) Balance(asset string) Balance {
	s.mu.Lock()
	defer s.mu.Unlock()

	if balance, ok := s.balances[asset]; ok {
		return *balance
	}

	return Balance{Asset: asset, Free: 0, Locked: 0}
}

// Orders returns copies of all orders.
func (s *MockBinanceServer) Orders() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Order, 0, len(s.orders))
	for _, order := range s.orders {
		result = append(result, *order)
	}

	return result
}

// Trades returns copies of all trades in execution order.
func (s *MockBinanceServer) Trades() []Trade {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]Trade, len(s.trades))
	for i, trade := range s.trades {
		result[i] = *trade
	}

	return result
}

// FillOrder executes quantity of a working order at price.
func (s *MockBinanceServer) FillOrder(clientOrderID string, quantity, price float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.findLocked(0, clientOrderID)
	if order == nil {
		return fmt.Errorf("unknown order %s", clientOrderID)
	}

	if order.Status != OrderStatusNew && order.Status != OrderStatusPartiallyFilled {
		return fmt.Errorf("order %s is %s", clientOrderID, order.Status)
	}

	s.executeLocked(order, min(quantity, order.Quantity-order.ExecutedQty), price)

	return nil
}

// AddOpenOrder registers a working order as if placed by an earlier process.
func (s *MockBinanceServer) AddOpenOrder(clientOrderID, symbol, side string, quantity, price float64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orderIDSeq++
	now := time.Now()
	s.orders[s.orderIDSeq] = &Order{
		OrderID:       s.orderIDSeq,
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Side:          side,
		Type:          "LIMIT",
		Quantity:      quantity,
		Price:         price,
		StopPrice:     0,
		Status:        OrderStatusNew,
		ExecutedQty:   0,
		QuoteQty:      0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return s.orderIDSeq
}

func (s *MockBinanceServer) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.APIKey != "" && r.Header.Get("X-MBX-APIKEY") != s.config.APIKey {
			writeError(w, http.StatusUnauthorized, CodeRejectedMBXKey, "Invalid API-key, IP, or permissions for action.")

			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleKlines handles GET /api/v3/klines. The last kline is still open.
func (s *MockBinanceServer) handleKlines(w http.ResponseWriter, r *http.Request) {
	symbol := r.FormValue("symbol")

	interval := parseInterval(r.FormValue("interval"))
	if symbol == "" || interval == 0 {
		writeError(w, http.StatusBadRequest, -1100, "Illegal characters found in parameter.")

		return
	}

	limit := 500
	if raw := r.FormValue("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, historyLength)
		}
	}

	s.mu.Lock()
	state := s.marketLocked(symbol, interval)
	history := append([]types.Candle(nil), state.history...)
	open := state.next
	price := state.price
	s.mu.Unlock()

	klines := make([][]any, 0, limit)

	from := max(0, len(history)-(limit-1))
	for _, candle := range history[from:] {
		klines = append(klines, klineRow(candle, interval))
	}

	klines = append(klines, klineRow(types.Candle{
		Timestamp: open, Open: price, High: price, Low: price, Close: price, Volume: 0,
	}, interval))

	writeJSON(w, klines)
}

// handleAccount handles GET /api/v3/account.
func (s *MockBinanceServer) handleAccount(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balances := make([]map[string]string, 0, len(s.balances))
	for _, balance := range s.balances {
		balances = append(balances, map[string]string{
			"asset":  balance.Asset,
			"free":   formatFloat(balance.Free),
			"locked": formatFloat(balance.Locked),
		})
	}

	writeJSON(w, map[string]any{
		"makerCommission": 10,
		"takerCommission": 10,
		"canTrade":        true,
		"canWithdraw":     true,
		"canDeposit":      true,
		"updateTime":      time.Now().UnixMilli(),
		"accountType":     "SPOT",
		"balances":        balances,
	})
}

// handleCreateOrder handles POST /api/v3/order. Market orders execute
// immediately at the current price; limit and stop orders rest.
func (s *MockBinanceServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	symbol := r.FormValue("symbol")
	side := r.FormValue("side")
	orderType := r.FormValue("type")
	clientOrderID := r.FormValue("newClientOrderId")

	quantity, err := strconv.ParseFloat(r.FormValue("quantity"), 64)
	if symbol == "" || side == "" || orderType == "" || err != nil || quantity <= 0 {
		writeError(w, http.StatusBadRequest, -1102, "Mandatory parameter was not sent, was empty/null, or malformed.")

		return
	}

	price, _ := strconv.ParseFloat(r.FormValue("price"), 64)
	stopPrice, _ := strconv.ParseFloat(r.FormValue("stopPrice"), 64)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.failures) > 0 {
		next := s.failures[0]
		s.failures = s.failures[1:]
		writeError(w, next.status, next.code, next.message)

		return
	}

	if clientOrderID != "" {
		if existing := s.findLocked(0, clientOrderID); existing != nil {
			writeError(w, http.StatusBadRequest, CodeNewOrderReject, "Duplicate order sent.")

			return
		}
	}

	if orderType == "MARKET" && side == "BUY" {
		_, quote := splitSymbol(symbol)
		cost := quantity * s.marketLocked(symbol, time.Minute).price * (1 + s.config.FeeRate)

		if s.balanceLocked(quote).Free < cost {
			writeError(w, http.StatusBadRequest, CodeNewOrderReject, "Account has insufficient balance for requested action.")

			return
		}
	}

	s.orderIDSeq++
	now := time.Now()
	order := &Order{
		OrderID:       s.orderIDSeq,
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Side:          side,
		Type:          orderType,
		Quantity:      quantity,
		Price:         price,
		StopPrice:     stopPrice,
		Status:        OrderStatusNew,
		ExecutedQty:   0,
		QuoteQty:      0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.orders[order.OrderID] = order

	if orderType == "MARKET" {
		current := s.marketLocked(symbol, time.Minute).price
		parts := s.config.MarketFillParts
		part := quantity / float64(parts)

		for i := range parts {
			if i == parts-1 {
				part = quantity - order.ExecutedQty
			}

			s.executeLocked(order, part, current)
		}
	}

	response := orderJSON(order)
	response["transactTime"] = now.UnixMilli()
	writeJSON(w, response)
}

// handleGetOrder handles GET /api/v3/order.
func (s *MockBinanceServer) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, _ := strconv.ParseInt(r.FormValue("orderId"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.findLocked(orderID, r.FormValue("origClientOrderId"))
	if order == nil || order.Symbol != r.FormValue("symbol") {
		writeError(w, http.StatusBadRequest, CodeNoSuchOrder, "Order does not exist.")

		return
	}

	writeJSON(w, orderJSON(order))
}

// handleCancelOrder handles DELETE /api/v3/order.
func (s *MockBinanceServer) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, _ := strconv.ParseInt(r.FormValue("orderId"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.findLocked(orderID, r.FormValue("origClientOrderId"))
	if order == nil || order.Symbol != r.FormValue("symbol") ||
		(order.Status != OrderStatusNew && order.Status != OrderStatusPartiallyFilled) {
		writeError(w, http.StatusBadRequest, CodeCancelRejected, "Unknown order sent.")

		return
	}

	order.Status = OrderStatusCanceled
	order.UpdatedAt = time.Now()

	response := orderJSON(order)
	response["origClientOrderId"] = order.ClientOrderID
	writeJSON(w, response)
}

// handleOpenOrders handles GET /api/v3/openOrders.
func (s *MockBinanceServer) handleOpenOrders(w http.ResponseWriter, r *http.Request) {
	symbol := r.FormValue("symbol")

	s.mu.Lock()
	defer s.mu.Unlock()

	open := make([]map[string]any, 0)

	for _, order := range s.orders {
		if symbol != "" && order.Symbol != symbol {
			continue
		}

		if order.Status == OrderStatusNew || order.Status == OrderStatusPartiallyFilled {
			open = append(open, orderJSON(order))
		}
	}

	writeJSON(w, open)
}

// handleMyTrades handles GET /api/v3/myTrades.
func (s *MockBinanceServer) handleMyTrades(w http.ResponseWriter, r *http.Request) {
	symbol := r.FormValue("symbol")

	limit := 500
	if parsed, err := strconv.Atoi(r.FormValue("limit")); err == nil && parsed > 0 {
		limit = parsed
	}

	fromID, _ := strconv.ParseInt(r.FormValue("fromId"), 10, 64)

	var startTime time.Time
	if ms, err := strconv.ParseInt(r.FormValue("startTime"), 10, 64); err == nil {
		startTime = time.UnixMilli(ms)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trades := make([]map[string]any, 0)

	for _, trade := range s.trades {
		if trade.Symbol != symbol || trade.ID < fromID || trade.Time.Before(startTime) {
			continue
		}

		trades = append(trades, map[string]any{
			"symbol":          trade.Symbol,
			"id":              trade.ID,
			"orderId":         trade.OrderID,
			"orderListId":     -1,
			"price":           formatFloat(trade.Price),
			"qty":             formatFloat(trade.Quantity),
			"quoteQty":        formatFloat(trade.Price * trade.Quantity),
			"commission":      formatFloat(trade.Commission),
			"commissionAsset": "USDT",
			"time":            trade.Time.UnixMilli(),
			"isBuyer":         trade.IsBuyer,
			"isMaker":         false,
			"isBestMatch":     true,
		})

		if len(trades) >= limit {
			break
		}
	}

	writeJSON(w, trades)
}

// handleWebSocket streams one closed kline per StreamInterval for a
// "<symbol>@kline_<interval>" stream.
func (s *MockBinanceServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	symbol, rawInterval, ok := strings.Cut(mux.Vars(r)["stream"], "@kline_")

	interval := parseInterval(rawInterval)
	if !ok || interval == 0 {
		http.Error(w, "invalid stream", http.StatusBadRequest)

		return
	}

	symbol = strings.ToUpper(symbol)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Reading processes control frames such as the client's keepalive pings.
	closed := make(chan struct{})

	go func() {
		defer close(closed)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.config.StreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-closed:
			return
		case <-ticker.C:
		}

		candle := s.advance(symbol, interval, rawInterval)

		event := map[string]any{
			"e": "kline",
			"E": time.Now().UnixMilli(),
			"s": symbol,
			"k": map[string]any{
				"t": candle.Timestamp.UnixMilli(),
				"T": candle.Timestamp.Add(interval).UnixMilli() - 1,
				"s": symbol,
				"i": rawInterval,
				"o": formatFloat(candle.Open),
				"c": formatFloat(candle.Close),
				"h": formatFloat(candle.High),
				"l": formatFloat(candle.Low),
				"v": formatFloat(candle.Volume),
				"n": 1,
				"x": true,
				"q": "0",
				"V": "0",
				"Q": "0",
			},
		}

		if err := conn.WriteJSON(event); err != nil {
			return
		}
	}
}

func (s *MockBinanceServer) advance(symbol string, interval time.Duration, rawInterval string) types.Candle {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.marketLocked(symbol, interval)
	candle := s.generator.Next(symbol, types.Timeframe(rawInterval), state.next, state.price)
	state.price = candle.Close
	state.next = state.next.Add(state.interval)

	state.history = append(state.history, candle)
	if len(state.history) > historyLength {
		state.history = state.history[len(state.history)-historyLength:]
	}

	return candle
}

// marketLocked returns the market of symbol, generating history on first use.
func (s *MockBinanceServer) marketLocked(symbol string, interval time.Duration) *market {
	state, ok := s.markets[symbol]
	if ok {
		return state
	}

	price := 100.0
	if configured, ok := s.config.Prices[symbol]; ok {
		price = configured
	}

	open := time.Now().Truncate(interval)
	start := open.Add(-historyLength * interval)
	history := s.generator.Series(symbol, "", start, interval, price, historyLength)

	state = &market{
		interval: interval,
		history:  history,
		price:    history[len(history)-1].Close,
		next:     open,
	}
	s.markets[symbol] = state

	return state
}

func (s *MockBinanceServer) findLocked(orderID int64, clientOrderID string) *Order {
	if order, ok := s.orders[orderID]; ok {
		return order
	}

	if clientOrderID == "" {
		return nil
	}

	for _, order := range s.orders {
		if order.ClientOrderID == clientOrderID {
			return order
		}
	}

	return nil
}

// executeLocked records a trade for order and moves balances.
func (s *MockBinanceServer) executeLocked(order *Order, quantity, price float64) {
	if quantity <= 0 {
		return
	}

	base, quote := splitSymbol(order.Symbol)
	cost := quantity * price
	commission := cost * s.config.FeeRate

	if order.Side == "BUY" {
		s.balanceLocked(quote).Free -= cost + commission
		s.balanceLocked(base).Free += quantity
	} else {
		s.balanceLocked(base).Free -= quantity
		s.balanceLocked(quote).Free += cost - commission
	}

	s.tradeIDSeq++
	now := time.Now()
	s.trades = append(s.trades, &Trade{
		ID:         s.tradeIDSeq,
		OrderID:    order.OrderID,
		Symbol:     order.Symbol,
		Price:      price,
		Quantity:   quantity,
		Commission: commission,
		Time:       now,
		IsBuyer:    order.Side == "BUY",
	})

	order.ExecutedQty += quantity
	order.QuoteQty += cost
	order.UpdatedAt = now

	order.Status = OrderStatusPartiallyFilled
	if order.ExecutedQty >= order.Quantity-1e-12 {
		order.Status = OrderStatusFilled
	}
}

func (s *MockBinanceServer) balanceLocked(asset string) *Balance {
	balance, ok := s.balances[asset]
	if !ok {
		balance = &Balance{Asset: asset, Free: 0, Locked: 0}
		s.balances[asset] = balance
	}

	return balance
}

func orderJSON(order *Order) map[string]any {
	return map[string]any{
		"symbol":              order.Symbol,
		"orderId":             order.OrderID,
		"orderListId":         -1,
		"clientOrderId":       order.ClientOrderID,
		"price":               formatFloat(order.Price),
		"origQty":             formatFloat(order.Quantity),
		"executedQty":         formatFloat(order.ExecutedQty),
		"cummulativeQuoteQty": formatFloat(order.QuoteQty),
		"status":              string(order.Status),
		"timeInForce":         "GTC",
		"type":                order.Type,
		"side":                order.Side,
		"stopPrice":           formatFloat(order.StopPrice),
		"icebergQty":          "0.00000000",
		"time":                order.CreatedAt.UnixMilli(),
		"updateTime":          order.UpdatedAt.UnixMilli(),
		"isWorking":           true,
		"origQuoteOrderQty":   "0.00000000",
	}
}

func klineRow(candle types.Candle, interval time.Duration) []any {
	return []any{
		candle.Timestamp.UnixMilli(),
		formatFloat(candle.Open),
		formatFloat(candle.High),
		formatFloat(candle.Low),
		formatFloat(candle.Close),
		formatFloat(candle.Volume),
		candle.Timestamp.Add(interval).UnixMilli() - 1,
		"0",
		0,
		"0",
		"0",
		"0",
	}
}

func splitSymbol(symbol string) (string, string) {
	for _, quote := range []string{"USDT", "BUSD", "BTC", "ETH", "BNB"} {
		if base, ok := strings.CutSuffix(symbol, quote); ok && base != "" {
			return base, quote
		}
	}

	return symbol[:len(symbol)/2], symbol[len(symbol)/2:]
}

// parseInterval parses a Binance interval such as "1m" or "4h".
func parseInterval(interval string) time.Duration {
	if len(interval) < 2 {
		return 0
	}

	num, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || num <= 0 {
		return 0
	}

	switch interval[len(interval)-1] {
	case 's':
		return time.Duration(num) * time.Second
	case 'm':
		return time.Duration(num) * time.Minute
	case 'h':
		return time.Duration(num) * time.Hour
	case 'd':
		return time.Duration(num) * 24 * time.Hour
	default:
		return 0
	}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 8, 64)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": message})
}
