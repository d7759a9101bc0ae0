package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/econicmedia/bot-sub001/internal/config"
	"github.com/econicmedia/bot-sub001/internal/metrics"
	"github.com/econicmedia/bot-sub001/internal/portfolio"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/mocks"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

type ServerTestSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	engine *mocks.MockTradingEngine
	store  *portfolio.Store
	server *httptest.Server
	now    time.Time
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.engine = mocks.NewMockTradingEngine(suite.ctrl)
	suite.store = portfolio.NewStore(10000, nil)
	suite.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	api := NewServer(config.Default().Server, suite.engine, suite.store, metrics.NewRecorder(), nil)
	suite.server = httptest.NewServer(api.Handler())
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *ServerTestSuite) get(path string, out any) int {
	resp, err := http.Get(suite.server.URL + path)
	suite.Require().NoError(err)

	defer resp.Body.Close()

	if out != nil {
		suite.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

func (suite *ServerTestSuite) post(path string, out any) int {
	resp, err := http.Post(suite.server.URL+path, "application/json", nil)
	suite.Require().NoError(err)

	defer resp.Body.Close()

	if out != nil {
		suite.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

func (suite *ServerTestSuite) record(symbol string, side types.OrderSide, qty, price float64) {
	suite.now = suite.now.Add(time.Minute)

	_, err := suite.store.RecordTrade(types.Trade{
		ID:        symbol + suite.now.String(),
		OrderID:   "order-" + symbol,
		Symbol:    symbol,
		Side:      side,
		Quantity:  qty,
		Price:     price,
		Fee:       0.1,
		Timestamp: suite.now,
	})
	suite.Require().NoError(err)
}

func (suite *ServerTestSuite) TestHealth() {
	var body map[string]string
	suite.Equal(http.StatusOK, suite.get("/healthz", &body))
	suite.Equal("ok", body["status"])
}

func (suite *ServerTestSuite) TestPositionsAndTrades() {
	suite.record("BTCUSDT", types.OrderSideBuy, 0.1, 50000)
	suite.record("ETHUSDT", types.OrderSideBuy, 1, 3000)
	suite.record("BTCUSDT", types.OrderSideSell, 0.05, 51000)

	var positions []types.Position
	suite.Require().Equal(http.StatusOK, suite.get("/api/v1/positions", &positions))
	suite.Require().Len(positions, 2)
	suite.Equal("BTCUSDT", positions[0].Symbol)
	suite.InDelta(0.05, positions[0].Quantity, 1e-9)

	var trades []types.Trade
	suite.Require().Equal(http.StatusOK, suite.get("/api/v1/trades?symbol=btcusdt", &trades))
	suite.Len(trades, 2)

	suite.Require().Equal(http.StatusOK, suite.get("/api/v1/trades?limit=1", &trades))
	suite.Require().Len(trades, 1)
	suite.Equal(types.OrderSideSell, trades[0].Side)
	suite.InDelta(50, trades[0].PnL, 1e-9)

	var apiErr ErrorResponse
	suite.Equal(http.StatusBadRequest, suite.get("/api/v1/trades?limit=-1", &apiErr))
	suite.Equal(errors.ErrCodeInvalidInput, apiErr.Code)
}

func (suite *ServerTestSuite) TestPrices() {
	suite.store.UpdatePrice("BTCUSDT", 50100, suite.now)

	var tick types.PriceTick
	suite.Require().Equal(http.StatusOK, suite.get("/api/v1/prices/btcusdt", &tick))
	suite.Equal("BTCUSDT", tick.Symbol)
	suite.InDelta(50100, tick.Price, 1e-9)

	var ticks []types.PriceTick
	suite.Require().Equal(http.StatusOK, suite.get("/api/v1/prices", &ticks))
	suite.Len(ticks, 1)

	suite.Equal(http.StatusNotFound, suite.get("/api/v1/prices/DOGEUSDT", nil))
}

func (suite *ServerTestSuite) TestOrdersFilter() {
	suite.engine.EXPECT().Orders().Return([]types.Order{
		{ID: "a", Symbol: "BTCUSDT", Status: types.OrderStatusFilled},
		{ID: "b", Symbol: "BTCUSDT", Status: types.OrderStatusRejected,
			Reason: types.Reason{Reason: types.OrderReasonExchangeRejected, Message: "insufficient balance"}},
		{ID: "c", Symbol: "ETHUSDT", Status: types.OrderStatusFilled},
	}).AnyTimes()

	var orders []types.Order
	suite.Require().Equal(http.StatusOK, suite.get("/api/v1/orders", &orders))
	suite.Len(orders, 3)

	suite.Require().Equal(http.StatusOK, suite.get("/api/v1/orders?status=rejected", &orders))
	suite.Require().Len(orders, 1)
	suite.Equal("insufficient balance", orders[0].Reason.Message)

	suite.Require().Equal(http.StatusOK, suite.get("/api/v1/orders?symbol=BTCUSDT&status=FILLED", &orders))
	suite.Require().Len(orders, 1)
	suite.Equal("a", orders[0].ID)

	suite.Equal(http.StatusBadRequest, suite.get("/api/v1/orders?status=open", nil))
}

func (suite *ServerTestSuite) TestStatusAndDailyStats() {
	suite.engine.EXPECT().Status().Return(types.TradingStatus{
		Status: types.EngineStatusRunning,
		Mode:   "paper",
		RunID:  "run-1",
	})
	suite.engine.EXPECT().DailyStats().Return(types.LiveTradeStats{ID: "run-1", SignalsGenerated: 3})

	var status types.TradingStatus
	suite.Require().Equal(http.StatusOK, suite.get("/api/v1/status", &status))
	suite.Equal(types.EngineStatusRunning, status.Status)
	suite.Equal("run-1", status.RunID)

	var stats types.LiveTradeStats
	suite.Require().Equal(http.StatusOK, suite.get("/api/v1/stats/daily", &stats))
	suite.Equal(3, stats.SignalsGenerated)
}

func (suite *ServerTestSuite) TestStartAndStop() {
	gomock.InOrder(
		suite.engine.EXPECT().Start(gomock.Any()).Return(nil),
		suite.engine.EXPECT().Status().Return(types.TradingStatus{Status: types.EngineStatusRunning}),
		suite.engine.EXPECT().Start(gomock.Any()).Return(errors.New(errors.ErrCodeEngineAlreadyRunning, "engine is already running")),
		suite.engine.EXPECT().Stop(gomock.Any()).Return(nil),
		suite.engine.EXPECT().Status().Return(types.TradingStatus{Status: types.EngineStatusStopped}),
		suite.engine.EXPECT().Stop(gomock.Any()).Return(errors.New(errors.ErrCodeEngineNotRunning, "engine is not running")),
	)

	var status types.TradingStatus
	suite.Require().Equal(http.StatusOK, suite.post("/api/v1/trading/start", &status))
	suite.Equal(types.EngineStatusRunning, status.Status)

	var apiErr ErrorResponse
	suite.Equal(http.StatusConflict, suite.post("/api/v1/trading/start", &apiErr))
	suite.Equal(errors.ErrCodeEngineAlreadyRunning, apiErr.Code)

	suite.Require().Equal(http.StatusOK, suite.post("/api/v1/trading/stop", &status))
	suite.Equal(types.EngineStatusStopped, status.Status)

	suite.Equal(http.StatusConflict, suite.post("/api/v1/trading/stop", &apiErr))
	suite.Equal(errors.ErrCodeEngineNotRunning, apiErr.Code)
}

func (suite *ServerTestSuite) TestStartFailureFromExchange() {
	suite.engine.EXPECT().Start(gomock.Any()).Return(
		errors.New(errors.ErrCodeExchangeAuth, "invalid api key"))

	var apiErr ErrorResponse
	suite.Equal(http.StatusBadGateway, suite.post("/api/v1/trading/start", &apiErr))
	suite.Equal(errors.ErrCodeExchangeAuth, apiErr.Code)
}

func (suite *ServerTestSuite) TestNoOrderPlacementEndpoint() {
	resp, err := http.Post(suite.server.URL+"/api/v1/orders", "application/json", strings.NewReader(`{}`))
	suite.Require().NoError(err)
	resp.Body.Close()

	suite.Equal(http.StatusMethodNotAllowed, resp.StatusCode)
}

func (suite *ServerTestSuite) TestMetrics() {
	resp, err := http.Get(suite.server.URL + "/metrics")
	suite.Require().NoError(err)

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(string(body), "go_goroutines")
}

func (suite *ServerTestSuite) TestPriceStream() {
	suite.store.UpdatePrice("BTCUSDT", 50000, suite.now)

	url := "ws" + strings.TrimPrefix(suite.server.URL, "http") + "/ws/prices"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	suite.Require().NoError(err)

	defer conn.Close()

	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))

	var tick types.PriceTick
	suite.Require().NoError(conn.ReadJSON(&tick))
	suite.Equal("BTCUSDT", tick.Symbol)
	suite.InDelta(50000, tick.Price, 1e-9)

	// The subscription is registered before the snapshot is sent.
	suite.store.UpdatePrice("BTCUSDT", 50500, suite.now.Add(time.Minute))

	suite.Require().NoError(conn.ReadJSON(&tick))
	suite.InDelta(50500, tick.Price, 1e-9)
}
