package mockserver

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type MockServerTestSuite struct {
	suite.Suite
	server *MockBinanceServer
}

func TestMockServerSuite(t *testing.T) {
	suite.Run(t, new(MockServerTestSuite))
}

func (suite *MockServerTestSuite) SetupTest() {
	suite.server = NewMockBinanceServer(ServerConfig{
		APIKey:          "key",
		InitialBalances: map[string]float64{"USDT": 10000, "BTC": 1},
		Prices:          map[string]float64{"BTCUSDT": 50000},
		FeeRate:         0.001,
		MarketFillParts: 2,
		StreamInterval:  20 * time.Millisecond,
		Volatility:      0.001,
		Seed:            12345,
	})
	suite.Require().NoError(suite.server.Start(""))
}

func (suite *MockServerTestSuite) TearDownTest() {
	suite.NoError(suite.server.Stop())
}

func (suite *MockServerTestSuite) do(method, path string, form url.Values, key string) (*http.Response, []byte) {
	target := suite.server.BaseURL() + path

	var body *strings.Reader
	if method == http.MethodPost {
		body = strings.NewReader(form.Encode())
	} else {
		target += "?" + form.Encode()
		body = strings.NewReader("")
	}

	req, err := http.NewRequest(method, target, body)
	suite.Require().NoError(err)

	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	if key != "" {
		req.Header.Set("X-MBX-APIKEY", key)
	}

	resp, err := http.DefaultClient.Do(req)
	suite.Require().NoError(err)

	defer resp.Body.Close()

	var raw json.RawMessage
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&raw))

	return resp, raw
}

func (suite *MockServerTestSuite) placeOrder(form url.Values) map[string]any {
	resp, body := suite.do(http.MethodPost, "/api/v3/order", form, "key")
	suite.Require().Equal(http.StatusOK, resp.StatusCode, string(body))

	var order map[string]any
	suite.Require().NoError(json.Unmarshal(body, &order))

	return order
}

func (suite *MockServerTestSuite) TestSignedEndpointsRequireKey() {
	resp, body := suite.do(http.MethodGet, "/api/v3/account", url.Values{}, "wrong")
	suite.Equal(http.StatusUnauthorized, resp.StatusCode)

	var apiErr map[string]any
	suite.Require().NoError(json.Unmarshal(body, &apiErr))
	suite.EqualValues(CodeRejectedMBXKey, apiErr["code"])

	resp, _ = suite.do(http.MethodGet, "/api/v3/account", url.Values{}, "key")
	suite.Equal(http.StatusOK, resp.StatusCode)
}

func (suite *MockServerTestSuite) TestKlinesEndWithOpenBar() {
	resp, body := suite.do(http.MethodGet, "/api/v3/klines",
		url.Values{"symbol": {"BTCUSDT"}, "interval": {"1m"}, "limit": {"10"}}, "")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var klines [][]any
	suite.Require().NoError(json.Unmarshal(body, &klines))
	suite.Require().Len(klines, 10)
	suite.Len(klines[0], 12)

	for i := 1; i < len(klines); i++ {
		suite.Greater(klines[i][0].(float64), klines[i-1][0].(float64))
	}

	lastClose := int64(klines[len(klines)-1][6].(float64))
	suite.Greater(lastClose, time.Now().UnixMilli())
}

func (suite *MockServerTestSuite) TestKlinesInvalidInterval() {
	resp, _ := suite.do(http.MethodGet, "/api/v3/klines", url.Values{"symbol": {"BTCUSDT"}, "interval": {"7x"}}, "")
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (suite *MockServerTestSuite) TestMarketOrderFillsInParts() {
	order := suite.placeOrder(url.Values{
		"symbol": {"BTCUSDT"}, "side": {"BUY"}, "type": {"MARKET"},
		"quantity": {"0.1"}, "newClientOrderId": {"bot-1"},
	})

	suite.Equal("FILLED", order["status"])
	suite.Equal("bot-1", order["clientOrderId"])

	trades := suite.server.Trades()
	suite.Require().Len(trades, 2)
	suite.InDelta(0.1, trades[0].Quantity+trades[1].Quantity, 1e-12)
	suite.Positive(trades[0].Commission)

	suite.Less(suite.server.Balance("USDT").Free, 10000.0)
	suite.InDelta(1.1, suite.server.Balance("BTC").Free, 1e-12)
}

func (suite *MockServerTestSuite) TestDuplicateClientOrderIDRejected() {
	form := url.Values{
		"symbol": {"BTCUSDT"}, "side": {"BUY"}, "type": {"LIMIT"},
		"quantity": {"0.1"}, "price": {"40000"}, "newClientOrderId": {"bot-1"},
	}
	suite.placeOrder(form)

	resp, _ := suite.do(http.MethodPost, "/api/v3/order", form, "key")
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (suite *MockServerTestSuite) TestInsufficientBalanceRejected() {
	resp, body := suite.do(http.MethodPost, "/api/v3/order", url.Values{
		"symbol": {"BTCUSDT"}, "side": {"BUY"}, "type": {"MARKET"}, "quantity": {"10"},
	}, "key")
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Contains(string(body), "insufficient balance")
}

func (suite *MockServerTestSuite) TestInjectedFailures() {
	suite.server.FailNextOrders(1, http.StatusTooManyRequests, CodeTooManyRequests, "Too many requests.")

	form := url.Values{"symbol": {"BTCUSDT"}, "side": {"BUY"}, "type": {"MARKET"}, "quantity": {"0.01"}}

	resp, _ := suite.do(http.MethodPost, "/api/v3/order", form, "key")
	suite.Equal(http.StatusTooManyRequests, resp.StatusCode)

	suite.placeOrder(form)
}

func (suite *MockServerTestSuite) TestLimitOrderLifecycle() {
	order := suite.placeOrder(url.Values{
		"symbol": {"BTCUSDT"}, "side": {"BUY"}, "type": {"LIMIT"},
		"quantity": {"0.2"}, "price": {"40000"}, "newClientOrderId": {"bot-limit"},
	})
	suite.Equal("NEW", order["status"])

	orderID := strconv.FormatInt(int64(order["orderId"].(float64)), 10)

	resp, body := suite.do(http.MethodGet, "/api/v3/openOrders", url.Values{"symbol": {"BTCUSDT"}}, "key")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var open []map[string]any
	suite.Require().NoError(json.Unmarshal(body, &open))
	suite.Len(open, 1)

	suite.Require().NoError(suite.server.FillOrder("bot-limit", 0.05, 40000))

	resp, body = suite.do(http.MethodGet, "/api/v3/order",
		url.Values{"symbol": {"BTCUSDT"}, "origClientOrderId": {"bot-limit"}}, "key")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.Require().NoError(json.Unmarshal(body, &order))
	suite.Equal("PARTIALLY_FILLED", order["status"])

	resp, _ = suite.do(http.MethodDelete, "/api/v3/order", url.Values{"symbol": {"BTCUSDT"}, "orderId": {orderID}}, "key")
	suite.Equal(http.StatusOK, resp.StatusCode)

	resp, body = suite.do(http.MethodDelete, "/api/v3/order", url.Values{"symbol": {"BTCUSDT"}, "orderId": {orderID}}, "key")
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Contains(string(body), strconv.Itoa(CodeCancelRejected))

	suite.Error(suite.server.FillOrder("bot-limit", 0.05, 40000))
}

func (suite *MockServerTestSuite) TestMyTradesFromID() {
	form := url.Values{"symbol": {"BTCUSDT"}, "side": {"BUY"}, "type": {"MARKET"}, "quantity": {"0.01"}}
	suite.placeOrder(form)
	suite.placeOrder(form)

	resp, body := suite.do(http.MethodGet, "/api/v3/myTrades", url.Values{"symbol": {"BTCUSDT"}, "fromId": {"3"}}, "key")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	var trades []map[string]any
	suite.Require().NoError(json.Unmarshal(body, &trades))
	suite.Require().Len(trades, 2)
	suite.EqualValues(3, trades[0]["id"])
}

func (suite *MockServerTestSuite) TestWebSocketKlineStream() {
	conn, _, err := websocket.DefaultDialer.Dial(suite.server.WebSocketURL()+"/btcusdt@kline_1m", nil)
	suite.Require().NoError(err)

	defer conn.Close()

	suite.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))

	var previous float64

	for range 3 {
		var event struct {
			Type  string `json:"e"`
			Kline struct {
				Start    float64 `json:"t"`
				Symbol   string  `json:"s"`
				Interval string  `json:"i"`
				Final    bool    `json:"x"`
			} `json:"k"`
		}

		suite.Require().NoError(conn.ReadJSON(&event))
		suite.Equal("kline", event.Type)
		suite.Equal("BTCUSDT", event.Kline.Symbol)
		suite.Equal("1m", event.Kline.Interval)
		suite.True(event.Kline.Final)
		suite.Greater(event.Kline.Start, previous)

		previous = event.Kline.Start
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"1s", time.Second},
		{"1m", time.Minute},
		{"15m", 15 * time.Minute},
		{"4h", 4 * time.Hour},
		{"1d", 24 * time.Hour},
		{"m", 0},
		{"0m", 0},
		{"1x", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseInterval(tt.in); got != tt.want {
				t.Errorf("parseInterval(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
