package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

type RecorderTestSuite struct {
	suite.Suite
	recorder *Recorder
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderTestSuite))
}

func (suite *RecorderTestSuite) SetupTest() {
	suite.recorder = NewRecorder()
}

func (suite *RecorderTestSuite) TestIndependentRegistries() {
	other := NewRecorder()

	suite.recorder.CandleProcessed("BTCUSDT")

	suite.InDelta(1.0, testutil.ToFloat64(suite.recorder.candles.WithLabelValues("BTCUSDT")), 1e-9)
	suite.InDelta(0.0, testutil.ToFloat64(other.candles.WithLabelValues("BTCUSDT")), 1e-9)
}

func (suite *RecorderTestSuite) TestOrderUpdatedCountsTerminalOnly() {
	order := types.Order{Symbol: "BTCUSDT", Status: types.OrderStatusSubmitted}
	suite.recorder.OrderUpdated(order)

	order.Status = types.OrderStatusRejected
	order.Reason = types.Reason{Reason: types.OrderReasonDuplicateSubmission, Message: ""}
	suite.recorder.OrderUpdated(order)

	suite.Equal(1, testutil.CollectAndCount(suite.recorder.orders))
	suite.InDelta(1.0, testutil.ToFloat64(
		suite.recorder.orders.WithLabelValues("BTCUSDT", string(types.OrderStatusRejected), types.OrderReasonDuplicateSubmission)), 1e-9)
}

func (suite *RecorderTestSuite) TestGatewayCall() {
	suite.recorder.GatewayCall("place_order", 20*time.Millisecond, nil)
	suite.recorder.GatewayCall("place_order", time.Second, errors.New(errors.ErrCodeExchangeRateLimited, "slow down"))

	suite.Equal(1, testutil.CollectAndCount(suite.recorder.gatewayLatency))
	suite.InDelta(1.0, testutil.ToFloat64(suite.recorder.gatewayErrors.WithLabelValues("place_order", "301")), 1e-9)
}

func (suite *RecorderTestSuite) TestFillsAndEquity() {
	suite.recorder.FillApplied(types.Trade{Symbol: "ETHUSDT", Side: types.OrderSideBuy, Quantity: 0.5})
	suite.recorder.FillApplied(types.Trade{Symbol: "ETHUSDT", Side: types.OrderSideBuy, Quantity: 0.25})
	suite.recorder.SetEquity(10250)

	suite.InDelta(2.0, testutil.ToFloat64(suite.recorder.fills.WithLabelValues("ETHUSDT", "BUY")), 1e-9)
	suite.InDelta(0.75, testutil.ToFloat64(suite.recorder.fillVolume.WithLabelValues("ETHUSDT", "BUY")), 1e-9)
	suite.InDelta(10250.0, testutil.ToFloat64(suite.recorder.equity), 1e-9)
}

func (suite *RecorderTestSuite) TestEngineStatus() {
	suite.recorder.SetEngineStatus(types.EngineStatusRunning)
	suite.recorder.SetEngineStatus(types.EngineStatusStopping)

	suite.InDelta(0.0, testutil.ToFloat64(suite.recorder.engineStatus.WithLabelValues("running")), 1e-9)
	suite.InDelta(1.0, testutil.ToFloat64(suite.recorder.engineStatus.WithLabelValues("stopping")), 1e-9)
}

func (suite *RecorderTestSuite) TestHandler() {
	suite.recorder.SignalGenerated(types.Signal{Symbol: "BTCUSDT", Side: types.OrderSideSell})
	suite.recorder.SubmitRetry()

	server := httptest.NewServer(suite.recorder.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL) //nolint:noctx
	suite.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)

	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(string(body), `bot_signals_total{side="SELL",symbol="BTCUSDT"} 1`)
	suite.Contains(string(body), "bot_submit_retries_total 1")
	suite.Contains(string(body), "go_goroutines")
}
