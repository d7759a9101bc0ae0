package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/econicmedia/bot-sub001/internal/config"
	"github.com/econicmedia/bot-sub001/internal/logger"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/internal/version"
)

type MainTestSuite struct {
	suite.Suite
}

func TestMainSuite(t *testing.T) {
	suite.Run(t, new(MainTestSuite))
}

func (suite *MainTestSuite) paperSettings() config.Settings {
	settings := config.Default()
	settings.Symbols = []string{"BTCUSDT", "ETHUSDT"}
	settings.Sandbox.CandleInterval = 5 * time.Millisecond
	settings.Sandbox.Seed = 3
	settings.Server.Addr = "127.0.0.1:0"

	return settings
}

func (suite *MainTestSuite) TestVersionCommand() {
	var out bytes.Buffer

	cmd := newCommand()
	cmd.Writer = &out

	suite.Require().NoError(cmd.Run(context.Background(), []string{"bot", "version"}))
	suite.Equal(version.GetVersion()+"\n", out.String())
}

func (suite *MainTestSuite) TestSchemaCommand() {
	var out bytes.Buffer

	cmd := newCommand()
	cmd.Writer = &out

	suite.Require().NoError(cmd.Run(context.Background(), []string{"bot", "schema"}))

	var schema map[string]any
	suite.Require().NoError(json.Unmarshal(out.Bytes(), &schema))

	properties, ok := schema["properties"].(map[string]any)
	suite.Require().True(ok)
	suite.Contains(properties, "symbols")
	suite.Contains(properties, "order_manager")
}

func (suite *MainTestSuite) TestNewAppLiveRequiresCredentials() {
	settings := suite.paperSettings()
	settings.Mode = config.TradingModeLive

	_, err := newApp(settings, logger.NewNopLogger())
	suite.Error(err)
}

func (suite *MainTestSuite) TestPaperAppStartsThroughAPI() {
	bot, err := newApp(suite.paperSettings(), logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Equal("sandbox", bot.gateway.Name())

	server := httptest.NewServer(bot.server.Handler())
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/trading/start", "application/json", nil)
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Require().Equal(http.StatusOK, resp.StatusCode)

	suite.Eventually(func() bool {
		_, ok := bot.store.Price("ETHUSDT")

		return ok
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = http.Get(server.URL + "/api/v1/status")
	suite.Require().NoError(err)

	var status types.TradingStatus
	suite.Require().NoError(json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()

	suite.Equal(types.EngineStatusRunning, status.Status)
	suite.Equal("paper", status.Mode)
	suite.Equal([]string{"BTCUSDT", "ETHUSDT"}, status.Symbols)

	resp, err = http.Post(server.URL+"/api/v1/trading/stop", "application/json", nil)
	suite.Require().NoError(err)
	resp.Body.Close()
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Equal(types.EngineStatusStopped, bot.engine.Status().Status)
}
