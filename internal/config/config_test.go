package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
	dir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	// godotenv never overrides variables that are already present, so they
	// are removed here and restored by Setenv's cleanup.
	for _, key := range []string{EnvMode, EnvBinanceAPIKey, EnvBinanceSecretKey, EnvLogLevel} {
		suite.T().Setenv(key, "")
		suite.Require().NoError(os.Unsetenv(key))
	}
}

func (suite *ConfigTestSuite) write(name, content string) string {
	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	return path
}

func (suite *ConfigTestSuite) TestDefaultIsValid() {
	settings := Default()
	suite.NoError(settings.Validate())
	suite.Equal(TradingModePaper, settings.Mode)
	suite.Equal(20, settings.Analyzer.MinCandles)
	suite.Equal(0.6, settings.Strategy.MinConfidence)
}

func (suite *ConfigTestSuite) TestLoadFile() {
	path := suite.write("settings.yaml", `
mode: paper
symbols: [BTCUSDT, ETHUSDT]
timeframe: 5m
starting_equity: 25000
risk:
  max_position_size: 0.05
  risk_per_trade: 0.02
order_manager:
  dedup_window: 30s
  max_attempts: 5
  initial_backoff: 100ms
  max_backoff: 2s
  gateway_timeout: 3s
  client_order_prefix: bot
`)

	settings, err := Load(path, "")
	suite.Require().NoError(err)
	suite.Equal([]string{"BTCUSDT", "ETHUSDT"}, settings.Symbols)
	suite.Equal(types.TimeframeFiveMinutes, settings.Timeframe)
	suite.Equal(25000.0, settings.StartingEquity)
	suite.Equal(0.05, settings.Risk.MaxPositionSize)
	suite.Equal(30*time.Second, settings.OrderManager.DedupWindow)
	suite.Equal(5, settings.OrderManager.MaxAttempts)
	// Untouched sections keep their defaults.
	suite.Equal(2, settings.Analyzer.SwingRadius)
	suite.True(settings.HasSymbol("ETHUSDT"))
	suite.False(settings.HasSymbol("DOGEUSDT"))
}

func (suite *ConfigTestSuite) TestEnvFileOverridesCredentials() {
	envPath := suite.write(".env", "BOT_MODE=LIVE\nBOT_BINANCE_API_KEY=key\nBOT_BINANCE_SECRET_KEY=secret\n")
	path := suite.write("settings.yaml", "symbols: [BTCUSDT]\n")

	settings, err := Load(path, envPath)
	suite.Require().NoError(err)
	suite.Equal(TradingModeLive, settings.Mode)
	suite.Equal("key", settings.Binance.APIKey)
	suite.Equal("secret", settings.Binance.SecretKey)
}

func (suite *ConfigTestSuite) TestMissingEnvFileIsIgnored() {
	settings, err := Load("", filepath.Join(suite.dir, "missing.env"))
	suite.Require().NoError(err)
	suite.Equal(TradingModePaper, settings.Mode)
}

func (suite *ConfigTestSuite) TestLiveModeRequiresCredentials() {
	path := suite.write("settings.yaml", "mode: live\nsymbols: [BTCUSDT]\n")

	_, err := Load(path, "")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestInvalidSettings() {
	cases := map[string]string{
		"no symbols":         "symbols: []\n",
		"lowercase symbol":   "symbols: [btcusdt]\n",
		"bad timeframe":      "timeframe: 7m\n",
		"bad mode":           "mode: margin\n",
		"zero attempts":      "order_manager:\n  max_attempts: 0\n",
		"backoff inverted":   "order_manager:\n  initial_backoff: 10s\n  max_backoff: 1s\n",
		"risk above one":     "risk:\n  risk_per_trade: 1.5\n",
		"confidence above 1": "strategy:\n  min_confidence: 2\n",
	}

	for name, content := range cases {
		path := suite.write("settings.yaml", content)

		_, err := Load(path, "")
		suite.Error(err, name)
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration), name)
	}
}

func (suite *ConfigTestSuite) TestUnparsableFile() {
	path := suite.write("settings.yaml", "symbols: [BTCUSDT\n")

	_, err := Load(path, "")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestIncompatibleConfigVersion() {
	path := suite.write("settings.yaml", "config_version: v9.0.0\n")

	_, err := Load(path, "")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeVersionMismatch))
}

func (suite *ConfigTestSuite) TestJSONSchema() {
	schema, err := JSONSchema()
	suite.NoError(err)
	suite.Contains(schema, "order_manager")
	suite.Contains(schema, "max_position_size")
}
