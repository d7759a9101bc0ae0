// Package config loads the process settings. Settings are read once at
// start-up and treated as immutable afterwards.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/internal/version"
	"github.com/econicmedia/bot-sub001/pkg/errors"
	"github.com/econicmedia/bot-sub001/pkg/schema"
)

// TradingMode selects the exchange gateway variant.
type TradingMode string

const (
	TradingModePaper TradingMode = "paper"
	TradingModeLive  TradingMode = "live"
)

// Environment overrides. Secrets are expected here (or in a .env file)
// rather than in the settings file.
const (
	EnvMode             = "BOT_MODE"
	EnvBinanceAPIKey    = "BOT_BINANCE_API_KEY"
	EnvBinanceSecretKey = "BOT_BINANCE_SECRET_KEY"
	EnvLogLevel         = "BOT_LOG_LEVEL"
)

// RiskConfig bounds how large orders may be.
type RiskConfig struct {
	MaxPositionSize float64 `yaml:"max_position_size" jsonschema:"title=Max Position Size,description=Largest position notional as a fraction of equity,default=0.02" validate:"gt=0,lte=1"`
	RiskPerTrade    float64 `yaml:"risk_per_trade" jsonschema:"title=Risk Per Trade,description=Fraction of equity committed per signal before confidence scaling,default=0.01" validate:"gt=0,lte=1"`
	AllowShort      bool    `yaml:"allow_short" jsonschema:"title=Allow Short,description=Allow sell signals to open short positions,default=false"`
}

// BinanceConfig contains credentials for the live gateway.
type BinanceConfig struct {
	APIKey    string `yaml:"api_key" jsonschema:"title=API Key,description=Binance API key (prefer BOT_BINANCE_API_KEY)"`
	SecretKey string `yaml:"secret_key" jsonschema:"title=Secret Key,description=Binance API secret key (prefer BOT_BINANCE_SECRET_KEY)"`
	Testnet   bool   `yaml:"testnet" jsonschema:"title=Testnet,description=Use the Binance spot testnet,default=true"`
	// RequestsPerSecond throttles REST calls made by the gateway.
	RequestsPerSecond float64 `yaml:"requests_per_second" jsonschema:"title=Requests Per Second,default=10" validate:"gt=0"`
	// FillPollInterval is how often open orders are polled for new fills.
	FillPollInterval time.Duration `yaml:"fill_poll_interval" jsonschema:"title=Fill Poll Interval,default=2s" validate:"gt=0"`
	// BaseURL and WsBaseURL point the gateway at another endpoint, such as a local mock.
	BaseURL   string `yaml:"base_url,omitempty" jsonschema:"title=REST Base URL"`
	WsBaseURL string `yaml:"ws_base_url,omitempty" jsonschema:"title=WebSocket Base URL"`
}

// SandboxConfig tunes the paper gateway.
type SandboxConfig struct {
	InitialPrice float64 `yaml:"initial_price" jsonschema:"title=Initial Price,default=50000" validate:"gt=0"`
	// Volatility is the per-candle standard deviation of returns.
	Volatility float64 `yaml:"volatility" jsonschema:"title=Volatility,default=0.01" validate:"gte=0"`
	Drift      float64 `yaml:"drift" jsonschema:"title=Drift,default=0"`
	// CandleInterval is the wall-clock time between generated candles.
	CandleInterval time.Duration `yaml:"candle_interval" jsonschema:"title=Candle Interval,default=1s" validate:"gt=0"`
	// FillParts splits market fills into this many partial fills.
	FillParts int     `yaml:"fill_parts" jsonschema:"title=Fill Parts,default=1" validate:"gte=1"`
	FeeRate   float64 `yaml:"fee_rate" jsonschema:"title=Fee Rate,default=0.001" validate:"gte=0"`
	Seed      int64   `yaml:"seed" jsonschema:"title=Seed,description=Random seed (0 uses the clock)"`
}

// OrderManagerConfig tunes submission and deduplication.
type OrderManagerConfig struct {
	DedupWindow       time.Duration `yaml:"dedup_window" jsonschema:"title=Dedup Window,default=1m" validate:"gt=0"`
	MaxAttempts       int           `yaml:"max_attempts" jsonschema:"title=Max Attempts,description=Gateway calls per submission including the first,default=3" validate:"gte=1"`
	InitialBackoff    time.Duration `yaml:"initial_backoff" jsonschema:"title=Initial Backoff,default=200ms" validate:"gt=0"`
	MaxBackoff        time.Duration `yaml:"max_backoff" jsonschema:"title=Max Backoff,default=5s" validate:"gt=0"`
	GatewayTimeout    time.Duration `yaml:"gateway_timeout" jsonschema:"title=Gateway Timeout,default=10s" validate:"gt=0"`
	ClientOrderPrefix string        `yaml:"client_order_prefix" jsonschema:"title=Client Order Prefix,default=bot" validate:"required,alphanum,max=8"`
}

// AnalyzerConfig holds the market structure parameters.
type AnalyzerConfig struct {
	SwingRadius        int     `yaml:"swing_radius" jsonschema:"title=Swing Radius,default=2" validate:"gte=1"`
	MinCandles         int     `yaml:"min_candles" jsonschema:"title=Min Candles,default=20" validate:"gte=3"`
	TrendLookback      int     `yaml:"trend_lookback" jsonschema:"title=Trend Lookback,default=10" validate:"gte=2"`
	DominanceRatio     float64 `yaml:"dominance_ratio" jsonschema:"title=Dominance Ratio,default=1.5" validate:"gte=1"`
	RangePeriod        int     `yaml:"range_period" jsonschema:"title=Range Period,default=14" validate:"gte=1"`
	BreakRangeMultiple float64 `yaml:"break_range_multiple" jsonschema:"title=Break Range Multiple,default=1" validate:"gt=0"`
}

// StrategyConfig holds signal thresholds.
type StrategyConfig struct {
	MinConfidence float64 `yaml:"min_confidence" jsonschema:"title=Min Confidence,default=0.6" validate:"gte=0,lte=1"`
	// WindowSize is the number of candles kept per symbol.
	WindowSize int `yaml:"window_size" jsonschema:"title=Window Size,default=100" validate:"gte=1"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr" jsonschema:"title=Address,default=:8080" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout" jsonschema:"title=Read Timeout,default=10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" jsonschema:"title=Write Timeout,default=10s"`
}

// Settings is the full process configuration.
type Settings struct {
	// ConfigVersion is the binary version the file was written for.
	ConfigVersion  string             `yaml:"config_version" jsonschema:"title=Config Version,description=Version of the bot this file targets,default=v0.4.0"`
	Mode           TradingMode        `yaml:"mode" jsonschema:"title=Mode,enum=paper,enum=live,default=paper" validate:"required,oneof=paper live"`
	Symbols        []string           `yaml:"symbols" jsonschema:"title=Symbols,description=Symbol universe" validate:"required,min=1,unique,dive,required,uppercase"`
	Timeframe      types.Timeframe    `yaml:"timeframe" jsonschema:"title=Timeframe,default=1m" validate:"required"`
	StartingEquity float64            `yaml:"starting_equity" jsonschema:"title=Starting Equity,default=10000" validate:"gt=0"`
	LogLevel       string             `yaml:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"omitempty,oneof=debug info warn error"`
	Risk           RiskConfig         `yaml:"risk"`
	Binance        BinanceConfig      `yaml:"binance"`
	Sandbox        SandboxConfig      `yaml:"sandbox"`
	OrderManager   OrderManagerConfig `yaml:"order_manager"`
	Analyzer       AnalyzerConfig     `yaml:"analyzer"`
	Strategy       StrategyConfig     `yaml:"strategy"`
	Server         ServerConfig       `yaml:"server"`
}

// Default returns settings suitable for paper trading on BTCUSDT.
func Default() Settings {
	return Settings{
		ConfigVersion:  version.GetVersion(),
		Mode:           TradingModePaper,
		Symbols:        []string{"BTCUSDT"},
		Timeframe:      types.TimeframeOneMinute,
		StartingEquity: 10000,
		LogLevel:       "info",
		Risk: RiskConfig{
			MaxPositionSize: 0.02,
			RiskPerTrade:    0.01,
			AllowShort:      false,
		},
		Binance: BinanceConfig{
			Testnet:           true,
			RequestsPerSecond: 10,
			FillPollInterval:  2 * time.Second,
		},
		Sandbox: SandboxConfig{
			InitialPrice:   50000,
			Volatility:     0.01,
			CandleInterval: time.Second,
			FillParts:      1,
			FeeRate:        0.001,
		},
		OrderManager: OrderManagerConfig{
			DedupWindow:       time.Minute,
			MaxAttempts:       3,
			InitialBackoff:    200 * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			GatewayTimeout:    10 * time.Second,
			ClientOrderPrefix: "bot",
		},
		Analyzer: AnalyzerConfig{
			SwingRadius:        2,
			MinCandles:         20,
			TrendLookback:      10,
			DominanceRatio:     1.5,
			RangePeriod:        14,
			BreakRangeMultiple: 1,
		},
		Strategy: StrategyConfig{
			MinConfidence: 0.6,
			WindowSize:    100,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}
}

// Load reads the settings file at path on top of Default, applies
// environment overrides (loading envFile first when it exists) and validates
// the result. An empty path uses defaults plus environment.
func Load(path string, envFile string) (Settings, error) {
	settings := Default()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Settings{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to load env file %s", envFile)
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read settings file %s", path)
		}

		if err := yaml.Unmarshal(data, &settings); err != nil {
			return Settings{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse settings file %s", path)
		}
	}

	settings.applyEnv()

	if err := version.CheckVersionCompatibility(version.GetVersion(), settings.ConfigVersion); err != nil {
		return Settings{}, err
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

func (s *Settings) applyEnv() {
	if mode := os.Getenv(EnvMode); mode != "" {
		s.Mode = TradingMode(strings.ToLower(mode))
	}

	if key := os.Getenv(EnvBinanceAPIKey); key != "" {
		s.Binance.APIKey = key
	}

	if secret := os.Getenv(EnvBinanceSecretKey); secret != "" {
		s.Binance.SecretKey = secret
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		s.LogLevel = strings.ToLower(level)
	}
}

// Validate validates the Settings struct.
func (s *Settings) Validate() error {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid settings", err)
	}

	if _, err := s.Timeframe.Duration(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid settings", err)
	}

	if s.OrderManager.MaxBackoff < s.OrderManager.InitialBackoff {
		return errors.New(errors.ErrCodeInvalidConfiguration, "order_manager.max_backoff must not be below initial_backoff")
	}

	if s.Mode == TradingModeLive && (s.Binance.APIKey == "" || s.Binance.SecretKey == "") {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"live mode requires binance credentials (set %s and %s)", EnvBinanceAPIKey, EnvBinanceSecretKey)
	}

	return nil
}

// HasSymbol reports whether symbol is part of the configured universe.
func (s *Settings) HasSymbol(symbol string) bool {
	for _, candidate := range s.Symbols {
		if candidate == symbol {
			return true
		}
	}

	return false
}

// JSONSchema returns the JSON schema of the settings file.
func JSONSchema() (string, error) {
	return schema.ToJSONSchema(&Settings{}) //nolint:exhaustruct // Empty config for schema generation
}
