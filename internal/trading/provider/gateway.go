package tradingprovider

import (
	"context"
	"iter"
	"sort"
	"time"

	"github.com/moznion/go-optional"

	"github.com/econicmedia/bot-sub001/internal/config"
	"github.com/econicmedia/bot-sub001/internal/logger"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

// PlaceOrderRequest is an order as sent to an exchange. ClientOrderID is the
// order manager's id and is echoed back in fill events.
type PlaceOrderRequest struct {
	ClientOrderID string
	Symbol        string
	Side          types.OrderSide
	Kind          types.OrderKind
	Quantity      float64
	Price         optional.Option[float64]
}

// ExchangeOrder is the exchange's view of an order.
type ExchangeOrder struct {
	ClientOrderID   string
	ExchangeOrderID string
	Symbol          string
	Side            types.OrderSide
	Kind            types.OrderKind
	Quantity        float64
	Price           float64
	FilledQuantity  float64
	AvgFillPrice    float64
	Status          types.OrderStatus
	UpdatedAt       time.Time
}

// ExchangeGateway is the capability the order manager and engine trade
// through. Every method may fail with ErrCodeExchangeNetwork,
// ErrCodeExchangeAuth, ErrCodeExchangeRateLimited or ErrCodeExchangeRejected.
//
//nolint:interfacebloat // mirrors the exchange surface the engine needs
type ExchangeGateway interface {
	// Name identifies the gateway variant in logs and status.
	Name() string
	// CheckConnection verifies connectivity and credentials.
	CheckConnection(ctx context.Context) error
	// PlaceOrder submits an order and returns the exchange acknowledgement.
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (ExchangeOrder, error)
	// CancelOrder cancels an order. It fails with ErrCodeOrderAlreadyFilled
	// when the order executed completely before the cancel arrived.
	CancelOrder(ctx context.Context, symbol string, exchangeOrderID string) error
	// QueryOrder looks an order up by client order id.
	QueryOrder(ctx context.Context, symbol string, clientOrderID string) (ExchangeOrder, error)
	// OpenOrders lists working orders for symbol.
	OpenOrders(ctx context.Context, symbol string) ([]ExchangeOrder, error)
	// StreamFills yields fill events for orders placed or listed through this
	// gateway until ctx is cancelled. Only one consumer is supported; a
	// stopped stream must be re-subscribed.
	StreamFills(ctx context.Context) iter.Seq2[types.FillEvent, error]
	// StreamCandles yields closed candles for symbol until ctx is cancelled.
	StreamCandles(ctx context.Context, symbol string, timeframe types.Timeframe) iter.Seq2[types.Candle, error]
	// FetchCandles returns up to limit of the most recent closed candles, oldest first.
	FetchCandles(ctx context.Context, symbol string, timeframe types.Timeframe, limit int) ([]types.Candle, error)
}

type ProviderType string

const (
	ProviderSandbox ProviderType = "sandbox"
	ProviderBinance ProviderType = "binance"
)

type ProviderInfo struct {
	Name           string `json:"name"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description"`
	IsPaperTrading bool   `json:"isPaperTrading"`
}

var providerRegistry = map[ProviderType]ProviderInfo{
	ProviderSandbox: {
		Name:           string(ProviderSandbox),
		DisplayName:    "Sandbox",
		Description:    "In-process simulated exchange for paper trading",
		IsPaperTrading: true,
	},
	ProviderBinance: {
		Name:           string(ProviderBinance),
		DisplayName:    "Binance Spot",
		Description:    "Binance spot exchange (testnet or live) for cryptocurrency trading",
		IsPaperTrading: false,
	},
}

// GetSupportedProviders returns the names of all gateway variants.
func GetSupportedProviders() []string {
	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, string(providerType))
	}

	sort.Strings(providers)

	return providers
}

// GetProviderInfo returns metadata for a specific gateway variant.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[ProviderType(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidMode, "unsupported trading provider: %s", providerName)
	}

	return info, nil
}

// ProviderForMode maps a trading mode to its gateway variant.
func ProviderForMode(mode config.TradingMode) (ProviderType, error) {
	switch mode {
	case config.TradingModePaper:
		return ProviderSandbox, nil
	case config.TradingModeLive:
		return ProviderBinance, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidMode, "unsupported trading mode: %s", mode)
	}
}

// NewExchangeGateway creates the gateway variant selected by the settings' mode.
func NewExchangeGateway(settings config.Settings, log *logger.Logger) (ExchangeGateway, error) {
	providerType, err := ProviderForMode(settings.Mode)
	if err != nil {
		return nil, err
	}

	switch providerType {
	case ProviderSandbox:
		return NewSandboxGateway(SandboxConfig{
			InitialPrice:   settings.Sandbox.InitialPrice,
			Volatility:     settings.Sandbox.Volatility,
			Drift:          settings.Sandbox.Drift,
			CandleInterval: settings.Sandbox.CandleInterval,
			FillParts:      settings.Sandbox.FillParts,
			FeeRate:        settings.Sandbox.FeeRate,
			Seed:           settings.Sandbox.Seed,
		}, log), nil
	case ProviderBinance:
		gateway, err := NewBinanceGateway(BinanceGatewayConfig{
			APIKey:            settings.Binance.APIKey,
			SecretKey:         settings.Binance.SecretKey,
			Testnet:           settings.Binance.Testnet,
			RequestsPerSecond: settings.Binance.RequestsPerSecond,
			FillPollInterval:  settings.Binance.FillPollInterval,
			ClientOrderPrefix: settings.OrderManager.ClientOrderPrefix,
			BaseURL:           settings.Binance.BaseURL,
			WsBaseURL:         settings.Binance.WsBaseURL,
		}, log)
		if err != nil {
			return nil, err
		}

		return gateway, nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidMode, "unsupported trading provider: %s", providerType)
	}
}
