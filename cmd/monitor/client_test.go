package main

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/econicmedia/bot-sub001/internal/api"
	"github.com/econicmedia/bot-sub001/internal/config"
	"github.com/econicmedia/bot-sub001/internal/portfolio"
	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/mocks"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

// newFakeBot serves the real API over a mocked engine and an in-memory store.
func newFakeBot(t *testing.T) (*httptest.Server, *mocks.MockTradingEngine, *portfolio.Store) {
	t.Helper()

	ctrl := gomock.NewController(t)
	engine := mocks.NewMockTradingEngine(ctrl)
	store := portfolio.NewStore(10000, nil)

	server := httptest.NewServer(api.NewServer(config.Default().Server, engine, store, nil, nil).Handler())
	t.Cleanup(server.Close)

	return server, engine, store
}

func TestNewClientNormalizesAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "host and port", input: "localhost:8080", expected: "http://localhost:8080"},
		{name: "trailing slash", input: "http://localhost:8080/", expected: "http://localhost:8080"},
		{name: "https kept", input: " https://bot.example.com ", expected: "https://bot.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewClient(tt.input, time.Second).BaseURL())
		})
	}
}

func TestClientSnapshot(t *testing.T) {
	server, engine, store := newFakeBot(t)

	engine.EXPECT().Status().Return(types.TradingStatus{Status: types.EngineStatusRunning, Mode: "paper"})

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store.UpdatePrice("ETHUSDT", 3000, now)
	store.UpdatePrice("BTCUSDT", 50000, now)

	_, err := store.RecordTrade(types.Trade{
		ID: "t1", OrderID: "o1", Symbol: "BTCUSDT", Side: types.OrderSideBuy,
		Quantity: 0.1, Price: 50000, Timestamp: now,
	})
	require.NoError(t, err)

	snapshot, err := NewClient(server.URL, time.Second).Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, types.EngineStatusRunning, snapshot.Status.Status)
	require.Len(t, snapshot.Positions, 1)
	assert.InDelta(t, 0.1, snapshot.Positions[0].Quantity, 1e-9)
	require.Len(t, snapshot.Prices, 2)
	assert.Equal(t, "BTCUSDT", snapshot.Prices[0].Symbol)
	assert.False(t, snapshot.TakenAt.IsZero())
}

func TestClientControlErrors(t *testing.T) {
	server, engine, _ := newFakeBot(t)

	engine.EXPECT().Stop(gomock.Any()).Return(errors.New(errors.ErrCodeEngineNotRunning, "engine is not running"))

	_, err := NewClient(server.URL, time.Second).Stop(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeEngineNotRunning))
	assert.Contains(t, err.Error(), "engine is not running")
}

func TestClientUnreachable(t *testing.T) {
	server := httptest.NewServer(nil)
	url := server.URL
	server.Close()

	_, err := NewClient(url, time.Second).Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeExchangeUnavailable))
}
