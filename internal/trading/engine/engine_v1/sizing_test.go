package engine_v1

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/econicmedia/bot-sub001/internal/trading/engine"
	"github.com/econicmedia/bot-sub001/internal/types"
)

func TestSizeSignal(t *testing.T) {
	risk := engine.RiskConfig{MaxPositionSize: 0.5, RiskPerTrade: 0.1, AllowShort: false}
	shorts := risk
	shorts.AllowShort = true

	account := types.AccountInfo{Cash: 100000, Equity: 100000}
	buy := types.Signal{Symbol: "BTCUSDT", Side: types.OrderSideBuy, Confidence: 1, Price: 50000}
	sell := types.Signal{Symbol: "BTCUSDT", Side: types.OrderSideSell, Confidence: 1, Price: 50000}

	held := func(quantity float64) types.Position {
		return types.Position{Symbol: "BTCUSDT", Quantity: quantity}
	}

	tests := []struct {
		name     string
		risk     engine.RiskConfig
		signal   types.Signal
		position types.Position
		account  types.AccountInfo
		expected float64
	}{
		{name: "buy when flat", risk: risk, signal: buy, position: held(0), account: account, expected: 0.2},
		{
			name:     "confidence scales the size",
			risk:     risk,
			signal:   types.Signal{Symbol: "BTCUSDT", Side: types.OrderSideBuy, Confidence: 0.5, Price: 50000},
			position: held(0),
			account:  account,
			expected: 0.1,
		},
		{name: "buy capped by position limit", risk: risk, signal: buy, position: held(0.95), account: account, expected: 0.05},
		{name: "buy at position limit", risk: risk, signal: buy, position: held(1), account: account, expected: 0},
		{
			name:     "buy capped by cash",
			risk:     risk,
			signal:   buy,
			position: held(0),
			account:  types.AccountInfo{Cash: 5000, Equity: 100000},
			expected: 0.1,
		},
		{name: "buy covers a short", risk: risk, signal: buy, position: held(-0.3), account: account, expected: 0.3},
		{name: "buy only covers a short with shorting", risk: shorts, signal: buy, position: held(-0.3), account: account, expected: 0.3},
		{name: "sell closes a long", risk: risk, signal: sell, position: held(0.3), account: account, expected: 0.3},
		{name: "sell when flat without shorting", risk: risk, signal: sell, position: held(0), account: account, expected: 0},
		{name: "sell when flat with shorting", risk: shorts, signal: sell, position: held(0), account: account, expected: 0.2},
		{name: "sell reverses a long with shorting", risk: shorts, signal: sell, position: held(0.3), account: account, expected: 0.5},
		{
			name:     "missing price",
			risk:     risk,
			signal:   types.Signal{Symbol: "BTCUSDT", Side: types.OrderSideBuy, Confidence: 1},
			position: held(0),
			account:  account,
			expected: 0,
		},
		{name: "no equity", risk: risk, signal: buy, position: held(0), account: types.AccountInfo{}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, sizeSignal(tt.risk, tt.signal, tt.position, tt.account), 1e-8)
		})
	}
}

func TestSymbolWindow(t *testing.T) {
	candles := testCandles(5)

	window := newSymbolWindow("BTCUSDT", 3, candles)
	assert.Equal(t, 3, window.len())
	assert.Equal(t, candles[4].Timestamp, window.lastTimestamp())

	assert.False(t, window.accepts(candles[4]))
	assert.False(t, window.accepts(candles[0]))

	next := candles[4]
	next.Timestamp = next.Timestamp.Add(next.Timestamp.Sub(candles[3].Timestamp))
	assert.True(t, window.accepts(next))

	window.append(next)
	snapshot := window.snapshot()
	assert.Len(t, snapshot, 3)
	assert.Equal(t, candles[3].Timestamp, snapshot[0].Timestamp)

	snapshot[0].Close = -1
	assert.NotEqual(t, -1.0, window.snapshot()[0].Close)
}

func TestSymbolWindowEmpty(t *testing.T) {
	window := newSymbolWindow("BTCUSDT", 3, nil)

	assert.Zero(t, window.len())
	assert.True(t, window.lastTimestamp().IsZero())
	assert.True(t, window.accepts(testCandles(1)[0]))
}
