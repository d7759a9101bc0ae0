package order

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"

	"github.com/econicmedia/bot-sub001/internal/types"
)

func TestFingerprint(t *testing.T) {
	signal := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	base := types.Order{
		Symbol:          "BTCUSDT",
		Side:            types.OrderSideBuy,
		Kind:            types.OrderKindLimit,
		Quantity:        0.001,
		Price:           optional.Some(50000.0),
		SignalTimestamp: signal,
	}

	tests := []struct {
		name   string
		mutate func(o *types.Order)
		same   bool
	}{
		{name: "identical", mutate: func(o *types.Order) { o.ID = "other" }, same: true},
		{name: "different side", mutate: func(o *types.Order) { o.Side = types.OrderSideSell }, same: false},
		{name: "different quantity", mutate: func(o *types.Order) { o.Quantity = 0.002 }, same: false},
		{name: "different price", mutate: func(o *types.Order) { o.Price = optional.Some(50001.0) }, same: false},
		{name: "different signal", mutate: func(o *types.Order) { o.SignalTimestamp = signal.Add(time.Minute) }, same: false},
		{name: "different symbol", mutate: func(o *types.Order) { o.Symbol = "ETHUSDT" }, same: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			other := base.Clone()
			tc.mutate(&other)

			if tc.same {
				assert.Equal(t, fingerprint(base), fingerprint(other))
			} else {
				assert.NotEqual(t, fingerprint(base), fingerprint(other))
			}
		})
	}
}

func TestFingerprintSet(t *testing.T) {
	now := time.Now()
	set := newFingerprintSet(time.Minute)

	assert.Empty(t, set.claim("fp", "a", now))
	assert.Empty(t, set.claim("fp", "a", now), "holder may reclaim")
	assert.Equal(t, "a", set.claim("fp", "b", now.Add(30*time.Second)))

	set.release("fp", "b")
	assert.Equal(t, "a", set.claim("fp", "b", now.Add(30*time.Second)), "release by non-holder is ignored")

	set.release("fp", "a")
	assert.Empty(t, set.claim("fp", "b", now.Add(30*time.Second)))

	assert.Empty(t, set.claim("fp", "c", now.Add(2*time.Minute)), "entry expired")
	assert.Len(t, set.entries, 1)
}
