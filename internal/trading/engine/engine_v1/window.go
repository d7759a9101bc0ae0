package engine_v1

import (
	"slices"
	"time"

	"github.com/econicmedia/bot-sub001/internal/types"
)

// symbolWindow is the bounded trailing candle window of one symbol. It is
// owned by the symbol's loop goroutine.
type symbolWindow struct {
	symbol  string
	size    int
	candles []types.Candle
	// streaming is set once the first live candle arrived.
	streaming bool
}

func newSymbolWindow(symbol string, size int, warm []types.Candle) *symbolWindow {
	w := &symbolWindow{symbol: symbol, size: size, candles: nil, streaming: false}

	for _, candle := range warm {
		if w.accepts(candle) {
			w.append(candle)
		}
	}

	return w
}

// lastTimestamp is the open time of the newest candle, zero when empty.
func (w *symbolWindow) lastTimestamp() time.Time {
	if len(w.candles) == 0 {
		return time.Time{}
	}

	return w.candles[len(w.candles)-1].Timestamp
}

// accepts reports whether candle strictly advances the window.
func (w *symbolWindow) accepts(candle types.Candle) bool {
	return len(w.candles) == 0 || candle.Timestamp.After(w.lastTimestamp())
}

func (w *symbolWindow) append(candle types.Candle) {
	w.candles = append(w.candles, candle)

	if len(w.candles) > w.size {
		w.candles = slices.Clone(w.candles[len(w.candles)-w.size:])
	}
}

// snapshot returns a copy that the strategy may keep.
func (w *symbolWindow) snapshot() []types.Candle {
	return slices.Clone(w.candles)
}

func (w *symbolWindow) len() int {
	return len(w.candles)
}
