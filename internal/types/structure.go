package types

import "time"

// Trend is the directional read of a candle window.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendRanging Trend = "ranging"
)

// StructureEventKind identifies what a StructureEvent marks.
type StructureEventKind string

const (
	StructureEventSwingHigh      StructureEventKind = "swing_high"
	StructureEventSwingLow       StructureEventKind = "swing_low"
	StructureEventStructureBreak StructureEventKind = "structure_break"
)

// SwingLabel classifies a swing point against the previous swing of the same kind.
type SwingLabel string

const (
	SwingLabelNone       SwingLabel = ""
	SwingLabelHigherHigh SwingLabel = "HH"
	SwingLabelLowerHigh  SwingLabel = "LH"
	SwingLabelHigherLow  SwingLabel = "HL"
	SwingLabelLowerLow   SwingLabel = "LL"
)

// Bullish reports whether the label confirms an up trend.
func (l SwingLabel) Bullish() bool {
	return l == SwingLabelHigherHigh || l == SwingLabelHigherLow
}

// Bearish reports whether the label confirms a down trend.
func (l SwingLabel) Bearish() bool {
	return l == SwingLabelLowerHigh || l == SwingLabelLowerLow
}

// StructureEvent is a swing point or structure break found in a window.
// Index is the position of the producing candle inside the analyzed window.
type StructureEvent struct {
	Kind      StructureEventKind `json:"kind"`
	Label     SwingLabel         `json:"label,omitempty"`
	Direction Trend              `json:"direction,omitempty"`
	Index     int                `json:"index"`
	Timestamp time.Time          `json:"timestamp"`
	Price     float64            `json:"price"`
}

// MarketStructureResult is the analyzer output for one window. It is never
// mutated after creation.
type MarketStructureResult struct {
	Symbol string `json:"symbol"`
	Trend  Trend  `json:"trend"`
	// Confidence is in [0, 1] and is 0 for ranging results.
	Confidence float64          `json:"confidence"`
	Events     []StructureEvent `json:"events"`
	// Confirmations is the number of consecutive swing points (or candles
	// when too few swings exist) agreeing with the trend. For a structure
	// break it counts the run of the structure that was broken.
	Confirmations  int  `json:"confirmations"`
	StructureBreak bool `json:"structure_break"`
	// EvaluatedAt is the timestamp of the last candle of the window.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// LastBreak returns the structure break event if the result has one.
func (r MarketStructureResult) LastBreak() (StructureEvent, bool) {
	for i := len(r.Events) - 1; i >= 0; i-- {
		if r.Events[i].Kind == StructureEventStructureBreak {
			return r.Events[i], true
		}
	}

	return StructureEvent{}, false
}
