package types

import (
	"math"
	"time"

	"github.com/econicmedia/bot-sub001/pkg/errors"
)

// Timeframe is a candle interval in exchange notation ("1m", "4h", "1d").
type Timeframe string

const (
	TimeframeOneMinute      Timeframe = "1m"
	TimeframeThreeMinutes   Timeframe = "3m"
	TimeframeFiveMinutes    Timeframe = "5m"
	TimeframeFifteenMinutes Timeframe = "15m"
	TimeframeThirtyMinutes  Timeframe = "30m"
	TimeframeOneHour        Timeframe = "1h"
	TimeframeTwoHours       Timeframe = "2h"
	TimeframeFourHours      Timeframe = "4h"
	TimeframeSixHours       Timeframe = "6h"
	TimeframeEightHours     Timeframe = "8h"
	TimeframeTwelveHours    Timeframe = "12h"
	TimeframeOneDay         Timeframe = "1d"
)

// Duration returns the length of one candle. Unknown timeframes return an error.
func (t Timeframe) Duration() (time.Duration, error) {
	switch t {
	case TimeframeOneMinute:
		return time.Minute, nil
	case TimeframeThreeMinutes:
		return 3 * time.Minute, nil
	case TimeframeFiveMinutes:
		return 5 * time.Minute, nil
	case TimeframeFifteenMinutes:
		return 15 * time.Minute, nil
	case TimeframeThirtyMinutes:
		return 30 * time.Minute, nil
	case TimeframeOneHour:
		return time.Hour, nil
	case TimeframeTwoHours:
		return 2 * time.Hour, nil
	case TimeframeFourHours:
		return 4 * time.Hour, nil
	case TimeframeSixHours:
		return 6 * time.Hour, nil
	case TimeframeEightHours:
		return 8 * time.Hour, nil
	case TimeframeTwelveHours:
		return 12 * time.Hour, nil
	case TimeframeOneDay:
		return 24 * time.Hour, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "unsupported timeframe %q", string(t))
	}
}

// Candle is an immutable OHLCV bar. Timestamp is the open time of the bar.
type Candle struct {
	Symbol    string    `json:"symbol" yaml:"symbol"`
	Timeframe Timeframe `json:"timeframe" yaml:"timeframe"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Open      float64   `json:"open" yaml:"open"`
	High      float64   `json:"high" yaml:"high"`
	Low       float64   `json:"low" yaml:"low"`
	Close     float64   `json:"close" yaml:"close"`
	Volume    float64   `json:"volume" yaml:"volume"`
}

// Range is high minus low.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// IsFinite reports whether every value is neither NaN nor infinite.
func IsFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}

// Validate checks the OHLC relationship of the candle.
func (c Candle) Validate() error {
	if !IsFinite(c.Open, c.High, c.Low, c.Close, c.Volume) {
		return errors.Newf(errors.ErrCodeInvalidCandle, "candle %s at %s: non-finite value in o=%v h=%v l=%v c=%v v=%v",
			c.Symbol, c.Timestamp.Format(time.RFC3339), c.Open, c.High, c.Low, c.Close, c.Volume)
	}

	if c.High < c.Low {
		return errors.Newf(errors.ErrCodeInvalidCandle, "candle %s at %s: high %v below low %v",
			c.Symbol, c.Timestamp.Format(time.RFC3339), c.High, c.Low)
	}

	if c.High < math.Max(c.Open, c.Close) {
		return errors.Newf(errors.ErrCodeInvalidCandle, "candle %s at %s: high %v below open/close",
			c.Symbol, c.Timestamp.Format(time.RFC3339), c.High)
	}

	if c.Low > math.Min(c.Open, c.Close) {
		return errors.Newf(errors.ErrCodeInvalidCandle, "candle %s at %s: low %v above open/close",
			c.Symbol, c.Timestamp.Format(time.RFC3339), c.Low)
	}

	return nil
}

// PriceTick is the last known price of a symbol.
type PriceTick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}
