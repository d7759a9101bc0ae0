// Package analyzer derives market structure (swing points, trend and
// structure breaks) from a window of candles.
package analyzer

import (
	"math"

	"github.com/econicmedia/bot-sub001/internal/types"
	"github.com/econicmedia/bot-sub001/pkg/errors"
)

const (
	confirmWeight = 0.7
	breakWeight   = 0.3

	// Confirmations needed for a full confirmation score.
	swingSaturation  = 4
	candleSaturation = 10
)

// Config holds the analyzer parameters.
type Config struct {
	// SwingRadius is the number of candles on each side a swing point must exceed.
	SwingRadius int
	// MinCandles is the shortest window that can be analyzed.
	MinCandles int
	// TrendLookback is how many of the latest swing labels vote on the trend.
	TrendLookback int
	// DominanceRatio is how much one side must outnumber the other.
	DominanceRatio float64
	// RangePeriod is the number of trailing candles used for the average range.
	RangePeriod int
	// BreakRangeMultiple scales the average range a break must travel for a full score.
	BreakRangeMultiple float64
}

// DefaultConfig returns the standard parameters.
func DefaultConfig() Config {
	return Config{
		SwingRadius:        2,
		MinCandles:         20,
		TrendLookback:      10,
		DominanceRatio:     1.5,
		RangePeriod:        14,
		BreakRangeMultiple: 1,
	}
}

// Analyzer is stateless apart from its parameters and safe for concurrent use.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates an analyzer. Non-positive parameters fall back to defaults.
func NewAnalyzer(config Config) *Analyzer {
	defaults := DefaultConfig()

	if config.SwingRadius <= 0 {
		config.SwingRadius = defaults.SwingRadius
	}

	if config.MinCandles <= 0 {
		config.MinCandles = defaults.MinCandles
	}

	// A window must be able to hold at least one swing point.
	if config.MinCandles < 2*config.SwingRadius+1 {
		config.MinCandles = 2*config.SwingRadius + 1
	}

	if config.TrendLookback <= 0 {
		config.TrendLookback = defaults.TrendLookback
	}

	if config.DominanceRatio < 1 {
		config.DominanceRatio = defaults.DominanceRatio
	}

	if config.RangePeriod <= 0 {
		config.RangePeriod = defaults.RangePeriod
	}

	if config.BreakRangeMultiple <= 0 {
		config.BreakRangeMultiple = defaults.BreakRangeMultiple
	}

	return &Analyzer{config: config}
}

// MinCandles is the smallest window Analyze accepts.
func (a *Analyzer) MinCandles() int {
	return a.config.MinCandles
}

// Analyze returns the market structure of window. Candles must be ordered by
// strictly increasing timestamp and satisfy the OHLC relationship.
func (a *Analyzer) Analyze(window []types.Candle) (types.MarketStructureResult, error) {
	symbol := ""
	if len(window) > 0 {
		symbol = window[0].Symbol
	}

	if len(window) < a.config.MinCandles {
		return types.MarketStructureResult{}, errors.NewInsufficientDataErrorf(
			a.config.MinCandles, len(window), symbol,
			"market structure needs %d candles, got %d", a.config.MinCandles, len(window))
	}

	if err := validateWindow(window); err != nil {
		return types.MarketStructureResult{}, err
	}

	highs, lows := a.findSwings(window)
	events := mergeSwings(highs, lows)

	var (
		trend         types.Trend
		confirmations int
		saturation    int
	)

	if len(highs) >= 2 && len(lows) >= 2 {
		trend, confirmations = a.classifySwings(events)
		saturation = swingSaturation
	} else {
		trend, confirmations = a.classifyCandles(window)
		saturation = candleSaturation
	}

	result := types.MarketStructureResult{
		Symbol:        symbol,
		Trend:         trend,
		Confidence:    0,
		Events:        events,
		Confirmations: confirmations,
		EvaluatedAt:   window[len(window)-1].Timestamp,
	}

	breakScore := 0.0

	if brk, ok := a.detectBreak(window, trend, highs, lows); ok {
		breakScore = a.breakScore(window, brk.Price)
		result.Trend = brk.Direction
		result.StructureBreak = true
		result.Events = append(result.Events, brk)
	}

	if result.Trend == types.TrendRanging {
		return result, nil
	}

	confirmScore := math.Min(1, float64(confirmations)/float64(saturation))
	result.Confidence = clamp(confirmWeight*confirmScore + breakWeight*breakScore)

	return result, nil
}

func validateWindow(window []types.Candle) error {
	for i, candle := range window {
		if err := candle.Validate(); err != nil {
			return err
		}

		if i > 0 && !candle.Timestamp.After(window[i-1].Timestamp) {
			return errors.Newf(errors.ErrCodeInvalidCandle,
				"candle %d of %s is not after the previous candle", i, candle.Symbol)
		}
	}

	return nil
}

// findSwings returns swing highs and lows labelled against the previous
// swing of the same kind, each ordered by index.
func (a *Analyzer) findSwings(window []types.Candle) ([]types.StructureEvent, []types.StructureEvent) {
	radius := a.config.SwingRadius

	var highs, lows []types.StructureEvent

	for i := radius; i < len(window)-radius; i++ {
		isHigh, isLow := true, true

		for j := i - radius; j <= i+radius; j++ {
			if j == i {
				continue
			}

			if window[j].High >= window[i].High {
				isHigh = false
			}

			if window[j].Low <= window[i].Low {
				isLow = false
			}
		}

		if isHigh {
			label := types.SwingLabelNone
			if len(highs) > 0 {
				label = compareSwing(window[i].High, highs[len(highs)-1].Price, types.SwingLabelHigherHigh, types.SwingLabelLowerHigh)
			}

			highs = append(highs, types.StructureEvent{
				Kind:      types.StructureEventSwingHigh,
				Label:     label,
				Index:     i,
				Timestamp: window[i].Timestamp,
				Price:     window[i].High,
			})
		}

		if isLow {
			label := types.SwingLabelNone
			if len(lows) > 0 {
				label = compareSwing(window[i].Low, lows[len(lows)-1].Price, types.SwingLabelHigherLow, types.SwingLabelLowerLow)
			}

			lows = append(lows, types.StructureEvent{
				Kind:      types.StructureEventSwingLow,
				Label:     label,
				Index:     i,
				Timestamp: window[i].Timestamp,
				Price:     window[i].Low,
			})
		}
	}

	return highs, lows
}

func compareSwing(price, previous float64, higher, lower types.SwingLabel) types.SwingLabel {
	switch {
	case price > previous:
		return higher
	case price < previous:
		return lower
	default:
		return types.SwingLabelNone
	}
}

// mergeSwings interleaves highs and lows by index. A candle that is both
// puts its high first.
func mergeSwings(highs, lows []types.StructureEvent) []types.StructureEvent {
	events := make([]types.StructureEvent, 0, len(highs)+len(lows))

	i, j := 0, 0
	for i < len(highs) || j < len(lows) {
		if j >= len(lows) || (i < len(highs) && highs[i].Index <= lows[j].Index) {
			events = append(events, highs[i])
			i++
		} else {
			events = append(events, lows[j])
			j++
		}
	}

	return events
}

// classifySwings votes on the trend with the latest swing labels and counts
// the trailing run of labels agreeing with it.
func (a *Analyzer) classifySwings(events []types.StructureEvent) (types.Trend, int) {
	labels := make([]types.SwingLabel, 0, len(events))

	for _, event := range events {
		if event.Label != types.SwingLabelNone {
			labels = append(labels, event.Label)
		}
	}

	recent := labels
	if len(recent) > a.config.TrendLookback {
		recent = recent[len(recent)-a.config.TrendLookback:]
	}

	bullish, bearish := 0, 0

	for _, label := range recent {
		if label.Bullish() {
			bullish++
		} else if label.Bearish() {
			bearish++
		}
	}

	trend := a.dominant(bullish, bearish)
	if trend == types.TrendRanging {
		return trend, 0
	}

	run := 0

	for i := len(labels) - 1; i >= 0; i-- {
		if !agrees(trend, labels[i].Bullish(), labels[i].Bearish()) {
			break
		}

		run++
	}

	return trend, run
}

// classifyCandles is the fallback for windows with too few swings: each
// consecutive pair votes bullish when both high and low rise, bearish when
// both fall.
func (a *Analyzer) classifyCandles(window []types.Candle) (types.Trend, int) {
	votes := make([]types.Trend, 0, len(window)-1)

	for i := 1; i < len(window); i++ {
		prev, cur := window[i-1], window[i]

		switch {
		case cur.High > prev.High && cur.Low > prev.Low:
			votes = append(votes, types.TrendBullish)
		case cur.High < prev.High && cur.Low < prev.Low:
			votes = append(votes, types.TrendBearish)
		default:
			votes = append(votes, types.TrendRanging)
		}
	}

	recent := votes
	if len(recent) > a.config.TrendLookback {
		recent = recent[len(recent)-a.config.TrendLookback:]
	}

	bullish, bearish := 0, 0

	for _, vote := range recent {
		switch vote {
		case types.TrendBullish:
			bullish++
		case types.TrendBearish:
			bearish++
		case types.TrendRanging:
		}
	}

	trend := a.dominant(bullish, bearish)
	if trend == types.TrendRanging {
		return trend, 0
	}

	run := 0

	for i := len(votes) - 1; i >= 0 && votes[i] == trend; i-- {
		run++
	}

	return trend, run
}

func (a *Analyzer) dominant(bullish, bearish int) types.Trend {
	ratio := a.config.DominanceRatio

	switch {
	case bullish > 0 && float64(bullish) >= ratio*float64(bearish):
		return types.TrendBullish
	case bearish > 0 && float64(bearish) >= ratio*float64(bullish):
		return types.TrendBearish
	default:
		return types.TrendRanging
	}
}

func agrees(trend types.Trend, bullish, bearish bool) bool {
	switch trend {
	case types.TrendBullish:
		return bullish
	case types.TrendBearish:
		return bearish
	case types.TrendRanging:
		return false
	default:
		return false
	}
}

// detectBreak checks whether the last close crossed the most recent swing
// level against the prior trend. With a ranging prior trend either side may
// break; when both do, the more recent swing wins.
func (a *Analyzer) detectBreak(
	window []types.Candle,
	trend types.Trend,
	highs, lows []types.StructureEvent,
) (types.StructureEvent, bool) {
	last := window[len(window)-1]
	lastIndex := len(window) - 1

	var bearishBreak, bullishBreak *types.StructureEvent

	if trend != types.TrendBearish && len(lows) > 0 {
		level := lows[len(lows)-1]
		if last.Close < level.Price {
			bearishBreak = &level
		}
	}

	if trend != types.TrendBullish && len(highs) > 0 {
		level := highs[len(highs)-1]
		if last.Close > level.Price {
			bullishBreak = &level
		}
	}

	if bearishBreak != nil && bullishBreak != nil {
		if bearishBreak.Index >= bullishBreak.Index {
			bullishBreak = nil
		} else {
			bearishBreak = nil
		}
	}

	switch {
	case bearishBreak != nil:
		return types.StructureEvent{
			Kind:      types.StructureEventStructureBreak,
			Direction: types.TrendBearish,
			Index:     lastIndex,
			Timestamp: last.Timestamp,
			Price:     bearishBreak.Price,
		}, true
	case bullishBreak != nil:
		return types.StructureEvent{
			Kind:      types.StructureEventStructureBreak,
			Direction: types.TrendBullish,
			Index:     lastIndex,
			Timestamp: last.Timestamp,
			Price:     bullishBreak.Price,
		}, true
	default:
		return types.StructureEvent{}, false
	}
}

// breakScore measures how far the last close moved past level in units of
// the recent average candle range.
func (a *Analyzer) breakScore(window []types.Candle, level float64) float64 {
	distance := math.Abs(window[len(window)-1].Close - level)

	start := len(window) - a.config.RangePeriod
	if start < 0 {
		start = 0
	}

	total := 0.0
	for _, candle := range window[start:] {
		total += candle.Range()
	}

	avgRange := total / float64(len(window)-start)
	if avgRange == 0 {
		if distance > 0 {
			return 1
		}

		return 0
	}

	return math.Min(1, distance/(avgRange*a.config.BreakRangeMultiple))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
