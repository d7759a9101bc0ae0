// Package strategy turns market structure into trade signals.
package strategy

import (
	"sync"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"github.com/econicmedia/bot-sub001/internal/types"
)

// StructureAnalyzer computes the market structure of a candle window.
type StructureAnalyzer interface {
	Analyze(window []types.Candle) (types.MarketStructureResult, error)
}

// Strategy evaluates the trailing window of one symbol. It returns None when
// no signal fires. Implementations must be safe for concurrent use across
// symbols; calls for the same symbol are serialized by the engine.
type Strategy interface {
	Name() string
	Evaluate(symbol string, window []types.Candle) (optional.Option[types.Signal], error)
}

// Config holds signal thresholds.
type Config struct {
	// MinConfidence is the lowest analyzer confidence that may fire a signal.
	MinConfidence float64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{MinConfidence: 0.6}
}

type symbolState struct {
	lastTrend   types.Trend
	lastBreakAt int64
}

// StructureStrategy fires on trend changes and structure breaks. A trend
// that persists across windows fires once; a break fires once per break
// candle.
type StructureStrategy struct {
	analyzer StructureAnalyzer
	config   Config

	mu     sync.Mutex
	states map[string]*symbolState
}

// NewStructureStrategy creates a StructureStrategy over analyzer.
func NewStructureStrategy(analyzer StructureAnalyzer, config Config) *StructureStrategy {
	if config.MinConfidence < 0 || config.MinConfidence > 1 {
		config.MinConfidence = DefaultConfig().MinConfidence
	}

	return &StructureStrategy{
		analyzer: analyzer,
		config:   config,
		mu:       sync.Mutex{},
		states:   make(map[string]*symbolState),
	}
}

// Name implements Strategy.
func (s *StructureStrategy) Name() string {
	return "market_structure"
}

// Evaluate implements Strategy. Analyzer errors, including InsufficientData
// during warm-up, are returned unchanged.
func (s *StructureStrategy) Evaluate(symbol string, window []types.Candle) (optional.Option[types.Signal], error) {
	result, err := s.analyzer.Analyze(window)
	if err != nil {
		return optional.None[types.Signal](), err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[symbol]
	if !ok {
		state = &symbolState{lastTrend: types.TrendRanging, lastBreakAt: 0}
		s.states[symbol] = state
	}

	if result.Trend == types.TrendRanging {
		state.lastTrend = types.TrendRanging

		return optional.None[types.Signal](), nil
	}

	trendChanged := result.Trend != state.lastTrend
	freshBreak := false

	if event, ok := result.LastBreak(); ok && event.Timestamp.UnixNano() != state.lastBreakAt {
		freshBreak = true
	}

	if !trendChanged && !freshBreak {
		return optional.None[types.Signal](), nil
	}

	if result.Confidence < s.config.MinConfidence {
		return optional.None[types.Signal](), nil
	}

	state.lastTrend = result.Trend
	if event, ok := result.LastBreak(); ok {
		state.lastBreakAt = event.Timestamp.UnixNano()
	}

	last := window[len(window)-1]

	closeTime := last.Timestamp
	if d, err := last.Timeframe.Duration(); err == nil {
		closeTime = closeTime.Add(d)
	}

	side := types.OrderSideBuy
	reason := "bullish structure"

	if result.Trend == types.TrendBearish {
		side = types.OrderSideSell
		reason = "bearish structure"
	}

	if result.StructureBreak {
		reason += " (break of structure)"
	}

	return optional.Some(types.Signal{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Side:       side,
		Confidence: result.Confidence,
		Structure:  result,
		Timestamp:  closeTime,
		Price:      last.Close,
		Reason:     reason,
	}), nil
}

// Reset forgets the per-symbol trend memory.
func (s *StructureStrategy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.states)
}

var _ Strategy = (*StructureStrategy)(nil)
