package stats

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/econicmedia/bot-sub001/internal/logger"
	"github.com/econicmedia/bot-sub001/internal/types"
)

const dateLayout = "2006-01-02"

// StatsAccumulator holds running statistics for trades.
type StatsAccumulator struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	RealizedPnL   float64
	UnrealizedPnL float64
	TotalFees     float64
	MaxProfit     float64
	MaxLoss       float64
	MaxDrawdown   float64
	PeakPnL       float64
	Signals       int
}

// StatsTracker tracks run statistics in real time. Daily statistics roll
// over when a trade or signal arrives on a new UTC date.
type StatsTracker struct {
	symbols      []string
	runID        string
	sessionStart time.Time
	currentDate  string

	// Daily accumulators (reset on date boundary)
	dailyStats *StatsAccumulator

	// Cumulative accumulators (from session start)
	cumulativeStats *StatsAccumulator

	mu     sync.Mutex
	logger *logger.Logger
}

// NewStatsTracker creates a new StatsTracker instance.
func NewStatsTracker(log *logger.Logger) *StatsTracker {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &StatsTracker{
		symbols:         nil,
		runID:           "",
		sessionStart:    time.Time{},
		currentDate:     "",
		dailyStats:      newStatsAccumulator(),
		cumulativeStats: newStatsAccumulator(),
		mu:              sync.Mutex{},
		logger:          log,
	}
}

func newStatsAccumulator() *StatsAccumulator {
	return &StatsAccumulator{
		TotalTrades:   0,
		WinningTrades: 0,
		LosingTrades:  0,
		RealizedPnL:   0,
		UnrealizedPnL: 0,
		TotalFees:     0,
		MaxProfit:     0,
		MaxLoss:       0,
		MaxDrawdown:   0,
		PeakPnL:       0,
		Signals:       0,
	}
}

// Initialize starts a new run, discarding the statistics of the previous one.
func (s *StatsTracker) Initialize(symbols []string, runID string, sessionStart time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.symbols = append([]string(nil), symbols...)
	s.runID = runID
	s.sessionStart = sessionStart
	s.currentDate = sessionStart.UTC().Format(dateLayout)
	s.dailyStats = newStatsAccumulator()
	s.cumulativeStats = newStatsAccumulator()

	s.logger.Info("Stats tracker initialized",
		zap.String("run_id", runID),
		zap.Strings("symbols", symbols),
	)
}

// RecordTrade records a trade and updates statistics.
func (s *StatsTracker) RecordTrade(trade types.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDateLocked(trade.Timestamp)

	// Update both daily and cumulative stats
	s.updateAccumulator(s.dailyStats, trade)
	s.updateAccumulator(s.cumulativeStats, trade)

	s.logger.Debug("Trade recorded",
		zap.String("order_id", trade.OrderID),
		zap.Float64("pnl", trade.PnL),
		zap.Int("total_trades", s.cumulativeStats.TotalTrades),
	)
}

// RecordSignal counts a strategy signal.
func (s *StatsTracker) RecordSignal(signal types.Signal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollDateLocked(signal.Timestamp)

	s.dailyStats.Signals++
	s.cumulativeStats.Signals++
}

// updateAccumulator updates a stats accumulator with a new trade.
//
//nolint:funcorder // helper method used by RecordTrade
func (s *StatsTracker) updateAccumulator(acc *StatsAccumulator, trade types.Trade) {
	acc.TotalTrades++
	acc.TotalFees += trade.Fee
	acc.RealizedPnL += trade.PnL

	// Track winning/losing trades
	if trade.PnL > 0 {
		acc.WinningTrades++
	} else if trade.PnL < 0 {
		acc.LosingTrades++
	}

	// Track max profit/loss
	if trade.PnL > acc.MaxProfit {
		acc.MaxProfit = trade.PnL
	}

	if trade.PnL < acc.MaxLoss {
		acc.MaxLoss = trade.PnL
	}

	// Track max drawdown
	if acc.RealizedPnL > acc.PeakPnL {
		acc.PeakPnL = acc.RealizedPnL
	}

	drawdown := acc.PeakPnL - acc.RealizedPnL
	if drawdown > acc.MaxDrawdown {
		acc.MaxDrawdown = drawdown
	}
}

// rollDateLocked resets the daily statistics when ts falls on a later date.
//
//nolint:funcorder // helper method used by RecordTrade and RecordSignal
func (s *StatsTracker) rollDateLocked(ts time.Time) {
	if ts.IsZero() {
		return
	}

	date := ts.UTC().Format(dateLayout)
	if date <= s.currentDate {
		return
	}

	oldDate := s.currentDate
	s.currentDate = date
	s.dailyStats = newStatsAccumulator()
	s.dailyStats.UnrealizedPnL = s.cumulativeStats.UnrealizedPnL

	s.logger.Info("Date boundary handled, daily stats reset",
		zap.String("old_date", oldDate),
		zap.String("new_date", date),
	)
}

// SetUnrealizedPnL updates the unrealized PnL for current positions.
func (s *StatsTracker) SetUnrealizedPnL(unrealizedPnL float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dailyStats.UnrealizedPnL = unrealizedPnL
	s.cumulativeStats.UnrealizedPnL = unrealizedPnL
}

// GetDailyStats returns the current daily statistics.
func (s *StatsTracker) GetDailyStats() types.LiveTradeStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buildLiveTradeStats(s.dailyStats, s.currentDate)
}

// GetCumulativeStats returns the cumulative statistics from session start.
func (s *StatsTracker) GetCumulativeStats() types.LiveTradeStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.buildLiveTradeStats(s.cumulativeStats, s.sessionStart.UTC().Format(dateLayout))
}

// buildLiveTradeStats builds a LiveTradeStats from an accumulator.
//
//nolint:funcorder // helper method used by GetDailyStats and GetCumulativeStats
func (s *StatsTracker) buildLiveTradeStats(acc *StatsAccumulator, date string) types.LiveTradeStats {
	winRate := 0.0
	if acc.TotalTrades > 0 {
		winRate = float64(acc.WinningTrades) / float64(acc.TotalTrades)
	}

	return types.LiveTradeStats{
		ID:           s.runID,
		Date:         date,
		SessionStart: s.sessionStart,
		LastUpdated:  time.Now(),
		Symbols:      append([]string(nil), s.symbols...),
		TradeResult: types.TradeResult{
			NumberOfTrades:        acc.TotalTrades,
			NumberOfWinningTrades: acc.WinningTrades,
			NumberOfLosingTrades:  acc.LosingTrades,
			WinRate:               winRate,
			MaxDrawdown:           acc.MaxDrawdown,
		},
		TradePnl: types.TradePnl{
			RealizedPnL:   acc.RealizedPnL,
			UnrealizedPnL: acc.UnrealizedPnL,
			TotalPnL:      acc.RealizedPnL + acc.UnrealizedPnL,
			MaximumLoss:   acc.MaxLoss,
			MaximumProfit: acc.MaxProfit,
		},
		TotalFees:        acc.TotalFees,
		SignalsGenerated: acc.Signals,
		OrdersByStatus:   map[types.OrderStatus]int{},
	}
}

// GetCurrentDate returns the current date.
func (s *StatsTracker) GetCurrentDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.currentDate
}

// GetRunID returns the run ID.
func (s *StatsTracker) GetRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runID
}
