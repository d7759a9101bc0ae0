package types

import "time"

// EngineStatus represents the current state of the trading engine.
type EngineStatus string

const (
	EngineStatusStopped  EngineStatus = "stopped"
	EngineStatusStarting EngineStatus = "starting"
	EngineStatusRunning  EngineStatus = "running"
	EngineStatusStopping EngineStatus = "stopping"
	EngineStatusError    EngineStatus = "error"
)

// TradeResult holds trade counts and win rate.
type TradeResult struct {
	NumberOfTrades        int     `yaml:"number_of_trades" json:"number_of_trades"`
	NumberOfWinningTrades int     `yaml:"number_of_winning_trades" json:"number_of_winning_trades"`
	NumberOfLosingTrades  int     `yaml:"number_of_losing_trades" json:"number_of_losing_trades"`
	WinRate               float64 `yaml:"win_rate" json:"win_rate"`
	MaxDrawdown           float64 `yaml:"max_drawdown" json:"max_drawdown"`
}

// TradePnl holds the profit/loss breakdown.
type TradePnl struct {
	RealizedPnL   float64 `yaml:"realized_pnl" json:"realized_pnl"`
	UnrealizedPnL float64 `yaml:"unrealized_pnl" json:"unrealized_pnl"`
	TotalPnL      float64 `yaml:"total_pnl" json:"total_pnl"`
	MaximumProfit float64 `yaml:"maximum_profit" json:"maximum_profit"`
	MaximumLoss   float64 `yaml:"maximum_loss" json:"maximum_loss"`
}

// LiveTradeStats contains statistics for a trading run.
type LiveTradeStats struct {
	// ID is the run identifier.
	ID string `yaml:"id" json:"id"`

	// Date is the day these statistics cover, or the session start day for
	// cumulative statistics.
	Date string `yaml:"date" json:"date"`

	// SessionStart is when this run started.
	SessionStart time.Time `yaml:"session_start" json:"session_start"`

	// LastUpdated is when these statistics were last updated.
	LastUpdated time.Time `yaml:"last_updated" json:"last_updated"`

	// Symbols being traded in this run.
	Symbols []string `yaml:"symbols" json:"symbols"`

	TradeResult TradeResult `yaml:"trade_result" json:"trade_result"`
	TradePnl    TradePnl    `yaml:"trade_pnl" json:"trade_pnl"`

	// TotalFees is the sum of all trading fees paid.
	TotalFees float64 `yaml:"total_fees" json:"total_fees"`

	// SignalsGenerated counts signals emitted by the strategy.
	SignalsGenerated int `yaml:"signals_generated" json:"signals_generated"`

	// OrdersByStatus counts orders by their current status.
	OrdersByStatus map[OrderStatus]int `yaml:"orders_by_status" json:"orders_by_status"`
}

// NewLiveTradeStats creates an empty statistics record for a run.
func NewLiveTradeStats(runID string, symbols []string) LiveTradeStats {
	now := time.Now()

	return LiveTradeStats{
		ID:             runID,
		Date:           now.Format("2006-01-02"),
		SessionStart:   now,
		LastUpdated:    now,
		Symbols:        append([]string(nil), symbols...),
		TradeResult:    TradeResult{},
		TradePnl:       TradePnl{},
		OrdersByStatus: map[OrderStatus]int{},
	}
}

// TradingStatus is the engine status exposed to the API layer.
type TradingStatus struct {
	Status    EngineStatus   `json:"status"`
	Mode      string         `json:"mode"`
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Uptime    time.Duration  `json:"uptime"`
	Symbols   []string       `json:"symbols"`
	Timeframe Timeframe      `json:"timeframe"`
	LastError string         `json:"last_error,omitempty"`
	Account   AccountInfo    `json:"account"`
	Stats     LiveTradeStats `json:"stats"`
}
