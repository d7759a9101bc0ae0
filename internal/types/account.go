package types

// AccountInfo represents the current account state including balance, equity, and P&L information.
type AccountInfo struct {
	// Cash is the starting equity plus realized P&L, minus fees, minus cost of open positions
	Cash float64 `json:"cash" yaml:"cash"`
	// Equity is cash plus the market value of open positions
	Equity float64 `json:"equity" yaml:"equity"`
	// RealizedPnL is the total realized profit/loss from closed positions
	RealizedPnL float64 `json:"realized_pnl" yaml:"realized_pnl"`
	// UnrealizedPnL is the total unrealized profit/loss from open positions
	UnrealizedPnL float64 `json:"unrealized_pnl" yaml:"unrealized_pnl"`
	// TotalFees is the total fees paid
	TotalFees float64 `json:"total_fees" yaml:"total_fees"`
}
