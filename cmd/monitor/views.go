package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/econicmedia/bot-sub001/internal/types"
)

// NewAddressInput creates the text input for the API address.
func NewAddressInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "http://localhost:8080"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 50
	ti.Prompt = "> "

	return ti
}

func newTable(columns []table.Column, focused bool) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(focused),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// NewPositionsTable creates the open positions table.
func NewPositionsTable() table.Model {
	return newTable([]table.Column{
		{Title: "Symbol", Width: 12},
		{Title: "Quantity", Width: 14},
		{Title: "Entry", Width: 14},
		{Title: "Last", Width: 14},
		{Title: "Unrealized", Width: 14},
		{Title: "Realized", Width: 14},
	}, true)
}

// NewPricesTable creates the last price table.
func NewPricesTable() table.Model {
	return newTable([]table.Column{
		{Title: "Symbol", Width: 12},
		{Title: "Price", Width: 18},
		{Title: "Time", Width: 10},
	}, false)
}

// UpdatePositionRows replaces the rows of the positions table.
func UpdatePositionRows(t table.Model, positions []types.Position) table.Model {
	rows := make([]table.Row, 0, len(positions))

	for _, pos := range positions {
		rows = append(rows, table.Row{
			pos.Symbol,
			fmt.Sprintf("%.6f", pos.Quantity),
			fmt.Sprintf("%.4f", pos.AvgEntryPrice),
			fmt.Sprintf("%.4f", pos.LastPrice),
			fmt.Sprintf("%+.2f", pos.UnrealizedPnL),
			fmt.Sprintf("%+.2f", pos.RealizedPnL),
		})
	}

	t.SetRows(rows)

	return t
}

// UpdatePriceRows replaces the rows of the price table. Ticks arrive sorted by symbol.
func UpdatePriceRows(t table.Model, ticks []types.PriceTick, prevPrices map[string]float64) table.Model {
	rows := make([]table.Row, 0, len(ticks))

	for _, tick := range ticks {
		rows = append(rows, table.Row{
			tick.Symbol,
			FormatPriceWithColor(tick.Price, prevPrices[tick.Symbol]),
			tick.Timestamp.Format("15:04:05"),
		})
	}

	t.SetRows(rows)

	return t
}

// renderHeader summarizes engine state and account figures.
func renderHeader(status types.TradingStatus) string {
	var s strings.Builder

	s.WriteString(fmt.Sprintf("Engine: %s  Mode: %s  Timeframe: %s  Uptime: %s\n",
		StatusStyle(status.Status).Render(string(status.Status)),
		status.Mode,
		status.Timeframe,
		status.Uptime.Truncate(time.Second),
	))

	account := status.Account
	s.WriteString(fmt.Sprintf("Equity: %.2f  Cash: %.2f  Realized: %s  Unrealized: %s  Fees: %.2f\n",
		account.Equity,
		account.Cash,
		FormatPnL(account.RealizedPnL),
		FormatPnL(account.UnrealizedPnL),
		account.TotalFees,
	))

	stats := status.Stats
	s.WriteString(fmt.Sprintf("Signals: %d  Trades: %d  Win rate: %.1f%%  Max drawdown: %.2f\n",
		stats.SignalsGenerated,
		stats.TradeResult.NumberOfTrades,
		stats.TradeResult.WinRate*100,
		stats.TradeResult.MaxDrawdown,
	))

	if status.LastError != "" {
		s.WriteString(ErrorStyle.Render("Last error: " + status.LastError))
		s.WriteString("\n")
	}

	return s.String()
}
