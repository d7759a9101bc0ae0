package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/econicmedia/bot-sub001/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	UpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	DownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// FormatPriceWithColor formats a price with indicator based on comparison with previous price.
func FormatPriceWithColor(current, previous float64) string {
	priceStr := fmt.Sprintf("%.4f", current)

	if previous == 0 {
		return priceStr
	}

	if current > previous {
		return priceStr + " ▲"
	} else if current < previous {
		return priceStr + " ▼"
	}

	return priceStr
}

// FormatPnL renders a PnL figure green when positive and red when negative.
func FormatPnL(value float64) string {
	text := fmt.Sprintf("%+.2f", value)

	switch {
	case value > 0:
		return UpStyle.Render(text)
	case value < 0:
		return DownStyle.Render(text)
	default:
		return text
	}
}

// StatusStyle colours the engine status.
func StatusStyle(status types.EngineStatus) lipgloss.Style {
	switch status {
	case types.EngineStatusRunning:
		return UpStyle.Bold(true)
	case types.EngineStatusError:
		return DownStyle.Bold(true)
	case types.EngineStatusStarting, types.EngineStatusStopping, types.EngineStatusStopped:
		return lipgloss.NewStyle().Bold(true)
	default:
		return lipgloss.NewStyle()
	}
}
