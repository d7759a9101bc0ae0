package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/econicmedia/bot-sub001/internal/types"
)

// Application states.
const (
	StateAddressInput = iota
	StateDashboard
)

const requestTimeout = 5 * time.Second

// Model is the main Bubble Tea model for the bot monitor.
type Model struct {
	state          int
	addressInput   textinput.Model
	positionsTable table.Model
	pricesTable    table.Model
	focusPrices    bool
	client         *Client
	interval       time.Duration

	status     types.TradingStatus
	lastPrices map[string]float64
	prevPrices map[string]float64
	lastUpdate time.Time
	notice     string
	err        error
	width      int
	height     int
}

// NewModel creates a Model polling every interval. With an empty address the
// monitor asks for one first.
func NewModel(address string, interval time.Duration) Model {
	m := Model{
		state:          StateAddressInput,
		addressInput:   NewAddressInput(),
		positionsTable: NewPositionsTable(),
		pricesTable:    NewPricesTable(),
		interval:       interval,
		lastPrices:     make(map[string]float64),
		prevPrices:     make(map[string]float64),
	}

	if address != "" {
		m.client = NewClient(address, requestTimeout)
		m.state = StateDashboard
		m.addressInput.Blur()
	}

	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.state == StateDashboard {
		return fetchSnapshot(m.client)
	}

	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			// Only quit on 'q' if not in text input mode
			if m.state != StateAddressInput {
				return m, tea.Quit
			}
		case "esc":
			if m.state == StateDashboard {
				m.state = StateAddressInput
				m.client = nil
				m.err = nil
				m.notice = ""
				m.addressInput.Focus()

				return m, textinput.Blink
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.positionsTable.SetWidth(msg.Width)
		m.pricesTable.SetWidth(msg.Width)

		return m, nil

	case SnapshotMsg:
		m.applySnapshot(msg.Snapshot)

		return m, m.scheduleTick()

	case FetchErrorMsg:
		m.err = msg.Err

		return m, m.scheduleTick()

	case ControlResultMsg:
		if msg.Err != nil {
			m.err = msg.Err
		} else {
			m.err = nil
			m.status = msg.Status
			m.notice = fmt.Sprintf("%s: engine %s", msg.Action, msg.Status.Status)
		}

		return m, nil

	case tickMsg:
		if m.client == nil {
			return m, nil
		}

		return m, fetchSnapshot(m.client)
	}

	switch m.state {
	case StateAddressInput:
		return m.updateAddressInput(msg)
	case StateDashboard:
		return m.updateDashboard(msg)
	}

	return m, nil
}

func (m *Model) applySnapshot(snapshot Snapshot) {
	m.err = nil
	m.status = snapshot.Status
	m.lastUpdate = snapshot.TakenAt

	for _, tick := range snapshot.Prices {
		if last, ok := m.lastPrices[tick.Symbol]; ok && last != tick.Price {
			m.prevPrices[tick.Symbol] = last
		}

		m.lastPrices[tick.Symbol] = tick.Price
	}

	m.positionsTable = UpdatePositionRows(m.positionsTable, snapshot.Positions)
	m.pricesTable = UpdatePriceRows(m.pricesTable, snapshot.Prices, m.prevPrices)
}

func (m Model) scheduleTick() tea.Cmd {
	if m.client == nil {
		return nil
	}

	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) updateAddressInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		address := strings.TrimSpace(m.addressInput.Value())
		if address == "" {
			address = m.addressInput.Placeholder
		}

		m.client = NewClient(address, requestTimeout)
		m.state = StateDashboard
		m.addressInput.Blur()

		return m, fetchSnapshot(m.client)
	}

	var cmd tea.Cmd
	m.addressInput, cmd = m.addressInput.Update(msg)

	return m, cmd
}

func (m Model) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab":
			m.focusPrices = !m.focusPrices
			if m.focusPrices {
				m.positionsTable.Blur()
				m.pricesTable.Focus()
			} else {
				m.pricesTable.Blur()
				m.positionsTable.Focus()
			}

			return m, nil
		case "s":
			m.notice = "starting engine..."

			return m, controlEngine(m.client, "start")
		case "x":
			m.notice = "stopping engine..."

			return m, controlEngine(m.client, "stop")
		}
	}

	var cmd tea.Cmd
	if m.focusPrices {
		m.pricesTable, cmd = m.pricesTable.Update(msg)
	} else {
		m.positionsTable, cmd = m.positionsTable.Update(msg)
	}

	return m, cmd
}

// fetchSnapshot returns a command polling the API once.
func fetchSnapshot(client *Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		snapshot, err := client.Snapshot(ctx)
		if err != nil {
			return FetchErrorMsg{Err: err}
		}

		return SnapshotMsg{Snapshot: snapshot}
	}
}

// controlEngine returns a command posting a start or stop request.
func controlEngine(client *Client, action string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var (
			status types.TradingStatus
			err    error
		)

		if action == "start" {
			status, err = client.Start(ctx)
		} else {
			status, err = client.Stop(ctx)
		}

		return ControlResultMsg{Action: action, Status: status, Err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateAddressInput:
		s.WriteString(TitleStyle.Render("Trading Bot Monitor"))
		s.WriteString("\n\n")
		s.WriteString("Enter the bot API address:\n\n")
		s.WriteString(m.addressInput.View())
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Press Enter to connect, ctrl+c to quit"))

	case StateDashboard:
		s.WriteString(TitleStyle.Render(fmt.Sprintf("Trading Bot - %s", m.client.BaseURL())))
		s.WriteString("\n\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			s.WriteString("\n\n")
		}

		if m.lastUpdate.IsZero() {
			s.WriteString("Waiting for data...\n")
		} else {
			s.WriteString(renderHeader(m.status))
			s.WriteString("\n")
			s.WriteString(TitleStyle.Render("Positions"))
			s.WriteString("\n")
			s.WriteString(m.positionsTable.View())
			s.WriteString("\n\n")
			s.WriteString(TitleStyle.Render("Prices"))
			s.WriteString("\n")
			s.WriteString(m.pricesTable.View())
			s.WriteString("\n")
		}

		if m.notice != "" {
			s.WriteString(m.notice)
			s.WriteString("\n")
		}

		s.WriteString("\n")
		s.WriteString(HelpStyle.Render(fmt.Sprintf("q: quit | Esc: change address | tab: switch table | s: start | x: stop | every %s", m.interval)))
	}

	return s.String()
}
