package main

import (
	"bytes"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/econicmedia/bot-sub001/internal/types"
)

func TestNewModel(t *testing.T) {
	m := NewModel("", time.Second)

	assert.Equal(t, StateAddressInput, m.state)
	assert.Nil(t, m.client)
	assert.NotNil(t, m.prevPrices)
	assert.NotNil(t, m.lastPrices)

	m = NewModel("localhost:8080", time.Second)
	assert.Equal(t, StateDashboard, m.state)
	assert.Equal(t, "http://localhost:8080", m.client.BaseURL())
}

func TestAddressInput(t *testing.T) {
	server, engine, _ := newFakeBot(t)
	engine.EXPECT().Status().Return(types.TradingStatus{Status: types.EngineStatusStopped, Mode: "paper"}).AnyTimes()

	m := NewModel("", time.Hour)
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Enter the bot API address"))
	}, teatest.WithDuration(2*time.Second))

	tm.Type(server.URL)
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Engine:")) && bytes.Contains(bts, []byte("stopped"))
	}, teatest.WithDuration(2*time.Second))

	assert.NoError(t, tm.Quit())
}

func TestDashboardShowsPositions(t *testing.T) {
	server, engine, store := newFakeBot(t)
	engine.EXPECT().Status().Return(types.TradingStatus{Status: types.EngineStatusRunning, Mode: "paper"}).AnyTimes()

	now := time.Now().UTC()
	store.UpdatePrice("BTCUSDT", 50000, now)

	_, err := store.RecordTrade(types.Trade{
		ID: "t1", OrderID: "o1", Symbol: "BTCUSDT", Side: types.OrderSideBuy,
		Quantity: 0.25, Price: 50000, Timestamp: now,
	})
	assert.NoError(t, err)

	tm := teatest.NewTestModel(t, NewModel(server.URL, time.Hour), teatest.WithInitialTermSize(120, 40))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("0.250000")) && bytes.Contains(bts, []byte("running"))
	}, teatest.WithDuration(2*time.Second))

	assert.NoError(t, tm.Quit())
}

func TestStartKey(t *testing.T) {
	server, engine, _ := newFakeBot(t)
	engine.EXPECT().Status().Return(types.TradingStatus{Status: types.EngineStatusRunning, Mode: "paper"}).AnyTimes()
	engine.EXPECT().Start(gomock.Any()).Return(nil)

	tm := teatest.NewTestModel(t, NewModel(server.URL, time.Hour), teatest.WithInitialTermSize(120, 40))

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("Engine:"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("start: engine running"))
	}, teatest.WithDuration(2*time.Second))

	assert.NoError(t, tm.Quit())
}

func TestFetchErrorIsShown(t *testing.T) {
	m := NewModel("localhost:1", time.Hour)

	newModel, _ := m.Update(FetchErrorMsg{Err: assert.AnError})
	updated := newModel.(Model)

	assert.Equal(t, assert.AnError, updated.err)
	assert.Contains(t, updated.View(), "Error:")
}

func TestSnapshotTracksPreviousPrices(t *testing.T) {
	m := NewModel("localhost:1", time.Hour)
	now := time.Now()

	newModel, _ := m.Update(SnapshotMsg{Snapshot: Snapshot{
		Prices:  []types.PriceTick{{Symbol: "BTCUSDT", Price: 100, Timestamp: now}},
		TakenAt: now,
	}})
	m = newModel.(Model)
	assert.Empty(t, m.prevPrices)

	newModel, _ = m.Update(SnapshotMsg{Snapshot: Snapshot{
		Prices:  []types.PriceTick{{Symbol: "BTCUSDT", Price: 110, Timestamp: now}},
		TakenAt: now,
	}})
	m = newModel.(Model)

	assert.InDelta(t, 100, m.prevPrices["BTCUSDT"], 1e-9)
	assert.InDelta(t, 110, m.lastPrices["BTCUSDT"], 1e-9)
	assert.Contains(t, m.pricesTable.Rows()[0][1], "▲")
}

func TestEscReturnsToAddressInput(t *testing.T) {
	m := NewModel("localhost:1", time.Hour)
	m.err = assert.AnError

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	updated := newModel.(Model)

	assert.Equal(t, StateAddressInput, updated.state)
	assert.Nil(t, updated.client)
	assert.NoError(t, updated.err)

	// A poll that was already scheduled is ignored once disconnected.
	_, cmd := updated.Update(tickMsg(time.Now()))
	assert.Nil(t, cmd)
}

func TestTabSwitchesFocus(t *testing.T) {
	m := NewModel("localhost:1", time.Hour)
	assert.True(t, m.positionsTable.Focused())

	newModel, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	updated := newModel.(Model)

	assert.True(t, updated.focusPrices)
	assert.True(t, updated.pricesTable.Focused())
	assert.False(t, updated.positionsTable.Focused())
}

func TestQuitBehavior(t *testing.T) {
	t.Run("ctrl+c quits from address input", func(t *testing.T) {
		tm := teatest.NewTestModel(t, NewModel("", time.Hour), teatest.WithInitialTermSize(80, 24))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
	})

	t.Run("q is typed into the address input", func(t *testing.T) {
		m := NewModel("", time.Hour)

		newModel, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
		updated := newModel.(Model)

		assert.Equal(t, "q", updated.addressInput.Value())
		if cmd != nil {
			_, isQuit := cmd().(tea.QuitMsg)
			assert.False(t, isQuit)
		}
	})
}

func TestPriceColorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		previous float64
		contains string
	}{
		{name: "price up", current: 100.0, previous: 90.0, contains: "▲"},
		{name: "price down", current: 90.0, previous: 100.0, contains: "▼"},
		{name: "no previous price", current: 100.0, previous: 0, contains: "100.0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, FormatPriceWithColor(tt.current, tt.previous), tt.contains)
		})
	}
}

func TestWindowResize(t *testing.T) {
	newModel, _ := NewModel("", time.Second).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	updated := newModel.(Model)

	assert.Equal(t, 120, updated.width)
	assert.Equal(t, 40, updated.height)
}
