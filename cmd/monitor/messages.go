package main

import (
	"time"

	"github.com/econicmedia/bot-sub001/internal/types"
)

// SnapshotMsg carries a successful poll.
type SnapshotMsg struct {
	Snapshot Snapshot
}

// FetchErrorMsg indicates a failed poll.
type FetchErrorMsg struct {
	Err error
}

// ControlResultMsg carries the outcome of a start or stop request.
type ControlResultMsg struct {
	Action string
	Status types.TradingStatus
	Err    error
}

// tickMsg triggers the next poll.
type tickMsg time.Time
