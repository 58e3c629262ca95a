// Package tui provides the Bubble Tea front end for Chain Reaction.
// The run loop lives on its own goroutine; the view only ever sees value
// snapshots delivered as messages from engine hooks.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/chain-reaction/internal/game"
)

// TickMsg refreshes the elapsed-time status line.
type TickMsg time.Time

// SnapshotMsg carries the board after every engine update.
type SnapshotMsg game.Snapshot

// WaitingMsg is sent when the human player starts waiting for input.
type WaitingMsg struct{}

// GameFinishedMsg is sent after each completed game.
type GameFinishedMsg struct {
	Winner int
	Game   int
	Tally  []int
}

// RunDoneMsg is sent once the run ends, cancelled or not.
type RunDoneMsg struct {
	Tally []int
	Err   error
}

// tickCmd returns a Bubble Tea command that sends tick messages at the specified rate.
func tickCmd(tickRate int) tea.Cmd {
	interval := time.Second / time.Duration(tickRate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
