package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/chain-reaction/internal/board"
)

// KeyMap defines the key bindings of the board view.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Place key.Binding
	Step  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Place, k.Step, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Place, k.Step},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k", "w"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j", "s"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h", "a"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l", "d"),
			key.WithHelp("→/l", "right"),
		),
		Place: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter/space", "place"),
		),
		Step: key.NewBinding(
			key.WithKeys("n", "."),
			key.WithHelp("n", "next step"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// CursorDelta translates a movement key to a cursor offset.
// Returns false if msg is not a movement key.
func (k KeyMap) CursorDelta(msg tea.KeyMsg) (board.XY, bool) {
	switch {
	case key.Matches(msg, k.Up):
		return board.At(0, -1), true
	case key.Matches(msg, k.Down):
		return board.At(0, 1), true
	case key.Matches(msg, k.Left):
		return board.At(-1, 0), true
	case key.Matches(msg, k.Right):
		return board.At(1, 0), true
	}
	return board.XY{}, false
}

// MoveCursor applies a movement key to cursor, clamped to a width x height
// board.
func (k KeyMap) MoveCursor(msg tea.KeyMsg, cursor board.XY, width, height int) (board.XY, bool) {
	d, ok := k.CursorDelta(msg)
	if !ok {
		return cursor, false
	}
	cursor.X = min(max(cursor.X+d.X, 0), width-1)
	cursor.Y = min(max(cursor.Y+d.Y, 0), height-1)
	return cursor, true
}
