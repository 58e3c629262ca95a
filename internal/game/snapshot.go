package game

import (
	"slices"

	"github.com/vovakirdan/chain-reaction/internal/board"
)

// Snapshot is an immutable copy of the engine state, safe to hand to
// another goroutine (renderers, loggers).
type Snapshot struct {
	Width   int
	Height  int
	Cells   []board.Cell
	Scores  []int
	Current int
	Turn    int
	Latest  int
	Active  bool
	Winner  int // -1 while active
}

// Snapshot copies the current state. Call it from the mutating goroutine,
// typically inside an EventUpdate handler.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Width:   e.geo.Width,
		Height:  e.geo.Height,
		Cells:   slices.Clone(e.cells),
		Scores:  slices.Clone(e.scores),
		Current: e.current,
		Turn:    e.turn,
		Latest:  e.latest,
		Active:  e.IsActive(),
		Winner:  -1,
	}
	if w, err := e.Winner(); err == nil {
		s.Winner = w
	}
	return s
}

// Cell returns the cell at c. Out-of-bounds coordinates yield an empty cell.
func (s Snapshot) Cell(c board.XY) board.Cell {
	if c.X < 0 || c.X >= s.Width || c.Y < 0 || c.Y >= s.Height {
		return board.Empty()
	}
	return s.Cells[c.Y*s.Width+c.X]
}

// Mass returns the total mass on the board.
func (s Snapshot) Mass() int {
	total := 0
	for _, c := range s.Cells {
		total += c.Mass()
	}
	return total
}
