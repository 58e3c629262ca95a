// Package board provides the Chain Reaction cell model and board geometry.
// It contains no game rules, only storage layout and adjacency.
package board

import "fmt"

// XY is a board coordinate. X grows to the right, Y grows downward.
type XY struct {
	X int
	Y int
}

// At is a convenience constructor for XY.
func At(x, y int) XY {
	return XY{X: x, Y: y}
}

// String returns a string representation of the coordinate.
func (c XY) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Cell is one board position. The zero value is an empty cell.
// Owner and Count are meaningful only when Owned is set.
type Cell struct {
	Owned bool
	Owner int
	Count int
}

// Empty returns an empty cell.
func Empty() Cell {
	return Cell{}
}

// OwnedBy returns a cell owned by player with the given mass.
func OwnedBy(player, count int) Cell {
	return Cell{Owned: true, Owner: player, Count: count}
}

// Mass returns the cell's count, or 0 for an empty cell.
func (c Cell) Mass() int {
	if !c.Owned {
		return 0
	}
	return c.Count
}

// String renders the cell the way the text board does: "o" for empty,
// the count otherwise.
func (c Cell) String() string {
	if !c.Owned {
		return "o"
	}
	return fmt.Sprintf("%d", c.Count)
}
