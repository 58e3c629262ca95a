package runner

import (
	"slices"

	"github.com/vovakirdan/chain-reaction/internal/board"
	"github.com/vovakirdan/chain-reaction/internal/game"
)

// Context is the read-only view of the board a strategy decides from.
// It is bound to one player slot and only valid during Play.
type Context struct {
	engine *game.Engine
	player int
}

// NewContext binds a view of e to player. Runner creates these itself; the
// constructor is exported for strategy tests.
func NewContext(e *game.Engine, player int) *Context {
	return &Context{engine: e, player: player}
}

func (c *Context) Width() int  { return c.engine.Width() }
func (c *Context) Height() int { return c.engine.Height() }
func (c *Context) Player() int { return c.player }

// Grid returns a copy of the board in row-major order.
func (c *Context) Grid() []board.Cell {
	return c.engine.Grid()
}

// EmptyCells returns the empty positions in ascending order.
func (c *Context) EmptyCells() []int {
	return c.engine.EmptyCells()
}

// OwnedCells returns the positions owned by player in ascending order.
func (c *Context) OwnedCells(player int) []int {
	return c.engine.OwnedCells(player)
}

// AvailableCells returns every position this player may place on: the empty
// cells and its own, in ascending order.
func (c *Context) AvailableCells() []int {
	cells := append(c.engine.EmptyCells(), c.engine.OwnedCells(c.player)...)
	slices.Sort(cells)
	return cells
}

// IsAvailable reports whether the player may place at pos.
func (c *Context) IsAvailable(pos int) bool {
	return c.engine.Geometry().ValidPos(pos) &&
		(c.engine.IsEmptyCell(pos) || c.engine.IsOwnedBy(pos, c.player))
}

// HasMoves reports whether the player has at least one legal placement.
func (c *Context) HasMoves() bool {
	return len(c.engine.EmptyCells()) > 0 || len(c.engine.OwnedCells(c.player)) > 0
}

func (c *Context) CanPlace(x, y int) bool { return c.engine.CanPlace(x, y) }
func (c *Context) Neighbors(pos int) []int { return c.engine.Neighbors(pos) }
func (c *Context) Mass(pos int) int        { return c.engine.Mass(pos) }
func (c *Context) Capacity(pos int) int    { return c.engine.Capacity(pos) }

// ToXY converts a flat position to a coordinate.
func (c *Context) ToXY(pos int) board.XY {
	return c.engine.Geometry().ToXY(pos)
}
