// Package game implements the Chain Reaction rules: placement, the explosion
// cascade, score and alive-player bookkeeping, win detection and reset.
//
// An Engine is not safe for concurrent mutation. Place and Reset must be
// called from a single goroutine; hook handlers may read engine state while
// they run because the mutating goroutine is parked until they return.
package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/zyedidia/generic/mapset"

	"github.com/vovakirdan/chain-reaction/internal/board"
	"github.com/vovakirdan/chain-reaction/internal/hooks"
)

// Engine events.
const (
	// EventUpdate fires after every atomic visual change: a placement, each
	// cascade wave, and a reset.
	EventUpdate hooks.Event = "update"

	// EventExplosionDelay fires before an explosion starts and after every
	// cascade wave. Pacing handlers wait here.
	EventExplosionDelay hooks.Event = "explosionDelay"
)

// NoMove is the LatestMove value when there is no latest move.
const NoMove = -1

var (
	ErrOutOfBounds     = errors.New("game: position out of bounds")
	ErrCellTaken       = errors.New("game: cell owned by another player")
	ErrGameOver        = errors.New("game: game is over")
	ErrGameStillActive = errors.New("game: game is still active")
	ErrInvalidOptions  = errors.New("game: width, height and players must be positive")
)

// Engine holds the state of one Chain Reaction board.
type Engine struct {
	geo     *board.Geometry
	players int

	cells   []board.Cell
	scores  []int
	alive   int
	current int
	turn    int
	latest  int

	empty mapset.Set[int]
	owned []mapset.Set[int]

	cancelled atomic.Bool
	hooks     *hooks.Bus
}

// New creates an engine with an empty width x height board.
func New(width, height, players int) (*Engine, error) {
	if width < 1 || height < 1 || players < 1 {
		return nil, fmt.Errorf("%w: %dx%d with %d players", ErrInvalidOptions, width, height, players)
	}

	e := &Engine{
		geo:     board.NewGeometry(width, height),
		players: players,
		hooks:   hooks.New(EventUpdate, EventExplosionDelay),
	}
	e.clear()
	return e, nil
}

// clear restores the initial state without firing any event.
func (e *Engine) clear() {
	size := e.geo.Size()
	e.cells = make([]board.Cell, size)
	e.scores = make([]int, e.players)
	e.alive = 0
	e.current = 0
	e.turn = 0
	e.latest = NoMove

	e.empty = mapset.New[int]()
	for pos := 0; pos < size; pos++ {
		e.empty.Put(pos)
	}
	e.owned = make([]mapset.Set[int], e.players)
	for p := range e.owned {
		e.owned[p] = mapset.New[int]()
	}
}

// Reset returns the engine to its initial state, clears the cancellation
// flag and fires EventUpdate once.
func (e *Engine) Reset(ctx context.Context) error {
	e.clear()
	e.cancelled.Store(false)
	return e.hooks.Run(ctx, EventUpdate)
}

// Cancel asks an in-flight Place to abort at its next suspension point.
// The aborted Place resets the engine and returns context.Canceled.
func (e *Engine) Cancel() {
	e.cancelled.Store(true)
}

// Hooks exposes the engine's event bus.
func (e *Engine) Hooks() hooks.Registry {
	return e.hooks
}

// CanPlace returns true if the current player may place at (x, y).
func (e *Engine) CanPlace(x, y int) bool {
	c := board.At(x, y)
	if !e.geo.InBounds(c) {
		return false
	}
	cell := e.cells[e.geo.ToPos(c)]
	return !cell.Owned || cell.Owner == e.current
}

// Place adds one unit for the current player at (x, y), runs any resulting
// cascade and passes the turn.
func (e *Engine) Place(ctx context.Context, x, y int) error {
	if !e.IsActive() {
		return ErrGameOver
	}
	c := board.At(x, y)
	if !e.geo.InBounds(c) {
		return fmt.Errorf("%w: %v on %dx%d", ErrOutOfBounds, c, e.geo.Width, e.geo.Height)
	}
	pos := e.geo.ToPos(c)
	if cell := e.cells[pos]; cell.Owned && cell.Owner != e.current {
		return fmt.Errorf("%w: %v belongs to player %d", ErrCellTaken, c, cell.Owner)
	}

	player := e.current
	e.setCell(pos, board.OwnedBy(player, e.cells[pos].Mass()+1))
	e.latest = pos

	if err := e.suspend(ctx, EventUpdate); err != nil {
		return e.abort(ctx, err)
	}

	if e.cells[pos].Count >= e.geo.Capacity(pos) {
		e.latest = NoMove
		if err := e.suspend(ctx, EventExplosionDelay); err != nil {
			return e.abort(ctx, err)
		}
		if err := e.explode(ctx, pos, player); err != nil {
			return e.abort(ctx, err)
		}
	}

	e.NextPlayer()
	return nil
}

// explode runs the cascade seeded at origin for player.
func (e *Engine) explode(ctx context.Context, origin, player int) error {
	queue := slices.Clone(e.geo.Neighbors(origin))
	e.drain(origin)

	for len(queue) > 0 {
		// Insertion order of criticals; the set guards against a cell that
		// received several units in one wave exploding more than once.
		var order []int
		critical := mapset.New[int]()

		for _, pos := range queue {
			e.setCell(pos, board.OwnedBy(player, e.cells[pos].Mass()+1))
			if e.IsActive() && e.ShouldExplode(pos) && !critical.Has(pos) {
				critical.Put(pos)
				order = append(order, pos)
			}
		}

		if err := e.suspend(ctx, EventUpdate); err != nil {
			return err
		}
		if err := e.suspend(ctx, EventExplosionDelay); err != nil {
			return err
		}

		queue = queue[:0]
		for _, pos := range order {
			queue = append(queue, e.geo.Neighbors(pos)...)
			e.drain(pos)
		}
	}

	return nil
}

// drain removes one explosion's worth of mass from pos.
func (e *Engine) drain(pos int) {
	cell := e.cells[pos]
	cell.Count -= e.geo.Capacity(pos)
	e.setCell(pos, cell)
}

// suspend runs event and then observes the cancellation flag.
func (e *Engine) suspend(ctx context.Context, event hooks.Event) error {
	if err := e.hooks.Run(ctx, event); err != nil {
		return err
	}
	if e.cancelled.Load() {
		return context.Canceled
	}
	return nil
}

// abort unwinds a Place interrupted at a suspension point. The board is
// reset so no partially exploded state is left behind.
func (e *Engine) abort(ctx context.Context, err error) error {
	if rerr := e.Reset(context.WithoutCancel(ctx)); rerr != nil {
		return errors.Join(err, fmt.Errorf("game: reset after abort: %w", rerr))
	}
	return err
}

// setCell replaces the cell at pos and keeps scores, the alive count and the
// position sets in sync. An owned cell with no mass becomes empty.
func (e *Engine) setCell(pos int, next board.Cell) {
	prev := e.cells[pos]
	if prev.Owned {
		e.addScore(prev.Owner, -prev.Count)
		e.owned[prev.Owner].Remove(pos)
	} else {
		e.empty.Remove(pos)
	}

	if next.Owned && next.Count > 0 {
		e.addScore(next.Owner, next.Count)
		e.owned[next.Owner].Put(pos)
	} else {
		next = board.Empty()
		e.empty.Put(pos)
	}
	e.cells[pos] = next
}

func (e *Engine) addScore(player, delta int) {
	before := e.scores[player]
	after := before + delta
	if after < 0 {
		panic(fmt.Sprintf("game: negative score %d for player %d", after, player))
	}
	e.scores[player] = after

	switch {
	case before == 0 && after > 0:
		e.alive++
	case before > 0 && after == 0:
		e.alive--
	}
}

// NextPlayer passes the turn without placing.
func (e *Engine) NextPlayer() {
	e.current = (e.current + 1) % e.players
	e.turn++
}

// IsActive reports whether the game is still running. Every player is
// guaranteed a first turn; after that the game continues while more than
// one player has mass on the board.
func (e *Engine) IsActive() bool {
	return e.turn <= e.alive || e.alive > 1
}

// Winner returns the first player with a positive score once the game is
// over.
func (e *Engine) Winner() (int, error) {
	if e.IsActive() {
		return -1, ErrGameStillActive
	}
	for p, s := range e.scores {
		if s > 0 {
			return p, nil
		}
	}
	return -1, ErrGameStillActive
}

// PlayerIsAlive reports whether player still has mass or has not had a
// first turn yet.
func (e *Engine) PlayerIsAlive(player int) bool {
	return e.scores[player] > 0 || e.turn < e.players
}

// ShouldExplode reports whether the cell at pos has reached capacity.
// Empty cells report true.
func (e *Engine) ShouldExplode(pos int) bool {
	cell := e.cells[pos]
	return !cell.Owned || cell.Count >= e.geo.Capacity(pos)
}

// Capacity returns the explosion threshold at pos.
func (e *Engine) Capacity(pos int) int {
	return e.geo.Capacity(pos)
}

// Mass returns the count at pos, 0 when empty.
func (e *Engine) Mass(pos int) int {
	return e.cells[pos].Mass()
}

// Neighbors returns the in-bounds neighbors of pos in left, right, up, down
// order.
func (e *Engine) Neighbors(pos int) []int {
	return slices.Clone(e.geo.Neighbors(pos))
}

// Geometry returns the board geometry.
func (e *Engine) Geometry() *board.Geometry {
	return e.geo
}

// Cell returns the cell at pos.
func (e *Engine) Cell(pos int) board.Cell {
	return e.cells[pos]
}

// Grid returns a copy of the board in row-major order.
func (e *Engine) Grid() []board.Cell {
	return slices.Clone(e.cells)
}

// EmptyCells returns the empty positions in ascending order.
func (e *Engine) EmptyCells() []int {
	return sortedKeys(e.empty)
}

// OwnedCells returns the positions owned by player in ascending order.
func (e *Engine) OwnedCells(player int) []int {
	return sortedKeys(e.owned[player])
}

func sortedKeys(s mapset.Set[int]) []int {
	keys := make([]int, 0, s.Size())
	s.Each(func(pos int) {
		keys = append(keys, pos)
	})
	slices.Sort(keys)
	return keys
}

// IsEmptyCell reports whether pos is empty.
func (e *Engine) IsEmptyCell(pos int) bool {
	return e.empty.Has(pos)
}

// IsOwnedBy reports whether pos belongs to player.
func (e *Engine) IsOwnedBy(pos, player int) bool {
	return e.owned[player].Has(pos)
}

func (e *Engine) CurrentPlayer() int { return e.current }
func (e *Engine) LatestMove() int    { return e.latest }
func (e *Engine) Turn() int          { return e.turn }
func (e *Engine) AlivePlayers() int  { return e.alive }
func (e *Engine) Width() int         { return e.geo.Width }
func (e *Engine) Height() int        { return e.geo.Height }
func (e *Engine) Players() int       { return e.players }

// Scores returns a copy of the per-player scores.
func (e *Engine) Scores() []int {
	return slices.Clone(e.scores)
}

// Score returns player's score.
func (e *Engine) Score(player int) int {
	return e.scores[player]
}

// String renders the board one row per line, "o" for empty cells.
func (e *Engine) String() string {
	var sb strings.Builder
	for y := 0; y < e.geo.Height; y++ {
		for x := 0; x < e.geo.Width; x++ {
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(e.cells[e.geo.ToPos(board.At(x, y))].String())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
