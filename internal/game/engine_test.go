package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/vovakirdan/chain-reaction/internal/board"
)

func newEngine(t *testing.T, width, height, players int) *Engine {
	t.Helper()
	e, err := New(width, height, players)
	if err != nil {
		t.Fatalf("New(%d, %d, %d) error = %v", width, height, players, err)
	}
	return e
}

func play(t *testing.T, e *Engine, moves ...board.XY) {
	t.Helper()
	for _, m := range moves {
		if err := e.Place(context.Background(), m.X, m.Y); err != nil {
			t.Fatalf("Place(%v) by player %d error = %v", m, e.CurrentPlayer(), err)
		}
	}
}

func cellAt(e *Engine, x, y int) board.Cell {
	return e.Cell(e.Geometry().ToPos(board.At(x, y)))
}

func assertInitial(t *testing.T, e *Engine) {
	t.Helper()
	for pos, c := range e.Grid() {
		if c.Owned {
			t.Fatalf("cell %d = %+v, expected empty", pos, c)
		}
	}
	for p, s := range e.Scores() {
		if s != 0 {
			t.Errorf("score[%d] = %d, expected 0", p, s)
		}
	}
	if e.Turn() != 0 || e.CurrentPlayer() != 0 || e.AlivePlayers() != 0 {
		t.Errorf("turn/current/alive = %d/%d/%d, expected 0/0/0", e.Turn(), e.CurrentPlayer(), e.AlivePlayers())
	}
	if e.LatestMove() != NoMove {
		t.Errorf("LatestMove() = %d, expected none", e.LatestMove())
	}
	if len(e.EmptyCells()) != e.Width()*e.Height() {
		t.Errorf("EmptyCells() has %d entries, expected %d", len(e.EmptyCells()), e.Width()*e.Height())
	}
}

func checkPartition(t *testing.T, e *Engine) {
	t.Helper()
	if err := partitionErr(e); err != nil {
		t.Fatal(err)
	}
}

func checkMass(t *testing.T, e *Engine) {
	t.Helper()
	if err := massErr(e); err != nil {
		t.Fatal(err)
	}
}

// invariantsHook returns an update handler that fails the placement when the
// position sets or the score bookkeeping drift from the board.
func invariantsHook(e *Engine) func(context.Context) error {
	return func(context.Context) error {
		return errors.Join(massErr(e), partitionErr(e))
	}
}

func partitionErr(e *Engine) error {
	seen := make([]int, e.Width()*e.Height())
	for _, pos := range e.EmptyCells() {
		seen[pos]++
		if e.Cell(pos).Owned {
			return fmt.Errorf("pos %d in empty set but owned", pos)
		}
	}
	for p := 0; p < e.Players(); p++ {
		for _, pos := range e.OwnedCells(p) {
			seen[pos]++
			if c := e.Cell(pos); !c.Owned || c.Owner != p {
				return fmt.Errorf("pos %d in player %d set but cell is %+v", pos, p, c)
			}
		}
	}
	for pos, n := range seen {
		if n != 1 {
			return fmt.Errorf("pos %d appears in %d sets, expected exactly 1", pos, n)
		}
	}
	return nil
}

func massErr(e *Engine) error {
	mass := 0
	for _, c := range e.Grid() {
		mass += c.Mass()
	}
	total := 0
	for _, s := range e.Scores() {
		total += s
	}
	if mass != total {
		return fmt.Errorf("sum(scores) = %d, board mass = %d", total, mass)
	}
	return nil
}

func TestNewInvalidOptions(t *testing.T) {
	tests := []struct {
		name                   string
		width, height, players int
	}{
		{"zero width", 0, 3, 2},
		{"zero height", 3, 0, 2},
		{"no players", 3, 3, 0},
		{"negative", -1, 3, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.width, tc.height, tc.players)
			if !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("New() error = %v, expected ErrInvalidOptions", err)
			}
		})
	}
}

func TestNewEngineState(t *testing.T) {
	e := newEngine(t, 4, 3, 2)
	assertInitial(t, e)
	if !e.IsActive() {
		t.Error("fresh engine should be active")
	}
	if _, err := e.Winner(); !errors.Is(err, ErrGameStillActive) {
		t.Errorf("Winner() error = %v, expected ErrGameStillActive", err)
	}
}

func TestPlaceErrors(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	play(t, e, board.At(1, 1))

	tests := []struct {
		name     string
		x, y     int
		expected error
	}{
		{"left of board", -1, 0, ErrOutOfBounds},
		{"below board", 0, 3, ErrOutOfBounds},
		{"opponent cell", 1, 1, ErrCellTaken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := e.Place(context.Background(), tc.x, tc.y)
			if !errors.Is(err, tc.expected) {
				t.Errorf("Place(%d, %d) error = %v, expected %v", tc.x, tc.y, err, tc.expected)
			}
			if e.Turn() != 1 {
				t.Errorf("failed Place changed turn to %d", e.Turn())
			}
		})
	}

	if e.CanPlace(1, 1) || e.CanPlace(3, 0) {
		t.Error("CanPlace should reject opponent and out-of-bounds cells")
	}
	if !e.CanPlace(0, 0) {
		t.Error("CanPlace should accept an empty cell")
	}
}

func TestPlaceOwnCell(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	play(t, e, board.At(1, 1), board.At(0, 0), board.At(1, 1))

	if got := cellAt(e, 1, 1); got != board.OwnedBy(0, 2) {
		t.Errorf("center = %+v, expected owned by 0 with 2", got)
	}
	if e.LatestMove() != e.Geometry().ToPos(board.At(1, 1)) {
		t.Errorf("LatestMove() = %d", e.LatestMove())
	}
	if e.Score(0) != 2 || e.Score(1) != 1 {
		t.Errorf("scores = %v, expected [2 1]", e.Scores())
	}
	if e.CurrentPlayer() != 1 || e.Turn() != 3 {
		t.Errorf("current/turn = %d/%d, expected 1/3", e.CurrentPlayer(), e.Turn())
	}
}

func TestSingleExplosion(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	play(t, e, board.At(0, 0), board.At(2, 2))

	if got := cellAt(e, 0, 0); got != board.OwnedBy(0, 1) {
		t.Fatalf("first placement = %+v, expected owned by 0 with 1", got)
	}

	play(t, e, board.At(0, 0))

	tests := []struct {
		at       board.XY
		expected board.Cell
	}{
		{board.At(0, 0), board.Empty()},
		{board.At(1, 0), board.OwnedBy(0, 1)},
		{board.At(0, 1), board.OwnedBy(0, 1)},
		{board.At(2, 2), board.OwnedBy(1, 1)},
	}
	for _, tc := range tests {
		if got := cellAt(e, tc.at.X, tc.at.Y); got != tc.expected {
			t.Errorf("cell %v = %+v, expected %+v", tc.at, got, tc.expected)
		}
	}

	if e.Score(0) != 2 {
		t.Errorf("player 0 score = %d, expected 2", e.Score(0))
	}
	if e.LatestMove() != NoMove {
		t.Errorf("LatestMove() = %d, expected none after an explosion", e.LatestMove())
	}
	checkMass(t, e)
	checkPartition(t, e)
}

func TestCaptureViaCascade(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	play(t, e,
		board.At(0, 0), // p0
		board.At(1, 0), // p1
		board.At(2, 2), // p0
		board.At(1, 0), // p1, (1,0) now holds 2
	)

	p0Before, p1Before := e.Score(0), e.Score(1)
	captured := cellAt(e, 1, 0).Count

	play(t, e, board.At(0, 0)) // p0 explodes into (1,0) and (0,1)

	if e.Score(1) != p1Before-captured {
		t.Errorf("player 1 score = %d, expected %d", e.Score(1), p1Before-captured)
	}
	// the placed unit plus the captured mass
	if e.Score(0) != p0Before+1+captured {
		t.Errorf("player 0 score = %d, expected %d", e.Score(0), p0Before+1+captured)
	}
	if got := cellAt(e, 1, 0); got.Owner != 0 || got.Count != captured+1 {
		t.Errorf("captured cell = %+v, expected owned by 0 with %d", got, captured+1)
	}

	// Player 1 is gone, so the game ends with (1,0) frozen at capacity.
	if e.IsActive() {
		t.Fatal("game should be over after player 1 lost every cell")
	}
	if w, err := e.Winner(); err != nil || w != 0 {
		t.Errorf("Winner() = %d, %v, expected 0", w, err)
	}
	if err := e.Place(context.Background(), 2, 0); !errors.Is(err, ErrGameOver) {
		t.Errorf("Place after game over error = %v, expected ErrGameOver", err)
	}
	checkMass(t, e)
	checkPartition(t, e)
}

func TestMultiWaveCascade(t *testing.T) {
	e := newEngine(t, 2, 2, 2)
	play(t, e, board.At(0, 0), board.At(1, 1), board.At(1, 0))

	var updates, delays int
	e.Hooks().Add(EventUpdate, invariantsHook(e))
	e.Hooks().Add(EventUpdate, func(context.Context) error {
		updates++
		return nil
	})
	e.Hooks().Add(EventExplosionDelay, func(context.Context) error {
		delays++
		return nil
	})

	play(t, e, board.At(1, 1))

	// placement + two waves
	if updates != 3 {
		t.Errorf("update fired %d times, expected 3", updates)
	}
	// before the cascade + after each wave
	if delays != 3 {
		t.Errorf("explosionDelay fired %d times, expected 3", delays)
	}

	expected := []board.Cell{
		board.OwnedBy(1, 2),
		board.Empty(),
		board.OwnedBy(1, 1),
		board.OwnedBy(1, 1),
	}
	if got := e.Grid(); !slices.Equal(got, expected) {
		t.Errorf("Grid() = %+v, expected %+v", got, expected)
	}
	if w, err := e.Winner(); err != nil || w != 1 {
		t.Errorf("Winner() = %d, %v, expected 1", w, err)
	}
}

func TestGracePeriod(t *testing.T) {
	e := newEngine(t, 3, 3, 3)

	play(t, e, board.At(0, 0))
	// Only player 0 has mass, but the others have not moved yet.
	if e.AlivePlayers() != 1 {
		t.Fatalf("AlivePlayers() = %d, expected 1", e.AlivePlayers())
	}
	if !e.IsActive() {
		t.Error("game must stay active while turn <= alive players")
	}
	for p := 1; p < 3; p++ {
		if !e.PlayerIsAlive(p) {
			t.Errorf("player %d should count as alive before its first turn", p)
		}
	}

	play(t, e, board.At(2, 2), board.At(2, 0))
	if e.Turn() != 3 || e.AlivePlayers() != 3 {
		t.Fatalf("turn/alive = %d/%d, expected 3/3", e.Turn(), e.AlivePlayers())
	}
}

func TestEliminationDuringGracePeriod(t *testing.T) {
	// 4x1: capacities 1, 2, 2, 1.
	e := newEngine(t, 4, 1, 3)
	play(t, e, board.At(1, 0))

	type state struct {
		turn, alive, score0 int
		active              bool
	}
	var seen []state
	e.Hooks().Add(EventUpdate, func(context.Context) error {
		seen = append(seen, state{e.Turn(), e.AlivePlayers(), e.Score(0), e.IsActive()})
		return nil
	})

	// Player 1 explodes (0,0) into player 0's only cell, which explodes
	// back for player 1.
	play(t, e, board.At(0, 0))

	wiped := false
	for _, s := range seen {
		if s.score0 == 0 && s.turn == 1 {
			wiped = true
			// turn <= alive keeps the game going with a single player left.
			if !s.active || s.alive != 1 {
				t.Errorf("after elimination: active %v, alive %d, expected true, 1", s.active, s.alive)
			}
		}
	}
	if !wiped {
		t.Fatalf("player 0 was never captured out during the cascade: %+v", seen)
	}
	if len(seen) != 4 {
		t.Errorf("update fired %d times, expected placement plus 3 waves", len(seen))
	}

	// Once the turn passes, turn 2 > 1 alive player: over before seat 2 moved.
	if e.Score(0) != 0 || e.Score(1) != 2 {
		t.Errorf("scores = %v, expected [0 2 0]", e.Scores())
	}
	if e.IsActive() || e.AlivePlayers() != 1 || e.Turn() != 2 {
		t.Errorf("active/alive/turn = %v/%d/%d, expected false/1/2", e.IsActive(), e.AlivePlayers(), e.Turn())
	}
	if w, err := e.Winner(); err != nil || w != 1 {
		t.Errorf("Winner() = %d, %v, expected 1", w, err)
	}
	if got := cellAt(e, 1, 0); got != board.OwnedBy(1, 1) {
		t.Errorf("(1,0) = %+v, expected one unit for player 1", got)
	}
	if got := cellAt(e, 2, 0); got != board.OwnedBy(1, 1) {
		t.Errorf("(2,0) = %+v, expected one unit for player 1", got)
	}
	if err := e.Place(context.Background(), 3, 0); !errors.Is(err, ErrGameOver) {
		t.Errorf("Place() by seat 2 = %v, expected ErrGameOver", err)
	}
	checkMass(t, e)
	checkPartition(t, e)
}

func TestGameEndsMidCascade(t *testing.T) {
	e := newEngine(t, 2, 2, 3)
	play(t, e, board.At(0, 0), board.At(1, 1), board.At(0, 1))

	// Player 0 explodes, captures player 2 at (0,1) which explodes in turn
	// and captures player 1's last cell. The game is over at that instant.
	play(t, e, board.At(0, 0))

	if e.IsActive() {
		t.Fatal("game should be over")
	}
	if got := cellAt(e, 1, 1); got != board.OwnedBy(0, 2) {
		t.Errorf("(1,1) = %+v, expected frozen at capacity for player 0", got)
	}
	if e.PlayerIsAlive(1) || e.PlayerIsAlive(2) {
		t.Error("eliminated players should not be alive")
	}
	if w, _ := e.Winner(); w != 0 {
		t.Errorf("Winner() = %d, expected 0", w)
	}
	checkMass(t, e)
}

func TestSingleCellBoard(t *testing.T) {
	e := newEngine(t, 1, 1, 2)
	play(t, e, board.At(0, 0))

	if got := cellAt(e, 0, 0); got != board.OwnedBy(0, 1) {
		t.Errorf("1x1 cell = %+v, expected the unit kept", got)
	}
	checkMass(t, e)

	if e.CanPlace(0, 0) {
		t.Error("player 1 should have no legal move")
	}
	e.NextPlayer()
	if e.IsActive() {
		t.Fatal("game should end once player 1 has been skipped")
	}
	if w, err := e.Winner(); err != nil || w != 0 {
		t.Errorf("Winner() = %d, %v", w, err)
	}
}

func TestResetIdempotent(t *testing.T) {
	e := newEngine(t, 3, 4, 2)

	updates := 0
	e.Hooks().Add(EventUpdate, func(context.Context) error {
		updates++
		return nil
	})

	if err := e.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}
	assertInitial(t, e)
	if updates != 1 {
		t.Errorf("Reset fired update %d times, expected 1", updates)
	}

	play(t, e, board.At(0, 0), board.At(1, 1), board.At(0, 0))
	if err := e.Reset(context.Background()); err != nil {
		t.Fatal(err)
	}
	assertInitial(t, e)
	checkPartition(t, e)
}

func TestCancelMidCascade(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	play(t, e,
		board.At(1, 0), board.At(2, 2),
		board.At(1, 0), board.At(2, 1),
		board.At(0, 0), board.At(2, 1),
	)

	// Player 0 at (0,0) reaches capacity and explodes into (1,0), which then
	// reaches capacity too. Cancel after the first wave is on the board.
	delays := 0
	e.Hooks().Add(EventExplosionDelay, func(context.Context) error {
		delays++
		if delays == 2 {
			e.Cancel()
		}
		return nil
	})

	err := e.Place(context.Background(), 0, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Place() error = %v, expected context.Canceled", err)
	}
	assertInitial(t, e)
	checkPartition(t, e)

	// The flag is consumed by the reset.
	play(t, e, board.At(1, 1))
	if e.Turn() != 1 {
		t.Errorf("turn after recovery = %d, expected 1", e.Turn())
	}
}

func TestCancelContextDuringPlace(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	play(t, e, board.At(0, 0), board.At(2, 2))

	ctx, cancel := context.WithCancel(context.Background())
	e.Hooks().Add(EventExplosionDelay, func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return nil
	})

	err := e.Place(ctx, 0, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Place() error = %v, expected context.Canceled", err)
	}
	assertInitial(t, e)
}

func TestString(t *testing.T) {
	e := newEngine(t, 3, 2, 2)
	play(t, e, board.At(1, 0), board.At(2, 1), board.At(1, 0))

	expected := "o 2 o\no o 1\n"
	if got := e.String(); got != expected {
		t.Errorf("String() = %q, expected %q", got, expected)
	}
}

// randomGame plays seeded random legal moves until the game ends or
// maxMoves is reached. It returns the number of placements made.
func randomGame(t *testing.T, e *Engine, rng *rand.Rand, maxMoves int) int {
	t.Helper()
	moves := 0
	for e.IsActive() && moves < maxMoves {
		p := e.CurrentPlayer()
		avail := append(e.EmptyCells(), e.OwnedCells(p)...)
		if len(avail) == 0 {
			e.NextPlayer()
			continue
		}
		c := e.Geometry().ToXY(avail[rng.Intn(len(avail))])
		if err := e.Place(context.Background(), c.X, c.Y); err != nil {
			t.Fatalf("Place(%v) error = %v", c, err)
		}
		moves++
	}
	return moves
}

func TestRandomPlayInvariants(t *testing.T) {
	tests := []struct {
		width, height, players int
	}{
		{2, 2, 2},
		{3, 3, 2},
		{4, 5, 3},
		{6, 6, 4},
		{8, 5, 2},
	}

	const maxMoves = 5000

	for _, tc := range tests {
		for seed := int64(1); seed <= 5; seed++ {
			e := newEngine(t, tc.width, tc.height, tc.players)

			e.Hooks().Add(EventUpdate, invariantsHook(e))

			rng := rand.New(rand.NewSource(seed))
			moves := 0
			for e.IsActive() && moves < maxMoves {
				moves += randomGame(t, e, rng, 1)

				if !e.IsActive() {
					break
				}
				for pos, c := range e.Grid() {
					if c.Owned && (c.Count < 1 || c.Count >= e.Capacity(pos)) {
						t.Fatalf("%dx%d seed %d: cell %d = %+v breaks capacity %d",
							tc.width, tc.height, seed, pos, c, e.Capacity(pos))
					}
				}
			}

			if e.IsActive() {
				t.Errorf("%dx%d/%d seed %d: game still active after %d moves",
					tc.width, tc.height, tc.players, seed, maxMoves)
				continue
			}
			w, err := e.Winner()
			if err != nil || e.Score(w) == 0 {
				t.Errorf("Winner() = %d, %v", w, err)
			}
		}
	}
}

func TestDeterminism(t *testing.T) {
	run := func() ([]board.Cell, []int, int) {
		e := newEngine(t, 5, 4, 3)
		randomGame(t, e, rand.New(rand.NewSource(42)), 5000)
		return e.Grid(), e.Scores(), e.Turn()
	}

	grid1, scores1, turn1 := run()
	grid2, scores2, turn2 := run()

	if !slices.Equal(grid1, grid2) || !slices.Equal(scores1, scores2) || turn1 != turn2 {
		t.Error("identical move sequences produced different final states")
	}
}

func TestSnapshot(t *testing.T) {
	e := newEngine(t, 3, 3, 2)
	play(t, e, board.At(1, 1))

	s := e.Snapshot()
	play(t, e, board.At(0, 0))

	if s.Turn != 1 || s.Current != 1 || !s.Active || s.Winner != -1 {
		t.Errorf("snapshot = %+v", s)
	}
	if s.Cell(board.At(0, 0)).Owned {
		t.Error("snapshot must not see later moves")
	}
	if s.Cell(board.At(1, 1)) != board.OwnedBy(0, 1) || s.Mass() != 1 {
		t.Errorf("snapshot center = %+v, mass %d", s.Cell(board.At(1, 1)), s.Mass())
	}
}
