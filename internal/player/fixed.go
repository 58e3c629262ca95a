package player

import (
	"context"

	"github.com/vovakirdan/chain-reaction/internal/board"
	"github.com/vovakirdan/chain-reaction/internal/runner"
)

// Fixed always plays the same position. Useful for deterministic games.
type Fixed board.XY

func (f Fixed) Play(context.Context, *runner.Context) (board.XY, error) {
	return board.XY(f), nil
}

// Scripted plays its moves in order and then keeps repeating the last one.
type Scripted struct {
	moves []board.XY
	next  int
}

func NewScripted(moves ...board.XY) *Scripted {
	return &Scripted{moves: moves}
}

func (s *Scripted) Play(context.Context, *runner.Context) (board.XY, error) {
	if len(s.moves) == 0 {
		return board.XY{}, ErrNoMoves
	}
	m := s.moves[min(s.next, len(s.moves)-1)]
	s.next++
	return m, nil
}
