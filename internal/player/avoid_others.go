package player

import (
	"context"

	"github.com/vovakirdan/chain-reaction/internal/board"
	"github.com/vovakirdan/chain-reaction/internal/runner"
)

// IDAvoidOthers is the registry ID of AvoidOthers.
const IDAvoidOthers = "avoid-others"

func init() {
	Register(Info{
		ID:          IDAvoidOthers,
		Name:        "Avoid others",
		Description: "Avoids placing cells in dense areas.",
	}, func(Options) runner.Strategy {
		return AvoidOthers{}
	})
}

// AvoidOthers plays the available cell whose neighbors hold the least mass.
// Ties go to the lowest position.
type AvoidOthers struct{}

func (AvoidOthers) Play(_ context.Context, gc *runner.Context) (board.XY, error) {
	best, bestMass := -1, 0
	for _, pos := range gc.AvailableCells() {
		m := 0
		for _, n := range gc.Neighbors(pos) {
			m += gc.Mass(n)
		}
		if best < 0 || m < bestMass {
			best, bestMass = pos, m
		}
	}
	if best < 0 {
		return board.XY{}, ErrNoMoves
	}
	return gc.ToXY(best), nil
}
