package player

import (
	"context"
	"math/rand"

	"github.com/vovakirdan/chain-reaction/internal/board"
	"github.com/vovakirdan/chain-reaction/internal/runner"
)

// IDFormChains is the registry ID of FormChains.
const IDFormChains = "form-chains"

func init() {
	Register(Info{
		ID:          IDFormChains,
		Name:        "Form chains",
		Description: "Avoids triggering explosions while packing mass into its own cells.",
	}, func(opts Options) runner.Strategy {
		return NewFormChains(opts.Rand)
	})
}

// FormChains keeps filling one target cell until it is one unit short of
// exploding, then moves to a quiet neighbor so the filled cells line up
// into a chain.
//
// It is stateful: create one per player slot.
type FormChains struct {
	rng     *rand.Rand
	current int
}

func NewFormChains(rng *rand.Rand) *FormChains {
	return &FormChains{rng: rng, current: -1}
}

func (f *FormChains) Play(_ context.Context, gc *runner.Context) (board.XY, error) {
	avail := gc.AvailableCells()
	if len(avail) == 0 {
		return board.XY{}, ErrNoMoves
	}

	var quiet []int
	for _, pos := range avail {
		if gc.Mass(pos) < gc.Capacity(pos)-1 {
			quiet = append(quiet, pos)
		}
	}
	choice := quiet
	if len(choice) == 0 {
		choice = avail
	}

	switch {
	case !gc.IsAvailable(f.current):
		f.current = f.pick(choice)
	case gc.Mass(f.current) == gc.Capacity(f.current)-1:
		limit := gc.Capacity(f.current) - 1
		var next []int
		for _, n := range gc.Neighbors(f.current) {
			if gc.IsAvailable(n) && gc.Mass(n) < limit {
				next = append(next, n)
			}
		}
		if len(next) > 0 {
			f.current = f.pick(next)
		} else {
			f.current = f.pick(choice)
		}
	}

	return gc.ToXY(f.current), nil
}

func (f *FormChains) pick(from []int) int {
	return from[f.rng.Intn(len(from))]
}
