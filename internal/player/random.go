package player

import (
	"context"
	"errors"
	"math/rand"

	"github.com/vovakirdan/chain-reaction/internal/board"
	"github.com/vovakirdan/chain-reaction/internal/runner"
)

// IDRandom is the registry ID of Random.
const IDRandom = "random"

var ErrNoMoves = errors.New("player: no legal move available")

func init() {
	Register(Info{
		ID:          IDRandom,
		Name:        "Random",
		Description: "Plays a uniformly random legal move.",
	}, func(opts Options) runner.Strategy {
		return NewRandom(opts.Rand)
	})
}

// Random picks uniformly among the available cells.
type Random struct {
	rng *rand.Rand
}

func NewRandom(rng *rand.Rand) *Random {
	return &Random{rng: rng}
}

func (r *Random) Play(_ context.Context, gc *runner.Context) (board.XY, error) {
	avail := gc.AvailableCells()
	if len(avail) == 0 {
		return board.XY{}, ErrNoMoves
	}
	return gc.ToXY(avail[r.rng.Intn(len(avail))]), nil
}
