package player

import (
	"context"
	"errors"
	"sync"

	"github.com/vovakirdan/chain-reaction/internal/board"
	"github.com/vovakirdan/chain-reaction/internal/runner"
)

// IDHuman is the registry ID of HumanInput.
const IDHuman = "human"

var ErrNoBoardSize = errors.New("player: no board size supplied")

func init() {
	Register(Info{
		ID:          IDHuman,
		Name:        "Human player",
		Description: "Pick a cell on the board to make a move yourself.",
	}, func(Options) runner.Strategy {
		return NewHumanInput()
	})
}

// HumanInput bridges a front end to the runner. Play blocks until the front
// end submits a coordinate the player may place on.
type HumanInput struct {
	mu     sync.Mutex
	width  int
	height int

	input   chan board.XY
	waiting chan struct{}
}

func NewHumanInput() *HumanInput {
	return &HumanInput{
		input:   make(chan board.XY),
		waiting: make(chan struct{}, 1),
	}
}

// SetBoardSize must be called before the first Play.
func (h *HumanInput) SetBoardSize(width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height = width, height
}

// Waiting is signalled each time Play starts waiting for input.
func (h *HumanInput) Waiting() <-chan struct{} {
	return h.waiting
}

// Submit offers a move. It returns false when no Play is waiting; the move
// is dropped in that case.
func (h *HumanInput) Submit(x, y int) bool {
	select {
	case h.input <- board.At(x, y):
		return true
	default:
		return false
	}
}

func (h *HumanInput) Play(ctx context.Context, gc *runner.Context) (board.XY, error) {
	h.mu.Lock()
	sized := h.width > 0 && h.height > 0
	h.mu.Unlock()
	if !sized {
		return board.XY{}, ErrNoBoardSize
	}

	select {
	case h.waiting <- struct{}{}:
	default:
	}

	for {
		select {
		case xy := <-h.input:
			if gc.CanPlace(xy.X, xy.Y) {
				return xy, nil
			}
		case <-ctx.Done():
			return board.XY{}, ctx.Err()
		}
	}
}
