package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/chain-reaction/internal/config"
	"github.com/vovakirdan/chain-reaction/internal/game"
	"github.com/vovakirdan/chain-reaction/internal/player"
	"github.com/vovakirdan/chain-reaction/internal/runner"
	"github.com/vovakirdan/chain-reaction/internal/task"
)

var ErrManyHumans = errors.New("tui: only one human seat is supported")

// bridge carries run messages to a program through commands, so it works
// for programs the caller did not create (SSH sessions).
type bridge struct {
	events chan tea.Msg
	closed chan struct{}
	once   sync.Once
}

func newBridge() *bridge {
	return &bridge{
		events: make(chan tea.Msg),
		closed: make(chan struct{}),
	}
}

// send blocks until the model takes msg or the bridge is closed.
func (b *bridge) send(msg tea.Msg) {
	select {
	case b.events <- msg:
	case <-b.closed:
	}
}

func (b *bridge) close() {
	b.once.Do(func() { close(b.closed) })
}

// listen waits for the next run message. It yields nil once closed.
func (b *bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.events:
			return msg
		case <-b.closed:
			return nil
		}
	}
}

// Names returns the display name per seat.
func Names(ids []string) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id
		if info, ok := player.Lookup(id); ok {
			names[i] = info.Name
		}
	}
	return names
}

// Prepare builds the runner and view options for cfg. cfg must be valid;
// at most one seat may be human.
func Prepare(cfg config.Config, popts player.Options, logger *log.Logger) (*runner.Runner, Options, error) {
	opts := Options{
		Names: Names(cfg.Players),
		Games: cfg.Runs,
	}

	strategies, err := player.CreateAll(cfg.Players, popts)
	if err != nil {
		return nil, opts, err
	}
	for i, s := range strategies {
		h, ok := s.(*player.HumanInput)
		if !ok {
			continue
		}
		if opts.Human != nil {
			return nil, opts, ErrManyHumans
		}
		h.SetBoardSize(cfg.Board.Width, cfg.Board.Height)
		opts.Human = h
		opts.HumanSeat = i
	}

	pace := runner.Pace{
		Turn:      cfg.Pace.TurnDelay,
		Explosion: cfg.Pace.ExplosionDelay,
		Game:      cfg.Pace.GameDelay,
	}
	if cfg.Pace.Manual {
		pace.Step = task.NewGate()
		opts.Step = pace.Step
	}

	r, err := runner.New(cfg.Board.Width, cfg.Board.Height, strategies,
		runner.WithLogger(logger),
		runner.WithPace(pace),
	)
	if err != nil {
		return nil, opts, err
	}
	return r, opts, nil
}

// Start begins opts.Games games on r and returns a model fed by the run.
// The model must be stopped once its program exits.
func Start(ctx context.Context, r *runner.Runner, opts Options) (Model, *task.Task[[]int], error) {
	b := newBridge()

	// Snapshots are taken on the run goroutine while the engine is parked.
	r.Hooks().Add(game.EventUpdate, func(context.Context) error {
		b.send(SnapshotMsg(r.Engine().Snapshot()))
		return nil
	})

	model := NewModel(r.Engine().Snapshot(), opts, r.Cancel)
	model.bridge = b

	t, err := r.Run(ctx, opts.Games, func(winner, n int, tally []int) {
		b.send(GameFinishedMsg{Winner: winner, Game: n, Tally: tally})
	})
	if err != nil {
		r.Hooks().Clear(game.EventUpdate)
		return model, nil, err
	}

	go func() {
		tally, err := t.Wait()
		b.send(RunDoneMsg{Tally: tally, Err: err})
	}()

	if opts.Human != nil {
		go func() {
			for {
				select {
				case <-opts.Human.Waiting():
					b.send(WaitingMsg{})
				case <-t.Done():
					return
				}
			}
		}()
	}

	return model, t, nil
}
