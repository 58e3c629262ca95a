// Package runner drives strategies through a series of Chain Reaction games
// and tallies the winners. Runs are cancellable at any suspension point:
// a strategy move, a placement, or a pacing hook.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/chain-reaction/internal/board"
	"github.com/vovakirdan/chain-reaction/internal/game"
	"github.com/vovakirdan/chain-reaction/internal/hooks"
	"github.com/vovakirdan/chain-reaction/internal/task"
)

// Runner events, on top of the engine's update and explosionDelay.
const (
	EventTurnDelay hooks.Event = "turnDelay"
	EventGameDelay hooks.Event = "gameDelay"
)

var (
	ErrAlreadyRunning = errors.New("runner: a run is already in progress")
	ErrNoStrategies   = errors.New("runner: at least one strategy is required")
)

// Strategy decides the next move for one player slot.
// Play must return promptly once ctx is done.
type Strategy interface {
	Play(ctx context.Context, gc *Context) (board.XY, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, gc *Context) (board.XY, error)

func (f StrategyFunc) Play(ctx context.Context, gc *Context) (board.XY, error) {
	return f(ctx, gc)
}

// GameFinishedFunc is called after every completed game with the winner,
// the 1-based game number and a copy of the tally so far.
type GameFinishedFunc func(winner, game int, tally []int)

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger used for run and game progress.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithHooks registers setup that subscribes handlers before every run.
// Hooks are cleared when a run ends, so setup is applied again on each Run.
func WithHooks(setup func(hooks.Registry)) Option {
	return func(r *Runner) {
		r.setup = append(r.setup, setup)
	}
}

// Runner owns an engine and one strategy per player.
type Runner struct {
	engine     *game.Engine
	strategies []Strategy
	contexts   []*Context
	hooks      hooks.Registry
	setup      []func(hooks.Registry)
	logger     *log.Logger

	mu     sync.Mutex
	active *task.Task[[]int]
}

// New creates a runner for a width x height board. The number of strategies
// is the number of players.
func New(width, height int, strategies []Strategy, opts ...Option) (*Runner, error) {
	if len(strategies) == 0 {
		return nil, ErrNoStrategies
	}

	e, err := game.New(width, height, len(strategies))
	if err != nil {
		return nil, err
	}

	r := &Runner{
		engine:     e,
		strategies: slices.Clone(strategies),
		contexts:   make([]*Context, len(strategies)),
		hooks:      hooks.Extend(e.Hooks(), EventTurnDelay, EventGameDelay),
		logger:     log.New(io.Discard),
	}
	for p := range r.contexts {
		r.contexts[p] = NewContext(e, p)
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Engine returns the engine for read access. Read it only from hook
// handlers while a run is active.
func (r *Runner) Engine() *game.Engine {
	return r.engine
}

// Hooks exposes the engine events plus turnDelay and gameDelay.
func (r *Runner) Hooks() hooks.Registry {
	return r.hooks
}

// Players returns the number of player slots.
func (r *Runner) Players() int {
	return len(r.strategies)
}

// Running reports whether a run is in progress.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runningLocked()
}

func (r *Runner) runningLocked() bool {
	if r.active == nil {
		return false
	}
	select {
	case <-r.active.Done():
		return false
	default:
		return true
	}
}

// Run plays times games in the background and returns immediately.
// The task yields the tally. Cancelling it yields the partial tally with a
// nil error; a failing strategy or an illegal move ends the run with the
// partial tally and the error. Either way the engine is reset by the time
// the task is done.
func (r *Runner) Run(ctx context.Context, times int, onGameFinished GameFinishedFunc) (*task.Task[[]int], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runningLocked() {
		return nil, ErrAlreadyRunning
	}

	for _, setup := range r.setup {
		setup(r.hooks)
	}

	r.logger.Info("run started",
		"width", r.engine.Width(),
		"height", r.engine.Height(),
		"players", len(r.strategies),
		"games", times)

	t := task.Go(ctx, func(ctx context.Context) ([]int, error) {
		defer r.finish()
		defer r.hooks.Clear()
		return r.loop(ctx, times, onGameFinished)
	})
	r.active = t
	return t, nil
}

// finish marks the run as over. A Cancel racing the end of the loop may have
// raised the engine flag after the last suspension point; the reset lowers it
// so later placements are not aborted.
func (r *Runner) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = nil
	if err := r.engine.Reset(context.Background()); err != nil {
		r.logger.Warn("reset after run", "err", err)
	}
}

// Cancel stops the active run. The engine aborts any placement in flight
// and resets. Safe to call repeatedly or with no run active.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.runningLocked() {
		return
	}

	r.active.Cancel()
	r.engine.Cancel()
	r.hooks.Clear()
}

func (r *Runner) loop(ctx context.Context, times int, onGameFinished GameFinishedFunc) ([]int, error) {
	tally := make([]int, len(r.strategies))

	if err := r.engine.Reset(ctx); err != nil {
		return r.stop(ctx, tally, err)
	}

	for i := 1; i <= times; i++ {
		for r.engine.IsActive() {
			if ctx.Err() != nil {
				return r.stop(ctx, tally, ctx.Err())
			}

			p := r.engine.CurrentPlayer()
			gc := r.contexts[p]
			if !r.engine.PlayerIsAlive(p) || !gc.HasMoves() {
				r.engine.NextPlayer()
				continue
			}

			xy, err := r.await(ctx, r.strategies[p], gc)
			if err != nil {
				return r.stop(ctx, tally, fmt.Errorf("runner: player %d: %w", p, err))
			}
			if err := r.engine.Place(ctx, xy.X, xy.Y); err != nil {
				return r.stop(ctx, tally, fmt.Errorf("runner: player %d at %v: %w", p, xy, err))
			}
			if err := r.hooks.Run(ctx, EventTurnDelay); err != nil {
				return r.stop(ctx, tally, err)
			}
		}

		if ctx.Err() == nil {
			winner, err := r.engine.Winner()
			if err != nil {
				return r.stop(ctx, tally, err)
			}
			tally[winner]++
			r.logger.Debug("game finished",
				"game", i,
				"winner", winner,
				"turns", r.engine.Turn(),
				"scores", r.engine.Scores())
			if onGameFinished != nil {
				onGameFinished(winner, i, slices.Clone(tally))
			}
		}

		if err := r.hooks.Run(ctx, EventGameDelay); err != nil {
			return r.stop(ctx, tally, err)
		}
		if err := r.engine.Reset(ctx); err != nil {
			return r.stop(ctx, tally, err)
		}
	}

	r.logger.Info("run finished", "tally", tally)
	return tally, nil
}

// await races the strategy against cancellation. It returns only once the
// strategy goroutine has finished.
func (r *Runner) await(ctx context.Context, s Strategy, gc *Context) (board.XY, error) {
	type move struct {
		xy  board.XY
		err error
	}

	ch := make(chan move, 1)
	go func() {
		xy, err := s.Play(ctx, gc)
		ch <- move{xy, err}
	}()

	select {
	case m := <-ch:
		return m.xy, m.err
	case <-ctx.Done():
		// The strategy may still be reading the engine; wait for it before
		// the caller resets the board.
		<-ch
		return board.XY{}, ctx.Err()
	}
}

// stop ends the loop. Cancellation is not an error: the engine is reset and
// the partial tally returned. Anything else is passed through.
func (r *Runner) stop(ctx context.Context, tally []int, err error) ([]int, error) {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		if rerr := r.engine.Reset(context.WithoutCancel(ctx)); rerr != nil {
			r.logger.Warn("reset after cancel", "err", rerr)
		}
		r.logger.Info("run cancelled", "tally", tally)
		return tally, nil
	}

	r.logger.Error("run failed", "err", err)
	return tally, err
}
