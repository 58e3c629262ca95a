package runner

import (
	"context"
	"time"

	"github.com/vovakirdan/chain-reaction/internal/game"
	"github.com/vovakirdan/chain-reaction/internal/hooks"
	"github.com/vovakirdan/chain-reaction/internal/task"
)

// Pace slows a run down so a viewer can follow it.
type Pace struct {
	Turn      time.Duration // after every placement
	Explosion time.Duration // between cascade waves
	Game      time.Duration // between games

	// Step, when set, replaces every delay: each step waits for Open.
	Step *task.Gate
}

// WithPace registers delay handlers on explosionDelay, turnDelay and
// gameDelay.
func WithPace(p Pace) Option {
	return WithHooks(func(h hooks.Registry) {
		h.Add(game.EventExplosionDelay, p.wait(p.Explosion))
		h.Add(EventTurnDelay, p.wait(p.Turn))
		h.Add(EventGameDelay, p.wait(p.Game))
	})
}

func (p Pace) wait(d time.Duration) hooks.Handler {
	if p.Step != nil {
		return p.Step.Wait
	}
	return func(ctx context.Context) error {
		return task.Sleep(ctx, d)
	}
}
