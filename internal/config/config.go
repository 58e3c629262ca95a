// Package config provides YAML-based configuration loading and pace presets
// for simulations and interactive play.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Bounds enforced by Validate. The engine accepts any positive size; these
// keep boards playable and readable in a terminal.
const (
	MinBoardSide = 2
	MaxBoardSide = 10
	MinPlayers   = 2
	MaxPlayers   = 8
	MaxRuns      = 100000
)

var ErrInvalid = errors.New("config: invalid")

// Config is the top-level configuration file.
type Config struct {
	Board   BoardConfig   `yaml:"board"`
	Players []string      `yaml:"players"` // strategy IDs, one per seat
	Runs    int           `yaml:"runs"`    // games per simulation
	Seed    int64         `yaml:"seed"`    // 0 = time based
	Pace    PaceConfig    `yaml:"pace"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// BoardConfig sets the board dimensions.
type BoardConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PaceConfig sets the artificial delays between visual steps.
type PaceConfig struct {
	TurnDelay      time.Duration `yaml:"turn_delay"`
	ExplosionDelay time.Duration `yaml:"explosion_delay"`
	GameDelay      time.Duration `yaml:"game_delay"`
	Manual         bool          `yaml:"manual"` // wait for a key press at every explosion step
}

// StorageConfig points at the results database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LogConfig sets the log level: debug, info, warn or error.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Validate checks the configuration. known reports whether a strategy ID
// exists; pass nil to skip that check.
func (c Config) Validate(known func(id string) bool) error {
	if c.Board.Width < MinBoardSide || c.Board.Width > MaxBoardSide {
		return fmt.Errorf("%w: board width %d not in %d..%d", ErrInvalid, c.Board.Width, MinBoardSide, MaxBoardSide)
	}
	if c.Board.Height < MinBoardSide || c.Board.Height > MaxBoardSide {
		return fmt.Errorf("%w: board height %d not in %d..%d", ErrInvalid, c.Board.Height, MinBoardSide, MaxBoardSide)
	}
	if c.Runs < 1 || c.Runs > MaxRuns {
		return fmt.Errorf("%w: runs %d not in 1..%d", ErrInvalid, c.Runs, MaxRuns)
	}
	if n := len(c.Players); n < MinPlayers || n > MaxPlayers {
		return fmt.Errorf("%w: %d players, need %d..%d", ErrInvalid, n, MinPlayers, MaxPlayers)
	}
	if known != nil {
		for _, id := range c.Players {
			if !known(id) {
				return fmt.Errorf("%w: unknown player %q", ErrInvalid, id)
			}
		}
	}
	if c.Pace.TurnDelay < 0 || c.Pace.ExplosionDelay < 0 || c.Pace.GameDelay < 0 {
		return fmt.Errorf("%w: negative delay", ErrInvalid)
	}
	return nil
}
