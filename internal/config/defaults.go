package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/config.yaml
var defaultYAML []byte

// DefaultDBPath is where run results are stored unless configured otherwise.
const DefaultDBPath = "~/.chainreaction/results.db"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Board: BoardConfig{
			Width:  6,
			Height: 6,
		},
		Players: []string{"avoid-others", "form-chains"},
		Runs:    10,
		Pace: PaceConfig{
			TurnDelay:      500 * time.Millisecond,
			ExplosionDelay: 200 * time.Millisecond,
			GameDelay:      time.Second,
		},
		Storage: StorageConfig{
			Path: DefaultDBPath,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultYAML
}
