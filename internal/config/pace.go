package config

import (
	"fmt"
	"time"
)

// PacePreset is a named set of delays.
type PacePreset string

const (
	PaceInstant PacePreset = "instant"
	PaceFast    PacePreset = "fast"
	PaceNormal  PacePreset = "normal"
	PaceSlow    PacePreset = "slow"
	PaceManual  PacePreset = "manual"
)

// PacePresets lists the presets in order of increasing delay.
func PacePresets() []PacePreset {
	return []PacePreset{PaceInstant, PaceFast, PaceNormal, PaceSlow, PaceManual}
}

// PaceForPreset returns the delays of a preset.
func PaceForPreset(preset PacePreset) (PaceConfig, error) {
	switch preset {
	case PaceInstant:
		return PaceConfig{}, nil
	case PaceFast:
		return PaceConfig{
			TurnDelay:      50 * time.Millisecond,
			ExplosionDelay: 20 * time.Millisecond,
			GameDelay:      200 * time.Millisecond,
		}, nil
	case PaceNormal:
		return Default().Pace, nil
	case PaceSlow:
		return PaceConfig{
			TurnDelay:      time.Second,
			ExplosionDelay: 500 * time.Millisecond,
			GameDelay:      2 * time.Second,
		}, nil
	case PaceManual:
		// Steps are advanced by hand, so no timed delays.
		return PaceConfig{Manual: true}, nil
	default:
		return PaceConfig{}, fmt.Errorf("%w: unknown pace %q", ErrInvalid, preset)
	}
}

// ApplyPacePreset replaces the pace of cfg with a preset.
func ApplyPacePreset(cfg *Config, preset PacePreset) error {
	pace, err := PaceForPreset(preset)
	if err != nil {
		return err
	}
	cfg.Pace = pace
	return nil
}
