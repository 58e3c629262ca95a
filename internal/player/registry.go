// Package player provides the shipped move strategies and a registry that
// lets the CLI and config refer to them by ID.
//
// Strategies register themselves in init() functions, so importing the
// package makes every built-in strategy available.
package player

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/vovakirdan/chain-reaction/internal/runner"
)

var ErrUnknownStrategy = errors.New("player: unknown strategy")

// Info describes a registered strategy.
type Info struct {
	ID          string
	Name        string
	Description string
}

// Options are passed to a Factory for every new player slot.
type Options struct {
	// Rand drives randomized strategies. Nil means a time-seeded source.
	Rand *rand.Rand
}

// Factory creates a fresh strategy for one player slot.
type Factory func(opts Options) runner.Strategy

type entry struct {
	info    Info
	factory Factory
}

var (
	entries = make(map[string]entry)
	mu      sync.RWMutex
)

// Register adds a strategy factory under info.ID.
// Panics if the ID is already registered.
func Register(info Info, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := entries[info.ID]; exists {
		panic(fmt.Sprintf("player: strategy %q already registered", info.ID))
	}
	entries[info.ID] = entry{info: info, factory: f}
}

// List returns every registered strategy, sorted by ID.
func List() []Info {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]Info, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.info)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// Lookup returns the metadata of a registered strategy.
func Lookup(id string) (Info, bool) {
	mu.RLock()
	defer mu.RUnlock()

	e, ok := entries[id]
	return e.info, ok
}

// Create instantiates the strategy registered under id.
func Create(id string, opts Options) (runner.Strategy, error) {
	mu.RLock()
	e, ok := entries[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, id)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e.factory(opts), nil
}

// CreateAll instantiates one strategy per ID, all sharing opts.
func CreateAll(ids []string, opts Options) ([]runner.Strategy, error) {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	strategies := make([]runner.Strategy, len(ids))
	for i, id := range ids {
		s, err := Create(id, opts)
		if err != nil {
			return nil, err
		}
		strategies[i] = s
	}
	return strategies, nil
}

// Exists checks if a strategy with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := entries[id]
	return ok
}
