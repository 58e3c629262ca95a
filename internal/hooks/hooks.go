// Package hooks provides a small named-event bus. Each bus owns a fixed set
// of events chosen at construction; handlers subscribe to an event and are
// run together whenever the owner fires it.
package hooks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Event names a hook point.
type Event string

// Handler is invoked when its event runs. Handlers that wait (delays,
// step gates) must return when ctx is done.
type Handler func(ctx context.Context) error

// Unsubscribe removes a previously added handler. Calling it more than once
// is a no-op.
type Unsubscribe func()

// Registry is the interface shared by a Bus and its extensions.
type Registry interface {
	// Add subscribes h to event. Panics if the registry does not own event.
	Add(event Event, h Handler) Unsubscribe

	// Run invokes every handler of event concurrently and returns once all
	// of them finish. When ctx is done first, Run still waits for the
	// handlers to return and then reports ctx.Err().
	Run(ctx context.Context, event Event) error

	// Clear drops the handlers of the given events, or of all events when
	// none are given.
	Clear(events ...Event)

	// Has reports whether the registry owns event.
	Has(event Event) bool

	// Events lists the owned events in declaration order.
	Events() []Event
}

type entry struct {
	id uint64
	fn Handler
}

// Bus is a Registry over a fixed vocabulary of events.
type Bus struct {
	mu       sync.Mutex
	events   []Event
	handlers map[Event][]entry
	nextID   uint64
}

// New creates a bus owning the given events.
func New(events ...Event) *Bus {
	b := &Bus{
		events:   slices.Clone(events),
		handlers: make(map[Event][]entry, len(events)),
	}
	for _, e := range events {
		b.handlers[e] = nil
	}
	return b
}

// Add subscribes h to event.
func (b *Bus) Add(event Event, h Handler) Unsubscribe {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.handlers[event]; !ok {
		panic(fmt.Sprintf("hooks: unknown event %q", event))
	}

	b.nextID++
	id := b.nextID
	b.handlers[event] = append(b.handlers[event], entry{id: id, fn: h})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(event, id) })
	}
}

func (b *Bus) remove(event Event, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[event] = slices.DeleteFunc(b.handlers[event], func(e entry) bool {
		return e.id == id
	})
}

// Run invokes the handlers of event. A cancelled ctx wins over the handlers'
// results, and ctx.Err() is returned once they have all returned.
func (b *Bus) Run(ctx context.Context, event Event) error {
	b.mu.Lock()
	entries, ok := b.handlers[event]
	if !ok {
		b.mu.Unlock()
		panic(fmt.Sprintf("hooks: unknown event %q", event))
	}
	fns := make([]Handler, len(entries))
	for i, e := range entries {
		fns[i] = e.fn
	}
	b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(fns) == 0 {
		return nil
	}

	var g errgroup.Group
	for _, fn := range fns {
		g.Go(func() error { return fn(ctx) })
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("hooks: %s handler: %w", event, err)
		}
		return nil
	case <-ctx.Done():
		// Handlers are ctx-aware; wait for them so none outlives the run.
		<-done
		return ctx.Err()
	}
}

// Clear drops handlers. Unknown events are ignored.
func (b *Bus) Clear(events ...Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(events) == 0 {
		events = b.events
	}
	for _, e := range events {
		if _, ok := b.handlers[e]; ok {
			b.handlers[e] = nil
		}
	}
}

// Has reports whether the bus owns event.
func (b *Bus) Has(event Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.handlers[event]
	return ok
}

// Events lists the owned events.
func (b *Bus) Events() []Event {
	return slices.Clone(b.events)
}

// Len returns the number of handlers subscribed to event.
func (b *Bus) Len(event Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[event])
}

// extended routes each event to whichever registry owns it.
type extended struct {
	base Registry
	own  *Bus
}

// Extend composes base with a new bus owning the extra events. Lookups are
// delegated to base for the events it owns.
func Extend(base Registry, events ...Event) Registry {
	return &extended{base: base, own: New(events...)}
}

func (x *extended) pick(event Event) Registry {
	if x.base.Has(event) {
		return x.base
	}
	return x.own
}

func (x *extended) Add(event Event, h Handler) Unsubscribe {
	return x.pick(event).Add(event, h)
}

func (x *extended) Run(ctx context.Context, event Event) error {
	return x.pick(event).Run(ctx, event)
}

func (x *extended) Clear(events ...Event) {
	if len(events) == 0 {
		x.base.Clear()
		x.own.Clear()
		return
	}
	for _, e := range events {
		x.pick(e).Clear(e)
	}
}

func (x *extended) Has(event Event) bool {
	return x.base.Has(event) || x.own.Has(event)
}

func (x *extended) Events() []Event {
	return append(x.base.Events(), x.own.Events()...)
}
