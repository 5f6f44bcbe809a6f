package events

import (
	"sync"

	"reservevault/core/types"
)

// Event represents a structured state change emitted by a ledger engine.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. audit journal, logs).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

type envelope struct {
	evt *types.Event
}

func (e envelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e envelope) Event() *types.Event { return e.evt }

// Wrap converts a raw event payload into the emitter-friendly envelope.
func Wrap(evt *types.Event) Event { return envelope{evt: evt} }

// Buffer collects events emitted during an operation so they can be released
// only once the surrounding state change commits.
type Buffer struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.mu.Lock()
	b.events = append(b.events, evt)
	b.mu.Unlock()
}

// Drain returns the buffered events and clears the buffer.
func (b *Buffer) Drain() []Event {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.events
	b.events = nil
	return out
}

// Discard drops every buffered event.
func (b *Buffer) Discard() {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.events = nil
	b.mu.Unlock()
}

// Multi fans a single event out to several emitters.
type Multi []Emitter

// Emit implements the Emitter interface.
func (m Multi) Emit(evt Event) {
	for _, emitter := range m {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}
