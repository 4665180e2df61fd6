// Package events is the in-process publish/subscribe fabric that carries
// domain events between modules.
//
// Publishers hand events to a Publisher and return immediately. The Bus keeps
// an explicit registry from event type tag to an ordered list of named
// subscriptions; each subscription drains its own FIFO mailbox on its own
// goroutine, so a failing, panicking or hung listener only affects itself.
package events

import "context"

// Event is an immutable fact published after a state change.
type Event interface {
	// EventType is the registry tag, e.g. "lobby.started".
	EventType() string
	// AggregateID identifies the entity that produced the event.
	AggregateID() string
}

// Handler consumes one event. A returned error is logged and optionally
// retried; it never reaches the publisher.
type Handler func(ctx context.Context, event Event) error

// Publisher is the narrow contract use cases depend on.
type Publisher interface {
	Publish(ctx context.Context, evts ...Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, evts ...Event)

func (f PublisherFunc) Publish(ctx context.Context, evts ...Event) {
	f(ctx, evts...)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, ...Event) {})
