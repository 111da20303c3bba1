// Package outbox defines the in-process event-bus ports that decouple a
// commit from its post-commit side effects (notification, fiscal dispatch).
// Publishing never blocks on, or rolls back for, a subscriber's failure.
package outbox

import "context"

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

// Handler processes a published event. A returned error is logged by the
// bus, never surfaced to the publisher.
type Handler func(ctx context.Context, e Event) error

// Publisher publishes events to interested subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber registers handlers for event names.
type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Bus combines both sides for wiring convenience.
type Bus interface {
	Publisher
	Subscriber
}
