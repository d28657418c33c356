package shared

import "context"

// EventHandler consumes domain events raised by the billing aggregates.
type EventHandler interface {
	// Handle processes a single event. Errors are logged by the bus, not
	// returned to the publisher.
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types the handler wants. An empty slice
	// subscribes it to everything.
	EventTypes() []string
}

// EventPublisher publishes domain events. Publishing is a best-effort
// diagnostics side-channel: handler failures must never abort the
// operation that raised the event.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registrations.
type EventSubscriber interface {
	// Subscribe registers a handler for the given event types, or for all
	// events when none are given.
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes every registration of the handler.
	Unsubscribe(handler EventHandler)
}

// EventBus combines publishing and subscription with a start/stop
// lifecycle driven by the server.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
