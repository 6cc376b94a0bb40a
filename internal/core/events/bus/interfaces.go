package bus

import "time"

// EventBus is a thread-safe, in-process pub/sub bus used to report follower
// lifecycle changes to interested parts of the planner.
//
// Delivery is synchronous: Publish calls every matching handler in the
// caller's goroutine and joins their errors. Handlers subscribed with
// SubscribeAll receive every event type. Handlers must be quick; the
// execution engine publishes from its tick loop.
type EventBus interface {
	Publish(event Event) error
	PublishAsync(event Event) <-chan error

	Subscribe(eventType string, handler EventHandler) (Subscription, error)
	SubscribeAll(handler EventHandler) (Subscription, error)
	Unsubscribe(Subscription) error

	GetMetrics() Metrics
}

// Event is an immutable message transported by the EventBus.
type Event interface {
	Type() string
	Source() string
	Timestamp() time.Time
	Data() any
}

type EventHandler func(event Event) error

// Subscription is a registered handler. Cancel is safe to call repeatedly.
type Subscription interface {
	ID() string
	EventType() string
	IsActive() bool
	Cancel() error
}

// Metrics are running counters since the bus was created.
type Metrics struct {
	Published         uint64
	DeliveredHandlers uint64
	Errors            uint64
	SubscribersActive uint64
}
