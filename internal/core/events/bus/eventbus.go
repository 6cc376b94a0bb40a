package bus

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// allEvents is the handler key used by SubscribeAll.
const allEvents = "*"

var ErrNilHandler = errors.New("event handler is nil")

type simpleEvent struct {
	typeStr string
	source  string
	ts      time.Time
	data    any
}

func (e simpleEvent) Type() string         { return e.typeStr }
func (e simpleEvent) Source() string       { return e.source }
func (e simpleEvent) Timestamp() time.Time { return e.ts }
func (e simpleEvent) Data() any            { return e.data }

// NewEvent creates a simple Event stamped with the current time.
func NewEvent(typ, src string, data any) Event {
	return simpleEvent{typeStr: typ, source: src, ts: time.Now(), data: data}
}

type subscription struct {
	id        string
	eventType string
	handler   EventHandler
	active    atomic.Bool
	cancel    func()
}

func (s *subscription) ID() string        { return s.id }
func (s *subscription) EventType() string { return s.eventType }
func (s *subscription) IsActive() bool    { return s.active.Load() }
func (s *subscription) Cancel() error {
	if s.active.Swap(false) && s.cancel != nil {
		s.cancel()
	}
	return nil
}

type inMemoryBus struct {
	mu sync.RWMutex
	// handlers: eventType -> subID -> subscription
	handlers map[string]map[string]*subscription

	published atomic.Uint64
	delivered atomic.Uint64
	errs      atomic.Uint64
}

// New creates a new EventBus instance.
func New() EventBus {
	return &inMemoryBus{
		handlers: make(map[string]map[string]*subscription),
	}
}

func (b *inMemoryBus) Publish(event Event) error {
	b.mu.RLock()
	subs := make([]*subscription, 0, len(b.handlers[event.Type()])+len(b.handlers[allEvents]))
	for _, key := range []string{event.Type(), allEvents} {
		for _, s := range b.handlers[key] {
			subs = append(subs, s)
		}
	}
	b.mu.RUnlock()

	b.published.Add(1)

	var all error
	for _, s := range subs {
		if !s.IsActive() {
			continue
		}
		b.delivered.Add(1)
		if err := s.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}
	if all != nil {
		b.errs.Add(1)
	}
	return all
}

func (b *inMemoryBus) PublishAsync(event Event) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- b.Publish(event)
		close(ch)
	}()
	return ch
}

func (b *inMemoryBus) Subscribe(eventType string, handler EventHandler) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]*subscription)
	}
	id := uuid.NewString()
	s := &subscription{id: id, eventType: eventType, handler: handler}
	s.active.Store(true)
	s.cancel = func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[eventType], id)
	}
	b.handlers[eventType][id] = s
	return s, nil
}

func (b *inMemoryBus) SubscribeAll(handler EventHandler) (Subscription, error) {
	return b.Subscribe(allEvents, handler)
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) GetMetrics() Metrics {
	b.mu.RLock()
	var active uint64
	for _, m := range b.handlers {
		active += uint64(len(m))
	}
	b.mu.RUnlock()

	return Metrics{
		Published:         b.published.Load(),
		DeliveredHandlers: b.delivered.Load(),
		Errors:            b.errs.Load(),
		SubscribersActive: active,
	}
}
