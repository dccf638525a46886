// Package bus provides the in-process event bus shared across plugins.
//
// Events are delivered synchronously, in the order they are raised, to
// every handler subscribed to the event topic. The bus guarantees delivery
// order only; it does not serialise cross-plugin side effects beyond that.
// Handler panics are recovered and logged so one misbehaving subscriber
// cannot take down the publisher.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Publish serialises deliveries
// through a queue: the first publisher drains it and delivers events in
// the order they were enqueued, which is what makes the "delivered in the
// order raised" guarantee hold across publishers. Handlers may publish
// follow-up events; those are queued and delivered after the current
// handler pass rather than recursing into delivery.
package bus

import (
	"sync"
	"time"
)

// TopicAll subscribes a handler to every topic.
const TopicAll = "*"

// Event is a notification raised by the engine or a plugin.
type Event struct {
	// Topic names the event stream, for example "plugin.state".
	Topic string

	// Source identifies the publisher, typically a plugin id or "engine".
	Source string

	// Time is when the event was raised.
	Time time.Time

	// Payload carries topic-specific data. Subscribers must not mutate it.
	Payload any
}

// Handler receives events. Handlers run on the publisher's goroutine and
// must return quickly; long work belongs on the subscriber's own goroutine.
type Handler func(Event)

// Logger is the optional logging interface used for handler panics.
type Logger interface {
	Error(msg string, args ...any)
}

type subscriber struct {
	id      int
	topic   string
	handler Handler
}

// delivery is one published event with its handler snapshot, taken at
// publish time so late subscribers do not see earlier events.
type delivery struct {
	handlers []Handler
	event    Event
}

// Bus is an in-process publish/subscribe event bus.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscriber
	nextID int

	// deliverMu guards the delivery queue. Events are delivered in queue
	// order by whichever publisher finds the queue idle; a handler that
	// publishes re-entrantly only enqueues, so delivery never nests.
	deliverMu sync.Mutex
	queue     []delivery
	draining  bool

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{}
}

// SetLogger sets the logger used when a handler panics.
func (b *Bus) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	defer b.loggerMu.Unlock()
	b.logger = logger
}

// Subscribe registers a handler for a topic (TopicAll for every topic).
// It returns an unsubscribe function; calling it more than once is safe.
// A nil handler is ignored and yields a no-op unsubscribe.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, topic: topic, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to all matching handlers in subscription
// order. A zero Time is filled in with the current time. Publishing from
// inside a handler is allowed: the event is queued and delivered once the
// current handler pass finishes, preserving publish order.
func (b *Bus) Publish(event Event) {
	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	b.mu.RLock()
	matching := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if s.topic == TopicAll || s.topic == event.Topic {
			matching = append(matching, s.handler)
		}
	}
	b.mu.RUnlock()

	b.deliverMu.Lock()
	b.queue = append(b.queue, delivery{handlers: matching, event: event})
	if b.draining {
		// Another Publish on this or a nested call frame is already
		// draining; it delivers the queued event in order.
		b.deliverMu.Unlock()
		return
	}
	b.draining = true
	for len(b.queue) > 0 {
		d := b.queue[0]
		b.queue = b.queue[1:]
		b.deliverMu.Unlock()
		for _, h := range d.handlers {
			b.deliver(h, d.event)
		}
		b.deliverMu.Lock()
	}
	b.draining = false
	b.deliverMu.Unlock()
}

// SubscriberCount returns the number of active subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Bus) deliver(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.loggerMu.RLock()
			logger := b.logger
			b.loggerMu.RUnlock()
			if logger != nil {
				logger.Error("event handler panicked",
					"topic", event.Topic,
					"source", event.Source,
					"panic", r,
				)
			}
		}
	}()
	h(event)
}
