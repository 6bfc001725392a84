package events

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/omniverlay/pkg/observability"
)

// Handler receives published events. Handlers run on the publishing
// goroutine and should return quickly.
type Handler func(Event)

// Notifier delivers events to its subscribers in subscription order
type Notifier struct {
	mu          sync.RWMutex
	subscribers []*Subscription
	nextID      uint64

	clock   clockwork.Clock
	log     *logrus.Logger
	metrics *observability.Metrics
}

// Subscription is a registered handler
type Subscription struct {
	id       uint64
	handler  Handler
	notifier *Notifier
	once     sync.Once
}

// Option configures a Notifier
type Option func(*Notifier)

// WithClock sets the clock used to timestamp events
func WithClock(clock clockwork.Clock) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithLogger sets the logger
func WithLogger(log *logrus.Logger) Option {
	return func(n *Notifier) {
		if log != nil {
			n.log = log
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(metrics *observability.Metrics) Option {
	return func(n *Notifier) {
		n.metrics = metrics
	}
}

// NewNotifier creates a notifier with no subscribers
func NewNotifier(opts ...Option) *Notifier {
	n := &Notifier{
		clock: clockwork.NewRealClock(),
		log:   logrus.New(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Subscribe registers a handler for every future event
func (n *Notifier) Subscribe(handler Handler) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	sub := &Subscription{id: n.nextID, handler: handler, notifier: n}
	n.subscribers = append(n.subscribers, sub)
	return sub
}

// Unsubscribe removes the handler. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		n := s.notifier
		n.mu.Lock()
		defer n.mu.Unlock()

		for i, sub := range n.subscribers {
			if sub.id == s.id {
				n.subscribers = append(n.subscribers[:i:i], n.subscribers[i+1:]...)
				return
			}
		}
	})
}

// SubscriberCount returns the number of active subscriptions
func (n *Notifier) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}

// Notify builds an event of the given type and publishes it
func (n *Notifier) Notify(eventType EventType, source string) Event {
	event := NewEvent(eventType, source, n.clock.Now())
	n.Publish(event)
	return event
}

// Publish delivers an event to every subscriber. An event published while
// nobody is subscribed is dropped with a warning.
func (n *Notifier) Publish(event Event) {
	n.mu.RLock()
	subscribers := make([]*Subscription, len(n.subscribers))
	copy(subscribers, n.subscribers)
	n.mu.RUnlock()

	if len(subscribers) == 0 {
		n.metrics.RecordEvent(string(event.Type), false)
		n.log.WithField("event", event.String()).Warn("No event subscribers, event not dispatched")
		return
	}

	n.log.WithFields(logrus.Fields{
		"event":       event.String(),
		"event_id":    event.ID,
		"subscribers": len(subscribers),
	}).Debug("Publishing event")

	for _, sub := range subscribers {
		n.deliver(sub, event)
	}
	n.metrics.RecordEvent(string(event.Type), true)
}

func (n *Notifier) deliver(sub *Subscription, event Event) {
	defer observability.RecoverPanic(n.log, "event handler for "+string(event.Type))
	sub.handler(event)
}
