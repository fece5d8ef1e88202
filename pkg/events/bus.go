package events

import (
	"context"
	"errors"
	"sync"

	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/metrics"
)

// ErrBusShutdown is returned by Subscribe after Shutdown
var ErrBusShutdown = errors.New("event bus is shut down")

const (
	subscriptionBuffer = 100
	listenerQueueSize  = 1024
)

// Bus fans events out to topic subscriptions and to registered listeners.
// Subscriptions receive on buffered channels and miss events while full; listeners
// run one at a time on a dispatcher goroutine, in publish order.
type Bus struct {
	subscribers map[string]map[*Subscription]bool
	mu          sync.RWMutex

	listeners  []Listener
	listenerMu sync.RWMutex
	queue      chan Event
	done       sync.WaitGroup

	shutdown   chan struct{}
	shutdownMu sync.RWMutex
	isShutdown bool

	logger  logging.Logger
	metrics *metrics.Registry
}

// Subscription receives the events of one topic
type Subscription struct {
	topic     string
	channel   chan Event
	bus       *Bus
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewBus creates a bus and starts its dispatcher. reg may be nil.
func NewBus(logger logging.Logger, reg *metrics.Registry) *Bus {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	b := &Bus{
		subscribers: make(map[string]map[*Subscription]bool),
		queue:       make(chan Event, listenerQueueSize),
		shutdown:    make(chan struct{}),
		logger:      logger.With(logging.Component("events")),
		metrics:     reg,
	}
	b.done.Add(1)
	go b.dispatch()
	return b
}

// Subscribe creates a subscription to topic (an entity kind). It ends when ctx is
// cancelled, on Unsubscribe or on Shutdown.
func (b *Bus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	b.shutdownMu.RLock()
	defer b.shutdownMu.RUnlock()
	if b.isShutdown {
		return nil, ErrBusShutdown
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		topic:   topic,
		channel: make(chan Event, subscriptionBuffer),
		bus:     b,
		ctx:     subCtx,
		cancel:  cancel,
	}

	b.mu.Lock()
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]bool)
	}
	b.subscribers[topic][sub] = true
	b.mu.Unlock()

	go func() {
		select {
		case <-subCtx.Done():
			sub.Unsubscribe()
		case <-b.shutdown:
		}
	}()

	return sub, nil
}

// AddListener registers l for every event published after the call
func (b *Bus) AddListener(l Listener) {
	b.listenerMu.Lock()
	defer b.listenerMu.Unlock()
	b.listeners = append(b.listeners, l)
}

// Publish hands ev to subscribers of its topic and queues it for listeners.
// It never blocks; events that do not fit are dropped and counted.
func (b *Bus) Publish(ev Event) {
	b.shutdownMu.RLock()
	defer b.shutdownMu.RUnlock()
	if b.isShutdown {
		return
	}

	if b.metrics != nil {
		b.metrics.RecordEventPublished(string(ev.Entity), string(ev.Op))
	}

	// Sends happen under the read lock: channels are only closed under the write lock
	b.mu.RLock()
	for sub := range b.subscribers[ev.Topic()] {
		select {
		case sub.channel <- ev:
		default:
			b.dropped(ev, "subscription")
		}
	}
	b.mu.RUnlock()

	select {
	case b.queue <- ev:
	default:
		b.dropped(ev, "listeners")
	}
}

func (b *Bus) dropped(ev Event, target string) {
	b.logger.Warn("event dropped",
		logging.String("target", target),
		logging.Entity(string(ev.Entity)),
		logging.String("op", string(ev.Op)))
	if b.metrics != nil {
		b.metrics.RecordEventFailed(target)
	}
}

func (b *Bus) dispatch() {
	defer b.done.Done()
	for ev := range b.queue {
		b.listenerMu.RLock()
		listeners := make([]Listener, len(b.listeners))
		copy(listeners, b.listeners)
		b.listenerMu.RUnlock()

		for _, l := range listeners {
			b.deliver(l, ev)
		}
	}
}

func (b *Bus) deliver(l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("listener panicked", logging.Any("panic", r), logging.Entity(string(ev.Entity)))
			if b.metrics != nil {
				b.metrics.RecordEventFailed("panic")
			}
		}
	}()
	l.OnEvent(ev)
}

// GetSubscriberCount returns the number of subscribers for a topic
func (b *Bus) GetSubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Shutdown closes every subscription, delivers the events already queued for
// listeners and stops the dispatcher. Publish is a no-op afterwards.
func (b *Bus) Shutdown() {
	b.shutdownMu.Lock()
	if b.isShutdown {
		b.shutdownMu.Unlock()
		return
	}
	b.isShutdown = true
	close(b.shutdown)
	close(b.queue)
	b.shutdownMu.Unlock()

	b.mu.Lock()
	for topic, subs := range b.subscribers {
		for sub := range subs {
			sub.close()
		}
		delete(b.subscribers, topic)
	}
	b.mu.Unlock()

	b.done.Wait()
}

// Channel returns the subscription's event channel; it is closed when the subscription ends
func (s *Subscription) Channel() <-chan Event {
	return s.channel
}

// Unsubscribe removes the subscription
func (s *Subscription) Unsubscribe() {
	s.cancel()

	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if s.bus.subscribers[s.topic] != nil {
		delete(s.bus.subscribers[s.topic], s)
		if len(s.bus.subscribers[s.topic]) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}

	s.close()
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.channel)
	})
}
