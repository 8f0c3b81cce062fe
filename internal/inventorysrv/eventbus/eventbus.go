// Package eventbus is an in-process publish/subscribe bus. Topics are dot
// separated; a subscription pattern may use "*" for one segment.
package eventbus

import (
	"context"
	"strings"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Event struct {
	Topic string
	Data  any
}

type subscriber struct {
	id      string
	pattern string
	ch      chan Event
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// send delivers the event, waiting at most timeout for buffer space. A zero
// timeout never waits.
func (s *subscriber) send(event Event, timeout time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if timeout <= 0 {
		select {
		case s.ch <- event:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case s.ch <- event:
		return true
	case <-timer.C:
		return false
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		s.cancel()
		close(s.ch)
	}
}

type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*subscriber // pattern -> id -> subscriber
	dropped     func(topic string)
}

type Option func(*Bus)

// WithDropHandler registers a callback run for every event a subscriber
// could not take.
func WithDropHandler(fn func(topic string)) Option {
	return func(b *Bus) {
		b.dropped = fn
	}
}

func New(opts ...Option) *Bus {
	b := &Bus{subscribers: make(map[string]map[string]*subscriber)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe returns a channel receiving events whose topic matches pattern,
// and a function that ends the subscription and closes the channel.
func (b *Bus) Subscribe(pattern string, bufferSize int) (<-chan Event, func()) {
	id := newSubscriberID()
	ctx, cancel := context.WithCancel(context.Background())
	sub := &subscriber{
		id:      id,
		pattern: pattern,
		ch:      make(chan Event, bufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[pattern]; !ok {
		b.subscribers[pattern] = make(map[string]*subscriber)
	}
	b.subscribers[pattern][id] = sub

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subscribers[pattern]; ok {
			if s, ok := subs[id]; ok {
				s.close()
				delete(subs, id)
				if len(subs) == 0 {
					delete(b.subscribers, pattern)
				}
			}
		}
	}
	return sub.ch, unsubscribe
}

// Publish sends data to every matching subscriber. Subscribers that cannot
// take the event within timeout miss it.
func (b *Bus) Publish(topic string, data any, timeout time.Duration) {
	event := Event{Topic: topic, Data: data}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for pattern, subs := range b.subscribers {
		if !matchTopic(pattern, topic) {
			continue
		}
		for _, sub := range subs {
			select {
			case <-sub.ctx.Done():
				continue
			default:
			}
			if !sub.send(event, timeout) && b.dropped != nil {
				b.dropped(topic)
			}
		}
	}
}

// Shutdown closes every subscription.
func (b *Bus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subs := range b.subscribers {
		for _, sub := range subs {
			sub.close()
		}
	}
	b.subscribers = make(map[string]map[string]*subscriber)
}

func newSubscriberID() string {
	id, err := gonanoid.New(12)
	if err != nil {
		panic(err)
	}
	return "sub-" + id
}

func matchTopic(pattern, topic string) bool {
	if pattern == "" || topic == "" {
		return false
	}
	if pattern == "*" || pattern == topic {
		return true
	}
	patternParts := strings.Split(pattern, ".")
	topicParts := strings.Split(topic, ".")
	if len(patternParts) != len(topicParts) {
		return false
	}
	for i := range patternParts {
		if patternParts[i] != "*" && patternParts[i] != topicParts[i] {
			return false
		}
	}
	return true
}
