// Package events implements the in-process pub/sub broker behind the SSE
// stream. Topics are deal IDs plus a firehose topic covering every deal.
// Delivery is per-subscription FIFO with unbounded mailboxes; a slow consumer
// buffers, it never blocks publishers or its siblings.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"krida.io/dealdesk/internal/domain"
	"krida.io/dealdesk/internal/pkg/logger"
)

// TopicAllDeals subscribes to events from every deal.
const TopicAllDeals = ""

// DefaultKeepaliveInterval is how long a subscription sits idle before a
// keepalive event is synthesized for it.
const DefaultKeepaliveInterval = 15 * time.Second

// ErrSubscriptionClosed is returned by Next once a subscription has been
// closed and its mailbox drained.
var ErrSubscriptionClosed = errors.New("events: subscription closed")

// Broker fans events out to subscriptions by topic.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}

	// keepalive is the idle interval handed to new subscriptions.
	keepalive time.Duration
}

// NewBroker creates a broker with the default keepalive interval.
func NewBroker() *Broker {
	return &Broker{
		subs:      make(map[string]map[*Subscription]struct{}),
		keepalive: DefaultKeepaliveInterval,
	}
}

// SetKeepaliveInterval changes the idle interval handed to subscriptions
// created after the call. Existing subscriptions keep their interval.
func (b *Broker) SetKeepaliveInterval(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.keepalive = d
}

// Subscribe registers a new subscription on the given topic. Pass
// TopicAllDeals to receive events for every deal. The caller must Close the
// subscription when done with it.
func (b *Broker) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		broker: b,
		topic:  topic,
		wake:   make(chan struct{}, 1),
	}

	b.mu.Lock()
	sub.keepalive = b.keepalive
	set, ok := b.subs[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[topic] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Publish delivers ev to every subscription of the deal's topic and of the
// firehose topic. Enqueueing happens under the broker lock so concurrent
// publishes reach every mailbox in one global order.
func (b *Broker) Publish(dealID string, ev domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for sub := range b.subs[dealID] {
		sub.enqueue(ev)
		delivered++
	}
	if dealID != TopicAllDeals {
		for sub := range b.subs[TopicAllDeals] {
			sub.enqueue(ev)
			delivered++
		}
	}

	logger.Debug("Event published",
		zap.String("event", string(ev.Type)),
		zap.String("dealId", dealID),
		zap.Int("subscribers", delivered),
	)
}

// SubscriberCount returns the number of live subscriptions across all topics.
func (b *Broker) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, set := range b.subs {
		n += len(set)
	}
	return n
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.subs[sub.topic]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, sub.topic)
	}
}

// Subscription is one consumer's mailbox on a topic.
type Subscription struct {
	broker *Broker
	topic  string

	mu     sync.Mutex
	queue  []domain.Event
	closed bool

	// wake has capacity 1: a pending signal means "the mailbox changed".
	wake chan struct{}

	keepalive time.Duration
}

// enqueue appends ev to the mailbox. Callers hold the broker lock, which
// serializes enqueues across publishers.
func (s *Subscription) enqueue(ev domain.Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()
	s.signal()
}

func (s *Subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Next returns the next event, blocking until one arrives. If the
// subscription stays idle for the keepalive interval, a keepalive event is
// returned instead. Next returns ctx.Err() when the context ends and
// ErrSubscriptionClosed once the subscription is closed and drained.
func (s *Subscription) Next(ctx context.Context) (domain.Event, error) {
	timer := time.NewTimer(s.keepalive)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return ev, nil
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return domain.Event{}, ErrSubscriptionClosed
		}

		select {
		case <-ctx.Done():
			return domain.Event{}, ctx.Err()
		case <-s.wake:
			// Mailbox changed or the subscription closed; loop and re-check.
		case <-timer.C:
			return domain.Event{Type: domain.EventKeepalive}, nil
		}
	}
}

// Close detaches the subscription from the broker. Pending events remain
// readable through Next until the mailbox drains. Close is idempotent.
func (s *Subscription) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.broker.remove(s)
	s.signal()
}
