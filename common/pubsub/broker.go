// Package pubsub implements the multi-producer broadcast primitive used by
// the consensus signal hub (and, following the same pattern used across the
// rest of this module's collaborators, by anything else that needs a
// fan-out notifier with a bounded, lossy backlog).
//
// A Broker owns no policy of its own: it is pure transport. Each Subscriber
// gets an independent eapache/channels.RingChannel of a caller-chosen
// capacity. A RingChannel never blocks a Broadcast call: once it is full,
// writing into it silently evicts the oldest buffered value. Capacity 1
// therefore gives "latest value, overwrite on write" semantics for free,
// and a larger capacity gives a bounded, lossy fan-out backlog.
package pubsub

import (
	"sync"

	"github.com/eapache/channels"
)

// Subscription is an independent receive handle obtained from Broker.Subscribe.
// Subscriptions are not meant to be shared across goroutines/subsystems —
// each subscriber should hold exactly one.
type Subscription struct {
	ch     *channels.RingChannel
	broker *Broker
}

// Out returns the channel to receive values on.
func (s *Subscription) Out() <-chan interface{} {
	return s.ch.Out()
}

// Close unsubscribes, releasing the Broker's reference to this subscription.
func (s *Subscription) Close() {
	s.broker.unsubscribe(s)
	s.ch.Close()
}

// Broker is a multi-producer, multi-consumer fan-out point.
type Broker struct {
	mu          sync.Mutex
	bufferSize  int64
	subscribers map[*Subscription]struct{}
}

// NewBroker constructs a Broker whose subscriptions each buffer up to
// bufferSize values before the oldest is evicted. bufferSize of 1 yields
// latest-value/overwrite semantics.
func NewBroker(bufferSize int) *Broker {
	return &Broker{
		bufferSize:  int64(bufferSize),
		subscribers: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new independent subscription.
func (b *Broker) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		ch:     channels.NewRingChannel(channels.BufferCap(b.bufferSize)),
		broker: b,
	}
	b.subscribers[sub] = struct{}{}
	return sub
}

func (b *Broker) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, sub)
}

// NumSubscribers reports the number of live subscriptions.
func (b *Broker) NumSubscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Broadcast delivers v to every current subscriber and returns how many
// subscribers received it. RingChannel.In() never blocks, so Broadcast never
// blocks regardless of how many subscribers are slow to drain.
func (b *Broker) Broadcast(v interface{}) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subscribers {
		sub.ch.In() <- v
	}
	return len(b.subscribers)
}
