package events

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultSubscriberBuffer = 32

type subscriber struct {
	ch   chan Event
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// Broker fans events out to in-process subscribers keyed by user ID.
// Publish never blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[primitive.ObjectID]map[*subscriber]struct{}
	buffer int
	closed bool
}

func NewBroker() *Broker {
	return &Broker{
		subs:   make(map[primitive.ObjectID]map[*subscriber]struct{}),
		buffer: defaultSubscriberBuffer,
	}
}

// Subscribe registers a listener for events addressed to userID. The returned
// cancel func unregisters it and closes the channel; it is safe to call twice.
func (b *Broker) Subscribe(userID primitive.ObjectID) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, b.buffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.close()
		return sub.ch, func() {}
	}
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[*subscriber]struct{})
	}
	b.subs[userID][sub] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[userID]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(b.subs, userID)
			}
		}
		b.mu.Unlock()
		sub.close()
	}
	return sub.ch, cancel
}

func (b *Broker) Publish(_ context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, userID := range event.Audience {
		for sub := range b.subs[userID] {
			select {
			case sub.ch <- event:
			default:
				logrus.WithFields(logrus.Fields{
					"user":  userID.Hex(),
					"event": event.Type,
				}).Warn("subscriber buffer full, dropping event")
			}
		}
	}
	return nil
}

// SubscriberCount returns how many listeners userID has.
func (b *Broker) SubscriberCount(userID primitive.ObjectID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[userID])
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for userID, set := range b.subs {
		for sub := range set {
			sub.close()
		}
		delete(b.subs, userID)
	}
}
