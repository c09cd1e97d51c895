package events

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/module"
)

// DefaultBufferSize is the number of unread notifications kept per subscriber.
const DefaultBufferSize = 64

// CommitBroadcaster is a best-effort fan-out of commit notifications.
// Every published notification is offered once to every current subscriber.
// Subscribers attached after a publish never observe it, and a subscriber
// that does not keep up loses its oldest unread notifications. The ledger
// remains the authoritative record of committed heights.
type CommitBroadcaster struct {
	log         zerolog.Logger
	metrics     module.NotificationMetrics
	bufferSize  int
	mu          sync.RWMutex
	subscribers map[SubscriptionID]*Subscription
}

func NewCommitBroadcaster(log zerolog.Logger, bufferSize int, metrics module.NotificationMetrics) *CommitBroadcaster {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &CommitBroadcaster{
		log:         log.With().Str("component", "commit_broadcaster").Logger(),
		metrics:     metrics,
		bufferSize:  bufferSize,
		subscribers: make(map[SubscriptionID]*Subscription),
	}
}

// Subscribe attaches a new subscriber. It receives notifications published from now on.
func (b *CommitBroadcaster) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := newSubscription(SubscriptionID(uuid.New().String()), b.bufferSize, b.unsubscribe)
	b.subscribers[sub.id] = sub

	b.log.Debug().
		Str("subscription_id", string(sub.id)).
		Int("total_subscribers", len(b.subscribers)).
		Msg("subscriber attached")

	return sub
}

func (b *CommitBroadcaster) unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[id]; !ok {
		return
	}
	delete(b.subscribers, id)

	b.log.Debug().
		Str("subscription_id", string(id)).
		Int("remaining_subscribers", len(b.subscribers)).
		Msg("subscriber detached")
}

// Publish offers the notification to all current subscribers. It never blocks
// on slow subscribers.
func (b *CommitBroadcaster) Publish(notification rollup.CommitNotification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, sub := range b.subscribers {
		if sub.push(notification) {
			b.metrics.NotificationDropped()
			b.log.Warn().
				Str("subscription_id", string(id)).
				Uint64("height", notification.Height).
				Msg("subscriber buffer full, dropped oldest unread notification")
		}
	}
	b.metrics.NotificationPublished(len(b.subscribers))
}

// SubscriberCount returns the number of attached subscribers.
func (b *CommitBroadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
