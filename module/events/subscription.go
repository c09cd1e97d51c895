package events

import (
	"context"
	"errors"
	"sync"

	"github.com/ef-ds/deque"

	"github.com/onflow/rollup-node/model/rollup"
)

// ErrSubscriptionClosed is returned by Next once the subscription was cancelled.
var ErrSubscriptionClosed = errors.New("subscription closed")

type SubscriptionID string

// Subscription is the receiving end of a CommitBroadcaster.
type Subscription struct {
	id          SubscriptionID
	capacity    int
	onUnsub     func(SubscriptionID)
	mu          sync.Mutex
	queue       deque.Deque
	closed      bool
	notifier    chan struct{} // buffered with capacity 1, never blocks the publisher
	done        chan struct{}
	unsubscribe sync.Once
}

func newSubscription(id SubscriptionID, capacity int, onUnsub func(SubscriptionID)) *Subscription {
	return &Subscription{
		id:       id,
		capacity: capacity,
		onUnsub:  onUnsub,
		notifier: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

func (s *Subscription) ID() SubscriptionID {
	return s.id
}

// push appends the notification and returns true if the oldest unread one
// had to be dropped to make room.
func (s *Subscription) push(notification rollup.CommitNotification) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	dropped := false
	if s.queue.Len() >= s.capacity {
		s.queue.PopFront()
		dropped = true
	}
	s.queue.PushBack(notification)
	s.mu.Unlock()

	select {
	case s.notifier <- struct{}{}:
	default:
	}
	return dropped
}

// Channel returns a channel that receives a signal whenever new notifications
// were queued. Several queued notifications may share one signal, drain them
// with TryNext.
func (s *Subscription) Channel() <-chan struct{} {
	return s.notifier
}

// TryNext returns the oldest unread notification without waiting.
func (s *Subscription) TryNext() (rollup.CommitNotification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.queue.PopFront()
	if !ok {
		return rollup.CommitNotification{}, false
	}
	return v.(rollup.CommitNotification), true
}

// Next blocks until a notification is available, the context is cancelled or
// the subscription is closed.
func (s *Subscription) Next(ctx context.Context) (rollup.CommitNotification, error) {
	for {
		select {
		case <-s.done:
			return rollup.CommitNotification{}, ErrSubscriptionClosed
		default:
		}

		if notification, ok := s.TryNext(); ok {
			return notification, nil
		}

		select {
		case <-ctx.Done():
			return rollup.CommitNotification{}, ctx.Err()
		case <-s.done:
			return rollup.CommitNotification{}, ErrSubscriptionClosed
		case <-s.notifier:
		}
	}
}

// Len returns the number of unread notifications.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Unsubscribe detaches the subscription and discards unread notifications.
// It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.unsubscribe.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = deque.Deque{}
		s.mu.Unlock()

		close(s.done)
		s.onUnsub(s.id)
	})
}
