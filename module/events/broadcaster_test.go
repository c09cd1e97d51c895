package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onflow/rollup-node/model/rollup"
	"github.com/onflow/rollup-node/module/events"
	"github.com/onflow/rollup-node/module/metrics"
	"github.com/onflow/rollup-node/utils/unittest"
)

func notification(height uint64) rollup.CommitNotification {
	return rollup.CommitNotification{Height: height, Root: unittest.StateRootFixture()}
}

func TestPublishDeliversOncePerSubscriber(t *testing.T) {
	b := events.NewCommitBroadcaster(unittest.Logger(), 4, metrics.NewNoopCollector())
	first := b.Subscribe()
	second := b.Subscribe()
	require.Equal(t, 2, b.SubscriberCount())

	n := notification(1)
	b.Publish(n)

	for _, sub := range []*events.Subscription{first, second} {
		got, ok := sub.TryNext()
		require.True(t, ok)
		assert.Equal(t, n, got)

		_, ok = sub.TryNext()
		assert.False(t, ok, "a notification must be delivered at most once")
	}
}

func TestLateSubscriberMissesEarlierCommits(t *testing.T) {
	b := events.NewCommitBroadcaster(unittest.Logger(), 4, metrics.NewNoopCollector())
	b.Publish(notification(1))

	late := b.Subscribe()
	_, ok := late.TryNext()
	assert.False(t, ok)

	b.Publish(notification(2))
	got, ok := late.TryNext()
	require.True(t, ok)
	assert.Equal(t, uint64(2), got.Height)
}

func TestOverflowDropsOldest(t *testing.T) {
	b := events.NewCommitBroadcaster(unittest.Logger(), 2, metrics.NewNoopCollector())
	sub := b.Subscribe()

	for h := uint64(1); h <= 5; h++ {
		b.Publish(notification(h))
	}
	require.Equal(t, 2, sub.Len())

	got, ok := sub.TryNext()
	require.True(t, ok)
	assert.Equal(t, uint64(4), got.Height)
	got, ok = sub.TryNext()
	require.True(t, ok)
	assert.Equal(t, uint64(5), got.Height)
}

func TestNextWaitsForPublish(t *testing.T) {
	b := events.NewCommitBroadcaster(unittest.Logger(), 4, metrics.NewNoopCollector())
	sub := b.Subscribe()

	received := make(chan rollup.CommitNotification, 1)
	go func() {
		n, err := sub.Next(context.Background())
		if err == nil {
			received <- n
		}
	}()

	b.Publish(notification(9))

	select {
	case n := <-received:
		assert.Equal(t, uint64(9), n.Height)
	case <-time.After(time.Second):
		t.Fatal("notification was not received")
	}
}

func TestUnsubscribe(t *testing.T) {
	b := events.NewCommitBroadcaster(unittest.Logger(), 4, metrics.NewNoopCollector())
	sub := b.Subscribe()
	b.Publish(notification(1))

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, b.SubscriberCount())

	_, err := sub.Next(context.Background())
	require.ErrorIs(t, err, events.ErrSubscriptionClosed)

	// publishing after unsubscribe does not reach the closed subscription
	b.Publish(notification(2))
	assert.Equal(t, 0, sub.Len())
}

func TestNextHonoursContext(t *testing.T) {
	b := events.NewCommitBroadcaster(unittest.Logger(), 4, metrics.NewNoopCollector())
	sub := b.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := sub.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChannelSignalsQueuedNotifications(t *testing.T) {
	b := events.NewCommitBroadcaster(unittest.Logger(), 4, metrics.NewNoopCollector())
	sub := b.Subscribe()

	b.Publish(notification(1))
	b.Publish(notification(2))

	select {
	case <-sub.Channel():
	case <-time.After(time.Second):
		t.Fatal("no signal for queued notifications")
	}

	var heights []uint64
	for {
		n, ok := sub.TryNext()
		if !ok {
			break
		}
		heights = append(heights, n.Height)
	}
	assert.Equal(t, []uint64{1, 2}, heights)
}
