package module

import (
	"time"
)

// CacheMetrics tracks the usage of in-memory caches in front of the databases.
type CacheMetrics interface {
	// CacheEntries report the total number of cached items
	CacheEntries(resource string, entries uint)
	// CacheHit report the number of times the queried item is found in the cache
	CacheHit(resource string)
	// CacheMiss report the number of times the queried item is not found in the cache
	CacheMiss(resource string)
}

// LedgerMetrics tracks the durable record of committed heights.
type LedgerMetrics interface {
	// LedgerCommitRecorded reports a successful durable write of a committed height
	// together with the time spent writing it.
	LedgerCommitRecorded(height uint64, duration time.Duration)
}

// NotificationMetrics tracks the commit notification fan-out.
type NotificationMetrics interface {
	// NotificationPublished reports a published notification and the number of subscribers it was offered to.
	NotificationPublished(subscribers int)
	// NotificationDropped reports an unread notification that was dropped because a subscriber buffer was full.
	NotificationDropped()
}

// RunnerMetrics tracks the block processing loop.
type RunnerMetrics interface {
	LedgerMetrics
	CacheMetrics
	NotificationMetrics

	// BlockApplied reports a block applied on top of the canonical tip and the
	// time spent in the state transition function.
	BlockApplied(height uint64, duration time.Duration)

	// DAFetchRetried reports a retry of a DA fetch for a block that was not available yet.
	DAFetchRetried(height uint64)

	// ReorgHandled reports a completed reorg recovery with the number of discarded heights.
	ReorgHandled(depth uint64)

	// SnapshotCommitted reports the new finalized height.
	SnapshotCommitted(height uint64)

	// PendingSnapshots reports the number of non-finalized snapshots in the forest.
	PendingSnapshots(count int)
}
