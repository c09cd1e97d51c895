package metrics

import (
	"time"

	"github.com/onflow/rollup-node/module"
)

type NoopCollector struct{}

var _ module.RunnerMetrics = (*NoopCollector)(nil)

func NewNoopCollector() *NoopCollector {
	nc := &NoopCollector{}
	return nc
}

func (nc *NoopCollector) CacheEntries(resource string, entries uint)                 {}
func (nc *NoopCollector) CacheHit(resource string)                                   {}
func (nc *NoopCollector) CacheMiss(resource string)                                  {}
func (nc *NoopCollector) LedgerCommitRecorded(height uint64, duration time.Duration) {}
func (nc *NoopCollector) NotificationPublished(subscribers int)                      {}
func (nc *NoopCollector) NotificationDropped()                                       {}
func (nc *NoopCollector) BlockApplied(height uint64, duration time.Duration)         {}
func (nc *NoopCollector) DAFetchRetried(height uint64)                               {}
func (nc *NoopCollector) ReorgHandled(depth uint64)                                  {}
func (nc *NoopCollector) SnapshotCommitted(height uint64)                            {}
func (nc *NoopCollector) PendingSnapshots(count int)                                 {}
