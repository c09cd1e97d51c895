package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/onflow/rollup-node/module"
)

var _ module.RunnerMetrics = (*RunnerCollector)(nil)

// RunnerCollector collects the metrics of the block processing loop.
type RunnerCollector struct {
	*CacheCollector

	blocksApplied         prometheus.Counter
	stfDuration           prometheus.Histogram
	tipHeight             prometheus.Gauge
	daFetchRetries        prometheus.Counter
	reorgs                prometheus.Counter
	reorgDepth            prometheus.Histogram
	finalizedHeight       prometheus.Gauge
	pendingSnapshots      prometheus.Gauge
	ledgerCommits         prometheus.Counter
	ledgerCommitDuration  prometheus.Histogram
	notificationsSent     prometheus.Counter
	notificationsReceived prometheus.Counter
	notificationsDropped  prometheus.Counter
}

func NewRunnerCollector(registerer prometheus.Registerer) *RunnerCollector {
	rc := &RunnerCollector{
		CacheCollector: NewCacheCollector(registerer),

		blocksApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemRunner,
			Name:      "blocks_applied_total",
			Help:      "number of DA blocks applied through the state transition function",
		}),

		stfDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemRunner,
			Name:      "stf_duration_seconds",
			Help:      "time spent applying a block's blobs",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),

		tipHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemRunner,
			Name:      "tip_height",
			Help:      "height of the canonical tip snapshot",
		}),

		daFetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemDA,
			Name:      "fetch_retries_total",
			Help:      "number of DA fetches retried because the block was not yet available",
		}),

		reorgs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemRunner,
			Name:      "reorgs_total",
			Help:      "number of DA reorgs recovered from",
		}),

		reorgDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemRunner,
			Name:      "reorg_depth",
			Help:      "number of discarded heights per reorg",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),

		finalizedHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemStorehouse,
			Name:      "finalized_height",
			Help:      "height of the last committed snapshot",
		}),

		pendingSnapshots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemStorehouse,
			Name:      "pending_snapshots",
			Help:      "number of non-finalized snapshots held in the snapshot forest",
		}),

		ledgerCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemLedger,
			Name:      "commits_total",
			Help:      "number of committed heights durably recorded",
		}),

		ledgerCommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemLedger,
			Name:      "commit_duration_seconds",
			Help:      "time spent durably recording a committed height",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5},
		}),

		notificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemNotifications,
			Name:      "published_total",
			Help:      "number of commit notifications published",
		}),

		notificationsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemNotifications,
			Name:      "offered_total",
			Help:      "number of commit notifications offered to subscribers",
		}),

		notificationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemNotifications,
			Name:      "dropped_total",
			Help:      "number of unread commit notifications dropped on subscriber buffer overflow",
		}),
	}

	registerer.MustRegister(
		rc.blocksApplied,
		rc.stfDuration,
		rc.tipHeight,
		rc.daFetchRetries,
		rc.reorgs,
		rc.reorgDepth,
		rc.finalizedHeight,
		rc.pendingSnapshots,
		rc.ledgerCommits,
		rc.ledgerCommitDuration,
		rc.notificationsSent,
		rc.notificationsReceived,
		rc.notificationsDropped,
	)

	return rc
}

func (rc *RunnerCollector) BlockApplied(height uint64, duration time.Duration) {
	rc.blocksApplied.Inc()
	rc.stfDuration.Observe(duration.Seconds())
	rc.tipHeight.Set(float64(height))
}

func (rc *RunnerCollector) DAFetchRetried(uint64) {
	rc.daFetchRetries.Inc()
}

func (rc *RunnerCollector) ReorgHandled(depth uint64) {
	rc.reorgs.Inc()
	rc.reorgDepth.Observe(float64(depth))
}

func (rc *RunnerCollector) SnapshotCommitted(height uint64) {
	rc.finalizedHeight.Set(float64(height))
}

func (rc *RunnerCollector) PendingSnapshots(count int) {
	rc.pendingSnapshots.Set(float64(count))
}

func (rc *RunnerCollector) LedgerCommitRecorded(_ uint64, duration time.Duration) {
	rc.ledgerCommits.Inc()
	rc.ledgerCommitDuration.Observe(duration.Seconds())
}

func (rc *RunnerCollector) NotificationPublished(subscribers int) {
	rc.notificationsSent.Inc()
	rc.notificationsReceived.Add(float64(subscribers))
}

func (rc *RunnerCollector) NotificationDropped() {
	rc.notificationsDropped.Inc()
}
