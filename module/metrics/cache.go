package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/onflow/rollup-node/module"
)

var _ module.CacheMetrics = (*CacheCollector)(nil)

type CacheCollector struct {
	entries *prometheus.GaugeVec
	hits    *prometheus.CounterVec
	misses  *prometheus.CounterVec
}

func NewCacheCollector(registerer prometheus.Registerer) *CacheCollector {
	cc := &CacheCollector{
		entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemCache,
			Name:      "entries_total",
			Help:      "the number of entries in the cache",
		}, []string{LabelResource}),

		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemCache,
			Name:      "hits_total",
			Help:      "the number of hits for the cache",
		}, []string{LabelResource}),

		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespaceRollup,
			Subsystem: subsystemCache,
			Name:      "misses_total",
			Help:      "the number of misses for the cache",
		}, []string{LabelResource}),
	}

	registerer.MustRegister(cc.entries, cc.hits, cc.misses)
	return cc
}

// CacheEntries records the size of the cache for the given resource.
func (cc *CacheCollector) CacheEntries(resource string, entries uint) {
	cc.entries.With(prometheus.Labels{LabelResource: resource}).Set(float64(entries))
}

// CacheHit records the number of hits in the cache for the given resource.
func (cc *CacheCollector) CacheHit(resource string) {
	cc.hits.With(prometheus.Labels{LabelResource: resource}).Inc()
}

// CacheMiss records the number of misses in the cache for the given resource.
func (cc *CacheCollector) CacheMiss(resource string) {
	cc.misses.With(prometheus.Labels{LabelResource: resource}).Inc()
}
