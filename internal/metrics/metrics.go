//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package metrics exposes Prometheus gauges over the
// compiled-policy cache, for embedders that scrape metrics and for the
// "cache-stats" CLI subcommand.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/manetu/polix/pkg/evaluator/cache"
)

// Metrics holds the Prometheus collectors for one cache instance. These
// are gauges rather than counters because [cache.Cache] already owns the
// authoritative hit/miss totals ([cache.Cache.Stats]) and may reset them
// via [cache.Cache.Clear]; [Metrics.Sample] republishes that snapshot
// rather than tracking deltas itself.
type Metrics struct {
	CacheHits     prometheus.Gauge
	CacheMisses   prometheus.Gauge
	CacheSize     prometheus.Gauge
	CacheHitRatio prometheus.Gauge
}

// New creates and registers cache metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CacheHits: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "polix",
			Subsystem: "cache",
			Name:      "hits",
			Help:      "Compiled-policy cache hits since the cache was last cleared.",
		}),
		CacheMisses: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "polix",
			Subsystem: "cache",
			Name:      "misses",
			Help:      "Compiled-policy cache misses since the cache was last cleared.",
		}),
		CacheSize: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "polix",
			Subsystem: "cache",
			Name:      "size",
			Help:      "Current number of entries in the compiled-policy cache.",
		}),
		CacheHitRatio: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Namespace: "polix",
			Subsystem: "cache",
			Name:      "hit_ratio",
			Help:      "Cache hit rate (hits / (hits + misses)) as of the last Sample call.",
		}),
	}
}

// Sample reads c's current stats and republishes them on the registered
// gauges.
func (m *Metrics) Sample(c *cache.Cache) {
	stats := c.Stats()
	m.CacheHits.Set(float64(stats.Hits))
	m.CacheMisses.Set(float64(stats.Misses))
	m.CacheSize.Set(float64(stats.Size))
	m.CacheHitRatio.Set(stats.HitRate)
}
