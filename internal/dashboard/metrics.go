package dashboard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter   prometheus.Counter
	cacheMissCounter  prometheus.Counter
	loadHistogram     *prometheus.HistogramVec
	cacheMetricsError error
)

// SetupCacheMetrics registers Prometheus metrics used to observe the snapshot cache.
// The registration is performed once and subsequent calls are ignored.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	hits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_snapshot_cache_hits_total",
		Help: "Number of dashboard snapshots served from cache.",
	})
	misses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_snapshot_cache_miss_total",
		Help: "Number of dashboard snapshots loaded from the metrics API.",
	})
	loads := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_snapshot_load_duration_seconds",
		Help:    "Duration required to load a dashboard snapshot.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	cacheHitCounter, cacheMissCounter, loadHistogram = hits, misses, loads
	for _, collector := range []prometheus.Collector{hits, misses, loads} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				switch c := already.ExistingCollector.(type) {
				case prometheus.Counter:
					if collector == hits {
						cacheHitCounter = c
					} else {
						cacheMissCounter = c
					}
				case *prometheus.HistogramVec:
					loadHistogram = c
				default:
					cacheMetricsError = fmt.Errorf("dashboard cache metrics: unexpected collector type %T", c)
				}
				continue
			}
			cacheMetricsError = err
			cacheHitCounter = nil
			cacheMissCounter = nil
			loadHistogram = nil
			cacheMetricsInitialized = true
			return cacheMetricsError
		}
	}

	cacheMetricsInitialized = true
	return cacheMetricsError
}

func recordCacheHit() {
	if cacheHitCounter == nil {
		return
	}
	cacheHitCounter.Inc()
}

func recordCacheMiss() {
	if cacheMissCounter == nil {
		return
	}
	cacheMissCounter.Inc()
}

func observeLoadDuration(err error, duration time.Duration) {
	if loadHistogram == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	loadHistogram.WithLabelValues(outcome).Observe(duration.Seconds())
}
