package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "brokersum"

// Metrics holds the prometheus instruments shared by the cache and the
// pipeline. Construct once per process and pass by reference.
type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
	CacheBypasses  prometheus.Counter
	CacheBytes     prometheus.Gauge

	DaysProcessed prometheus.Counter
	DaysSkipped   prometheus.Counter
	DayErrors     prometheus.Counter
	FilesCreated  prometheus.Counter
	ForcedGCs     prometheus.Counter
}

// NewMetrics registers the pipeline instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Raw-content cache hits.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Raw-content cache misses.",
		}),
		CacheEvictions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries evicted to stay within the byte budget.",
		}),
		CacheBypasses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "bypasses_total",
			Help:      "Counting-pass fetches that bypassed the cache.",
		}),
		CacheBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "bytes",
			Help:      "Bytes currently held by the raw-content cache.",
		}),
		DaysProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "days_processed_total",
			Help:      "Business days aggregated to completion.",
		}),
		DaysSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "days_skipped_total",
			Help:      "Business days skipped because outputs already existed.",
		}),
		DayErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "day_errors_total",
			Help:      "Business days that failed and were isolated.",
		}),
		FilesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "files_created_total",
			Help:      "Summary artifacts written to the blob store.",
		}),
		ForcedGCs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "forced_gcs_total",
			Help:      "Garbage collections forced by heap pressure.",
		}),
	}
}

// NewTestMetrics returns metrics bound to a throwaway registry.
func NewTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
