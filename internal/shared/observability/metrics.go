package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// File outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeParseFailed = "parse_failed"
	OutcomeReadError   = "read_error"
	OutcomeTimeout     = "timeout"
	OutcomePanic       = "panic"
)

// Occurrence outcomes.
const (
	OccurrenceRecorded   = "recorded"
	OccurrenceSuppressed = "suppressed"
	OccurrenceDuplicate  = "duplicate"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyimports_parsing_seconds",
		Help:    "Time spent extracting imports from a single source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	FilesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyimports_files_analyzed_total",
		Help: "Source files analyzed, by outcome.",
	}, []string{"outcome"})

	OccurrencesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyimports_occurrences_total",
		Help: "Import occurrences seen, by whether they were recorded, suppressed or duplicates.",
	}, []string{"outcome"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyimports_cache_lookups_total",
		Help: "Result cache lookups, by tier (memory, sqlite, miss).",
	}, []string{"tier"})

	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyimports_scan_seconds",
		Help:    "Wall time of a batch scan.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyimports_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyimports_watcher_throttled_total",
		Help: "Re-analyses delayed by the watch rate limiter.",
	})
)
