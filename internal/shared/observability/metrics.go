package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pyfacts_analysis_seconds",
		Help:    "Time spent analyzing a source file.",
		Buckets: prometheus.DefBuckets,
	})

	FilesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyfacts_files_analyzed_total",
		Help: "Total number of files analyzed, by outcome.",
	}, []string{"outcome"})

	QueriesMatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyfacts_sql_queries_matched_total",
		Help: "Total number of SQL statement candidates matched in source text.",
	}, []string{"verb"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyfacts_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	SnapshotWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyfacts_snapshot_writes_total",
		Help: "Total number of analysis snapshots persisted to the history store.",
	})
)

const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
)
