package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SyncIterations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "confsync_sync_iterations_total",
			Help: "Total number of sync loop iterations",
		},
	)

	SyncCommits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "confsync_sync_commits_total",
			Help: "Total number of commits created by the sync loop",
		},
	)

	SyncFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "confsync_sync_failed_total",
			Help: "Total number of failed sync iterations",
		},
		[]string{"step"},
	)

	SyncChangedFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "confsync_sync_changed_files",
			Help: "Number of paths staged by the last committing iteration",
		},
	)

	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "confsync_sync_duration_seconds",
			Help:    "Duration of sync iterations in seconds, excluding the sleep",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	LastPush = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "confsync_last_push_timestamp",
			Help: "Unix timestamp of the last successful push",
		},
	)
)

func SyncSucceeded(startTime time.Time, changed int, pushed bool) {
	SyncIterations.Inc()
	SyncDuration.Observe(time.Since(startTime).Seconds())
	if changed > 0 {
		SyncCommits.Inc()
		SyncChangedFiles.Set(float64(changed))
	}
	if pushed {
		LastPush.SetToCurrentTime()
	}
}

func SyncFailedAt(step string, startTime time.Time) {
	SyncIterations.Inc()
	SyncDuration.Observe(time.Since(startTime).Seconds())
	SyncFailed.WithLabelValues(step).Inc()
}
