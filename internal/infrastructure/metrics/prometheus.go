// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "videoworker"

var (
	// JobsProcessedTotal tracks pipeline runs by final verdict.
	// Labels:
	//   - outcome: completed, failed, duplicate, reconciliation_needed
	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Total number of processed upload events",
		},
		[]string{"outcome"},
	)

	// StageFailuresTotal tracks the pipeline stage a failed run died in.
	// Labels:
	//   - stage: claim, download, derive, upload, finalize
	StageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_failures_total",
			Help:      "Total number of pipeline stage failures",
		},
		[]string{"stage"},
	)

	// JobDurationSeconds observes wall-clock time of full pipeline runs.
	JobDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of full pipeline runs",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// ResultEventsTotal tracks result event publishes.
	// Labels:
	//   - kind: completed, failed
	//   - status: success, error
	ResultEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_events_total",
			Help:      "Total number of published result events",
		},
		[]string{"kind", "status"},
	)
)

// Job outcome constants.
const (
	OutcomeCompleted            = "completed"
	OutcomeFailed               = "failed"
	OutcomeDuplicate            = "duplicate"
	OutcomeReconciliationNeeded = "reconciliation_needed"
)

// Pipeline stage constants.
const (
	StageClaim    = "claim"
	StageDownload = "download"
	StageDerive   = "derive"
	StageUpload   = "upload"
	StageFinalize = "finalize"
)

// Publish status constants.
const (
	PublishSuccess = "success"
	PublishError   = "error"
)
