package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job kinds used as the "kind" label
const (
	KindImport = "import"
	KindExport = "export"
)

var (
	// JobsEnqueued counts job ids handed to a queue.
	JobsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_jobs_enqueued_total",
			Help: "Total number of catalog jobs enqueued for background processing",
		},
		[]string{"kind"},
	)

	// JobsFinished counts jobs reaching a terminal status.
	JobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_jobs_finished_total",
			Help: "Total number of catalog jobs that reached a terminal status",
		},
		[]string{"kind", "status"},
	)

	// JobDuration observes time spent processing one job.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_job_duration_seconds",
			Help:    "Duration of catalog job processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// QueueDepth reports ids waiting in each in-memory queue.
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_job_queue_depth",
			Help: "Number of job ids waiting in the in-memory queue",
		},
		[]string{"kind"},
	)

	// ImportRows counts import rows by outcome.
	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_rows_total",
			Help: "Total number of import rows applied, by outcome",
		},
		[]string{"outcome"},
	)

	// JobsRecovered counts jobs re-enqueued by the recovery sweeper.
	JobsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_jobs_recovered_total",
			Help: "Total number of jobs re-enqueued by the recovery sweeper",
		},
		[]string{"kind", "from_status"},
	)
)
