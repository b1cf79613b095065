// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Import row outcomes
const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeSkipped = "skipped"
	OutcomeInvalid = "invalid"
)

var (
	PostsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cms",
		Name:      "posts_created_total",
		Help:      "Total number of posts created through the editor API or webhook.",
	})

	PostsUpdated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "cms",
		Name:      "posts_updated_total",
		Help:      "Total number of posts updated through the editor API or webhook.",
	})

	ImportRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cms",
		Name:      "import_rows_total",
		Help:      "Imported rows by source and outcome.",
	}, []string{"source", "outcome"})

	ImportDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cms",
		Name:      "import_duration_seconds",
		Help:      "Duration of import batches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	WebhookRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cms",
		Name:      "webhook_requests_total",
		Help:      "Webhook calls by action and result status.",
	}, []string{"action", "status"})

	SnapshotUploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cms",
		Name:      "snapshot_uploads_total",
		Help:      "CSV snapshot uploads by result.",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		PostsCreated,
		PostsUpdated,
		ImportRows,
		ImportDuration,
		WebhookRequests,
		SnapshotUploads,
	)
}
