package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments of the scrape worker. They
// complement the sliding-window rate tracker; neither influences control
// flow.
type Metrics struct {
	CommentsProcessed prometheus.Counter
	ItemsProcessed    prometheus.Counter
	RemovalsDetected  prometheus.Counter
	PassesCompleted   prometheus.Counter
	PassFailures      prometheus.Counter
	BackoffLevel      prometheus.Gauge
	PassDuration      prometheus.Histogram
}

// New registers the scraper metrics with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CommentsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "biliguard",
			Name:      "comments_processed_total",
			Help:      "Comments observed across all scrape passes.",
		}),
		ItemsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "biliguard",
			Name:      "items_processed_total",
			Help:      "Content items reconciled across all scrape passes.",
		}),
		RemovalsDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "biliguard",
			Name:      "removals_detected_total",
			Help:      "Comments newly marked removed.",
		}),
		PassesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "biliguard",
			Name:      "passes_completed_total",
			Help:      "Scrape passes that ran to completion.",
		}),
		PassFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "biliguard",
			Name:      "pass_failures_total",
			Help:      "Scrape passes aborted by an error.",
		}),
		BackoffLevel: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "biliguard",
			Name:      "backoff_wait_level",
			Help:      "Current wait level of the sub-reply backoff gate.",
		}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "biliguard",
			Name:      "pass_duration_seconds",
			Help:      "Duration of a full scrape pass.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		}),
	}
}
