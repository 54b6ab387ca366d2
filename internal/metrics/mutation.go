package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mutationRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mutation",
		Name:      "requests_total",
		Help:      "Count of signed mutations and queries by outcome.",
	}, []string{"operation", "kind", "status"})

	mutationRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "mutation",
		Name:      "request_duration_seconds",
		Help:      "Duration of signed mutations and queries.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "kind", "status"})
)

// Mutations tracks metrics for entity-level operations. Rejections are
// labelled with their error code.
type Mutations struct{}

// NewMutations constructs a Mutations collector.
func NewMutations() Mutations {
	return Mutations{}
}

// Observe records an entity operation outcome and duration.
func (Mutations) Observe(operation, kind string, err error, started time.Time) {
	status := statusOf(err)
	mutationRequestsTotal.WithLabelValues(operation, kind, status).Inc()
	mutationRequestDuration.WithLabelValues(operation, kind, status).
		Observe(time.Since(started).Seconds())
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for node_exporter's textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
