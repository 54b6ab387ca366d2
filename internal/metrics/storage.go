// Package metrics exposes application metrics collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/signedstore/internal/record"
)

const namespace = "signedstore"

var (
	storageRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "requests_total",
		Help:      "Count of collection operations.",
	}, []string{"operation", "collection", "status"})

	storageRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "request_duration_seconds",
		Help:      "Duration of collection operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation", "collection", "status"})
)

// Storage tracks metrics for SQLite collection operations.
type Storage struct{}

// NewStorage constructs a Storage collector.
func NewStorage() Storage {
	return Storage{}
}

// Observe records a collection operation outcome and duration.
func (Storage) Observe(operation, collection string, err error, started time.Time) {
	status := statusOf(err)
	storageRequestsTotal.WithLabelValues(operation, collection, status).Inc()
	storageRequestDuration.WithLabelValues(operation, collection, status).
		Observe(time.Since(started).Seconds())
}

// statusOf is "success", the error code, or "error" for uncoded errors.
func statusOf(err error) string {
	if err == nil {
		return "success"
	}
	if code := record.CodeOf(err); code != "" {
		return string(code)
	}
	return "error"
}
