package browser

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opList = "list_files"
	opSign = "signed_url"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bucket_browser_operations_total",
		Help: "Browser operations by outcome.",
	}, []string{"operation", "result"})

	listingPagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bucket_browser_listing_pages_total",
		Help: "Listing pages requested from the storage provider.",
	})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bucket_browser_operation_duration_seconds",
		Help:    "Latency of browser operations including every listing page.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

func observe(operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	operationsTotal.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
