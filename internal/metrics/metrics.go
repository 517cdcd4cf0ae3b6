package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts mapping service operations by outcome
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urlmapper_operations_total",
		Help: "Total number of mapping service operations by result",
	}, []string{"operation", "result"})

	// OperationDuration tracks mapping service latency, store time included
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "urlmapper_operation_duration_seconds",
		Help:    "Mapping service operation duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// HTTPRequestsTotal counts HTTP requests by route and status
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "urlmapper_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration tracks HTTP handler latency
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "urlmapper_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// RecordOperation records the outcome and latency of a service operation
func RecordOperation(operation, result string, elapsed time.Duration) {
	OperationsTotal.WithLabelValues(operation, result).Inc()
	OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordHTTPRequest records a completed HTTP request
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
