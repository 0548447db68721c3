package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Ledger operations
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "point_operations_total",
			Help: "Total successful point operations",
		},
		[]string{"op"}, // charge|use
	)
	OperationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "point_operations_failed_total",
			Help: "Total failed point operations",
		},
		[]string{"op"},
	)

	// Account slot contention
	LockWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "account_lock_wait_seconds",
			Help:    "Time spent waiting for the per-account slot",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(OperationsTotal)
	prometheus.MustRegister(OperationsFailed)
	prometheus.MustRegister(LockWaitSeconds)
	prometheus.MustRegister(WorkerQueueDepth)
}
