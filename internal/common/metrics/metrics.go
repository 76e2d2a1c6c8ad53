// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Estimate metrics.
var (
	EstimatesCalculated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimates_calculated_total",
			Help: "Total number of estimates calculated",
		},
		[]string{"pricing_version", "currency"},
	)

	EstimateFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "estimate_failures_total",
			Help: "Total number of estimate requests rejected by the engine",
		},
		[]string{"error_code"},
	)

	EstimateTotalAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "estimate_total_amount",
			Help:    "Tax-inclusive estimate totals in major currency units",
			Buckets: prometheus.ExponentialBuckets(250, 2, 12),
		},
		[]string{"currency"},
	)

	EstimateRooms = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "estimate_rooms",
			Help:    "Number of rooms per estimate",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	EstimateCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "estimate_cache_hits_total",
			Help: "Estimates served from the result cache",
		},
	)

	EstimateCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "estimate_cache_misses_total",
			Help: "Estimates not found in the result cache",
		},
	)
)
