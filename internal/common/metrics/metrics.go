package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Endpoint labels for upstream requests.
const (
	EndpointModelMenu   = "model_menu"
	EndpointVariantMenu = "variant_menu"
	EndpointVehicle     = "vehicle"
)

var (
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fueleconomy_upstream_requests_total",
			Help: "Total number of requests sent to the fuel economy data source",
		},
		[]string{"endpoint", "status"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fueleconomy_upstream_request_duration_seconds",
			Help:    "Duration of upstream requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	VariantsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fueleconomy_variants_resolved_total",
			Help: "Total number of variant records fetched",
		},
	)

	Aggregations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fueleconomy_aggregations_total",
			Help: "Total number of make/year aggregations by outcome",
		},
		[]string{"status"},
	)

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
)
