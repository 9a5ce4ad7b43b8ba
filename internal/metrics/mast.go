package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mastplan"

// Archive and search Prometheus metrics.
var (
	MastRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mast_requests_total",
			Help:      "Total number of requests to the MAST invoke API",
		},
		[]string{"service", "status"},
	)

	MastRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mast_request_duration_seconds",
			Help:      "MAST request duration in seconds, including EXECUTING polls",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"service"},
	)

	MastPollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mast_polls_total",
			Help:      "Re-issued requests while MAST reported EXECUTING",
		},
		[]string{"service"},
	)

	SearchBranchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_branch_total",
			Help:      "Count-first search outcomes by branch",
		},
		[]string{"branch"},
	)

	ResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_total",
			Help:      "Name resolutions by outcome",
		},
		[]string{"result"}, // resolved, not_found, invalid, error
	)
)

var registerOnce sync.Once

// Register registers all mastplan collectors on the default registry. Call once from main.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			MastRequestsTotal,
			MastRequestDuration,
			MastPollsTotal,
			SearchBranchTotal,
			ResolveTotal,
			httpRequestDuration,
			httpRequestsTotal,
			httpInFlight,
		)
	})
}
