package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formlayer_submissions_total",
			Help: "Total number of assembled submissions by origin",
		},
		[]string{"origin"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formlayer_deliveries_total",
			Help: "Total number of event records handed to a delivery channel",
		},
		[]string{"channel"},
	)

	PushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formlayer_datalayer_pushes_total",
			Help: "Total number of records applied to the server-side queue",
		},
		[]string{"channel"},
	)

	DuplicatePushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formlayer_datalayer_duplicate_pushes_total",
			Help: "Total number of deliveries dropped because the submission id was already pushed",
		},
		[]string{"channel"},
	)

	SweptRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "formlayer_swept_records_total",
			Help: "Total number of expired relay entries deleted by the sweep",
		},
	)

	SweepErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "formlayer_sweep_errors_total",
			Help: "Total number of relay entries the sweep failed to delete",
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"handler", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"handler", "method"},
	)
)

var registerOnce sync.Once

// Register registers all Prometheus metrics with the default registry.
// Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(SubmissionsTotal)
		prometheus.MustRegister(DeliveriesTotal)
		prometheus.MustRegister(PushesTotal)
		prometheus.MustRegister(DuplicatePushesTotal)
		prometheus.MustRegister(SweptRecordsTotal)
		prometheus.MustRegister(SweepErrorsTotal)
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
	})
}
