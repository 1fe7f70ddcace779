package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calmsphere_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calmsphere_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calmsphere_generations_total",
			Help: "Gateway generation outcomes.",
		},
		[]string{"mode", "outcome"},
	)

	GenerationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "calmsphere_generation_duration_seconds",
			Help:    "Upstream generation call duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	CreditsChargedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "calmsphere_credits_charged_total",
			Help: "Total credits charged across all users.",
		},
	)

	QuotaRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "calmsphere_quota_rejections_total",
			Help: "Reservations rejected by the daily credit cap.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		GenerationsTotal,
		GenerationDuration,
		CreditsChargedTotal,
		QuotaRejectionsTotal,
	)
}
