package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

// Metrics holds the service's prometheus collectors.
type Metrics struct {
	LedgerOperationsTotal *prometheus.CounterVec
	LedgerPointsTotal     *prometheus.CounterVec
	LoginAttemptsTotal    *prometheus.CounterVec
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
}

// New registers all collectors on reg. Pass a fresh prometheus.NewRegistry()
// in tests to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LedgerOperationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewards_ledger_operations_total",
				Help: "Ledger operations by action and outcome",
			},
			[]string{"action", "status"},
		),
		LedgerPointsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewards_ledger_points_total",
				Help: "Points actually applied to balances, by action",
			},
			[]string{"action"},
		),
		LoginAttemptsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewards_login_attempts_total",
				Help: "Manager login attempts by result",
			},
			[]string{"result"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewards_http_requests_total",
				Help: "HTTP requests by route pattern, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rewards_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}
