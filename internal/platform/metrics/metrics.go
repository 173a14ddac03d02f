package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	VisitsCreated  prometheus.Counter
	VisitsApproved prometheus.Counter
	VisitsRejected prometheus.Counter
	PassesIssued   prometheus.Counter
	CheckIns       prometheus.Counter
	CheckOuts      prometheus.Counter
	LoginFailures  prometheus.Counter

	RequestLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		VisitsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_visits_created_total",
			Help: "Total number of visit requests created",
		}),
		VisitsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_visits_approved_total",
			Help: "Total number of visit requests approved by hosts",
		}),
		VisitsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_visits_rejected_total",
			Help: "Total number of visit requests rejected by hosts",
		}),
		PassesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_passes_issued_total",
			Help: "Total number of entry passes issued",
		}),
		CheckIns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_check_ins_total",
			Help: "Total number of visitor check-ins recorded",
		}),
		CheckOuts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_check_outs_total",
			Help: "Total number of visitor check-outs recorded",
		}),
		LoginFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatepass_login_failures_total",
			Help: "Total number of failed login attempts",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatepass_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
