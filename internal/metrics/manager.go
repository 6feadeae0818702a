package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stellarreg"

type Manager struct {
	Registry *prometheus.Registry

	CounterRequests          *prometheus.CounterVec
	CounterLogins            *prometheus.CounterVec
	CounterSessionChecks     *prometheus.CounterVec
	CounterRateLimited       prometheus.Counter
	CounterRegistrations     prometheus.Counter
	CounterPanics            prometheus.Counter
	GaugeRateLimitKeys       prometheus.Gauge
	HistogramRequestDuration *prometheus.HistogramVec
}

func NewManager(subsystem string) *Manager {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newManager(subsystem, reg)
}

// NewTestManager registers nothing beyond the service's own metrics.
func NewTestManager() *Manager {
	return newManager("test", prometheus.NewRegistry())
}

func newManager(subsystem string, reg *prometheus.Registry) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		Registry: reg,
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of handled requests",
		}, []string{"method", "route", "status"}),
		CounterLogins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "admin_logins_total",
			Help:      "Admin login attempts by outcome",
		}, []string{"outcome"}),
		CounterSessionChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "admin_session_checks_total",
			Help:      "Admin session validations by outcome",
		}, []string{"outcome"}),
		CounterRateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rate_limited_requests_total",
			Help:      "The total number of rate limited requests",
		}),
		CounterRegistrations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "registrations_total",
			Help:      "The total number of accepted registrations",
		}),
		CounterPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handler_panics_total",
			Help:      "The total number of recovered handler panics",
		}),
		GaugeRateLimitKeys: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rate_limit_keys",
			Help:      "Keys tracked by the in-process rate limiter after the last sweep",
		}),
		HistogramRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}
