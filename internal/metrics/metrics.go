package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Simulation metrics
	backtestsTotal   *prometheus.CounterVec
	backtestDuration *prometheus.HistogramVec
	ordersTotal      *prometheus.CounterVec
	archivedRuns     *prometheus.CounterVec
	jobsActive       *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingbot_backtests_total",
			Help: "Total number of backtest runs",
		},
		[]string{"strategy", "status"},
	)
	r.backtestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swingbot_backtest_duration_seconds",
			Help:    "Backtest duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"strategy"},
	)
	r.ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingbot_orders_total",
			Help: "Order intents processed by the simulated broker",
		},
		[]string{"kind", "status"},
	)
	r.archivedRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swingbot_archived_runs_total",
			Help: "Runs written to the result archive",
		},
		[]string{"status"},
	)
	r.jobsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "swingbot_jobs_active",
			Help: "Number of active jobs",
		},
		[]string{"type"},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)
	reg.MustRegister(r.ordersTotal)
	reg.MustRegister(r.archivedRuns)
	reg.MustRegister(r.jobsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records a finished backtest run.
func (r *Registry) RecordBacktest(strategy, status string, duration time.Duration) {
	r.backtestsTotal.WithLabelValues(strategy, status).Inc()
	r.backtestDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}

// RecordOrder records the outcome of one order intent.
func (r *Registry) RecordOrder(kind, status string) {
	r.ordersTotal.WithLabelValues(kind, status).Inc()
}

// RecordArchive records a result archive write.
func (r *Registry) RecordArchive(status string) {
	r.archivedRuns.WithLabelValues(status).Inc()
}

// SetJobsActive sets the number of active jobs of a type.
func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
