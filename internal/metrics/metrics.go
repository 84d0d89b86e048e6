package metrics

import (
	"time"

	"github.com/newthinker/trendbot/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics for the scrape endpoint
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Trading metrics
	signalsTotal    *prometheus.CounterVec
	tradesTotal     *prometheus.CounterVec
	balance         prometheus.Gauge
	stepDuration    prometheus.Histogram
	persistFailures prometheus.Counter
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

	r.signalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendbot_signals_total",
			Help: "Total number of evaluated signals by action",
		},
		[]string{"action"},
	)
	r.tradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendbot_trades_total",
			Help: "Total number of ledger trades by event kind",
		},
		[]string{"kind"},
	)
	r.balance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trendbot_balance",
			Help: "Ledger cash balance after the latest trade",
		},
	)
	r.stepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trendbot_step_duration_seconds",
			Help:    "Duration of one per-instrument pipeline step",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
	r.persistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trendbot_persist_failures_total",
			Help: "Total number of ledger snapshots that could not be saved",
		},
	)

	reg.MustRegister(r.signalsTotal)
	reg.MustRegister(r.tradesTotal)
	reg.MustRegister(r.balance)
	reg.MustRegister(r.stepDuration)
	reg.MustRegister(r.persistFailures)

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

// RecordSignal counts an evaluated signal.
func (r *Registry) RecordSignal(action string) {
	r.signalsTotal.WithLabelValues(action).Inc()
}

// ObserveStep records how long one pipeline step took.
func (r *Registry) ObserveStep(d time.Duration) {
	r.stepDuration.Observe(d.Seconds())
}

// SetBalance sets the balance gauge.
func (r *Registry) SetBalance(balance float64) {
	r.balance.Set(balance)
}

// Emit lets the registry observe ledger events directly.
func (r *Registry) Emit(e events.Event) {
	if e.Kind == events.KindPersistFailed {
		r.persistFailures.Inc()
		return
	}
	r.tradesTotal.WithLabelValues(string(e.Kind)).Inc()
	r.balance.Set(e.Balance)
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
