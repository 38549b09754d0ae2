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

	// Dashboard metrics
	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	flowsTotal      *prometheus.CounterVec
	staleFlows      *prometheus.CounterVec
	chartRenders    *prometheus.CounterVec
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

	// Dashboard metrics
	r.backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtfdash_backend_requests_total",
			Help: "Total number of requests to the results backend",
		},
		[]string{"endpoint", "status"},
	)
	r.backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mtfdash_backend_request_duration_seconds",
			Help:    "Results backend request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	r.flowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtfdash_flows_total",
			Help: "Total number of dashboard flows by outcome",
		},
		[]string{"flow", "result"},
	)
	r.staleFlows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtfdash_stale_flows_total",
			Help: "Total number of flows discarded because a newer selection superseded them",
		},
		[]string{"flow"},
	)
	r.chartRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mtfdash_chart_renders_total",
			Help: "Total number of chart panel renders",
		},
		[]string{"panel"},
	)

	reg.MustRegister(r.backendRequests)
	reg.MustRegister(r.backendDuration)
	reg.MustRegister(r.flowsTotal)
	reg.MustRegister(r.staleFlows)
	reg.MustRegister(r.chartRenders)

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

// ObserveBackendRequest records a results backend call. A status of 0
// means the request failed before a response arrived.
func (r *Registry) ObserveBackendRequest(endpoint string, status int, duration time.Duration) {
	statusStr := "error"
	if status > 0 {
		statusStr = statusToString(status)
	}
	r.backendRequests.WithLabelValues(endpoint, statusStr).Inc()
	r.backendDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveFlow records the outcome of a dashboard flow.
func (r *Registry) ObserveFlow(flow, result string) {
	r.flowsTotal.WithLabelValues(flow, result).Inc()
}

// ObserveStaleFlow records a discarded flow.
func (r *Registry) ObserveStaleFlow(flow string) {
	r.staleFlows.WithLabelValues(flow).Inc()
}

// ObserveChartRender records a chart panel render.
func (r *Registry) ObserveChartRender(panel string) {
	r.chartRenders.WithLabelValues(panel).Inc()
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
