package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Panel metrics
	PanelsActive prometheus.Gauge
	PanelsTotal  prometheus.Counter

	// Port metrics
	Polls           *prometheus.CounterVec
	PollDuration    prometheus.Histogram
	DiscoveredPorts prometheus.Gauge
	DiscoveryTime   prometheus.Histogram

	// State metrics
	StateOps *prometheus.CounterVec

	// Proxy metrics
	ProxyRequests *prometheus.CounterVec
	ProxyDuration *prometheus.HistogramVec

	// Resilience metrics
	BreakerTransitions *prometheus.CounterVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActivePanels      int64   `json:"active_panels"`
	ActiveConnections int64   `json:"active_connections"`
	TotalDuration     float64 `json:"-"` // sum of all request durations
	RequestCount      int64   `json:"-"` // count for averaging
	AvgLatencyMs      float64 `json:"avg_latency_ms"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector on its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "localbrowser_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "localbrowser_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "localbrowser_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "localbrowser_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Panel metrics
		PanelsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "localbrowser_panels_active",
				Help: "Number of open panels",
			},
		),
		PanelsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "localbrowser_panels_opened_total",
				Help: "Total number of panels opened",
			},
		),

		// Port metrics
		Polls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "localbrowser_port_polls_total",
				Help: "Port directory polls by outcome (success, error, stale)",
			},
			[]string{"status"},
		),
		PollDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "localbrowser_port_poll_duration_seconds",
				Help:    "Port directory poll duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		DiscoveredPorts: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "localbrowser_discovered_ports",
				Help: "Number of ports in the last open-ports response",
			},
		),
		DiscoveryTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "localbrowser_port_discovery_duration_seconds",
				Help:    "Socket enumeration duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),

		// State metrics
		StateOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "localbrowser_state_operations_total",
				Help: "Panel state store operations",
			},
			[]string{"op", "status"},
		),

		// Proxy metrics
		ProxyRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "localbrowser_proxy_requests_total",
				Help: "Total number of proxied requests",
			},
			[]string{"mode", "status"},
		),
		ProxyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "localbrowser_proxy_duration_seconds",
				Help:    "Proxied request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"mode"},
		),

		// Resilience metrics
		BreakerTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "localbrowser_breaker_transitions_total",
				Help: "Circuit breaker state transitions",
			},
			[]string{"name", "from", "to"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "localbrowser_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "localbrowser_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "localbrowser_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status[0] == '4' || status[0] == '5' {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// PanelOpened counts a newly opened panel
func (m *Metrics) PanelOpened() {
	m.PanelsActive.Inc()
	m.PanelsTotal.Inc()
	m.mu.Lock()
	m.snapshot.ActivePanels++
	m.mu.Unlock()
}

// PanelClosed counts a closed panel
func (m *Metrics) PanelClosed() {
	m.PanelsActive.Dec()
	m.mu.Lock()
	m.snapshot.ActivePanels--
	m.mu.Unlock()
}

// RecordPoll records one port directory poll
func (m *Metrics) RecordPoll(status string, duration time.Duration) {
	m.Polls.WithLabelValues(status).Inc()
	m.PollDuration.Observe(duration.Seconds())
}

// RecordDiscovery records one socket enumeration
func (m *Metrics) RecordDiscovery(count int, duration time.Duration) {
	m.DiscoveredPorts.Set(float64(count))
	m.DiscoveryTime.Observe(duration.Seconds())
}

// RecordStateOp records a state store operation
func (m *Metrics) RecordStateOp(op, status string) {
	m.StateOps.WithLabelValues(op, status).Inc()
}

// RecordProxy records a proxied request
func (m *Metrics) RecordProxy(mode, status string, duration time.Duration) {
	m.ProxyRequests.WithLabelValues(mode, status).Inc()
	m.ProxyDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordBreakerTransition records a circuit breaker state change
func (m *Metrics) RecordBreakerTransition(name, from, to string) {
	m.BreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}
