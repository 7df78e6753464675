package http

import (
	"github.com/GriffinCanCode/localbrowser/internal/infrastructure/monitoring"
)

// HandlerMetrics wraps handlers with metrics tracking
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper. A nil metrics is allowed.
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// TrackDiscovery times one discovery run; call the result with the number
// of ports found
func (hm *HandlerMetrics) TrackDiscovery() func(count int) {
	timer := monitoring.NewTimer()
	return func(count int) {
		if hm.metrics != nil {
			hm.metrics.RecordDiscovery(count, timer.Elapsed())
		}
	}
}

// Snapshot returns the current JSON metric values, or nil without metrics
func (hm *HandlerMetrics) Snapshot() *monitoring.MetricsSnapshot {
	if hm.metrics == nil {
		return nil
	}
	snap := hm.metrics.Snapshot()
	return &snap
}
