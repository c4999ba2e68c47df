package api

import (
	"sync"
	"time"
)

// AlertType identifies the kind of anomaly detected.
type AlertType string

const (
	AlertLoginFailureSpike    AlertType = "login_failure_spike"
	AlertUpstreamFailureSpike AlertType = "upstream_failure_spike"
)

// AlertEvent describes an anomaly that triggered an alert.
type AlertEvent struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertFunc is the callback invoked when an anomaly is detected.
type AlertFunc func(AlertEvent)

// window is a sliding count of event times.
type window struct {
	times     []time.Time
	span      time.Duration
	threshold int
}

// metricsCollector tracks sliding window counters for anomaly detection.
type metricsCollector struct {
	mu sync.Mutex

	loginFailures    window
	upstreamFailures window

	now     func() time.Time
	alertFn AlertFunc
}

const (
	defaultLoginFailureWindow       = 1 * time.Minute
	defaultLoginFailureThreshold    = 50
	defaultUpstreamFailureWindow    = 5 * time.Minute
	defaultUpstreamFailureThreshold = 10
)

func newMetricsCollector(alertFn AlertFunc) *metricsCollector {
	return &metricsCollector{
		loginFailures:    window{span: defaultLoginFailureWindow, threshold: defaultLoginFailureThreshold},
		upstreamFailures: window{span: defaultUpstreamFailureWindow, threshold: defaultUpstreamFailureThreshold},
		now:              time.Now,
		alertFn:          alertFn,
	}
}

// recordEvent inspects an event and updates the relevant counters.
func (m *metricsCollector) recordEvent(event Event) {
	if m == nil || m.alertFn == nil {
		return
	}
	switch event {
	case EventLoginFailure:
		m.record(&m.loginFailures, AlertLoginFailureSpike, "login failure rate exceeds threshold")
	case EventQueryFailed:
		m.record(&m.upstreamFailures, AlertUpstreamFailureSpike, "agent upstream failure rate exceeds threshold")
	}
}

func (m *metricsCollector) record(w *window, typ AlertType, msg string) {
	m.mu.Lock()
	now := m.now()
	w.times = append(w.times, now)
	w.times = trimWindow(w.times, now, w.span)

	var alert *AlertEvent
	if len(w.times) >= w.threshold {
		alert = &AlertEvent{
			Type:      typ,
			Message:   msg,
			Count:     len(w.times),
			Threshold: w.threshold,
			Timestamp: now,
		}
		// Reset to avoid repeated alerts within the same spike.
		w.times = w.times[:0]
	}
	m.mu.Unlock()

	if alert != nil {
		m.alertFn(*alert)
	}
}

// trimWindow removes entries older than (now - window) from the sorted slice.
func trimWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	return times[start:]
}
