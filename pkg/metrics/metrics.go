package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Commit and decode result labels
const (
	ResultSuccess    = "success"
	ResultIncomplete = "incomplete"
	ResultFailed     = "failed"
	ResultBusy       = "busy"
	ResultNotFound   = "not_found"
	ResultError      = "error"
)

// ScannerMetrics groups the collectors of the scanner service. A nil
// *ScannerMetrics is valid and records nothing.
type ScannerMetrics struct {
	RequestCounter  *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
	Commits         *prometheus.CounterVec
	Decodes         *prometheus.CounterVec
	SessionsCreated prometheus.Counter
	ActiveCaptures  prometheus.Gauge
}

// NewScannerMetrics creates the collectors and registers them with reg
func NewScannerMetrics(reg prometheus.Registerer) *ScannerMetrics {
	m := &ScannerMetrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_service_requests_total",
				Help: "Total number of requests to scanner service",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scanner_service_request_duration_seconds",
				Help:    "Duration of scanner service requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		Commits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_commits_total",
				Help: "Scan commits by result",
			},
			[]string{"result"},
		),
		Decodes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scanner_decodes_total",
				Help: "Decode attempts by result",
			},
			[]string{"result"},
		),
		SessionsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scanner_sessions_created_total",
				Help: "Inventory sessions created lazily on initialization",
			},
		),
		ActiveCaptures: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scanner_active_captures",
				Help: "Capture controllers currently in scanning state",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.RequestCounter,
			m.RequestLatency,
			m.Commits,
			m.Decodes,
			m.SessionsCreated,
			m.ActiveCaptures,
		)
	}
	return m
}

// Commit records a commit outcome
func (m *ScannerMetrics) Commit(result string) {
	if m == nil {
		return
	}
	m.Commits.WithLabelValues(result).Inc()
}

// Decode records a decode attempt outcome
func (m *ScannerMetrics) Decode(result string) {
	if m == nil {
		return
	}
	m.Decodes.WithLabelValues(result).Inc()
}

// SessionCreated counts a lazily created session
func (m *ScannerMetrics) SessionCreated() {
	if m == nil {
		return
	}
	m.SessionsCreated.Inc()
}

// CaptureStarted increments the active capture gauge
func (m *ScannerMetrics) CaptureStarted() {
	if m == nil {
		return
	}
	m.ActiveCaptures.Inc()
}

// CaptureStopped decrements the active capture gauge
func (m *ScannerMetrics) CaptureStopped() {
	if m == nil {
		return
	}
	m.ActiveCaptures.Dec()
}
