// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing, so callers never have to guard observations.
type Metrics struct {
	// Stream metrics
	EventsEmitted   prometheus.Counter
	ConnectAttempts prometheus.Counter
	WorkingSetSize  prometheus.Gauge
	StreamDelay     prometheus.Gauge

	// Fan-out metrics
	DestinationWrites *prometheus.CounterVec
	FanoutDuration    prometheus.Histogram

	// Dashboard metrics
	DashboardPolls       *prometheus.CounterVec
	DashboardSubscribers prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "payment_stream_lab"
	}

	return &Metrics{
		EventsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "events_emitted_total",
			Help:      "Total number of transaction events synthesized",
		}),
		ConnectAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "connect_attempts_total",
			Help:      "Total number of destination connection attempts",
		}),
		WorkingSetSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "working_set_size",
			Help:      "Number of sampled source records in the working set",
		}),
		StreamDelay: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "delay_seconds",
			Help:      "Configured delay between synthesized events",
		}),
		DestinationWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "destination_writes_total",
			Help:      "Total number of destination writes by table and outcome",
		}, []string{"destination", "outcome"}),
		FanoutDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fanout",
			Name:      "duration_seconds",
			Help:      "Wall time to complete all destination writes for one event",
			Buckets:   prometheus.DefBuckets,
		}),
		DashboardPolls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "polls_total",
			Help:      "Total number of dashboard poll cycles by outcome",
		}, []string{"outcome"}),
		DashboardSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dashboard",
			Name:      "subscribers",
			Help:      "Number of connected dashboard websocket subscribers",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveEventEmitted increments the emitted event counter.
func (m *Metrics) ObserveEventEmitted() {
	if m == nil {
		return
	}
	m.EventsEmitted.Inc()
}

// ObserveConnectAttempt increments the connection attempt counter.
func (m *Metrics) ObserveConnectAttempt() {
	if m == nil {
		return
	}
	m.ConnectAttempts.Inc()
}

// SetWorkingSetSize records the sampled working set size.
func (m *Metrics) SetWorkingSetSize(n int) {
	if m == nil {
		return
	}
	m.WorkingSetSize.Set(float64(n))
}

// SetStreamDelay records the configured inter-event delay.
func (m *Metrics) SetStreamDelay(d time.Duration) {
	if m == nil {
		return
	}
	m.StreamDelay.Set(d.Seconds())
}

// ObserveDestinationWrite records one destination write outcome.
func (m *Metrics) ObserveDestinationWrite(destination string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.DestinationWrites.WithLabelValues(destination, outcome).Inc()
}

// ObserveFanout records the wall time of one complete fan-out.
func (m *Metrics) ObserveFanout(d time.Duration) {
	if m == nil {
		return
	}
	m.FanoutDuration.Observe(d.Seconds())
}

// ObserveDashboardPoll records one dashboard poll cycle outcome.
func (m *Metrics) ObserveDashboardPoll(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.DashboardPolls.WithLabelValues(outcome).Inc()
}

// AddDashboardSubscribers adjusts the subscriber gauge.
func (m *Metrics) AddDashboardSubscribers(delta int) {
	if m == nil {
		return
	}
	m.DashboardSubscribers.Add(float64(delta))
}
