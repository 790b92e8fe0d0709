// Package metrics exposes Prometheus instrumentation for the DistroBoard
// poll loop and command handlers.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// guard their calls.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "distroboard"

// Tick results recorded by [Metrics.Tick].
const (
	TickOK      = "ok"
	TickError   = "error"
	TickSkipped = "skipped"
	TickStale   = "stale"
)

// Metrics groups the collectors of one dashboard instance.
type Metrics struct {
	gatherer prometheus.Gatherer

	ticks            *prometheus.CounterVec
	scanDuration     prometheus.Histogram
	records          prometheus.Gauge
	running          prometheus.Gauge
	sessionStarts    prometheus.Counter
	blockingRequests *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
//
// Collectors that are already registered are reused, so registering twice
// against the same registry is harmless.
func New(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		gatherer: reg,
		ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "poll",
				Name:      "ticks_total",
				Help:      "Poll ticks by result (ok, error, skipped, stale).",
			}, []string{"result"},
		),
		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "poll",
				Name:      "scan_duration_seconds",
				Help:      "Duration of full table scans.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		records: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "records",
				Help:      "Number of endpoint records currently displayed.",
			},
		),
		running: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "running",
				Help:      "1 while a polling session is running.",
			},
		),
		sessionStarts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "starts_total",
				Help:      "Number of session starts, including restarts.",
			},
		),
		blockingRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocking_requests_total",
				Help:      "Blocking toggle requests by action and outcome.",
			}, []string{"action", "outcome"},
		),
	}

	if err := m.register(reg); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) register(reg prometheus.Registerer) error {
	register := func(c prometheus.Collector) (prometheus.Collector, error) {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				return are.ExistingCollector, nil
			}
			return nil, err
		}
		return c, nil
	}

	c, err := register(m.ticks)
	if err != nil {
		return err
	}
	m.ticks = c.(*prometheus.CounterVec)

	if c, err = register(m.scanDuration); err != nil {
		return err
	}
	m.scanDuration = c.(prometheus.Histogram)

	if c, err = register(m.records); err != nil {
		return err
	}
	m.records = c.(prometheus.Gauge)

	if c, err = register(m.running); err != nil {
		return err
	}
	m.running = c.(prometheus.Gauge)

	if c, err = register(m.sessionStarts); err != nil {
		return err
	}
	m.sessionStarts = c.(prometheus.Counter)

	if c, err = register(m.blockingRequests); err != nil {
		return err
	}
	m.blockingRequests = c.(*prometheus.CounterVec)

	return nil
}

// Handler returns an http.Handler serving the registry the metrics were
// registered with.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return nil
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Tick counts one poll tick with the given result.
func (m *Metrics) Tick(result string) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(result).Inc()
}

// ObserveScan records the duration of a table scan.
func (m *Metrics) ObserveScan(d time.Duration) {
	if m == nil {
		return
	}
	m.scanDuration.Observe(d.Seconds())
}

// SetRecords sets the displayed record count.
func (m *Metrics) SetRecords(n int) {
	if m == nil {
		return
	}
	m.records.Set(float64(n))
}

// SetRunning records whether a session is running.
func (m *Metrics) SetRunning(running bool) {
	if m == nil {
		return
	}
	var v float64
	if running {
		v = 1
	}
	m.running.Set(v)
}

// SessionStarted counts a session start.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionStarts.Inc()
}

// BlockingRequest counts a blocking toggle request.
func (m *Metrics) BlockingRequest(action, outcome string) {
	if m == nil {
		return
	}
	m.blockingRequests.WithLabelValues(action, outcome).Inc()
}
