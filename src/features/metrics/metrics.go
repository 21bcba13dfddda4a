package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pluginreloader"

// Collector exposes the watcher's activity as Prometheus metrics.
// A nil *Collector is valid and records nothing.
type Collector struct {
	cycles               prometheus.Counter
	cyclesSkipped        prometheus.Counter
	cycleDuration        prometheus.Histogram
	events               *prometheus.CounterVec
	reactionFailures     *prometheus.CounterVec
	directoryUnavailable prometheus.Counter
	tracked              prometheus.Gauge
	enabled              prometheus.Gauge
}

// NewCollector creates the watcher metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Number of completed poll cycles.",
		}),
		cyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_skipped_total",
			Help:      "Number of cycles skipped because another cycle was still running.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a scan, diff and react cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "Detected archive changes by kind.",
		}, []string{"kind"}),
		reactionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaction_failures_total",
			Help:      "Failed reload, notify or record calls.",
		}, []string{"stage"}),
		directoryUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_unavailable_total",
			Help:      "Cycles that could not read the watched directory.",
		}),
		tracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_files",
			Help:      "Number of archives in the snapshot.",
		}),
		enabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "auto_reload_enabled",
			Help:      "1 when the poll loop is running.",
		}),
	}

	reg.MustRegister(c.cycles, c.cyclesSkipped, c.cycleDuration, c.events,
		c.reactionFailures, c.directoryUnavailable, c.tracked, c.enabled)
	return c
}

// CycleCompleted records a finished cycle and the resulting snapshot size.
func (c *Collector) CycleCompleted(duration time.Duration, tracked int) {
	if c == nil {
		return
	}
	c.cycles.Inc()
	c.cycleDuration.Observe(duration.Seconds())
	c.tracked.Set(float64(tracked))
}

// CycleSkipped records a tick dropped because a cycle was in flight.
func (c *Collector) CycleSkipped() {
	if c == nil {
		return
	}
	c.cyclesSkipped.Inc()
}

// ChangeDetected counts one change event.
func (c *Collector) ChangeDetected(kind string) {
	if c == nil {
		return
	}
	c.events.WithLabelValues(kind).Inc()
}

// ReactionFailed counts a failed side effect.
func (c *Collector) ReactionFailed(stage string) {
	if c == nil {
		return
	}
	c.reactionFailures.WithLabelValues(stage).Inc()
}

// DirectoryUnavailable counts a cycle that could not list the directory.
func (c *Collector) DirectoryUnavailable() {
	if c == nil {
		return
	}
	c.directoryUnavailable.Inc()
}

// SetEnabled mirrors the auto-reload state.
func (c *Collector) SetEnabled(enabled bool) {
	if c == nil {
		return
	}
	if enabled {
		c.enabled.Set(1)
	} else {
		c.enabled.Set(0)
	}
}

// SetTracked sets the snapshot size.
func (c *Collector) SetTracked(n int) {
	if c == nil {
		return
	}
	c.tracked.Set(float64(n))
}
