// Package metrics provides Prometheus metrics for the log watcher.
//
// All recording methods are safe to call on a nil *Collector, so components
// can run without metrics in tests and in the CLI.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fallguys"

// Collector holds the watcher's Prometheus metrics.
type Collector struct {
	registry *prometheus.Registry

	linesRead       prometheus.Counter
	linesBuffered   prometheus.Counter
	logRotations    prometheus.Counter
	fileSwitches    prometheus.Counter
	tailErrors      prometheus.Counter
	linesParsed     prometheus.Counter
	parseErrors     prometheus.Counter
	transitions     *prometheus.CounterVec
	roundsCompleted prometheus.Counter
	showsCompleted  prometheus.Counter
	lastPing        prometheus.Gauge
	tickDuration    prometheus.Histogram
	drainSize       prometheus.Histogram
}

// NewCollector creates a Collector registered on its own registry.
func NewCollector() *Collector {
	return NewCollectorWithRegistry(prometheus.NewRegistry())
}

// NewCollectorWithRegistry creates a Collector registered on registry.
func NewCollectorWithRegistry(registry *prometheus.Registry) *Collector {
	c := &Collector{
		registry: registry,
		linesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_lines_read_total",
			Help:      "Physical log lines read by the tailer",
		}),
		linesBuffered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_lines_buffered_total",
			Help:      "Log lines (including merged blocks) handed to the parser",
		}),
		logRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_rotations_total",
			Help:      "Times the active log was detected as truncated or recreated",
		}),
		fileSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "log_file_switches_total",
			Help:      "Switches from the previous-session log to the live log",
		}),
		tailErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tail_errors_total",
			Help:      "Errors raised while reading the log",
		}),
		linesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parser_lines_total",
			Help:      "Log lines fed through the round state machine",
		}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parser_errors_total",
			Help:      "Log lines rejected by the round state machine",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parser_transitions_total",
			Help:      "State machine transitions by trigger",
		}, []string{"trigger"}),
		roundsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_completed_total",
			Help:      "Rounds emitted in completed batches",
		}),
		showsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shows_completed_total",
			Help:      "Shows resolved from an episode summary",
		}),
		lastPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_ping_milliseconds",
			Help:      "Most recent round trip time reported by the client",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parser_tick_duration_seconds",
			Help:      "Time spent processing one parser tick",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		drainSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parser_drain_size",
			Help:      "Number of lines drained from the buffer per tick",
			Buckets:   []float64{0, 1, 5, 25, 100, 500, 2500, 10000},
		}),
	}

	registry.MustRegister(
		c.linesRead,
		c.linesBuffered,
		c.logRotations,
		c.fileSwitches,
		c.tailErrors,
		c.linesParsed,
		c.parseErrors,
		c.transitions,
		c.roundsCompleted,
		c.showsCompleted,
		c.lastPing,
		c.tickDuration,
		c.drainSize,
	)

	return c
}

// Handler returns an HTTP handler exposing the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRead records a tailer pass that read lines and buffered records.
func (c *Collector) RecordRead(lines, buffered int) {
	if c == nil {
		return
	}
	c.linesRead.Add(float64(lines))
	c.linesBuffered.Add(float64(buffered))
}

// RecordRotation records a truncated or recreated log file.
func (c *Collector) RecordRotation() {
	if c == nil {
		return
	}
	c.logRotations.Inc()
}

// RecordFileSwitch records the switch from the previous-session log to the live log.
func (c *Collector) RecordFileSwitch() {
	if c == nil {
		return
	}
	c.fileSwitches.Inc()
}

// RecordTailError records a failed tailer pass.
func (c *Collector) RecordTailError() {
	if c == nil {
		return
	}
	c.tailErrors.Inc()
}

// RecordTick records one parser tick.
func (c *Collector) RecordTick(drained int, d time.Duration) {
	if c == nil {
		return
	}
	c.linesParsed.Add(float64(drained))
	c.drainSize.Observe(float64(drained))
	c.tickDuration.Observe(d.Seconds())
}

// RecordTransition records a state machine transition.
func (c *Collector) RecordTransition(trigger string) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(trigger).Inc()
}

// RecordParseError records a line the parser could not apply.
func (c *Collector) RecordParseError() {
	if c == nil {
		return
	}
	c.parseErrors.Inc()
}

// RecordShow records a resolved show and the number of rounds it completed.
func (c *Collector) RecordShow(rounds int) {
	if c == nil {
		return
	}
	c.showsCompleted.Inc()
	c.roundsCompleted.Add(float64(rounds))
}

// SetPing records the latest round trip time.
func (c *Collector) SetPing(ms int) {
	if c == nil {
		return
	}
	c.lastPing.Set(float64(ms))
}
