// Package telemetry records calculation metrics.
package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector captures telemetry events emitted by the engine.
//
// Hooks run inline with Calculate, so implementations must be inexpensive
// and safe for concurrent use.
type Collector interface {
	RunCompleted(engineID string, ok bool, d time.Duration)
	InputRejected(engineID, input string)
}

type noopCollector struct{}

// Noop returns a collector that discards all metrics.
func Noop() Collector {
	return noopCollector{}
}

func (noopCollector) RunCompleted(string, bool, time.Duration) {}
func (noopCollector) InputRejected(string, string)             {}

// PrometheusCollector exposes calculation counters via Prometheus.
type PrometheusCollector struct {
	runs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	rejections *prometheus.CounterVec
}

// NewPrometheusCollector registers the required metrics with the provided
// registerer. Metrics already registered by an earlier collector are
// reused, so several engines may share one registry.
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calcengine_runs_total",
		Help: "Number of calculation runs per engine and result.",
	}, []string{"engine", "result"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calcengine_run_duration_seconds",
		Help:    "Time spent in Calculate per engine.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"engine"}))
	if err != nil {
		return nil, err
	}
	rejections, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calcengine_input_rejections_total",
		Help: "Number of raw inputs rejected by their schema.",
	}, []string{"engine", "input"}))
	if err != nil {
		return nil, err
	}

	return &PrometheusCollector{runs: runs, duration: duration, rejections: rejections}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

// RunCompleted counts a run and observes its duration.
func (p *PrometheusCollector) RunCompleted(engineID string, ok bool, d time.Duration) {
	if p == nil {
		return
	}
	result := "error"
	if ok {
		result = "ok"
	}
	p.runs.WithLabelValues(engineID, result).Inc()
	p.duration.WithLabelValues(engineID).Observe(d.Seconds())
}

// InputRejected counts a rejected input.
func (p *PrometheusCollector) InputRejected(engineID, input string) {
	if p == nil {
		return
	}
	p.rejections.WithLabelValues(engineID, input).Inc()
}
