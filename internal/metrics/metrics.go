package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "mcsim"

// Recorder holds the collectors for simulation runs on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	draws    prometheus.Counter
	cells    prometheus.Counter
	duration prometheus.Histogram
	lastVaR  prometheus.Gauge
	lastMean prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Simulation runs by outcome.",
		}, []string{"outcome"}),
		draws: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "normal_draws_total",
			Help:      "Standard normal samples consumed.",
		}),
		cells: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "path_cells_total",
			Help:      "Prices written to path matrices.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a simulate plus summarize run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		lastVaR: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_var95_price",
			Help:      "5th percentile of final prices in the last successful run.",
		}),
		lastMean: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_expected_price",
			Help:      "Mean final price in the last successful run.",
		}),
	}

	r.registry.MustRegister(r.runs, r.draws, r.cells, r.duration, r.lastVaR, r.lastMean)
	return r
}

// Success records a completed run.
func (r *Recorder) Success(draws, cells int, elapsed time.Duration, expected, var95 float64) {
	r.runs.WithLabelValues("ok").Inc()
	r.draws.Add(float64(draws))
	r.cells.Add(float64(cells))
	r.duration.Observe(elapsed.Seconds())
	r.lastMean.Set(expected)
	r.lastVaR.Set(var95)
}

// Failure records a run that returned an error. outcome is a short label
// such as "invalid" or "cancelled".
func (r *Recorder) Failure(outcome string, elapsed time.Duration) {
	r.runs.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteText dumps every family in the text exposition format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
