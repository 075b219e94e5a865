package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mcsim/internal/gbm"
	"mcsim/internal/metrics"
	"mcsim/internal/stats"

	"github.com/sirupsen/logrus"
)

// Result is everything one run produces.
type Result struct {
	Params  gbm.Parameters
	Seed    uint64
	Paths   *gbm.PathMatrix
	Final   []float64
	Summary stats.Summary
	Elapsed time.Duration
}

// Runner simulates an ensemble and summarizes its final prices.
type Runner struct {
	sim     *gbm.Simulator
	log     *logrus.Logger
	metrics *metrics.Recorder
}

func New(sim *gbm.Simulator, log *logrus.Logger, rec *metrics.Recorder) *Runner {
	return &Runner{sim: sim, log: log, metrics: rec}
}

// Run seeds a fresh source, simulates and summarizes. Nothing is returned
// unless the whole run succeeds.
func (r *Runner) Run(ctx context.Context, p gbm.Parameters, seed uint64) (*Result, error) {
	entry := r.log.WithFields(logrus.Fields{
		"days":  p.Days,
		"paths": p.Paths,
		"seed":  seed,
	})
	entry.Debugf("starting simulation: %s", p)

	start := time.Now()
	m, err := r.sim.Simulate(ctx, p, gbm.NewSource(seed))
	if err != nil {
		r.fail(entry, err, time.Since(start))
		return nil, fmt.Errorf("simulate: %w", err)
	}

	final := m.FinalPrices()
	summary, err := stats.Summarize(final)
	if err != nil {
		r.fail(entry, err, time.Since(start))
		return nil, fmt.Errorf("summarize: %w", err)
	}
	elapsed := time.Since(start)

	r.metrics.Success(p.Draws(), p.Days*p.Paths, elapsed, summary.ExpectedPrice, summary.VaR95)
	entry.WithFields(logrus.Fields{
		"expected": summary.ExpectedPrice,
		"var95":    summary.VaR95,
		"elapsed":  elapsed,
	}).Info("simulation complete")

	return &Result{
		Params:  p,
		Seed:    seed,
		Paths:   m,
		Final:   final,
		Summary: summary,
		Elapsed: elapsed,
	}, nil
}

func (r *Runner) fail(entry *logrus.Entry, err error, elapsed time.Duration) {
	outcome := Outcome(err)
	r.metrics.Failure(outcome, elapsed)
	entry.WithError(err).WithField("outcome", outcome).Error("simulation failed")
}

// Outcome classifies a run error into a metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gbm.ErrInvalidParameter), errors.Is(err, stats.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// SeedFromClock picks a seed when the user did not supply one.
func SeedFromClock() uint64 {
	return uint64(time.Now().UnixNano())
}
