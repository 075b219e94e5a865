package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"mcsim/internal/gbm"
	"mcsim/internal/logging"
	"mcsim/internal/metrics"
	"mcsim/internal/stats"
)

func newRunner(buf *bytes.Buffer, workers int) (*Runner, *metrics.Recorder) {
	rec := metrics.New()
	log := logging.New(buf, "debug", "text")
	return New(gbm.NewSimulator(gbm.WithWorkers(workers)), log, rec), rec
}

func TestRun(t *testing.T) {
	var logs bytes.Buffer
	r, rec := newRunner(&logs, 4)

	p := gbm.NewParameters(100, 0.05, 0.2, 252, 1000)
	res, err := r.Run(context.Background(), p, 7)
	if err != nil {
		t.Fatal(err)
	}

	if res.Paths.Days() != 252 || res.Paths.Paths() != 1000 || len(res.Final) != 1000 {
		t.Fatalf("unexpected result shape: %dx%d final=%d", res.Paths.Days(), res.Paths.Paths(), len(res.Final))
	}
	want, err := stats.Summarize(res.Paths.FinalPrices())
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary != want {
		t.Fatalf("summary = %+v, want %+v", res.Summary, want)
	}
	if !(res.Summary.MinPrice <= res.Summary.VaR95 && res.Summary.VaR95 <= res.Summary.ExpectedPrice) {
		t.Fatalf("implausible ordering: %+v", res.Summary)
	}
	if !strings.Contains(logs.String(), "simulation complete") {
		t.Fatalf("missing completion log:\n%s", logs.String())
	}

	assertMetric(t, rec, `mcsim_runs_total{outcome="ok"} 1`)
	assertMetric(t, rec, "mcsim_normal_draws_total 251000")
}

func TestRunIsReproducible(t *testing.T) {
	var logs bytes.Buffer
	r1, _ := newRunner(&logs, 1)
	r8, _ := newRunner(&logs, 8)
	p := gbm.NewParameters(100, 0.05, 0.2, 100, 500)

	a, err := r1.Run(context.Background(), p, 99)
	if err != nil {
		t.Fatal(err)
	}
	b, err := r8.Run(context.Background(), p, 99)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Final {
		if math.Float64bits(a.Final[i]) != math.Float64bits(b.Final[i]) {
			t.Fatalf("final[%d]: %v != %v", i, a.Final[i], b.Final[i])
		}
	}
}

func TestRunFailures(t *testing.T) {
	var logs bytes.Buffer
	r, rec := newRunner(&logs, 1)

	res, err := r.Run(context.Background(), gbm.NewParameters(100, 0.05, 0.2, 0, 10), 1)
	if !errors.Is(err, gbm.ErrInvalidParameter) || res != nil {
		t.Fatalf("res = %v err = %v, want ErrInvalidParameter", res, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err = r.Run(ctx, gbm.NewParameters(100, 0.05, 0.2, 10, 10), 1)
	if !errors.Is(err, context.Canceled) || res != nil {
		t.Fatalf("res = %v err = %v, want context.Canceled", res, err)
	}
	if !strings.Contains(logs.String(), "simulation failed") {
		t.Fatalf("missing failure log:\n%s", logs.String())
	}
	assertMetric(t, rec, `mcsim_runs_total{outcome="invalid"} 1`)
	assertMetric(t, rec, `mcsim_runs_total{outcome="cancelled"} 1`)
}

func TestOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("simulate: %w", &gbm.ParameterError{Field: "days"}), "invalid"},
		{stats.ErrInvalidInput, "invalid"},
		{context.Canceled, "cancelled"},
		{context.DeadlineExceeded, "timeout"},
		{errors.New("boom"), "error"},
	}
	for _, tc := range cases {
		if got := Outcome(tc.err); got != tc.want {
			t.Fatalf("Outcome(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func assertMetric(t *testing.T, rec *metrics.Recorder, line string) {
	t.Helper()
	var buf bytes.Buffer
	if err := rec.WriteText(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), line) {
		t.Fatalf("metrics missing %q:\n%s", line, buf.String())
	}
}
