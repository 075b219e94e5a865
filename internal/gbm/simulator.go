package gbm

import (
	"context"
	"math"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// RandomSource supplies standard normal samples. *rand.Rand from
// golang.org/x/exp/rand, math/rand and math/rand/v2 all satisfy it.
type RandomSource interface {
	NormFloat64() float64
}

// NewSource returns a seeded generator. Two sources built from the same seed
// produce the same sequence.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// minColumnsPerWorker keeps tiny rows on the calling goroutine.
const minColumnsPerWorker = 2

type Option func(*Simulator)

// WithWorkers spreads the columns of each day step over n goroutines.
func WithWorkers(n int) Option {
	return func(s *Simulator) {
		if n < 1 {
			n = 1
		}
		s.workers = n
	}
}

// Simulator generates ensembles of GBM price paths.
type Simulator struct {
	workers int
}

func NewSimulator(opts ...Option) *Simulator {
	s := &Simulator{workers: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate runs a single-threaded simulation with no cancellation.
func Simulate(p Parameters, rng RandomSource) (*PathMatrix, error) {
	return NewSimulator().Simulate(context.Background(), p, rng)
}

// Simulate builds a Days x Paths matrix of prices. Row 0 is S0. Each later
// row draws Paths normals from rng, in column order, and advances every
// column by the exact GBM step. Exactly Paths*(Days-1) draws are consumed,
// day by day, always on the calling goroutine, so a seeded rng yields the
// same matrix whatever the worker count.
//
// ctx is checked between days. A cancelled run returns no matrix.
func (s *Simulator) Simulate(ctx context.Context, p Parameters, rng RandomSource) (*PathMatrix, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m := newPathMatrix(p.Days, p.Paths)
	first := m.row(0)
	for i := range first {
		first[i] = p.S0
	}

	drift := (p.Mu - 0.5*p.Sigma*p.Sigma) * p.DT
	diffusion := p.Sigma * math.Sqrt(p.DT)
	z := make([]float64, p.Paths)

	for t := 1; t < p.Days; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i := range z {
			z[i] = rng.NormFloat64()
		}

		prev, cur := m.row(t-1), m.row(t)

		if p.Sigma == 0 {
			// The noise term vanishes; use the closed form so every column
			// equals S0*exp(mu*dt*t) exactly.
			v := p.S0 * math.Exp(p.Mu*p.DT*float64(t))
			for i := range cur {
				cur[i] = v
			}
			continue
		}

		if err := s.advance(prev, cur, z, drift, diffusion); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// advance writes one day. Returning from it is the day barrier: every column
// of cur is committed before the next day reads it.
func (s *Simulator) advance(prev, cur, z []float64, drift, diffusion float64) error {
	n := len(cur)
	workers := s.workers
	if workers > n/minColumnsPerWorker {
		workers = n / minColumnsPerWorker
	}
	if workers <= 1 {
		step(prev, cur, z, drift, diffusion, 0, n)
		return nil
	}

	var g errgroup.Group
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			step(prev, cur, z, drift, diffusion, lo, hi)
			return nil
		})
	}
	return g.Wait()
}

func step(prev, cur, z []float64, drift, diffusion float64, lo, hi int) {
	for i := lo; i < hi; i++ {
		v := prev[i] * math.Exp(drift+diffusion*z[i])
		if v <= 0 {
			v = math.SmallestNonzeroFloat64
		}
		cur[i] = v
	}
}
