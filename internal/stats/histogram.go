package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Histogram counts values into equal-width bins spanning [min, max]. The
// last bin is closed on the right so the maximum is counted.
type Histogram struct {
	Edges  []float64
	Counts []int
}

func NewHistogram(values []float64, bins int) (Histogram, error) {
	if len(values) == 0 {
		return Histogram{}, ErrInvalidInput
	}
	if bins < 1 {
		return Histogram{}, fmt.Errorf("%w: %d", ErrInvalidBinCount, bins)
	}

	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		// degenerate range, widen so every value lands in bin 0
		hi = lo + 1
		if lo != 0 {
			hi = lo + math.Abs(lo)*1e-9
		}
	}

	h := Histogram{
		Edges:  make([]float64, bins+1),
		Counts: make([]int, bins),
	}
	floats.Span(h.Edges, lo, hi)

	for _, v := range values {
		h.Counts[h.BinOf(v)]++
	}
	return h, nil
}

func (h Histogram) Bins() int {
	return len(h.Counts)
}

// BinOf returns the index of the bin holding x. Values outside the range are
// clamped to the first or last bin.
func (h Histogram) BinOf(x float64) int {
	n := len(h.Counts)
	lo, hi := h.Edges[0], h.Edges[n]
	if x <= lo {
		return 0
	}
	if x >= hi {
		return n - 1
	}
	i := int((x - lo) / (hi - lo) * float64(n))
	return min(i, n-1)
}

// Center returns the midpoint of bin i.
func (h Histogram) Center(i int) float64 {
	return (h.Edges[i] + h.Edges[i+1]) / 2
}

func (h Histogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// Max returns the largest bin count.
func (h Histogram) Max() int {
	m := 0
	for _, c := range h.Counts {
		m = max(m, c)
	}
	return m
}
