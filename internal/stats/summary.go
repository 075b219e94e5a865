package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// VaRPercentile is the tail percentile reported as VaR95.
const VaRPercentile = 5.0

var (
	ErrInvalidInput    = errors.New("invalid input: no final prices")
	ErrPercentileRange = errors.New("percentile out of range [0, 100]")
	ErrInvalidBinCount = errors.New("histogram needs at least one bin")
)

// Summary is the fixed set of statistics derived from the final prices.
type Summary struct {
	ExpectedPrice float64 `json:"expected_price" yaml:"expected_price"`
	VaR95         float64 `json:"var95" yaml:"var95"`
	MinPrice      float64 `json:"min_price" yaml:"min_price"`
	MaxPrice      float64 `json:"max_price" yaml:"max_price"`
}

// Summarize reduces the final prices of an ensemble. The input is not
// modified.
func Summarize(final []float64) (Summary, error) {
	if len(final) == 0 {
		return Summary{}, ErrInvalidInput
	}

	sorted := slices.Clone(final)
	slices.Sort(sorted)

	return Summary{
		ExpectedPrice: stat.Mean(final, nil),
		VaR95:         percentileSorted(sorted, VaRPercentile),
		MinPrice:      floats.Min(final),
		MaxPrice:      floats.Max(final),
	}, nil
}

// Percentile returns the p-th percentile of values using linear
// interpolation between the two bracketing order statistics, with rank
// p/100*(n-1).
func Percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrInvalidInput
	}
	if math.IsNaN(p) || p < 0 || p > 100 {
		return 0, fmt.Errorf("%w: %v", ErrPercentileRange, p)
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return percentileSorted(sorted, p), nil
}

func percentileSorted(sorted []float64, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
