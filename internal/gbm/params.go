package gbm

import (
	"errors"
	"fmt"
	"math"
)

// TradingDayFraction is the length of one simulated day as a fraction of a
// 252-day trading year.
const TradingDayFraction = 1.0 / 252

var ErrInvalidParameter = errors.New("invalid simulation parameter")

// ParameterError names the field that failed validation.
type ParameterError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s=%v %s", ErrInvalidParameter, e.Field, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// Parameters describes one simulation run. Days is T (rows of the path
// matrix) and Paths is N (columns).
type Parameters struct {
	S0    float64
	Mu    float64
	Sigma float64
	Days  int
	Paths int
	DT    float64
}

func NewParameters(s0, mu, sigma float64, days, paths int) Parameters {
	return Parameters{
		S0:    s0,
		Mu:    mu,
		Sigma: sigma,
		Days:  days,
		Paths: paths,
		DT:    TradingDayFraction,
	}
}

// Validate checks the preconditions of Simulate.
func (p Parameters) Validate() error {
	if p.Days < 1 {
		return &ParameterError{Field: "days", Value: p.Days, Reason: "must be at least 1"}
	}
	if p.Paths < 1 {
		return &ParameterError{Field: "paths", Value: p.Paths, Reason: "must be at least 1"}
	}

	floats := []struct {
		name string
		v    float64
	}{
		{"s0", p.S0},
		{"mu", p.Mu},
		{"sigma", p.Sigma},
		{"dt", p.DT},
	}
	for _, f := range floats {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &ParameterError{Field: f.name, Value: f.v, Reason: "must be finite"}
		}
	}

	if p.S0 <= 0 {
		return &ParameterError{Field: "s0", Value: p.S0, Reason: "must be positive"}
	}
	if p.DT <= 0 {
		return &ParameterError{Field: "dt", Value: p.DT, Reason: "must be positive"}
	}
	return nil
}

// Draws is the number of normal samples a run consumes.
func (p Parameters) Draws() int {
	return p.Paths * (p.Days - 1)
}

// Horizon is the simulated time span in years.
func (p Parameters) Horizon() float64 {
	return float64(p.Days-1) * p.DT
}

func (p Parameters) String() string {
	return fmt.Sprintf("s0=%.2f mu=%.4f sigma=%.4f days=%d paths=%d dt=%.6f",
		p.S0, p.Mu, p.Sigma, p.Days, p.Paths, p.DT)
}
