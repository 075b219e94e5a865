package gbm

import (
	"gonum.org/v1/gonum/mat"
)

// PathMatrix holds one price per (day, trajectory). Rows are days, columns
// are trajectories. The accessors return copies so a returned matrix cannot
// be altered by its readers.
type PathMatrix struct {
	data *mat.Dense
}

func newPathMatrix(days, paths int) *PathMatrix {
	return &PathMatrix{data: mat.NewDense(days, paths, nil)}
}

func (m *PathMatrix) Days() int {
	r, _ := m.data.Dims()
	return r
}

func (m *PathMatrix) Paths() int {
	_, c := m.data.Dims()
	return c
}

func (m *PathMatrix) At(day, path int) float64 {
	return m.data.At(day, path)
}

func (m *PathMatrix) Row(day int) []float64 {
	return mat.Row(nil, day, m.data)
}

// Trajectory returns the prices of one simulated path across all days.
func (m *PathMatrix) Trajectory(path int) []float64 {
	return mat.Col(nil, path, m.data)
}

// FinalPrices returns the last row.
func (m *PathMatrix) FinalPrices() []float64 {
	return m.Row(m.Days() - 1)
}

// Trajectories returns the first limit columns, each as a day-indexed
// series. A limit <= 0 or larger than Paths returns every column.
func (m *PathMatrix) Trajectories(limit int) [][]float64 {
	n := m.Paths()
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([][]float64, n)
	for i := range out {
		out[i] = m.Trajectory(i)
	}
	return out
}

// row exposes the backing storage of a single day to the simulator.
func (m *PathMatrix) row(day int) []float64 {
	return m.data.RawRowView(day)
}
