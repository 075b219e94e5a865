package render

import (
	"errors"
	"fmt"
	"strconv"

	"mcsim/internal/gbm"
	"mcsim/internal/stats"

	"github.com/vicanso/go-charts/v2"
)

const (
	// MaxTraces is the number of trajectories drawn on the paths chart.
	MaxTraces = 100
	// HistogramBins is the bin count of the final price histogram.
	HistogramBins = 50
)

// PathsChart renders the first MaxTraces trajectories as line series
// against the day index.
func PathsChart(m *gbm.PathMatrix) ([]byte, error) {
	if m == nil {
		return nil, errors.New("no paths to draw")
	}
	traces := m.Trajectories(MaxTraces)

	days := make([]string, m.Days())
	for i := range days {
		days[i] = strconv.Itoa(i)
	}

	yMin, yMax := traces[0][0], traces[0][0]
	for _, tr := range traces {
		for _, v := range tr {
			yMin = min(yMin, v)
			yMax = max(yMax, v)
		}
	}
	pad := (yMax - yMin) * 0.05
	yMin = max(yMin-pad, 0)
	yMax += pad

	split := min(10, max(1, m.Days()-1))

	painter, err := charts.LineRender(traces,
		charts.TitleTextOptionFunc("Simulated price paths", fmt.Sprintf("%d of %d trajectories", len(traces), m.Paths())),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: days, BoundaryGap: charts.FalseFlag(), SplitNumber: split}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, fmt.Errorf("render paths chart: %w", err)
	}
	return painter.Bytes()
}

// HistogramChart renders the distribution of final prices in HistogramBins
// bins. A second series marks the bins holding the expected price and VaR95.
func HistogramChart(final []float64, s stats.Summary) ([]byte, error) {
	h, err := stats.NewHistogram(final, HistogramBins)
	if err != nil {
		return nil, err
	}

	counts := make([]float64, h.Bins())
	labels := make([]string, h.Bins())
	for i, c := range h.Counts {
		counts[i] = float64(c)
		labels[i] = fmt.Sprintf("%.0f", h.Center(i))
	}
	markers := MarkerSeries(h, s)

	painter, err := charts.BarRender([][]float64{counts, markers},
		charts.TitleTextOptionFunc("Final price distribution",
			fmt.Sprintf("mean %.2f | VaR 95%% %.2f", s.ExpectedPrice, s.VaR95)),
		charts.XAxisDataOptionFunc(labels),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"final prices", "mean / VaR 95%"}}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, fmt.Errorf("render histogram: %w", err)
	}
	return painter.Bytes()
}

// MarkerSeries is zero everywhere except the bins containing the expected
// price and VaR95, which are raised to the tallest bin.
func MarkerSeries(h stats.Histogram, s stats.Summary) []float64 {
	markers := make([]float64, h.Bins())
	top := float64(h.Max())
	markers[h.BinOf(s.ExpectedPrice)] = top
	markers[h.BinOf(s.VaR95)] = top
	return markers
}
